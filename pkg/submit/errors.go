package submit

import (
	"fmt"
	"net/http"
)

// AssetTooLargeError rejects a file before any network call is made.
type AssetTooLargeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *AssetTooLargeError) Error() string {
	return fmt.Sprintf("submit: asset %q is %d bytes, limit is %d", e.Name, e.Size, e.Limit)
}

// TooManyAssetsError rejects a selection exceeding the screenshot cap.
type TooManyAssetsError struct {
	Count int
	Limit int
}

func (e *TooManyAssetsError) Error() string {
	return fmt.Sprintf("submit: %d assets selected, limit is %d", e.Count, e.Limit)
}

// UploadError names the upload stage that failed ("In-Game screenshots",
// "Additional Notes") so the notification can point at the right control.
type UploadError struct {
	Stage string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("submit: upload stage %q failed: %v", e.Stage, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// IssueCreationError reports a non-2xx response from the issues API.
type IssueCreationError struct {
	StatusCode int
	Body       string
}

func (e *IssueCreationError) Error() string {
	if e.AuthFailure() {
		return fmt.Sprintf("submit: issue creation rejected (status %d); sign in again and retry", e.StatusCode)
	}
	return fmt.Sprintf("submit: issue creation failed with status %d", e.StatusCode)
}

// AuthFailure distinguishes expired or missing credentials from generic
// server failures so the caller can surface a remediation message.
func (e *IssueCreationError) AuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
