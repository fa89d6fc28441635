// Package submit carries the report out of the form: either a prefilled
// new-issue URL the embedding page redirects to, or a direct authenticated
// call against the issues API plus the image uploads it depends on.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Issue is the tracker's response to a successful creation call.
type Issue struct {
	Number    int       `json:"number"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
}

// NewIssueURL builds the prefilled "new issue" redirect for the
// unauthenticated path. base is the tracker's new-issue page.
func NewIssueURL(base, title, body string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("submit: parse issue url: %w", err)
	}
	query := parsed.Query()
	query.Set("title", title)
	query.Set("body", body)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// IssueClient creates issues directly against the tracker API when the user
// is authenticated.
type IssueClient struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewIssueClient constructs an IssueClient. A nil http client falls back to
// http.DefaultClient.
func NewIssueClient(endpoint, token string, client *http.Client) (*IssueClient, error) {
	if endpoint == "" {
		return nil, errors.New("submit: issues endpoint is required")
	}
	if token == "" {
		return nil, errors.New("submit: token is required for direct issue creation")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &IssueClient{endpoint: endpoint, token: token, client: client}, nil
}

// Create posts {title, body} and decodes the created issue.
func (c *IssueClient) Create(ctx context.Context, title, body string) (Issue, error) {
	payload, err := json.Marshal(map[string]string{
		"title": title,
		"body":  body,
	})
	if err != nil {
		return Issue{}, fmt.Errorf("submit: marshal issue: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Issue{}, fmt.Errorf("submit: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return Issue{}, fmt.Errorf("submit: do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Issue{}, &IssueCreationError{
			StatusCode: resp.StatusCode,
			Body:       string(detail),
		}
	}

	var issue Issue
	if err := json.NewDecoder(resp.Body).Decode(&issue); err != nil {
		return Issue{}, fmt.Errorf("submit: decode issue: %w", err)
	}
	return issue, nil
}
