package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
)

const (
	// MaxAssetBytes caps a single image file.
	MaxAssetBytes int64 = 1_048_576
	// MaxBatchSize caps files per upload request. Batches run one after
	// another, never concurrently, to bound in-flight request size.
	MaxBatchSize = 7
	// MaxScreenshots caps the total in-game screenshot selection.
	MaxScreenshots = 7
)

// Asset is one image file queued for upload.
type Asset struct {
	Name    string
	Content []byte
}

// Uploader posts image batches to the upload endpoint and collects the
// returned URLs.
type Uploader struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewUploader constructs an Uploader. A nil client falls back to
// http.DefaultClient.
func NewUploader(endpoint, token string, client *http.Client) (*Uploader, error) {
	if endpoint == "" {
		return nil, errors.New("submit: upload endpoint is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Uploader{endpoint: endpoint, token: token, client: client}, nil
}

// ValidateAssets runs the pre-flight checks: per-file size and total count.
// No network call happens when validation fails.
func ValidateAssets(assets []Asset, limit int) error {
	if limit > 0 && len(assets) > limit {
		return &TooManyAssetsError{Count: len(assets), Limit: limit}
	}
	for _, asset := range assets {
		if size := int64(len(asset.Content)); size > MaxAssetBytes {
			return &AssetTooLargeError{Name: asset.Name, Size: size, Limit: MaxAssetBytes}
		}
	}
	return nil
}

// Upload validates the assets and sends them in sequential batches of at
// most MaxBatchSize, returning the uploaded URLs in input order. Stage names
// the originating control for error reporting.
func (u *Uploader) Upload(ctx context.Context, stage string, assets []Asset) ([]string, error) {
	if len(assets) == 0 {
		return nil, nil
	}
	if err := ValidateAssets(assets, 0); err != nil {
		return nil, err
	}

	var urls []string
	for start := 0; start < len(assets); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(assets) {
			end = len(assets)
		}
		batch, err := u.uploadBatch(ctx, assets[start:end])
		if err != nil {
			return nil, &UploadError{Stage: stage, Err: err}
		}
		urls = append(urls, batch...)
	}
	return urls, nil
}

type uploadResponse struct {
	Results []struct {
		URL string `json:"url"`
	} `json:"results"`
}

func (u *Uploader) uploadBatch(ctx context.Context, assets []Asset) ([]string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, asset := range assets {
		part, err := writer.CreateFormFile("images", asset.Name)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(asset.Content); err != nil {
			return nil, fmt.Errorf("write form file: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	urls := make([]string, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		urls = append(urls, result.URL)
	}
	return urls, nil
}
