package template

import (
	"context"
	"io/fs"
	"net/http"
	"time"
)

// Loader fetches a template document from a Source.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// LoaderOptions configure the built-in loader implementation.
type LoaderOptions struct {
	// FileSystem backs SourceKindFS lookups.
	FileSystem fs.FS
	// HTTPClient is used for SourceKindURL fetches. When nil and
	// AllowHTTPFallback is set, a default client with RequestTimeout applied
	// is constructed.
	HTTPClient *http.Client
	// AllowHTTPFallback permits URL sources without an explicit client.
	AllowHTTPFallback bool
	// RequestTimeout bounds each remote fetch.
	RequestTimeout time.Duration
}

// NewLoaderOptions returns LoaderOptions with remote fetching enabled and a
// conservative timeout, matching how the form front end polls its template.
func NewLoaderOptions() LoaderOptions {
	return LoaderOptions{
		AllowHTTPFallback: true,
		RequestTimeout:    15 * time.Second,
	}
}
