// Package fetcher downloads SEC EDGAR documents with per-host rate limiting
// and retry. EDGAR enforces a 10 req/s ceiling per client and requires a
// User-Agent identifying the caller; the defaults here comply with both.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)

	// DownloadJSON fetches the URL and decodes the JSON response into v.
	DownloadJSON(ctx context.Context, url string, v any) error
}
