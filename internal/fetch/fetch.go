// Package fetch downloads installer scripts and signing keys over HTTPS.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/alexisbeaulieu97/devstrap/internal/logger"
)

const (
	defaultTimeout = 2 * time.Minute
	// DefaultMaxBytes bounds a single download.
	DefaultMaxBytes int64 = 64 << 20
)

// Fetcher retrieves a remote resource in full.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher is a Fetcher over net/http.
type HTTPFetcher struct {
	client   *http.Client
	log      *logger.Logger
	maxBytes int64
}

// Option customises an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

// WithMaxBytes changes the download size limit.
func WithMaxBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		f.maxBytes = n
	}
}

// NewHTTPFetcher returns a fetcher using a non-shared client.
func NewHTTPFetcher(log *logger.Logger, opts ...Option) *HTTPFetcher {
	client := cleanhttp.DefaultClient()
	client.Timeout = defaultTimeout
	f := &HTTPFetcher{client: client, log: log, maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a GET and returns the body. Non-2xx responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "devstrap")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("GET %s: response exceeds %s", url, humanize.IBytes(uint64(f.maxBytes)))
	}

	f.log.Debugf("downloaded %s (%s)", url, humanize.Bytes(uint64(len(data))))
	return data, nil
}
