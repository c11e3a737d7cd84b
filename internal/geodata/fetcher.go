package geodata

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// Fetcher 下载远程文件内容到内存
//
// The whole body is read before anything is handed to a target, so a
// half-finished transfer can never reach a deployed path.
type Fetcher struct {
	httpc *http.Client
}

// NewFetcher creates a fetcher with a per-request timeout. Zero timeout
// falls back to 15 seconds.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{httpc: &http.Client{Timeout: timeout}}
}

// Fetch retrieves url fully into memory. Any network error, non-2xx status
// or body read failure surfaces as *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	resp, err := f.httpc.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: url, Err: errors.New(resp.Status)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return data, nil
}
