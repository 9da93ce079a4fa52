package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultMaxBytes bounds downloads when no limit is configured.
const DefaultMaxBytes = 512 << 20

// HTTP downloads documents over http and https.
type HTTP struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTP creates an HTTP fetcher. maxBytes <= 0 means DefaultMaxBytes.
func NewHTTP(timeout time.Duration, maxBytes int64) *HTTP {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTP{client: &http.Client{Timeout: timeout}, maxBytes: maxBytes}
}

// Fetch implements Fetcher.
func (h *HTTP) Fetch(ctx context.Context, locator string) (*Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetchFailed, locator, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if int64(len(data)) > h.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFetchFailed, locator, h.maxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if u, err := url.Parse(locator); err == nil {
			if guess := typeByName(u.Path); guess != "" {
				contentType = guess
			}
		}
	}
	return &Object{Data: data, ContentType: contentType}, nil
}
