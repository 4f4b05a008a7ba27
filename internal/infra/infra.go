// Package infra provides shared infrastructure components used across
// the pipeline: HTTP utilities and request throttling.
package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// httpClient is the shared client for all outbound requests. Per-call
// deadlines come from the request context.
var httpClient = &http.Client{}

// DoGet performs an HTTP GET and returns the response body, the status
// code, and an error for transport failures or non-2xx statuses. The
// caller must close the returned body on success.
func DoGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http get: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, resp.StatusCode, fmt.Errorf("http get: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return resp.Body, resp.StatusCode, nil
}

// --- Request throttle ---

// Throttle serializes outbound requests with a fixed minimum interval
// between them. The first call passes immediately; each subsequent call
// blocks until the interval has elapsed since the previous one.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewThrottle creates a throttle with the given minimum interval.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Wait blocks until the interval since the previous request has elapsed
// or the context is cancelled.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		if remaining := t.interval - time.Since(t.last); remaining > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(remaining):
			}
		}
	}
	t.last = time.Now()
	return nil
}
