// Package fetch downloads remote input files (taxonomy hierarchies and
// coverage matrices published over HTTP) with retry and an on-disk
// download cache, so repeated builds against the same dump do not
// re-download it.
package fetch

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/treeatlas/treeatlas/pkg/errors"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Transient failures (network errors, 5xx responses) are wrapped with
// this type so that [Retry] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors
// are returned immediately. The delay doubles after each failed
// attempt. Returns the last error if all attempts fail, or ctx.Err()
// if cancelled.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	return stderrors.As(err, new(*RetryableError))
}

// Client downloads remote inputs. The zero value is not usable; use
// [NewClient].
type Client struct {
	HTTP     *http.Client
	Attempts int
	Delay    time.Duration
	Cache    *Cache // nil disables download caching
}

// NewClient returns a client with 3 attempts, 1 second initial delay
// and a 60 second request timeout. cache may be nil.
func NewClient(cache *Cache) *Client {
	return &Client{
		HTTP:     &http.Client{Timeout: 60 * time.Second},
		Attempts: 3,
		Delay:    time.Second,
		Cache:    cache,
	}
}

// Fetch downloads url and returns the body. Cached downloads are
// served from disk without a request. Server errors and transport
// failures are retried; a 404 maps to a NOT_FOUND error immediately.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := errors.ValidateURL(url); err != nil {
		return nil, err
	}
	if c.Cache != nil {
		if data, ok, err := c.Cache.Get(url); err == nil && ok {
			return data, nil
		}
	}

	var body []byte
	err := Retry(ctx, c.Attempts, c.Delay, func() error {
		var ferr error
		body, ferr = c.fetchOnce(ctx, url)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	if c.Cache != nil {
		// A failed cache write only costs a re-download next run.
		_ = c.Cache.Set(url, body)
	}
	return body, nil
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidURL, err, "building request for %s", url)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "fetching %s", url)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "reading %s", url)}
		}
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrCodeNotFound, "%s returned 404", url)
	case resp.StatusCode >= 500:
		return nil, &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "%s returned %s", url, resp.Status)}
	default:
		return nil, errors.New(errors.ErrCodeNetwork, "%s returned %s", url, resp.Status)
	}
}
