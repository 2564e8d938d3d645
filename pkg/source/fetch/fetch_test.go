package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/treeatlas/treeatlas/pkg/errors"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "transient")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	perm := errors.New(errors.ErrCodeNotFound, "gone")
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return perm
	})
	if err != perm {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "still down")}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Minute, func() error {
		return &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "down")}
	})
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("parent_id\tid\n1\t2\n"))
	}))
	defer srv.Close()

	c := NewClient(nil)
	body, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "parent_id\tid\n1\t2\n" {
		t.Fatalf("body = %q", body)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(nil)
	c.Delay = time.Millisecond
	body, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "ok" || calls.Load() != 3 {
		t.Fatalf("body = %q calls = %d", body, calls.Load())
	}
}

func TestFetchNotFoundIsImmediate(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(nil)
	c.Delay = time.Millisecond
	_, err := c.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestFetchRejectsBadURL(t *testing.T) {
	c := NewClient(nil)
	if _, err := c.Fetch(context.Background(), "ftp://example.org/x"); !errors.Is(err, errors.ErrCodeInvalidURL) {
		t.Fatalf("err = %v, want INVALID_URL", err)
	}
}

func TestFetchUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("cached body"))
	}))
	defer srv.Close()

	cache, err := NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(cache)

	for range 3 {
		body, err := c.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if string(body) != "cached body" {
			t.Fatalf("body = %q", body)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (cache should serve repeats)", calls.Load())
	}
}

func TestCacheExpiry(t *testing.T) {
	cache, err := NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.Set("https://example.org/a", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := cache.Get("https://example.org/a"); !ok {
		t.Fatal("fresh entry should hit")
	}

	// Backdate the entry past its TTL.
	old := time.Now().Add(-2 * time.Hour)
	path := cache.keyPath("https://example.org/a")
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := cache.Get("https://example.org/a"); ok {
		t.Fatal("expired entry should miss")
	}
}
