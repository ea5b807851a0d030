package source

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSource(url string, retries int) *HTTPSource {
	s := NewHTTPSource(HTTPConfig{URL: url, Timeout: 2 * time.Second, MaxRetries: retries, Logger: testLogger()})
	s.retry.base = time.Millisecond
	return s
}

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total":1,"items":[{"user_name":"Ana","message":"I have two cars"}]}`))
	}))
	defer srv.Close()

	records, err := newTestSource(srv.URL, 0).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if name, _ := records[0].String("user_name"); name != "Ana" {
		t.Errorf("expected Ana, got %q", name)
	}
}

func TestHTTPSource_SendsBearerKey(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	s := NewHTTPSource(HTTPConfig{URL: srv.URL, APIKey: "token-123", Logger: testLogger()})
	if _, err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != "Bearer token-123" {
		t.Errorf("expected bearer header, got %q", got)
	}
}

func TestHTTPSource_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"user":"Ben","text":"ok"}]`))
	}))
	defer srv.Close()

	records, err := newTestSource(srv.URL, 3).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 || calls.Load() != 3 {
		t.Fatalf("expected success on third call, got %d records after %d calls", len(records), calls.Load())
	}
}

func TestHTTPSource_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := newTestSource(srv.URL, 2).Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestHTTPSource_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestSource(srv.URL, 2).Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var re *retryableError
	if !errors.As(err, &re) || re.statusCode != http.StatusInternalServerError {
		t.Fatalf("expected retryableError with 500, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestHTTPSource_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestSource(srv.URL, 3).Fetch(context.Background())
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx should not be retried, got %d calls", calls.Load())
	}
}

func TestHTTPSource_UnexpectedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"hello"`))
	}))
	defer srv.Close()

	_, err := newTestSource(srv.URL, 0).Fetch(context.Background())
	if !errors.Is(err, ErrUnexpectedShape) {
		t.Fatalf("expected ErrUnexpectedShape, got %v", err)
	}
}

func TestHTTPSource_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := newTestSource(srv.URL, 3)
	s.retry.base = time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.Fetch(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestHTTPSource_Name(t *testing.T) {
	s := NewHTTPSource(HTTPConfig{URL: "http://example.test/messages"})
	if s.Name() != "http://example.test/messages" {
		t.Errorf("unexpected name %q", s.Name())
	}
}
