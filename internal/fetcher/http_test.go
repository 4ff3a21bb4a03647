package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"autoveille/internal/config"
	"autoveille/internal/observability"
	"autoveille/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testConfig() *config.FetcherConfig {
	cfg := config.DefaultConfig().Fetcher
	cfg.MaxRetries = 2
	cfg.RetryBaseDelay = time.Millisecond
	return &cfg
}

func TestFetchRetriesTransientStatus(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "<html><body>ok</body></html>")
	}))
	defer server.Close()

	metrics := observability.NewMetrics(testLogger)
	client, err := NewClient(testConfig(), metrics, testLogger)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()

	page, err := client.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !page.IsSuccess() {
		t.Errorf("status = %d, want 2xx", page.StatusCode)
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2 (one retry)", hits.Load())
	}
	if metrics.FetchesRetried.Load() != 1 {
		t.Errorf("retry counter = %d, want 1", metrics.FetchesRetried.Load())
	}
}

func TestFetchClientErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	metrics := observability.NewMetrics(testLogger)
	client, err := NewClient(testConfig(), metrics, testLogger)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()

	_, err = client.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for HTTP 404")
	}

	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *types.FetchError", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", fe.StatusCode)
	}
	if fe.IsRetryable() {
		t.Error("HTTP 404 must not be retryable")
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}
	if metrics.FetchesRetried.Load() != 0 {
		t.Errorf("retry counter = %d, want 0", metrics.FetchesRetried.Load())
	}
}

func TestFetchExhaustedRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	metrics := observability.NewMetrics(testLogger)
	client, err := NewClient(testConfig(), metrics, testLogger)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()

	_, err = client.Fetch(context.Background(), server.URL)
	if !errors.Is(err, types.ErrMaxRetries) {
		t.Errorf("error = %v, want ErrMaxRetries", err)
	}
	if metrics.FetchesRetried.Load() != 2 {
		t.Errorf("retry counter = %d, want 2", metrics.FetchesRetried.Load())
	}
}
