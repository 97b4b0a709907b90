package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/labsense/internal/collab"
)

func testFetchGuard() *collab.Guard {
	return collab.NewGuard(collab.Options{
		Name:            "fetch",
		Timeout:         5 * time.Second,
		Retries:         2,
		Backoff:         time.Millisecond,
		BreakerFailures: 10,
		Logger:          zerolog.Nop(),
	})
}

func TestFetchWithRetry_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent", 1<<20, testFetchGuard())
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL+"/reports/42")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result.Body) != "<html><body>OK</body></html>" {
		t.Errorf("Unexpected body: %s", result.Body)
	}
	if result.Name != "42.html" {
		t.Errorf("Unexpected name: %s", result.Name)
	}
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = fmt.Fprint(w, "%PDF-1.4")
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent", 1<<20, testFetchGuard())
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL+"/download")
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if result.Name != "download.pdf" {
		t.Errorf("Unexpected name: %s", result.Name)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent", 1<<20, testFetchGuard())
	_, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	if !strings.Contains(err.Error(), "unexpected status: 404") {
		t.Errorf("Unexpected error: %s", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("404 is not retryable, got %d attempts", attempts.Load())
	}
}

func TestFetchWithRetry_AllRetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent", 1<<20, testFetchGuard())
	if _, err := fetcher.FetchWithRetry(context.Background(), server.URL); err == nil {
		t.Fatal("Expected error after all retries exhausted")
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestIsRetryableStatus(t *testing.T) {
	tests := []struct {
		code      int
		retryable bool
	}{
		{503, true},
		{500, true},
		{502, true},
		{429, true},
		{404, false},
		{403, false},
		{401, false},
	}

	for _, tt := range tests {
		if got := isRetryableStatus(tt.code); got != tt.retryable {
			t.Errorf("isRetryableStatus(%d) = %v, want %v", tt.code, got, tt.retryable)
		}
	}
}

func TestDocumentName(t *testing.T) {
	tests := []struct {
		url, contentType, want string
	}{
		{"https://lab.example/r/cbc.pdf", "application/octet-stream", "cbc.pdf"},
		{"https://lab.example/r/123", "text/html; charset=utf-8", "123.html"},
		{"https://lab.example/", "text/plain", "report.txt"},
		{"https://lab.example/view", "application/pdf", "view.pdf"},
	}

	for _, tt := range tests {
		if got := documentName(tt.url, tt.contentType); got != tt.want {
			t.Errorf("documentName(%q, %q) = %q, want %q", tt.url, tt.contentType, got, tt.want)
		}
	}

	if !isURL("https://x") || isURL("report.pdf") {
		t.Error("isURL misclassified")
	}
}
