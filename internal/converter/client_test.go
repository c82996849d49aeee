package converter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_Fetch_Success(t *testing.T) {
	const body = "proxies:\n  - name: test\n"
	var gotUA string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, "test-agent/1.0")
	got, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if got != body {
		t.Errorf("body = %q, want %q", got, body)
	}
	if gotUA != "test-agent/1.0" {
		t.Errorf("user agent = %q", gotUA)
	}
}

func TestClient_Fetch_TimeoutClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(50*time.Millisecond, "test-agent/1.0")
	_, err := c.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	var connErr *ConnectError
	if errors.As(err, &connErr) {
		t.Fatalf("timeout must not be reported as a connect failure")
	}
}

func TestClient_Fetch_ConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close() // nothing listens here any more

	c := NewClient(2*time.Second, "test-agent/1.0")
	_, err := c.Fetch(context.Background(), addr)

	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectError, got %v", err)
	}
	if !strings.Contains(connErr.Error(), connErr.Backend) {
		t.Errorf("error should name the unreachable backend: %v", connErr)
	}
}

func TestClient_Fetch_BackendError(t *testing.T) {
	long := strings.Repeat("x", 300)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(long))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, "test-agent/1.0")
	_, err := c.Fetch(context.Background(), srv.URL)

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if backendErr.Status != http.StatusBadGateway {
		t.Errorf("status = %d", backendErr.Status)
	}
	if len(backendErr.Snippet) != snippetLimit {
		t.Errorf("snippet length = %d, want %d", len(backendErr.Snippet), snippetLimit)
	}
}

func TestBackendOf(t *testing.T) {
	if got := backendOf("https://conv.example.com/sub?target=clash"); got != "https://conv.example.com" {
		t.Errorf("backendOf = %q", got)
	}
}
