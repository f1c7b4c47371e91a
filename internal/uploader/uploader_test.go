package uploader

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"msgwrapped/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestUpload_Success(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"id":"abc123"}`))
	}))
	defer server.Close()

	c := New(testLogger(), 0)
	id, err := c.Upload(context.Background(), server.URL, []byte{0xde, 0xad, 0xbe, 0xef})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != "abc123" {
		t.Errorf("id = %q", id)
	}
	if gotPath != "/api/upload" {
		t.Errorf("path = %q", gotPath)
	}
	if gotContentType != "application/octet-stream" {
		t.Errorf("content type = %q", gotContentType)
	}
	if !bytes.Equal(gotBody, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Errorf("body = %x", gotBody)
	}
}

func TestUpload_HTTPStatusCarriesCodeAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("oops"))
	}))
	defer server.Close()

	c := New(testLogger(), 0)
	_, err := c.Upload(context.Background(), server.URL, []byte("x"))
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if kind, ok := domain.NetworkKind(err); !ok || kind != domain.NetHTTPStatus {
		t.Errorf("expected HttpStatus kind, got %q", kind)
	}
	msg := err.Error()
	if !strings.Contains(msg, "500") {
		t.Errorf("message should contain the status code: %q", msg)
	}
	if !strings.Contains(msg, "oops") {
		t.Errorf("message should contain the response body: %q", msg)
	}
}

func TestUpload_EmptyErrorBodyGetsPlaceholder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := New(testLogger(), 0)
	_, err := c.Upload(context.Background(), server.URL, []byte("x"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no error details provided") {
		t.Errorf("expected placeholder for empty body: %q", err.Error())
	}
}

func TestUpload_TimeoutDistinctFromConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	c := New(testLogger(), 50*time.Millisecond)
	_, err := c.Upload(context.Background(), server.URL, []byte("x"))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	kind, ok := domain.NetworkKind(err)
	if !ok || kind != domain.NetTimeout {
		t.Errorf("expected Timeout kind, got %q", kind)
	}
}

func TestUpload_ConnectionFailed(t *testing.T) {
	// Nothing listens on this port.
	c := New(testLogger(), time.Second)
	_, err := c.Upload(context.Background(), "http://127.0.0.1:1", []byte("x"))
	if err == nil {
		t.Fatal("expected connection error")
	}
	kind, ok := domain.NetworkKind(err)
	if !ok || kind != domain.NetConnectionFailed {
		t.Errorf("expected ConnectionFailed kind, got %q", kind)
	}
}

func TestUpload_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	c := New(testLogger(), 0)
	_, err := c.Upload(context.Background(), server.URL, []byte("x"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	kind, ok := domain.NetworkKind(err)
	if !ok || kind != domain.NetMalformedResponse {
		t.Errorf("expected MalformedResponse kind, got %q", kind)
	}
}

func TestUpload_MissingIDTolerated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"stored"}`))
	}))
	defer server.Close()

	c := New(testLogger(), 0)
	id, err := c.Upload(context.Background(), server.URL, []byte("x"))
	if err != nil {
		t.Fatalf("missing id must not fail the upload: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty id, got %q", id)
	}
}

func TestUpload_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(testLogger(), 0)
	if _, err := c.Upload(ctx, server.URL, []byte("x")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestShareLink(t *testing.T) {
	link := ShareLink("https://example.test", "abc123", "a2V5LWJ5dGVz")
	want := "https://example.test/s/abc123#a2V5LWJ5dGVz"
	if link != want {
		t.Errorf("link = %q, want %q", link, want)
	}
}

func TestShareLink_EmptyID(t *testing.T) {
	link := ShareLink("https://example.test", "", "a2V5")
	if link != "https://example.test/s/#a2V5" {
		t.Errorf("degenerate link = %q", link)
	}
}
