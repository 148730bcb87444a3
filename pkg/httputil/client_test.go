package httputil

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	errs "github.com/matzehuels/pyboot/pkg/errors"
)

var payload = []byte("0123456789abcdefghijklmnopqrstuvwxyz")

func rangeServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/file.whl":
			http.ServeContent(w, r, "file.whl", time.Time{}, bytes.NewReader(payload))
		case "/norange.whl":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(payload)
		case "/page/":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>" + r.Header.Get("Accept") + "</html>"))
		case "/redirect":
			http.Redirect(w, r, "/page/", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Size(t *testing.T) {
	srv := rangeServer(t)
	c := NewClient(Options{})

	size, err := c.Size(context.Background(), srv.URL+"/file.whl")
	if err != nil {
		t.Fatalf("Size() error: %v", err)
	}
	if size != int64(len(payload)) {
		t.Errorf("Size() = %d, want %d", size, len(payload))
	}
}

func TestClient_SizeNotFound(t *testing.T) {
	srv := rangeServer(t)
	c := NewClient(Options{})

	_, err := c.Size(context.Background(), srv.URL+"/missing.whl")
	if !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("Size() error = %v, want NOT_FOUND", err)
	}
}

func TestClient_SizeUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}))
	defer srv.Close()

	c := NewClient(Options{})
	_, err := c.Size(context.Background(), srv.URL)
	if !errs.Is(err, errs.ErrCodeSizeUnknown) {
		t.Errorf("Size() error = %v, want SIZE_UNKNOWN", err)
	}
}

func TestClient_Range(t *testing.T) {
	srv := rangeServer(t)
	c := NewClient(Options{})
	ctx := context.Background()

	tests := []struct {
		name string
		path string
		off  int64
		n    int64
		want string
	}{
		{"partial content", "/file.whl", 10, 6, "abcdef"},
		{"from start", "/file.whl", 0, 4, "0123"},
		{"past end is truncated", "/file.whl", 30, 20, "uvwxyz"},
		{"server ignores range", "/norange.whl", 10, 6, "abcdef"},
		{"server ignores range at start", "/norange.whl", 0, 3, "012"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Range(ctx, srv.URL+tt.path, tt.off, tt.n)
			if err != nil {
				t.Fatalf("Range() error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Range() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClient_RangeZeroLength(t *testing.T) {
	c := NewClient(Options{})
	got, err := c.Range(context.Background(), "http://unused.invalid/x", 0, 0)
	if err != nil || got != nil {
		t.Errorf("Range(n=0) = %v, %v; want nil, nil", got, err)
	}
}

func TestClient_GetFollowsRedirects(t *testing.T) {
	srv := rangeServer(t)
	c := NewClient(Options{})

	resp, err := c.Get(context.Background(), srv.URL+"/redirect", map[string]string{"Accept": "text/html"})
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !strings.HasSuffix(resp.URL, "/page/") {
		t.Errorf("URL = %s, want final redirect target", resp.URL)
	}
	if resp.ContentType != "text/html" {
		t.Errorf("ContentType = %q", resp.ContentType)
	}
	if string(resp.Body) != "<html>text/html</html>" {
		t.Errorf("Body = %q", resp.Body)
	}
}

func TestClient_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Options{})
	_, err := c.Get(context.Background(), srv.URL, nil)
	if !errs.Is(err, errs.ErrCodeNetwork) {
		t.Errorf("Get() error = %v, want NETWORK_ERROR", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}

func TestClient_RetriesWhenEnabled(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(Options{Retries: 2})
	c.rc.RetryWaitMin = time.Millisecond
	c.rc.RetryWaitMax = time.Millisecond

	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("Body = %q", resp.Body)
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2", calls.Load())
	}
}

func TestClient_SendsUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c := NewClient(Options{UserAgent: "pyboot-test/1"})
	if _, err := c.Get(context.Background(), srv.URL, nil); err != nil {
		t.Fatal(err)
	}
	if ua != "pyboot-test/1" {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{Retries: -3}.WithDefaults()
	if opts.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", opts.Timeout, DefaultTimeout)
	}
	if opts.Retries != 0 {
		t.Errorf("Retries = %d, want 0", opts.Retries)
	}
	if !strings.HasPrefix(opts.UserAgent, "pyboot/") {
		t.Errorf("UserAgent = %q", opts.UserAgent)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a no-op")
	}
}
