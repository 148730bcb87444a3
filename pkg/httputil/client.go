package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/matzehuels/pyboot/pkg/buildinfo"
	errs "github.com/matzehuels/pyboot/pkg/errors"
	"github.com/matzehuels/pyboot/pkg/observability"
)

const (
	DefaultTimeout  = 30 * time.Second // Per-request timeout
	DefaultWaitMin  = 500 * time.Millisecond
	DefaultWaitMax  = 10 * time.Second
	maxDocumentSize = 64 << 20
)

// Options configures a Client.
type Options struct {
	Timeout   time.Duration        // Per-request timeout (default: 30s)
	Retries   int                  // Extra attempts on transient failures (default: 0)
	UserAgent string               // User-Agent header (default: pyboot/<version>)
	Headers   map[string]string    // Headers applied to every request
	HTTP      *http.Client         // Underlying client (optional, e.g. for tests)
	Logger    func(string, ...any) // Retry warnings (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = buildinfo.UserAgent()
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Response is a fully read GET response.
type Response struct {
	URL         string // Final URL after redirects
	ContentType string
	Body        []byte
}

// Client performs GET, HEAD and ranged GET requests.
// It is safe for concurrent use.
type Client struct {
	rc      *retryablehttp.Client
	ua      string
	headers map[string]string
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	opts = opts.WithDefaults()

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.Retries
	rc.RetryWaitMin = DefaultWaitMin
	rc.RetryWaitMax = DefaultWaitMax
	rc.Logger = leveledLogger{logf: opts.Logger}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.HTTP != nil {
		rc.HTTPClient = opts.HTTP
	} else {
		rc.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{rc: rc, ua: opts.UserAgent, headers: opts.Headers}
}

// Get fetches url and returns its body. headers are merged over the client
// defaults.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	resp, err := c.do(ctx, http.MethodGet, url, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(url, resp.StatusCode, http.StatusOK); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "read %s", url)
	}
	return &Response{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// Size issues a HEAD request and returns the Content-Length of url.
func (c *Client) Size(ctx context.Context, url string) (int64, error) {
	resp, err := c.do(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	if err := checkStatus(url, resp.StatusCode, http.StatusOK); err != nil {
		return 0, err
	}
	if resp.ContentLength < 0 {
		return 0, errs.New(errs.ErrCodeSizeUnknown, "no content length for %s", url)
	}
	return resp.ContentLength, nil
}

// Range fetches n bytes of url starting at off. The result is shorter than n
// only when the file ends first. Servers that ignore the Range header and
// answer 200 are tolerated by skipping to off in the full body.
func (c *Client) Range(ctx context.Context, url string, off, n int64) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	headers := map[string]string{"Range": fmt.Sprintf("bytes=%d-%d", off, off+n-1)}
	resp, err := c.do(ctx, http.MethodGet, url, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(url, resp.StatusCode, http.StatusPartialContent, http.StatusOK); err != nil {
		return nil, err
	}

	body := io.Reader(resp.Body)
	if resp.StatusCode == http.StatusOK && off > 0 {
		if _, err := io.CopyN(io.Discard, body, off); err != nil {
			return nil, errs.Wrap(errs.ErrCodeNetwork, err, "skip to offset %d of %s", off, url)
		}
	}

	data, err := io.ReadAll(io.LimitReader(body, n))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "read range of %s", url)
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, url string, headers map[string]string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "build request for %s", url)
	}
	req.Header.Set("User-Agent", c.ua)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host, path := req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.rc.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		hooks.OnError(ctx, method, host, path, err)
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "%s %s", method, url)
	}
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))
	return resp, nil
}

func checkStatus(url string, code int, ok ...int) error {
	for _, c := range ok {
		if code == c {
			return nil
		}
	}
	if code == http.StatusNotFound {
		return errs.New(errs.ErrCodeNotFound, "%s: status %d", url, code)
	}
	return errs.New(errs.ErrCodeNetwork, "%s: status %d", url, code)
}

// leveledLogger adapts a printf-style logger to retryablehttp.LeveledLogger.
// Only warnings and errors are forwarded; per-attempt debug lines are dropped.
type leveledLogger struct {
	logf func(string, ...any)
}

func (l leveledLogger) Error(msg string, kv ...any) { l.logf("http: %s %v", msg, kv) }
func (l leveledLogger) Warn(msg string, kv ...any)  { l.logf("http: %s %v", msg, kv) }
func (l leveledLogger) Info(string, ...any)         {}
func (l leveledLogger) Debug(string, ...any)        {}

var _ retryablehttp.LeveledLogger = leveledLogger{}
