package simpleindex

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/pyboot/pkg/cache"
	errs "github.com/matzehuels/pyboot/pkg/errors"
	"github.com/matzehuels/pyboot/pkg/httputil"
)

// Accept prefers the PEP 691 JSON form and falls back to HTML.
const Accept = "application/vnd.pypi.simple.v1+json, application/vnd.pypi.simple.v1+html;q=0.2, text/html;q=0.1"

// Options configures a Client.
type Options struct {
	HTTP     *httputil.Client // Transport (default: httputil.NewClient with defaults)
	Cache    cache.Cache      // Page cache (default: cache.NullCache)
	CacheTTL time.Duration    // Page lifetime in the cache (default: 0, no expiry)
	Keys     cache.Keyer      // Cache key namespace
}

// Client fetches index pages. It is safe for concurrent use.
type Client struct {
	http  *httputil.Client
	cache cache.Cache
	ttl   time.Duration
	keys  cache.Keyer
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	if opts.HTTP == nil {
		opts.HTTP = httputil.NewClient(httputil.Options{})
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	return &Client{http: opts.HTTP, cache: opts.Cache, ttl: opts.CacheTTL, keys: opts.Keys}
}

// Links returns the anchors of the page at pageURL. A page that does not
// exist (404) has no links.
func (c *Client) Links(ctx context.Context, pageURL string) ([]Link, error) {
	if err := errs.ValidateURL(pageURL); err != nil {
		return nil, err
	}
	var links []Link
	err := cache.Cached(ctx, c.cache, "links", c.keys.LinksKey(pageURL), c.ttl, &links, func() error {
		var err error
		links, err = c.fetch(ctx, pageURL)
		return err
	})
	return links, err
}

func (c *Client) fetch(ctx context.Context, pageURL string) ([]Link, error) {
	resp, err := c.http.Get(ctx, pageURL, map[string]string{"Accept": Accept})
	if errs.Is(err, errs.ErrCodeNotFound) {
		return []Link{}, nil
	}
	if err != nil {
		return nil, err
	}
	if strings.Contains(resp.ContentType, "json") {
		return ParseJSON(resp.URL, resp.Body)
	}
	return ParseHTML(resp.URL, resp.Body)
}

// Directory maps normalized project names to the project pages of extra
// indexes. Later additions replace earlier ones for the same name. It is
// safe for concurrent use.
type Directory struct {
	mu    sync.RWMutex
	pages map[string]string
}

// NewDirectory returns an empty Directory.
func NewDirectory() *Directory {
	return &Directory{pages: make(map[string]string)}
}

// Add records every link as a project page, keyed by its label.
func (d *Directory) Add(links []Link) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range links {
		d.pages[NormalizeName(l.Label)] = l.URL
	}
}

// Lookup returns the project page registered for name.
func (d *Directory) Lookup(name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.pages[NormalizeName(name)]
	return u, ok
}

// Len returns the number of registered projects.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.pages)
}

// Load fetches the root page of an extra index and adds its projects to d.
func (c *Client) Load(ctx context.Context, d *Directory, indexURL string) (int, error) {
	links, err := c.Links(ctx, indexURL)
	if err != nil {
		return 0, err
	}
	d.Add(links)
	return len(links), nil
}
