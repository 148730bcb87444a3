package resolver

import (
	"context"
	"time"

	"github.com/matzehuels/pyboot/pkg/cache"
	"github.com/matzehuels/pyboot/pkg/httputil"
	"github.com/matzehuels/pyboot/pkg/pep508"
	"github.com/matzehuels/pyboot/pkg/zipremote"
)

const (
	DefaultPythonVersion = "3.11"
	DefaultCacheTTL      = time.Hour
)

// DefaultTags accepts pure-Python wheels.
var DefaultTags = []string{"py3", "any"}

// ArchiveOpener opens remote archives by URL.
type ArchiveOpener interface {
	Open(ctx context.Context, url string) (*zipremote.Archive, error)
}

// Options configures a Resolver.
type Options struct {
	Index                string               // Default index base URL (required)
	Tags                 []string             // Accepted wheel tags (default: py3, any)
	Env                  pep508.Env           // Marker environment (default: host with Python 3.11)
	PropagateConstraints bool                 // Apply transitive version constraints
	HTTP                 *httputil.Client     // Transport for index pages and archives
	Cache                cache.Cache          // Index page and metadata cache (default: none)
	CacheTTL             time.Duration        // Cache lifetime (default: 1h)
	Keys                 cache.Keyer          // Cache key namespace
	TailWindow           int                  // EOCD search window (default: zipremote.DefaultTailWindow)
	Archive              ArchiveOpener        // Archive reader (default: zipremote.Opener over HTTP)
	Logger               func(string, ...any) // Progress callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if len(opts.Tags) == 0 {
		opts.Tags = DefaultTags
	}
	if opts.Env == nil {
		opts.Env = pep508.DefaultEnv(DefaultPythonVersion)
	}
	if opts.HTTP == nil {
		opts.HTTP = httputil.NewClient(httputil.Options{})
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Archive == nil {
		opts.Archive = &zipremote.Opener{
			HTTP:    opts.HTTP,
			Options: zipremote.Options{TailWindow: opts.TailWindow},
		}
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}
