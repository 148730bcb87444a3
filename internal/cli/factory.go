package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"

	"github.com/matzehuels/pyboot/pkg/buildinfo"
	"github.com/matzehuels/pyboot/pkg/cache"
	errs "github.com/matzehuels/pyboot/pkg/errors"
	"github.com/matzehuels/pyboot/pkg/httputil"
	"github.com/matzehuels/pyboot/pkg/pep508"
	"github.com/matzehuels/pyboot/pkg/resolver"
	"github.com/matzehuels/pyboot/pkg/simpleindex"
	"github.com/matzehuels/pyboot/pkg/zipremote"
)

// =============================================================================
// Factories
// =============================================================================

// cacheKeyPrefix namespaces every key pyboot writes to a shared backend.
const cacheKeyPrefix = appName + ":"

// newCache opens the configured cache backend.
func newCache(ctx context.Context, cfg Config) (cache.Cache, error) {
	switch cfg.CacheBackend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:   cfg.RedisAddr,
			DB:     cfg.RedisDB,
			Prefix: cacheKeyPrefix,
		})
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "open redis cache")
		}
		return c, nil
	default:
		c, err := cache.NewMemoryCache(0)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err, "create memory cache")
		}
		return c, nil
	}
}

func newHTTPClient(cfg Config, logger *log.Logger) *httputil.Client {
	return httputil.NewClient(httputil.Options{
		Timeout:   cfg.HTTPTimeout,
		Retries:   cfg.HTTPRetries,
		UserAgent: buildinfo.UserAgent(),
		Logger:    libLogger(logger),
	})
}

// newOpener builds the archive opener. s3:// URLs are served when an S3
// endpoint is configured.
func newOpener(cfg Config, client *httputil.Client) (*zipremote.Opener, error) {
	var s3 *minio.Client
	if cfg.S3.Endpoint != "" {
		var err error
		if s3, err = zipremote.NewS3Client(cfg.S3); err != nil {
			return nil, err
		}
	}
	return &zipremote.Opener{
		HTTP:    client,
		S3:      s3,
		Options: zipremote.Options{TailWindow: cfg.EOCDWindow},
	}, nil
}

func newIndexClient(cfg Config, client *httputil.Client, c cache.Cache) *simpleindex.Client {
	return simpleindex.NewClient(simpleindex.Options{
		HTTP:     client,
		Cache:    c,
		CacheTTL: cfg.CacheTTL,
		Keys:     cache.NewKeyer(cacheKeyPrefix),
	})
}

// session bundles what one command invocation needs. Close releases the
// cache backend.
type session struct {
	cfg    Config
	logger *log.Logger
	http   *httputil.Client
	cache  cache.Cache
	opener *zipremote.Opener
}

func (c *CLI) newSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig(c.config)
	if err != nil {
		return nil, err
	}
	logger := loggerFromContext(ctx)
	store, err := newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := newHTTPClient(cfg, logger)
	opener, err := newOpener(cfg, client)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, http: client, cache: store, opener: opener}, nil
}

func (s *session) Close() error {
	return s.cache.Close()
}

// resolver builds a Resolver for env and registers every extra index.
func (s *session) resolver(ctx context.Context, env pep508.Env, extra []string, propagate bool) (*resolver.Resolver, error) {
	r, err := resolver.New(resolver.Options{
		Index:                s.cfg.Index,
		Tags:                 s.cfg.Tags,
		Env:                  env,
		PropagateConstraints: propagate || s.cfg.Propagate,
		HTTP:                 s.http,
		Cache:                s.cache,
		CacheTTL:             s.cfg.CacheTTL,
		Keys:                 cache.NewKeyer(cacheKeyPrefix),
		TailWindow:           s.cfg.EOCDWindow,
		Archive:              s.opener,
		Logger:               libLogger(s.logger),
	})
	if err != nil {
		return nil, err
	}
	for _, u := range append(append([]string(nil), s.cfg.ExtraIndex...), extra...) {
		if err := r.AddIndex(ctx, u); err != nil {
			code := errs.GetCode(err)
			if code == "" {
				code = errs.ErrCodeNetwork
			}
			return nil, errs.Wrap(code, err, "extra index %s", u)
		}
	}
	return r, nil
}
