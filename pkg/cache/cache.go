// Package cache provides byte-oriented caches for index pages and package
// metadata.
//
// Three backends implement [Cache]:
//
//   - [NullCache]: stores nothing; used with --no-cache and in tests
//   - [MemoryCache]: bounded in-process LRU with per-entry expiry (default)
//   - [RedisCache]: shared cache for several pyboot processes
//
// Archives themselves are never cached; only the small documents the resolver
// derives from them (index links, METADATA headers) are.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/matzehuels/pyboot/pkg/observability"
)

// ErrCacheMiss is returned by [GetJSON] when the key is not present.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores opaque values under string keys.
//
// Get reports (nil, false, nil) on a miss. A ttl of zero in Set means the
// entry does not expire on its own (backends may still evict it).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Flusher is implemented by backends that can drop every entry they own.
type Flusher interface {
	Flush(ctx context.Context) error
}

// GetJSON reads key and unmarshals it into v.
// keyType labels the lookup for [observability.CacheHooks].
func GetJSON(ctx context.Context, c Cache, keyType, key string, v any) error {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, keyType)
		return ErrCacheMiss
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, c Cache, keyType, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return nil
}

// Cached returns the cached value for key, or runs fetch and caches what it
// produced. fetch must populate v. Cache write failures are ignored.
func Cached(ctx context.Context, c Cache, keyType, key string, ttl time.Duration, v any, fetch func() error) error {
	if err := GetJSON(ctx, c, keyType, key, v); err == nil {
		return nil
	}
	if err := fetch(); err != nil {
		return err
	}
	_ = SetJSON(ctx, c, keyType, key, v, ttl)
	return nil
}

// NullCache is a no-op cache that never stores anything.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get always returns a cache miss.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close does nothing.
func (c *NullCache) Close() error {
	return nil
}

var _ Cache = (*NullCache)(nil)
