// Package cache stores rendered mind-map artifacts between runs.
//
// # Overview
//
// Rendering a map runs the editor, the layout primitive and Graphviz. The
// result only depends on the input document and the render options, so the
// pipeline hashes both into a key and keeps the bytes in a [Cache]:
//
//	c, _ := cache.NewFileCache(dir)
//	k := cache.NewDefaultKeyer()
//	key := k.ArtifactKey(layoutHash, cache.ArtifactKeyOpts{Format: "svg"})
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: disables caching
//
// Wrap any backend with [Observe] to report hits, misses and writes to the
// registered observability hooks.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/mindmap/pkg/observability"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Observe wraps c so that every lookup and write fires the cache hooks.
// The key type reported to the hooks is the key's first segment ("layout",
// "artifact"), with any scope prefix removed.
func Observe(c Cache) Cache {
	return &observed{Cache: c}
}

type observed struct {
	Cache
}

func (o *observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := o.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, ok, err
}

func (o *observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := o.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

func keyType(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return key
	}
	return parts[len(parts)-2]
}
