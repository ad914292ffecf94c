// Package statuscache coalesces repeated status lookups within a short
// window. The watcher polls on its own cadence; this cache only serves the
// on-demand command path, so a burst of /status requests costs one upstream
// fetch.
package statuscache

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

type Cache[T any] struct {
	ttl   atomic.Int64 // nanoseconds
	store *gocache.Cache
	group singleflight.Group
}

func New[T any](ttl time.Duration) *Cache[T] {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	c := &Cache[T]{store: gocache.New(ttl, 5*time.Minute)}
	c.ttl.Store(int64(ttl))
	return c
}

// SetTTL changes the freshness window for future computes.
func (c *Cache[T]) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		c.ttl.Store(int64(ttl))
	}
}

// GetOrCompute returns the cached value for key, or runs fn once — even
// under concurrent callers — and caches its result for the TTL. Errors are
// not cached: the next caller retries.
func (c *Cache[T]) GetOrCompute(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.store.Get(key); ok {
		return v.(T), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another flight may have populated the cache while we queued.
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		val, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.store.Set(key, val, time.Duration(c.ttl.Load()))
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops a cached entry immediately.
func (c *Cache[T]) Invalidate(key string) { c.store.Delete(key) }
