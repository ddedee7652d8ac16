// Package cache provides a TTL response cache keyed by request content.
// Identical in-flight requests are collapsed into one upstream call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader produces the value for a key on cache miss.
type Loader[V any] func(ctx context.Context) (V, error)

type item[V any] struct {
	value   V
	expires time.Time
}

// Cache is a concurrency-safe TTL cache. Lookups that miss share a single
// loader call per key via singleflight, so a burst of identical requests
// costs one upstream completion.
type Cache[V any] struct {
	ttl time.Duration

	mu    sync.Mutex
	items map[string]item[V]

	group singleflight.Group
}

// New creates a cache with the given entry lifetime.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:   ttl,
		items: make(map[string]item[V]),
	}
}

// Get returns the cached value for key, loading and storing it on miss.
// Loader failures are not cached.
func (c *Cache[V]) Get(ctx context.Context, key string, load Loader[V]) (V, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have stored the
		// value while this one waited its turn.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache[V]) lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(it.expires) {
		delete(c.items, key)
		var zero V
		return zero, false
	}
	return it.value, true
}

func (c *Cache[V]) store(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item[V]{value: v, expires: time.Now().Add(c.ttl)}
}

// Key derives a stable cache key from any JSON-encodable request shape.
func Key(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Marshal only fails on unsupported types; fall back to a key that
		// never collides with real entries.
		return "unkeyable"
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
