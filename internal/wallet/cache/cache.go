// Package cache provides a process-local key/value cache with optional per-entry
// expiry. Eviction is lazy: an expired entry is removed by the read that finds it,
// so staleness is only ever observable as a miss.
package cache

import (
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiry
}

// Cache is safe for concurrent use. The last writer for a key wins.
type Cache[V any] struct {
	mu      sync.Mutex
	clock   time2.Clock
	entries map[string]entry[V]
	clone   func(V) V
	onEvict func(key string, value V)
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClone copies values on the way in and out so callers never share the cached
// instance. Used for byte slices holding secrets.
func WithClone[V any](clone func(V) V) Option[V] {
	return func(c *Cache[V]) {
		c.clone = clone
	}
}

// WithEvict registers a hook invoked with the cached value whenever an entry is
// removed, either by Delete, by an overwriting Set or by lazy expiry.
func WithEvict[V any](fn func(key string, value V)) Option[V] {
	return func(c *Cache[V]) {
		c.onEvict = fn
	}
}

// New creates an empty cache reading time from clock.
func New[V any](clock time2.Clock, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		clock:   clock,
		entries: make(map[string]entry[V]),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the value for key, or false if it is absent or expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	if !e.expiresAt.IsZero() && !c.clock.Now().Before(e.expiresAt) {
		c.removeLocked(key, e)
		return zero, false
	}

	if c.clone != nil {
		return c.clone(e.value), true
	}

	return e.value, true
}

// Set stores value under key. A ttl <= 0 keeps the entry until it is deleted.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.removeLocked(key, old)
	}

	if c.clone != nil {
		value = c.clone(value)
	}

	e := entry[V]{value: value}
	if ttl > 0 {
		e.expiresAt = c.clock.Now().Add(ttl)
	}
	c.entries[key] = e
}

// Delete removes key unconditionally and reports whether an entry existed.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok {
		c.removeLocked(key, e)
	}

	return ok
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *Cache[V]) removeLocked(key string, e entry[V]) {
	delete(c.entries, key)
	if c.onEvict != nil {
		c.onEvict(key, e.value)
	}
}
