package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Entry wraps a cached value with its absolute expiry. Entries are
// replaced on update, never mutated in place.
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// Expired reports whether the entry's TTL has elapsed.
func (e Entry[V]) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// LRU is a bounded in-memory cache with per-entry TTL on top of a true
// least-recently-used eviction order. Expired entries are evicted
// lazily on read; rate-limit fallback peeks them through GetEntry
// before performing the live read.
type LRU[V any] struct {
	storage    *lru.Cache[string, Entry[V]]
	defaultTTL time.Duration
	now        func() time.Time
}

// NewLRU creates a cache holding at most size entries, each valid for
// ttl unless overridden per Set.
func NewLRU[V any](size int, ttl time.Duration) *LRU[V] {
	// lru.New only fails on size <= 0.
	c, _ := lru.New[string, Entry[V]](size)
	return &LRU[V]{storage: c, defaultTTL: ttl, now: time.Now}
}

// Get returns the live value for key. An expired entry is a miss and
// is removed. Callers wanting it as a stale-fallback candidate must
// capture it through GetEntry first.
func (c *LRU[V]) Get(key string) (V, bool) {
	var zero V
	entry, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	if entry.Expired(c.now()) {
		c.storage.Remove(key)
		return zero, false
	}
	return entry.Value, true
}

// GetEntry returns the raw entry without touching recency or expiry.
// Callers use it to inspect stale values for rate-limit fallback.
func (c *LRU[V]) GetEntry(key string) (Entry[V], bool) {
	return c.storage.Peek(key)
}

// Set stores value under key with the cache's default TTL.
func (c *LRU[V]) Set(key string, value V) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores value under key with an explicit TTL.
func (c *LRU[V]) SetTTL(key string, value V, ttl time.Duration) {
	c.storage.Add(key, Entry[V]{Value: value, ExpiresAt: c.now().Add(ttl)})
}

// DefaultTTL returns the TTL applied by Set.
func (c *LRU[V]) DefaultTTL() time.Duration {
	return c.defaultTTL
}

func (c *LRU[V]) Delete(key string) {
	c.storage.Remove(key)
}

func (c *LRU[V]) Clear() {
	c.storage.Purge()
}

func (c *LRU[V]) Len() int {
	return c.storage.Len()
}
