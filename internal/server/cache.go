package server

import (
	"sync"
	"time"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/metrics"
)

type cacheEntry struct {
	value    any
	deadline time.Time
}

// ttlCache is a small guarded-map cache with per-entry expiry. The data it
// fronts is immutable, so the TTL exists only to bound memory on rarely
// revisited neighborhoods, not for coherence.
type ttlCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	max     int
}

func newTTLCache(ttl time.Duration, max int) *ttlCache {
	return &ttlCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		max:     max,
	}
}

// Get returns the cached value if present and fresh.
func (c *ttlCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.deadline) {
		if ok {
			delete(c.entries, key)
		}
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.Inc()
	return e.value, true
}

// Set stores a value. When the cache is full it first drops expired
// entries, then (still full) evicts arbitrary ones; with immutable data any
// victim is as good as another.
func (c *ttlCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.max {
		now := time.Now()
		for k, e := range c.entries {
			if now.After(e.deadline) {
				delete(c.entries, k)
			}
		}
		for k := range c.entries {
			if len(c.entries) < c.max {
				break
			}
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{value: value, deadline: time.Now().Add(c.ttl)}
}

// Len returns the number of entries, including any not yet expired lazily.
func (c *ttlCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
