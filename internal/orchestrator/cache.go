package orchestrator

import (
	"sync"
	"time"
)

// resultCache stores task results keyed by input identity. Entries expire
// after a per-task freshness window rather than a cache-wide one.
type resultCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value    any
	storedAt time.Time
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]cacheEntry)}
}

// get returns a cached value still within its freshness window.
func (c *resultCache) get(key string, ttl time.Duration, now time.Time) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if now.Sub(entry.storedAt) >= ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *resultCache) put(key string, value any, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, storedAt: now}
}
