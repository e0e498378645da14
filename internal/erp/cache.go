package erp

import "sync"

type cacheEntry struct {
	body []byte
	ok   bool
}

// requestCache remembers recent lookup results, hits and misses alike,
// evicting the oldest key once capacity is exceeded.
type requestCache struct {
	mu       sync.Mutex
	capacity int
	order    []string
	entries  map[string]cacheEntry
}

func newRequestCache(capacity int) *requestCache {
	if capacity <= 0 {
		capacity = 40
	}
	return &requestCache{
		capacity: capacity,
		entries:  make(map[string]cacheEntry, capacity),
	}
}

func (c *requestCache) get(key string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	return entry, ok
}

func (c *requestCache) put(key string, entry cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = entry
	if len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *requestCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
