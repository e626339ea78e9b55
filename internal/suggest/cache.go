package suggest

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a suggestion stays reusable.
const DefaultCacheTTL = 5 * time.Minute

// CacheEntry is a stored suggestion.
type CacheEntry struct {
	Text      string
	CreatedAt time.Time
}

type cacheKey struct {
	field string
	hash  string
}

// Cache maps (field, context hash) to a suggestion for TTL.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[cacheKey]CacheEntry
}

// NewCache returns an empty cache. A nil now means time.Now; a non-positive
// ttl means DefaultCacheTTL.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now, entries: make(map[cacheKey]CacheEntry)}
}

// Get returns a non-expired entry. Expired entries are dropped.
func (c *Cache) Get(field, hash string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey{field, hash}
	e, ok := c.entries[k]
	if !ok {
		return CacheEntry{}, false
	}
	if c.now().Sub(e.CreatedAt) >= c.ttl {
		delete(c.entries, k)
		return CacheEntry{}, false
	}
	return e, true
}

// Put stores text for (field, hash).
func (c *Cache) Put(field, hash, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{field, hash}] = CacheEntry{Text: text, CreatedAt: c.now()}
}

// Invalidate drops every entry of field.
func (c *Cache) Invalidate(field string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.field == field {
			delete(c.entries, k)
		}
	}
}

// InvalidateAll empties the cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
