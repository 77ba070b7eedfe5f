package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Cache is a thread-safe key/value store with per-entry TTL, used by
// downstream readers of the store. Expired entries are evicted lazily on
// lookup. The cache has no interaction with pipeline execution.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	defaultTTL time.Duration
}

type entry struct {
	value     any
	createdAt time.Time
	expiresAt time.Time
	// lastAccessed is unix nanos, updated atomically so concurrent readers
	// of unrelated keys never contend on the write lock.
	lastAccessed atomic.Int64
}

// Stats reports aggregate cache state.
type Stats struct {
	TotalEntries   int `json:"total_entries"`
	ExpiredEntries int `json:"expired_entries"`
	ApproxBytes    int `json:"memory_usage_approx"`
}

func New(defaultTTL time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]*entry),
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value if present and not expired. An expired entry
// is evicted on the spot.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	if ok && time.Now().Before(e.expiresAt) {
		e.lastAccessed.Store(time.Now().UnixNano())
		v := e.value
		c.mu.RUnlock()
		return v, true
	}
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	// Re-check: another goroutine may have replaced the entry meanwhile.
	if e, ok := c.entries[key]; ok && time.Now().After(e.expiresAt) {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	return nil, false
}

// Set stores a value with an absolute expiry. A zero ttl uses the default.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := time.Now()
	e := &entry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	e.lastAccessed.Store(now.UnixNano())

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Invalidate removes one key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// GetStats reports entry count, expired-but-uncollected count and an
// approximate memory footprint.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	stats := Stats{TotalEntries: len(c.entries)}
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			stats.ExpiredEntries++
		}
		stats.ApproxBytes += len(fmt.Sprintf("%v", e.value))
	}
	return stats
}
