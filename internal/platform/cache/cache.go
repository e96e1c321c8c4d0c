// Package cache is a small in-memory TTL cache.
package cache

import (
	"sync"
	"time"
)

// Cache maps string keys to values that expire after a TTL.
// Expired entries are dropped lazily on Get and when the cache grows past limit.
type Cache[T any] struct {
	mu    sync.RWMutex
	data  map[string]entry[T]
	limit int
	now   func() time.Time
}

type entry[T any] struct {
	value T
	exp   time.Time
}

// New returns an empty cache holding at most limit entries (0 means unbounded).
func New[T any](limit int) *Cache[T] {
	return &Cache[T]{
		data:  make(map[string]entry[T]),
		limit: limit,
		now:   time.Now,
	}
}

// Get returns the cached value or false if absent or expired.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T

	c.mu.RLock()
	item, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if c.now().After(item.exp) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return zero, false
	}
	return item.value, true
}

// Set stores a value with the provided TTL.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.limit > 0 && len(c.data) >= c.limit {
		if _, exists := c.data[key]; !exists {
			c.evict(now)
		}
	}
	c.data[key] = entry[T]{value: value, exp: now.Add(ttl)}
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// evict drops expired entries, or the entry closest to expiry if none are.
// Callers hold mu.
func (c *Cache[T]) evict(now time.Time) {
	var (
		oldestKey string
		oldestExp time.Time
	)
	for k, e := range c.data {
		if now.After(e.exp) {
			delete(c.data, k)
			continue
		}
		if oldestKey == "" || e.exp.Before(oldestExp) {
			oldestKey, oldestExp = k, e.exp
		}
	}
	if len(c.data) >= c.limit && oldestKey != "" {
		delete(c.data, oldestKey)
	}
}
