// Package cache provides an optional in-memory LRU cache for single-item
// retrieval results, keyed by resource and item key.
package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entry is a cached payload with expiration
type entry struct {
	data      json.RawMessage
	expiresAt time.Time
}

// Cache is an in-memory LRU cache with TTL support
type Cache struct {
	lru  *lru.Cache[string, *entry]
	ttl  time.Duration
	mu   sync.RWMutex
	done chan struct{}
	once sync.Once
}

// New creates a cache holding up to size entries for up to ttl each
func New(size int, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	inner, err := lru.New[string, *entry](size)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		lru:  inner,
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go c.cleanupLoop()

	return c, nil
}

// Get retrieves the cached payload for a resource item
func (c *Cache) Get(resource, key string) (json.RawMessage, bool) {
	ck := cacheKey(resource, key)

	c.mu.RLock()
	e, ok := c.lru.Get(ck)
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		c.lru.Remove(ck)
		c.mu.Unlock()
		return nil, false
	}
	return e.data, true
}

// Set stores the payload for a resource item
func (c *Cache) Set(resource, key string, data json.RawMessage) {
	e := &entry{
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}

	c.mu.Lock()
	c.lru.Add(cacheKey(resource, key), e)
	c.mu.Unlock()
}

// Close stops the cleanup goroutine
func (c *Cache) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// cleanupLoop periodically removes expired entries
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

// removeExpired removes all expired entries
func (c *Cache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, key := range c.lru.Keys() {
		if e, ok := c.lru.Peek(key); ok && now.After(e.expiresAt) {
			c.lru.Remove(key)
		}
	}
}

// cacheKey builds the composite cache key. The NUL separator cannot occur
// in resource names.
func cacheKey(resource, key string) string {
	return resource + "\x00" + key
}
