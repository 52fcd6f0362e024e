// Package cache holds precomputed dashboard aggregates in memory. Buckets
// are keyed by name and user; a sync run refreshes its buckets after commit
// so the dashboard never serves stale counts for long.
package cache

import (
	"fmt"
	"sync"
	"time"
)

// Loader computes the value for one bucket's user entry.
type Loader func(userID uint) (any, error)

type entry struct {
	value    any
	loadedAt time.Time
}

// Cache is an in-memory TTL cache with named buckets.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	loaders map[string]Loader
}

// New creates a cache with the given entry TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		loaders: make(map[string]Loader),
	}
}

// RegisterLoader binds a bucket name to the function that computes it.
func (c *Cache) RegisterLoader(bucket string, loader Loader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaders[bucket] = loader
}

// Get returns a fresh value for the bucket, loading it when the cached
// entry is missing or past its TTL.
func (c *Cache) Get(bucket string, userID uint) (any, error) {
	key := cacheKey(bucket, userID)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && time.Since(e.loadedAt) < c.ttl {
		return e.value, nil
	}

	return c.load(bucket, userID)
}

// Refresh recomputes the bucket's entry for a user regardless of TTL.
// Implements the cache invalidator the sync pipeline calls after commit.
func (c *Cache) Refresh(bucket string, userID uint) error {
	_, err := c.load(bucket, userID)
	return err
}

// Invalidate drops the cached entry without recomputing it.
func (c *Cache) Invalidate(bucket string, userID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(bucket, userID))
}

func (c *Cache) load(bucket string, userID uint) (any, error) {
	c.mu.RLock()
	loader, ok := c.loaders[bucket]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no loader registered for cache bucket %q", bucket)
	}

	value, err := loader(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cache bucket %q: %w", bucket, err)
	}

	c.mu.Lock()
	c.entries[cacheKey(bucket, userID)] = entry{value: value, loadedAt: time.Now()}
	c.mu.Unlock()

	return value, nil
}

func cacheKey(bucket string, userID uint) string {
	return fmt.Sprintf("%s:%d", bucket, userID)
}
