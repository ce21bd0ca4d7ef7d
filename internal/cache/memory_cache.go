package cache

import (
	"context"
	"sync"
	"time"

	"ratehub/internal/http-api/models"
)

type memoryEntry struct {
	agg       models.RatingAggregate
	expiresAt time.Time
}

// MemoryCache is a map-backed AggregateCache for tests and for running
// without a Redis instance. Expired entries are dropped lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, itemID string) (*models.RatingAggregate, error) {
	c.mu.RLock()
	entry, ok := c.entries[itemID]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.After(c.now()) {
		c.mu.Lock()
		delete(c.entries, itemID)
		c.mu.Unlock()
		return nil, nil
	}

	agg := entry.agg
	return &agg, nil
}

func (c *MemoryCache) Set(_ context.Context, itemID string, agg models.RatingAggregate, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[itemID] = memoryEntry{agg: agg, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, itemID string) error {
	c.mu.Lock()
	delete(c.entries, itemID)
	c.mu.Unlock()
	return nil
}
