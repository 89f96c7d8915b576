package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/citecheck/internal/metrics"
	"github.com/ppiankov/citecheck/internal/model"
)

// MemoryCache is the in-process tier
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a run from the cache
func (c *MemoryCache) Get(_ context.Context, key string) (*model.VerificationRun, bool) {
	if val, found := c.cache.Get(key); found {
		metrics.CacheLookups.WithLabelValues("memory", "hit").Inc()
		return val.(*model.VerificationRun), true
	}
	metrics.CacheLookups.WithLabelValues("memory", "miss").Inc()
	return nil, false
}

// Set stores a run with the default TTL
func (c *MemoryCache) Set(_ context.Context, key string, run *model.VerificationRun) {
	c.cache.SetDefault(key, run)
}

// Delete removes a run from the cache
func (c *MemoryCache) Delete(key string) {
	c.cache.Delete(key)
}

// Len returns the number of cached runs, including expired ones not yet
// cleaned up
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}
