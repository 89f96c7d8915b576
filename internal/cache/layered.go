package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/citecheck/internal/model"
)

// LayeredCache checks memory first, then the repository
type LayeredCache struct {
	memory *MemoryCache
	repo   *RepositoryCache
}

// NewLayeredCache creates a layered cache. runs may be nil for a
// memory-only cache.
func NewLayeredCache(memoryTTL time.Duration, runs RunSource, repoTTL time.Duration, logger *zap.Logger) *LayeredCache {
	c := &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
	}
	if runs != nil {
		c.repo = NewRepositoryCache(runs, repoTTL, logger)
	}
	return c
}

// Get retrieves a run (checks memory first, then the repository)
func (c *LayeredCache) Get(ctx context.Context, key string) (*model.VerificationRun, bool) {
	if run, found := c.memory.Get(ctx, key); found {
		return run, true
	}
	if c.repo == nil {
		return nil, false
	}

	if run, found := c.repo.Get(ctx, key); found {
		// Promote to memory cache
		c.memory.Set(ctx, key, run)
		return run, true
	}
	return nil, false
}

// Set stores a run in the memory tier
func (c *LayeredCache) Set(ctx context.Context, key string, run *model.VerificationRun) {
	c.memory.Set(ctx, key, run)
}
