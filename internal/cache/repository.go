package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/citecheck/internal/logging"
	"github.com/ppiankov/citecheck/internal/metrics"
	"github.com/ppiankov/citecheck/internal/model"
)

// RunSource reads persisted runs by cache key
type RunSource interface {
	LatestRun(ctx context.Context, key string) (*model.VerificationRun, error)
}

// RepositoryCache is the persistent tier. It only reads: runs are written
// to the repository by the pipeline whether or not they are cacheable.
type RepositoryCache struct {
	runs   RunSource
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewRepositoryCache creates a read-through tier over persisted runs
func NewRepositoryCache(runs RunSource, ttl time.Duration, logger *zap.Logger) *RepositoryCache {
	return &RepositoryCache{
		runs:   runs,
		ttl:    ttl,
		now:    time.Now,
		logger: logging.OrNop(logger),
	}
}

// Get returns the latest run for key unless it is older than the TTL
func (c *RepositoryCache) Get(ctx context.Context, key string) (*model.VerificationRun, bool) {
	run, err := c.runs.LatestRun(ctx, key)
	if err != nil {
		c.logger.Debug("repository cache read failed", zap.Error(err))
		metrics.CacheLookups.WithLabelValues("repository", "error").Inc()
		return nil, false
	}
	if run == nil {
		metrics.CacheLookups.WithLabelValues("repository", "miss").Inc()
		return nil, false
	}

	// Check expiration
	if c.ttl > 0 && c.now().After(run.CompletedAt.Add(c.ttl)) {
		metrics.CacheLookups.WithLabelValues("repository", "expired").Inc()
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues("repository", "hit").Inc()
	return run, true
}
