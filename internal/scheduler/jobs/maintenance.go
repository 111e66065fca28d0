package jobs

import (
	"context"

	"github.com/wonny/magicformula/pkg/logger"
)

// ExpiringCache is a cache that can drop its expired entries
type ExpiringCache interface {
	PurgeExpired() int
}

// CacheCleanupJob purges expired metrics from the in-process cache
type CacheCleanupJob struct {
	cache  ExpiringCache
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache ExpiringCache, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:  cache,
		logger: log.Module("jobs"),
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run purges the cache
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	count := j.cache.PurgeExpired()
	if count > 0 {
		j.logger.WithField("removed", count).Info("Cache cleanup completed")
	}
	return nil
}
