package fetcher

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/pkg/logger"
	"github.com/wonny/magicformula/pkg/redis"
)

// MetricsCache keeps live provider answers in process memory and, when Redis is
// enabled, in a shared second level. Fallback values are never cached so a
// later run can still reach the providers.
// A nil *MetricsCache is valid and caches nothing.
type MetricsCache struct {
	local         *gocache.Cache
	remote        *redis.Cache
	currentTTL    time.Duration
	historicalTTL time.Duration
	logger        *logger.Logger
}

// janitorInterval is how often go-cache sweeps expired entries on its own
const janitorInterval = 10 * time.Minute

// NewMetricsCache creates a cache. remote may be nil.
func NewMetricsCache(remote *redis.Cache, currentTTL, historicalTTL time.Duration, log *logger.Logger) *MetricsCache {
	if currentTTL <= 0 {
		currentTTL = redis.TTLCurrent
	}
	if historicalTTL <= 0 {
		historicalTTL = redis.TTLHistorical
	}

	return &MetricsCache{
		local:         gocache.New(currentTTL, janitorInterval),
		remote:        remote,
		currentTTL:    currentTTL,
		historicalTTL: historicalTTL,
		logger:        log.Module("metrics_cache"),
	}
}

// Get returns a cached value, promoting remote hits into process memory
func (c *MetricsCache) Get(ctx context.Context, key string) (contracts.FinancialMetrics, bool) {
	if c == nil {
		return contracts.FinancialMetrics{}, false
	}

	if v, ok := c.local.Get(key); ok {
		return v.(contracts.FinancialMetrics), true
	}

	if c.remote == nil {
		return contracts.FinancialMetrics{}, false
	}

	var m contracts.FinancialMetrics
	found, err := c.remote.Get(ctx, key, &m)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Remote cache read failed")
		return contracts.FinancialMetrics{}, false
	}
	if !found {
		return contracts.FinancialMetrics{}, false
	}

	c.local.Set(key, m, gocache.DefaultExpiration)
	return m, true
}

// Set stores a live value in both levels. Historical values (Year != 0) keep longer.
func (c *MetricsCache) Set(ctx context.Context, key string, m contracts.FinancialMetrics) {
	if c == nil || m.IsFallback {
		return
	}

	ttl := c.currentTTL
	if m.Year != 0 {
		ttl = c.historicalTTL
	}

	c.local.Set(key, m, ttl)

	if c.remote == nil {
		return
	}
	if err := c.remote.Set(ctx, key, m, ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Remote cache write failed")
	}
}

// Flush drops every entry held in process memory
func (c *MetricsCache) Flush() {
	if c == nil {
		return
	}
	c.local.Flush()
}

// Len returns the number of entries held in process memory
func (c *MetricsCache) Len() int {
	if c == nil {
		return 0
	}
	return c.local.ItemCount()
}

// PurgeExpired removes expired entries from process memory and reports how many went
func (c *MetricsCache) PurgeExpired() int {
	if c == nil {
		return 0
	}
	before := c.local.ItemCount()
	c.local.DeleteExpired()
	removed := before - c.local.ItemCount()
	if removed < 0 {
		return 0
	}
	return removed
}
