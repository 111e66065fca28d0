package fetcher

import (
	"context"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/internal/fallback"
	"github.com/wonny/magicformula/pkg/logger"
	"github.com/wonny/magicformula/pkg/redis"
)

// Fetcher resolves metrics by walking the provider chain in priority order and
// answering from the fallback store when every provider fails. Provider errors
// never reach the caller.
// ⭐ SSOT: the only implementation of contracts.MetricsFetcher
type Fetcher struct {
	providers  []contracts.Provider
	historical []contracts.HistoricalProvider
	store      *fallback.Store
	cache      *MetricsCache
	logger     *logger.Logger
}

// New creates a Fetcher. A nil cache disables caching.
func New(
	providers []contracts.Provider,
	historical []contracts.HistoricalProvider,
	store *fallback.Store,
	cache *MetricsCache,
	log *logger.Logger,
) *Fetcher {
	return &Fetcher{
		providers:  providers,
		historical: historical,
		store:      store,
		cache:      cache,
		logger:     log.Module("fetcher"),
	}
}

// Providers returns the sources of the current-snapshot chain in order
func (f *Fetcher) Providers() []contracts.Source {
	out := make([]contracts.Source, len(f.providers))
	for i, p := range f.providers {
		out[i] = p.Source()
	}
	return out
}

// FetchCurrent returns the current metrics of symbol
func (f *Fetcher) FetchCurrent(ctx context.Context, symbol string) contracts.FinancialMetrics {
	key := redis.CurrentMetricsKey(symbol)
	if m, ok := f.cache.Get(ctx, key); ok {
		return m
	}

	for _, p := range f.providers {
		if ctx.Err() != nil {
			break
		}

		m, err := p.FetchCurrent(ctx, symbol)
		if err != nil {
			f.logFailure(p.Source(), symbol, 0, err)
			continue
		}

		f.logSuccess(m)
		f.cache.Set(ctx, key, *m)
		return *m
	}

	m := f.store.Current(symbol)
	f.logger.WithField("symbol", symbol).Info("All providers failed, using fallback data")
	return m
}

// FetchHistorical returns the metrics of symbol for the fiscal year ending in year
func (f *Fetcher) FetchHistorical(ctx context.Context, symbol string, year int) contracts.FinancialMetrics {
	key := redis.HistoricalMetricsKey(symbol, year)
	if m, ok := f.cache.Get(ctx, key); ok {
		return m
	}

	for _, p := range f.historical {
		if ctx.Err() != nil {
			break
		}

		m, err := p.FetchHistorical(ctx, symbol, year)
		if err != nil {
			f.logFailure(p.Source(), symbol, year, err)
			continue
		}

		f.logSuccess(m)
		f.cache.Set(ctx, key, *m)
		return *m
	}

	m := f.store.Historical(symbol, year)
	f.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"year":   year,
	}).Info("All historical providers failed, using fallback data")
	return m
}

func (f *Fetcher) logFailure(source contracts.Source, symbol string, year int, err error) {
	f.logger.WithFields(map[string]interface{}{
		"source": source,
		"symbol": symbol,
		"year":   year,
		"error":  err.Error(),
	}).Debug("Provider failed, trying next")
}

func (f *Fetcher) logSuccess(m *contracts.FinancialMetrics) {
	f.logger.WithFields(map[string]interface{}{
		"source": m.Source,
		"symbol": m.Symbol,
		"year":   m.Year,
		"pe":     m.PERatio,
		"roic":   m.ROIC,
	}).Debug("Provider answered")
}
