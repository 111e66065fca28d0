package fetcher

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/internal/fallback"
	"github.com/wonny/magicformula/pkg/config"
	"github.com/wonny/magicformula/pkg/logger"
)

type fakeProvider struct {
	source contracts.Source
	values map[string]contracts.FinancialMetrics
	calls  int32
}

func (p *fakeProvider) Source() contracts.Source { return p.source }

func (p *fakeProvider) FetchCurrent(_ context.Context, symbol string) (*contracts.FinancialMetrics, error) {
	atomic.AddInt32(&p.calls, 1)
	m, ok := p.values[symbol]
	if !ok {
		return nil, &contracts.ProviderError{Source: p.source, Symbol: symbol, Err: contracts.ErrNoData}
	}
	m.Source = p.source
	return &m, nil
}

func (p *fakeProvider) FetchHistorical(_ context.Context, symbol string, year int) (*contracts.FinancialMetrics, error) {
	atomic.AddInt32(&p.calls, 1)
	m, ok := p.values[symbol]
	if !ok {
		return nil, &contracts.ProviderError{Source: p.source, Symbol: symbol, Year: year, Err: contracts.ErrNoData}
	}
	m.Source = p.source
	m.Year = year
	return &m, nil
}

func (p *fakeProvider) Calls() int {
	return int(atomic.LoadInt32(&p.calls))
}

func newStore() *fallback.Store {
	return fallback.NewStore(fallback.WithClock(func() time.Time {
		return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}))
}

func TestFetchCurrent_ChainOrder(t *testing.T) {
	first := &fakeProvider{source: contracts.SourceAlphaVantage, values: map[string]contracts.FinancialMetrics{
		"AAPL": {Symbol: "AAPL", PERatio: 29, ROIC: 150},
	}}
	second := &fakeProvider{source: contracts.SourceFinnhub, values: map[string]contracts.FinancialMetrics{
		"AAPL": {Symbol: "AAPL", PERatio: 30, ROIC: 140},
		"MSFT": {Symbol: "MSFT", PERatio: 35, ROIC: 38},
	}}

	f := New([]contracts.Provider{first, second}, nil, newStore(), nil, logger.Nop())
	ctx := context.Background()

	m := f.FetchCurrent(ctx, "AAPL")
	assert.Equal(t, contracts.SourceAlphaVantage, m.Source)
	assert.Equal(t, 29.0, m.PERatio)
	assert.Equal(t, 0, second.Calls(), "second provider must not be asked after a success")

	m = f.FetchCurrent(ctx, "MSFT")
	assert.Equal(t, contracts.SourceFinnhub, m.Source)
	assert.False(t, m.IsFallback)
	assert.Equal(t, 2, first.Calls(), "no retry on the failing provider")
}

func TestFetchCurrent_AllFail(t *testing.T) {
	failing := &fakeProvider{source: contracts.SourceFMP}
	f := New([]contracts.Provider{failing}, nil, newStore(), nil, logger.Nop())

	m := f.FetchCurrent(context.Background(), "AAPL")
	assert.True(t, m.IsFallback)
	assert.Equal(t, contracts.SourceFallback, m.Source)
	assert.Equal(t, 25.2, m.PERatio)

	m = f.FetchCurrent(context.Background(), "UNKNOWN")
	assert.Equal(t, fallback.DefaultPE, m.PERatio)
	assert.Equal(t, fallback.DefaultROIC, m.ROIC)
}

func TestFetchHistorical_Chain(t *testing.T) {
	av := &fakeProvider{source: contracts.SourceAlphaVantage}
	fmpP := &fakeProvider{source: contracts.SourceFMP, values: map[string]contracts.FinancialMetrics{
		"CAT": {Symbol: "CAT", PERatio: 14, ROIC: 18},
	}}

	f := New(nil, []contracts.HistoricalProvider{av, fmpP}, newStore(), nil, logger.Nop())

	m := f.FetchHistorical(context.Background(), "CAT", 2023)
	assert.Equal(t, contracts.SourceFMP, m.Source)
	assert.Equal(t, 2023, m.Year)

	m = f.FetchHistorical(context.Background(), "AAPL", 2020)
	assert.True(t, m.IsFallback)
	assert.Equal(t, 2020, m.Year)
	assert.InDelta(t, 25.2*0.75, m.PERatio, 1e-9)
}

func TestFetch_CachesLiveValuesOnly(t *testing.T) {
	p := &fakeProvider{source: contracts.SourceFinnhub, values: map[string]contracts.FinancialMetrics{
		"AAPL": {Symbol: "AAPL", PERatio: 29, ROIC: 150},
	}}
	cache := NewMetricsCache(nil, time.Minute, time.Hour, logger.Nop())
	f := New([]contracts.Provider{p}, []contracts.HistoricalProvider{p}, newStore(), cache, logger.Nop())
	ctx := context.Background()

	f.FetchCurrent(ctx, "AAPL")
	f.FetchCurrent(ctx, "AAPL")
	assert.Equal(t, 1, p.Calls())

	f.FetchCurrent(ctx, "MSFT")
	f.FetchCurrent(ctx, "MSFT")
	assert.Equal(t, 3, p.Calls(), "fallback answers are not cached")

	f.FetchHistorical(ctx, "AAPL", 2022)
	f.FetchHistorical(ctx, "AAPL", 2022)
	assert.Equal(t, 4, p.Calls())
	assert.Equal(t, 2, cache.Len())

	cache.Flush()
	assert.Equal(t, 0, cache.Len())
}

func TestFetchCurrent_CancelledContextFallsBack(t *testing.T) {
	p := &fakeProvider{source: contracts.SourceFinnhub, values: map[string]contracts.FinancialMetrics{
		"AAPL": {Symbol: "AAPL", PERatio: 29, ROIC: 150},
	}}
	f := New([]contracts.Provider{p}, nil, newStore(), nil, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := f.FetchCurrent(ctx, "AAPL")
	assert.True(t, m.IsFallback)
	assert.Equal(t, 0, p.Calls())
}

func TestBuildProviders(t *testing.T) {
	cfg := &config.Config{
		ProviderOrder: []string{"fmp", "finviz", "alpha_vantage", "finnhub"},
		Finviz:        config.FinvizConfig{Enabled: false},
	}

	current, historical, err := BuildProviders(cfg, newStore(), logger.Nop())
	require.NoError(t, err)

	var sources []contracts.Source
	for _, p := range current {
		sources = append(sources, p.Source())
	}
	assert.Equal(t, []contracts.Source{contracts.SourceFMP, contracts.SourceAlphaVantage, contracts.SourceFinnhub}, sources)

	require.Len(t, historical, 2)
	assert.Equal(t, contracts.SourceFMP, historical[0].Source())
	assert.Equal(t, contracts.SourceAlphaVantage, historical[1].Source())

	cfg.Finviz.Enabled = true
	current, _, err = BuildProviders(cfg, newStore(), logger.Nop())
	require.NoError(t, err)
	assert.Len(t, current, 4)

	cfg.ProviderOrder = []string{"yahoo"}
	_, _, err = BuildProviders(cfg, newStore(), logger.Nop())
	assert.Error(t, err)
}

func TestFetcherProviders(t *testing.T) {
	f := New([]contracts.Provider{&fakeProvider{source: contracts.SourceFinnhub}}, nil, newStore(), nil, logger.Nop())
	assert.Equal(t, []contracts.Source{contracts.SourceFinnhub}, f.Providers())
}
