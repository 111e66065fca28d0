package fetcher

import (
	"fmt"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/internal/external/alphavantage"
	"github.com/wonny/magicformula/internal/external/finnhub"
	"github.com/wonny/magicformula/internal/external/finviz"
	"github.com/wonny/magicformula/internal/external/fmp"
	"github.com/wonny/magicformula/internal/fallback"
	"github.com/wonny/magicformula/pkg/config"
	"github.com/wonny/magicformula/pkg/httputil"
	"github.com/wonny/magicformula/pkg/logger"
)

// BuildProviders creates the provider chains in the configured priority order.
// Every provider gets its own HTTP client so rate limits stay per provider;
// retries are disabled because a failing provider is skipped, not retried.
// Providers that also serve annual figures join the historical chain in the
// same order. Finviz joins only when enabled.
func BuildProviders(cfg *config.Config, store *fallback.Store, log *logger.Logger) ([]contracts.Provider, []contracts.HistoricalProvider, error) {
	newHTTP := func(rpm int) *httputil.Client {
		return httputil.New(cfg, log).WithRateLimit(rpm)
	}

	var current []contracts.Provider
	var historical []contracts.HistoricalProvider

	for _, name := range cfg.ProviderOrder {
		switch contracts.Source(name) {
		case contracts.SourceAlphaVantage:
			c := alphavantage.NewClient(newHTTP(cfg.AlphaVantage.RequestsPerMinute), cfg.AlphaVantage, store, log)
			current = append(current, c)
			historical = append(historical, c)
		case contracts.SourceFinnhub:
			current = append(current, finnhub.NewClient(newHTTP(cfg.Finnhub.RequestsPerMinute), cfg.Finnhub, log))
		case contracts.SourceFMP:
			c := fmp.NewClient(newHTTP(cfg.FMP.RequestsPerMinute), cfg.FMP, log)
			current = append(current, c)
			historical = append(historical, c)
		case contracts.SourceFinviz:
			if cfg.Finviz.Enabled {
				current = append(current, finviz.NewClient(newHTTP(cfg.Finviz.RequestsPerMinute), cfg.Finviz, log))
			}
		default:
			return nil, nil, fmt.Errorf("unknown provider %q", name)
		}
	}

	return current, historical, nil
}
