package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/magicformula/internal/backtest"
	"github.com/wonny/magicformula/internal/fallback"
	"github.com/wonny/magicformula/internal/fetcher"
	"github.com/wonny/magicformula/internal/markettable"
	"github.com/wonny/magicformula/internal/screener"
	"github.com/wonny/magicformula/internal/store"
	"github.com/wonny/magicformula/internal/universe"
	"github.com/wonny/magicformula/pkg/config"
	"github.com/wonny/magicformula/pkg/database"
	"github.com/wonny/magicformula/pkg/logger"
	"github.com/wonny/magicformula/pkg/redis"
)

// app holds every wired component a command may need
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	repo     *store.Repository
	cache    *fetcher.MetricsCache
	table    *markettable.Table
	screener *screener.Service
	engine   *backtest.Engine
}

// newApp loads configuration and wires the screener and backtest engine.
// Redis and Postgres are optional: when disabled the app runs fully in memory.
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.LoadFrom(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger, --verbose overrides LOG_LEVEL
	log := logger.New(cfg)
	if verbose {
		log = log.WithLevel("debug")
	}

	a := &app{cfg: cfg, log: log}

	// 3. Market table
	a.table, err = markettable.Load(cfg.MarketTablePath)
	if err != nil {
		return nil, fmt.Errorf("load market table: %w", err)
	}

	// 4. Optional Redis for the shared metrics cache
	var remote *redis.Cache
	if cfg.Cache.Enabled && cfg.Redis.Enabled {
		client, err := redis.New(ctx, cfg)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, using in-process cache only")
		} else {
			a.redis = client
			remote = redis.NewCache(client, "magicformula")
		}
	}
	if cfg.Cache.Enabled {
		a.cache = fetcher.NewMetricsCache(remote, cfg.Cache.CurrentTTL, cfg.Cache.HistoricalTTL, log)
	}

	// 5. Optional Postgres for run history
	db, err := database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrDisabled):
		log.Debug("Run history persistence disabled")
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		a.db = db
		a.repo = store.NewRepository(db.Pool)
		if err := a.repo.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("Connected to database")
	}

	// 6. Provider chain
	fallbackStore := fallback.NewStore()
	providers, historical, err := fetcher.BuildProviders(cfg, fallbackStore, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build providers: %w", err)
	}
	f := fetcher.New(providers, historical, fallbackStore, a.cache, log)
	for name, pc := range map[string]config.ProviderConfig{
		"alpha_vantage": cfg.AlphaVantage,
		"finnhub":       cfg.Finnhub,
		"fmp":           cfg.FMP,
	} {
		if pc.DemoMode() {
			log.WithField("provider", name).Debug("Provider running with the demo key")
		}
	}

	// 7. Screener
	currentRunner := fetcher.NewBatchRunner(cfg.Fetch.BatchSize, cfg.Fetch.BatchDelay)
	var screenerRecorder screener.Recorder
	if a.repo != nil {
		screenerRecorder = a.repo
	}
	a.screener = screener.NewService(f, universe.Companies(), currentRunner, screenerRecorder, log)

	// 8. Backtest engine
	historicalRunner := fetcher.NewBatchRunner(cfg.Fetch.HistoricalBatchSize, cfg.Fetch.HistoricalBatchDelay)
	analyzer := backtest.NewAnalyzer(f, a.table, universe.First(cfg.Fetch.HistoricalUniverseSize), historicalRunner, log)
	simulator := backtest.NewSimulator(analyzer, a.table, log)
	a.engine = backtest.NewEngine(simulator, a.table, log)
	if a.repo != nil {
		a.engine.WithRecorder(a.repo)
	}

	log.WithFields(map[string]interface{}{
		"providers":    f.Providers(),
		"companies":    universe.Size(),
		"cache":        cfg.Cache.Enabled,
		"redis":        a.redis != nil && a.redis.Enabled(),
		"persistence":  a.repo != nil,
		"market_table": a.table.Version,
	}).Debug("Application wired")

	return a, nil
}

// Close releases external connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}
