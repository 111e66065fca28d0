package screener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/internal/fetcher"
	"github.com/wonny/magicformula/internal/selection"
	"github.com/wonny/magicformula/pkg/logger"
)

// Recorder persists finished runs. Save failures are logged, never returned.
type Recorder interface {
	SaveScreenerRun(ctx context.Context, result *contracts.ScreenerResult) error
}

// Service runs the screener over the company universe and keeps the latest
// result in memory. Concurrent Run calls share one fetch.
// ⭐ SSOT: the only entry point that produces a ScreenerResult
type Service struct {
	fetcher   contracts.MetricsFetcher
	companies []contracts.Company
	runner    fetcher.BatchRunner
	recorder  Recorder
	logger    *logger.Logger
	now       func() time.Time

	group  singleflight.Group
	mu     sync.RWMutex
	latest *contracts.ScreenerResult
}

// NewService creates a screener service. recorder may be nil.
func NewService(
	f contracts.MetricsFetcher,
	companies []contracts.Company,
	runner fetcher.BatchRunner,
	recorder Recorder,
	log *logger.Logger,
) *Service {
	return &Service{
		fetcher:   f,
		companies: companies,
		runner:    runner,
		recorder:  recorder,
		logger:    log.Module("screener"),
		now:       time.Now,
	}
}

// Run fetches current metrics for every company and ranks them.
// The shared run is detached from ctx so one caller going away does not fail
// the others; ctx only bounds how long this caller waits.
func (s *Service) Run(ctx context.Context) (*contracts.ScreenerResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := s.group.DoChan("run", func() (interface{}, error) {
		return s.run(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("Joined an in-flight screener run")
		}
		return res.Val.(*contracts.ScreenerResult), nil
	}
}

// Latest returns the most recent result, if any
func (s *Service) Latest() (*contracts.ScreenerResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// LatestOrRun returns the most recent result, running the screener first
// when there is none
func (s *Service) LatestOrRun(ctx context.Context) (*contracts.ScreenerResult, error) {
	if r, ok := s.Latest(); ok {
		return r, nil
	}
	return s.Run(ctx)
}

func (s *Service) run(ctx context.Context) (*contracts.ScreenerResult, error) {
	startTime := s.now()

	s.logger.WithFields(map[string]interface{}{
		"companies":  len(s.companies),
		"batch_size": s.runner.Size,
	}).Info("Starting screener run")

	runner := s.runner
	runner.OnBatch = func(done, total int) {
		s.logger.WithFields(map[string]interface{}{
			"done":  done,
			"total": total,
		}).Debug("Screener batch completed")
	}

	entries, err := fetcher.FetchCurrentAll(ctx, runner, s.fetcher, s.companies)
	if err != nil {
		return nil, fmt.Errorf("screener fetch failed: %w", err)
	}

	ranked := selection.Score(entries)
	live, fallback := selection.CountSources(ranked)

	result := &contracts.ScreenerResult{
		RunID:             contracts.NewRunID("screener", startTime),
		Ranked:            ranked,
		Excluded:          selection.Excluded(entries),
		RealDataCount:     live,
		FallbackDataCount: fallback,
		GeneratedAt:       startTime,
		Duration:          s.now().Sub(startTime),
	}

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	if s.recorder != nil {
		if err := s.recorder.SaveScreenerRun(context.WithoutCancel(ctx), result); err != nil {
			s.logger.WithError(err).WithField("run_id", result.RunID).Warn("Failed to save screener run")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"ranked":   len(result.Ranked),
		"excluded": len(result.Excluded),
		"real":     result.RealDataCount,
		"fallback": result.FallbackDataCount,
		"duration": result.Duration.String(),
	}).Info("Screener run completed")

	return result, nil
}
