package screener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/internal/fallback"
	"github.com/wonny/magicformula/internal/fetcher"
	"github.com/wonny/magicformula/internal/universe"
	"github.com/wonny/magicformula/pkg/logger"
)

type failingProvider struct{}

func (failingProvider) Source() contracts.Source { return contracts.SourceFinnhub }

func (failingProvider) FetchCurrent(_ context.Context, symbol string) (*contracts.FinancialMetrics, error) {
	return nil, &contracts.ProviderError{Source: contracts.SourceFinnhub, Symbol: symbol, Err: contracts.ErrProviderMessage}
}

// gatedProvider blocks every fetch until release is closed
type gatedProvider struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedProvider() *gatedProvider {
	return &gatedProvider{started: make(chan struct{}), release: make(chan struct{})}
}

func (*gatedProvider) Source() contracts.Source { return contracts.SourceFMP }

func (p *gatedProvider) FetchCurrent(ctx context.Context, symbol string) (*contracts.FinancialMetrics, error) {
	p.once.Do(func() { close(p.started) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.release:
	}
	return &contracts.FinancialMetrics{
		Symbol:  symbol,
		PERatio: 15,
		ROIC:    20,
		Source:  contracts.SourceFMP,
		Basis:   contracts.BasisROIC,
	}, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	saved   []*contracts.ScreenerResult
	ctxErrs []error
	err     error
}

func (r *fakeRecorder) SaveScreenerRun(ctx context.Context, result *contracts.ScreenerResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, result)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return r.err
}

func (r *fakeRecorder) snapshot() ([]*contracts.ScreenerResult, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*contracts.ScreenerResult(nil), r.saved...), append([]error(nil), r.ctxErrs...)
}

func noopRunner() fetcher.BatchRunner {
	return fetcher.BatchRunner{Size: 10, Pacer: fetcher.NoopPacer{}}
}

func TestRun_AllProvidersFailing(t *testing.T) {
	store := fallback.NewStore(fallback.WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	}))
	f := fetcher.New([]contracts.Provider{failingProvider{}}, nil, store, nil, logger.Nop())
	svc := NewService(f, universe.Companies(), noopRunner(), nil, logger.Nop())

	result, err := svc.Run(context.Background())
	require.NoError(t, err)

	// baselines with negative ROIC are not rankable
	assert.ElementsMatch(t, []string{"SNOW", "UBER", "LYFT", "DASH", "RBLX"}, result.Excluded)
	assert.Len(t, result.Ranked, universe.Size()-len(result.Excluded))
	assert.Equal(t, 0, result.RealDataCount)
	assert.Equal(t, len(result.Ranked), result.FallbackDataCount)

	for i, r := range result.Ranked {
		assert.True(t, r.Metrics.IsFallback, r.Company.Symbol)
		assert.Equal(t, i+1, r.Position)
		if i > 0 {
			assert.LessOrEqual(t, result.Ranked[i-1].CombinedScore, r.CombinedScore)
		}
	}

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Same(t, result, latest)
}

func TestRun_RecorderFailureIsNotFatal(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	f := fetcher.New(nil, nil, fallback.NewStore(), nil, logger.Nop())
	svc := NewService(f, universe.First(5), noopRunner(), rec, logger.Nop())

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	saved, _ := rec.snapshot()
	require.Len(t, saved, 1)
	assert.Equal(t, result.RunID, saved[0].RunID)
}

func TestLatestOrRun(t *testing.T) {
	f := fetcher.New(nil, nil, fallback.NewStore(), nil, logger.Nop())
	svc := NewService(f, universe.First(3), noopRunner(), nil, logger.Nop())

	_, ok := svc.Latest()
	assert.False(t, ok)

	first, err := svc.LatestOrRun(context.Background())
	require.NoError(t, err)
	second, err := svc.LatestOrRun(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestRun_Cancelled(t *testing.T) {
	f := fetcher.New(nil, nil, fallback.NewStore(), nil, logger.Nop())
	svc := NewService(f, universe.First(3), noopRunner(), nil, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, ok := svc.Latest()
	assert.False(t, ok)
}

func TestRun_CallerCancelDoesNotAbortSharedRun(t *testing.T) {
	provider := newGatedProvider()
	rec := &fakeRecorder{}
	f := fetcher.New([]contracts.Provider{provider}, nil, fallback.NewStore(), nil, logger.Nop())
	companies := universe.First(4)
	svc := NewService(f, companies, noopRunner(), rec, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Run(ctx)
		errCh <- err
	}()

	<-provider.started
	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after its context was cancelled")
	}

	close(provider.release)

	require.Eventually(t, func() bool {
		saved, _ := rec.snapshot()
		return len(saved) == 1
	}, 2*time.Second, 10*time.Millisecond)

	saved, ctxErrs := rec.snapshot()
	assert.NoError(t, ctxErrs[0], "recorder must not see the caller's cancellation")
	assert.Equal(t, len(companies), saved[0].RealDataCount)
	assert.Equal(t, 0, saved[0].FallbackDataCount)

	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Same(t, saved[0], latest)
}
