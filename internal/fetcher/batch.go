package fetcher

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/magicformula/internal/contracts"
)

// Pacer is called between two consecutive batches
type Pacer interface {
	Wait(ctx context.Context) error
}

// DelayPacer waits a fixed delay between batches
type DelayPacer struct {
	Delay time.Duration
}

// Wait blocks for the delay or until ctx is done
func (p DelayPacer) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoopPacer never waits
type NoopPacer struct{}

// Wait returns immediately unless ctx is already done
func (NoopPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}

// BatchRunner splits work into fixed-size batches. Members of a batch run
// concurrently and the batch completes when every member returns; the pacer
// runs between batches, never before the first or after the last.
type BatchRunner struct {
	Size  int
	Pacer Pacer
	// OnBatch is called after each batch with the number of completed items
	OnBatch func(done, total int)
}

// NewBatchRunner creates a runner that sleeps delay between batches
func NewBatchRunner(size int, delay time.Duration) BatchRunner {
	return BatchRunner{Size: size, Pacer: DelayPacer{Delay: delay}}
}

// BatchError is a failure of the batch pipeline itself (a panicking member or
// a cancelled context), as opposed to a provider failure absorbed by the fetcher
type BatchError struct {
	Batch int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d: %v", e.Batch, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Map applies fn to every item batch by batch and returns the results in
// input order
func Map[T, R any](ctx context.Context, r BatchRunner, items []T, fn func(ctx context.Context, item T) R) ([]R, error) {
	size := r.Size
	if size < 1 {
		size = 1
	}
	pacer := r.Pacer
	if pacer == nil {
		pacer = NoopPacer{}
	}

	results := make([]R, len(items))

	for start, batch := 0, 0; start < len(items); start, batch = start+size, batch+1 {
		if batch > 0 {
			if err := pacer.Wait(ctx); err != nil {
				return nil, &BatchError{Batch: batch, Err: err}
			}
		}

		end := start + size
		if end > len(items) {
			end = len(items)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() (err error) {
				defer func() {
					if rec := recover(); rec != nil {
						err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
					}
				}()
				results[i] = fn(gctx, items[i])
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, &BatchError{Batch: batch, Err: err}
		}
		if err := ctx.Err(); err != nil {
			return nil, &BatchError{Batch: batch, Err: err}
		}

		if r.OnBatch != nil {
			r.OnBatch(end, len(items))
		}
	}

	return results, nil
}

// FetchCurrentAll resolves current metrics for every company
func FetchCurrentAll(ctx context.Context, r BatchRunner, f contracts.MetricsFetcher, companies []contracts.Company) ([]contracts.CompanyMetrics, error) {
	return Map(ctx, r, companies, func(ctx context.Context, c contracts.Company) contracts.CompanyMetrics {
		return contracts.CompanyMetrics{Company: c, Metrics: f.FetchCurrent(ctx, c.Symbol)}
	})
}

// FetchHistoricalAll resolves metrics of year for every company
func FetchHistoricalAll(ctx context.Context, r BatchRunner, f contracts.MetricsFetcher, companies []contracts.Company, year int) ([]contracts.CompanyMetrics, error) {
	return Map(ctx, r, companies, func(ctx context.Context, c contracts.Company) contracts.CompanyMetrics {
		return contracts.CompanyMetrics{Company: c, Metrics: f.FetchHistorical(ctx, c.Symbol, year)}
	})
}
