package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/pkg/logger"
)

// DefaultRefreshSchedule runs the screener at the top of every hour
const DefaultRefreshSchedule = "0 0 */1 * * *"

// Screener produces a fresh screener ranking
type Screener interface {
	Run(ctx context.Context) (*contracts.ScreenerResult, error)
}

// ScreenerRefreshJob re-runs the screener so the latest ranking stays warm
type ScreenerRefreshJob struct {
	screener Screener
	schedule string
	logger   *logger.Logger
}

// NewScreenerRefreshJob creates the refresh job. An empty schedule uses DefaultRefreshSchedule.
func NewScreenerRefreshJob(screener Screener, schedule string, log *logger.Logger) *ScreenerRefreshJob {
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}
	return &ScreenerRefreshJob{
		screener: screener,
		schedule: schedule,
		logger:   log.Module("jobs"),
	}
}

// Name returns the job name
func (j *ScreenerRefreshJob) Name() string {
	return "screener_refresh"
}

// Schedule returns the cron schedule
func (j *ScreenerRefreshJob) Schedule() string {
	return j.schedule
}

// Run refreshes the ranking
func (j *ScreenerRefreshJob) Run(ctx context.Context) error {
	result, err := j.screener.Run(ctx)
	if err != nil {
		return fmt.Errorf("screener refresh: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"ranked":   len(result.Ranked),
		"excluded": len(result.Excluded),
		"live":     result.RealDataCount,
		"fallback": result.FallbackDataCount,
	}).Info("Screener refreshed")
	return nil
}
