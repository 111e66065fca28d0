package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/internal/markettable"
	"github.com/wonny/magicformula/pkg/logger"
)

// Data quality labels
const (
	QualityHigh = "High (Real API Data)"
	QualityGood = "Good (Fallback Data)"
)

// Form defaults
const (
	DefaultInitialInvestment   = 10000.0
	DefaultMonthlyContribution = 500.0
	DefaultPortfolioSize       = 10
	DefaultPeriod              = "5years"
)

// periods maps a preset name to its calendar years
var periods = map[string][]int{
	"5years": {2020, 2021, 2022, 2023, 2024},
	"3years": {2022, 2023, 2024},
	"1year":  {2024},
}

// PeriodYears returns the years of a preset period
func PeriodYears(period string) ([]int, error) {
	years, ok := periods[period]
	if !ok {
		return nil, &contracts.ValidationError{Field: "period", Message: fmt.Sprintf("unknown period %q (5years, 3years, 1year)", period)}
	}
	out := make([]int, len(years))
	copy(out, years)
	return out, nil
}

// Engine runs backtests and derives the summary statistics. When the live
// simulation fails it reruns the whole backtest on static table data.
// ⭐ SSOT: backtest execution happens only here
type Engine struct {
	simulator *Simulator
	fallback  *Simulator
	recorder  Recorder
	logger    *logger.Logger
	now       func() time.Time
}

// Recorder persists finished backtests. Save failures are logged, never returned.
type Recorder interface {
	SaveBacktestRun(ctx context.Context, result *contracts.BacktestResult) error
}

// NewEngine creates a new backtest engine
func NewEngine(simulator *Simulator, table *markettable.Table, log *logger.Logger) *Engine {
	return &Engine{
		simulator: simulator,
		fallback:  NewSimulator(staticAnalyzer{table: table}, table, log),
		logger:    log.Module("backtest"),
		now:       time.Now,
	}
}

// WithRecorder makes the engine save every result
func (e *Engine) WithRecorder(r Recorder) *Engine {
	e.recorder = r
	return e
}

// Run executes a backtest
func (e *Engine) Run(ctx context.Context, cfg contracts.BacktestConfig) (*contracts.BacktestResult, error) {
	return e.RunWithProgress(ctx, cfg, nil)
}

// RunWithProgress executes a backtest, reporting each analysed year
func (e *Engine) RunWithProgress(ctx context.Context, cfg contracts.BacktestConfig, progress ProgressFunc) (*contracts.BacktestResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	startTime := e.now()
	e.logger.WithFields(map[string]interface{}{
		"years":          cfg.Years,
		"portfolio_size": cfg.PortfolioSize,
		"initial":        cfg.InitialInvestment,
		"monthly":        cfg.MonthlyContribution,
	}).Info("Starting backtest")

	degraded := false
	snapshots, err := e.simulator.Simulate(ctx, cfg, progress)
	if err != nil {
		e.logger.WithError(err).Error("Backtest simulation failed, running static fallback simulation")

		degraded = true
		snapshots, err = e.fallback.Simulate(context.WithoutCancel(ctx), cfg, progress)
		if err != nil {
			return nil, fmt.Errorf("fallback simulation failed: %w", err)
		}
	}

	result := summarize(cfg, snapshots)
	result.RunID = contracts.NewRunID("backtest", startTime)
	result.Degraded = degraded
	result.StartedAt = startTime
	result.Duration = e.now().Sub(startTime)

	e.logger.WithFields(map[string]interface{}{
		"final_value":    fmt.Sprintf("%.2f", result.FinalValue),
		"strategy_pct":   result.StrategyTotalReturnPct,
		"benchmark_pct":  result.BenchmarkTotalReturnPct,
		"outperformance": result.OutperformancePct,
		"data_quality":   result.DataQuality,
		"degraded":       result.Degraded,
	}).Info("Backtest completed")

	if e.recorder != nil {
		if err := e.recorder.SaveBacktestRun(context.WithoutCancel(ctx), result); err != nil {
			e.logger.WithError(err).WithField("run_id", result.RunID).Warn("Failed to save backtest run")
		}
	}

	return result, nil
}

// summarize derives totals from the snapshots
func summarize(cfg contracts.BacktestConfig, snapshots []contracts.PortfolioSnapshot) *contracts.BacktestResult {
	result := &contracts.BacktestResult{
		Config:              cfg,
		Snapshots:           snapshots,
		TotalContributions:  cfg.InitialInvestment + cfg.AnnualContribution()*float64(len(cfg.Years)),
		FinalValue:          cfg.InitialInvestment,
		FinalBenchmarkValue: cfg.InitialInvestment,
	}

	if n := len(snapshots); n > 0 {
		result.FinalValue = snapshots[n-1].MagicFormulaValue
		result.FinalBenchmarkValue = snapshots[n-1].BenchmarkValue
	}

	if result.TotalContributions > 0 {
		result.StrategyTotalReturnPct = round1((result.FinalValue - result.TotalContributions) / result.TotalContributions * 100)
		result.BenchmarkTotalReturnPct = round1((result.FinalBenchmarkValue - result.TotalContributions) / result.TotalContributions * 100)
	}
	result.OutperformancePct = round1(result.StrategyTotalReturnPct - result.BenchmarkTotalReturnPct)

	for _, s := range snapshots {
		result.RealDataPoints += s.RealDataCount
		result.FallbackDataPoints += s.FallbackDataCount
	}

	result.DataQuality = QualityGood
	if result.RealDataPoints > result.FallbackDataPoints {
		result.DataQuality = QualityHigh
	}
	result.Performance = Performance(snapshots)

	return result
}
