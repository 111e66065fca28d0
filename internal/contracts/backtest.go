package contracts

import (
	"fmt"
	"time"
)

// BacktestConfig describes one simulation request
type BacktestConfig struct {
	Years               []int   `json:"years"`
	PortfolioSize       int     `json:"portfolio_size"`
	InitialInvestment   float64 `json:"initial_investment"`
	MonthlyContribution float64 `json:"monthly_contribution"`
}

// Validate checks the configuration
func (c BacktestConfig) Validate() error {
	if len(c.Years) == 0 {
		return &ValidationError{Field: "years", Message: "at least one year is required"}
	}
	if c.PortfolioSize < 1 {
		return &ValidationError{Field: "portfolio_size", Message: fmt.Sprintf("must be >= 1, got %d", c.PortfolioSize)}
	}
	if c.InitialInvestment < 0 {
		return &ValidationError{Field: "initial_investment", Message: "must not be negative"}
	}
	if c.MonthlyContribution < 0 {
		return &ValidationError{Field: "monthly_contribution", Message: "must not be negative"}
	}
	return nil
}

// AnnualContribution is the amount added at the start of every simulated year
func (c BacktestConfig) AnnualContribution() float64 {
	return c.MonthlyContribution * 12
}

// YearAnalysis is the estimated Magic Formula outcome for one calendar year
type YearAnalysis struct {
	Year               int             `json:"year"`
	EstimatedReturnPct float64         `json:"estimated_return_pct"`
	MarketContext      string          `json:"market_context"`
	TopCompanies       []RankedCompany `json:"top_companies"`
	Holdings           []string        `json:"holdings"`
	AvgPE              float64         `json:"avg_pe"`
	AvgROIC            float64         `json:"avg_roic"`
	RealDataCount      int             `json:"real_data_count"`
	FallbackDataCount  int             `json:"fallback_data_count"`
	DataSource         string          `json:"data_source"`
	IsStaticFallback   bool            `json:"is_static_fallback"`
}

// PortfolioSnapshot is the state of both portfolios at the end of a year
type PortfolioSnapshot struct {
	Year               int      `json:"year"`
	MagicFormulaValue  float64  `json:"magic_formula_value"`
	BenchmarkValue     float64  `json:"benchmark_value"`
	Contribution       float64  `json:"contribution"`
	RawReturnPct       float64  `json:"raw_return_pct"`
	AdjustedReturnPct  float64  `json:"adjusted_return_pct"`
	BenchmarkReturnPct float64  `json:"benchmark_return_pct"`
	MarketContext      string   `json:"market_context"`
	Holdings           []string `json:"holdings"`
	NewPositions       []string `json:"new_positions"`
	SoldPositions      []string `json:"sold_positions"`
	AllocationPct      float64  `json:"allocation_pct"`
	AllocationValue    float64  `json:"allocation_value"`
	AvgPE              float64  `json:"avg_pe"`
	AvgROIC            float64  `json:"avg_roic"`
	DataSource         string   `json:"data_source"`
	RealDataCount      int      `json:"real_data_count"`
	FallbackDataCount  int      `json:"fallback_data_count"`
}

// BacktestResult is the complete outcome of a simulation
type BacktestResult struct {
	RunID                   string              `json:"run_id"`
	Config                  BacktestConfig      `json:"config"`
	Snapshots               []PortfolioSnapshot `json:"snapshots"`
	TotalContributions      float64             `json:"total_contributions"`
	FinalValue              float64             `json:"final_value"`
	FinalBenchmarkValue     float64             `json:"final_benchmark_value"`
	StrategyTotalReturnPct  float64             `json:"strategy_total_return_pct"`
	BenchmarkTotalReturnPct float64             `json:"benchmark_total_return_pct"`
	OutperformancePct       float64             `json:"outperformance_pct"`
	RealDataPoints          int                 `json:"real_data_points"`
	FallbackDataPoints      int                 `json:"fallback_data_points"`
	DataQuality             string              `json:"data_quality"`
	Performance             PerformanceReport   `json:"performance"`
	Degraded                bool                `json:"degraded"`
	StartedAt               time.Time           `json:"started_at"`
	Duration                time.Duration       `json:"duration"`
}

// NewRunID returns an identifier of a run started at t
func NewRunID(kind string, t time.Time) string {
	return fmt.Sprintf("%s_%s", kind, t.UTC().Format("20060102_150405.000"))
}

// ReturnStats describes one portfolio's yearly return series. Percent fields
// are in percent; ratios are unitless.
type ReturnStats struct {
	CAGRPct        float64 `json:"cagr_pct"`
	VolatilityPct  float64 `json:"volatility_pct"`
	Sharpe         float64 `json:"sharpe"`
	Sortino        float64 `json:"sortino"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	BestYearPct    float64 `json:"best_year_pct"`
	WorstYearPct   float64 `json:"worst_year_pct"`
}

// PerformanceReport compares the strategy's yearly returns with the benchmark's
type PerformanceReport struct {
	Strategy  ReturnStats `json:"strategy"`
	Benchmark ReturnStats `json:"benchmark"`
	// WinRate is the share of years the strategy beat the benchmark (0.0 - 1.0)
	WinRate  float64 `json:"win_rate"`
	Beta     float64 `json:"beta"`
	AlphaPct float64 `json:"alpha_pct"`
}
