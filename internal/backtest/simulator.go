package backtest

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/internal/markettable"
	"github.com/wonny/magicformula/pkg/logger"
)

// ProgressFunc is called after each simulated year
type ProgressFunc func(done, total int, analysis *contracts.YearAnalysis)

// SimulationError is a year the simulator could not process
type SimulationError struct {
	Year int
	Err  error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulation failed at %d: %v", e.Year, e.Err)
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}

// Simulator compounds the Magic Formula portfolio and the benchmark year by
// year. It holds no state between calls: equal analyzer output gives equal
// snapshots.
// ⭐ SSOT: portfolio compounding is computed only here
type Simulator struct {
	analyzer contracts.YearAnalyzer
	table    *markettable.Table
	logger   *logger.Logger
}

// NewSimulator creates a simulator fed by analyzer
func NewSimulator(analyzer contracts.YearAnalyzer, table *markettable.Table, log *logger.Logger) *Simulator {
	return &Simulator{
		analyzer: analyzer,
		table:    table,
		logger:   log.Module("simulator"),
	}
}

// Simulate runs cfg and returns one snapshot per year in ascending order.
// The annual contribution is added to both portfolios before the year's
// return is applied. progress may be nil.
func (s *Simulator) Simulate(ctx context.Context, cfg contracts.BacktestConfig, progress ProgressFunc) ([]contracts.PortfolioSnapshot, error) {
	years := make([]int, len(cfg.Years))
	copy(years, cfg.Years)
	sort.Ints(years)

	contribution := cfg.AnnualContribution()
	strategyValue := cfg.InitialInvestment
	benchmarkValue := cfg.InitialInvestment
	sizeAdj := s.table.SizeAdjustment(cfg.PortfolioSize)

	snapshots := make([]contracts.PortfolioSnapshot, 0, len(years))
	var previous []string

	for i, year := range years {
		if err := ctx.Err(); err != nil {
			return nil, &SimulationError{Year: year, Err: err}
		}

		analysis, err := s.analyzer.AnalyzeYear(ctx, year, cfg.PortfolioSize)
		if err != nil {
			return nil, &SimulationError{Year: year, Err: err}
		}

		adjusted := analysis.EstimatedReturnPct * sizeAdj
		benchmark := s.table.BenchmarkReturn(year)

		strategyValue = (strategyValue + contribution) * (1 + adjusted/100)
		benchmarkValue = (benchmarkValue + contribution) * (1 + benchmark/100)

		snap := contracts.PortfolioSnapshot{
			Year:               year,
			MagicFormulaValue:  strategyValue,
			BenchmarkValue:     benchmarkValue,
			Contribution:       contribution,
			RawReturnPct:       analysis.EstimatedReturnPct,
			AdjustedReturnPct:  adjusted,
			BenchmarkReturnPct: benchmark,
			MarketContext:      analysis.MarketContext,
			Holdings:           analysis.Holdings,
			NewPositions:       diff(analysis.Holdings, previous),
			SoldPositions:      diff(previous, analysis.Holdings),
			AvgPE:              analysis.AvgPE,
			AvgROIC:            analysis.AvgROIC,
			DataSource:         analysis.DataSource,
			RealDataCount:      analysis.RealDataCount,
			FallbackDataCount:  analysis.FallbackDataCount,
		}
		if cfg.PortfolioSize > 0 {
			snap.AllocationPct = 100 / float64(cfg.PortfolioSize)
			snap.AllocationValue = strategyValue / float64(cfg.PortfolioSize)
		}
		snapshots = append(snapshots, snap)
		previous = analysis.Holdings

		s.logger.WithFields(map[string]interface{}{
			"year":          year,
			"adjusted_pct":  adjusted,
			"benchmark_pct": benchmark,
			"value":         strategyValue,
		}).Debug("Year simulated")

		if progress != nil {
			progress(i+1, len(years), analysis)
		}
	}

	return snapshots, nil
}

// diff returns the members of a missing from b, in a's order
func diff(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, s := range b {
		in[s] = true
	}

	out := make([]string, 0)
	for _, s := range a {
		if !in[s] {
			out = append(out, s)
		}
	}
	return out
}

// staticAnalyzer answers every year from the market table's precomputed
// returns and holdings
type staticAnalyzer struct {
	table *markettable.Table
}

func (a staticAnalyzer) AnalyzeYear(_ context.Context, year int, portfolioSize int) (*contracts.YearAnalysis, error) {
	holdings := a.table.StaticHoldings(year, portfolioSize)
	return &contracts.YearAnalysis{
		Year:               year,
		EstimatedReturnPct: a.table.StaticReturn(year),
		MarketContext:      a.table.Context(year),
		Holdings:           holdings,
		TopCompanies:       []contracts.RankedCompany{},
		FallbackDataCount:  len(holdings),
		DataSource:         sourceFallback,
		IsStaticFallback:   true,
	}, nil
}
