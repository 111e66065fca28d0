package backtest

import (
	"context"
	"errors"
	"math"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/internal/fetcher"
	"github.com/wonny/magicformula/internal/markettable"
	"github.com/wonny/magicformula/internal/selection"
	"github.com/wonny/magicformula/pkg/logger"
)

// Return model constants
const (
	baseReturnPct  = 8.0
	peCeiling      = 30.0
	maxPEScore     = 20.0
	roicWeight     = 0.5
	maxROICScore   = 20.0
	sourceMixed    = "Real + Fallback"
	sourceFallback = "Fallback"
)

// errEmptyRanking means no company of the year had rankable metrics
var errEmptyRanking = errors.New("no rankable companies")

// Analyzer estimates the Magic Formula return of a past year from the
// historical metrics of the analysed universe
// ⭐ SSOT: the only contracts.YearAnalyzer implementation
type Analyzer struct {
	fetcher   contracts.MetricsFetcher
	table     *markettable.Table
	companies []contracts.Company
	runner    fetcher.BatchRunner
	logger    *logger.Logger
}

// NewAnalyzer creates an Analyzer over companies, fetched with runner
func NewAnalyzer(
	f contracts.MetricsFetcher,
	table *markettable.Table,
	companies []contracts.Company,
	runner fetcher.BatchRunner,
	log *logger.Logger,
) *Analyzer {
	return &Analyzer{
		fetcher:   f,
		table:     table,
		companies: companies,
		runner:    runner,
		logger:    log.Module("analyzer"),
	}
}

// AnalyzeYear ranks the universe on its year metrics and estimates the return
// of the top portfolioSize companies. A failure of the batch pipeline yields
// the table's hardcoded outcome for the year instead of an error.
func (a *Analyzer) AnalyzeYear(ctx context.Context, year int, portfolioSize int) (*contracts.YearAnalysis, error) {
	analysis, err := a.analyze(ctx, year, portfolioSize)
	if err != nil {
		var bErr *fetcher.BatchError
		if !errors.As(err, &bErr) {
			return nil, err
		}

		a.logger.WithError(err).WithField("year", year).Warn("Year analysis failed, using static fallback")
		return a.staticYear(year, portfolioSize), nil
	}

	a.logger.WithFields(map[string]interface{}{
		"year":       year,
		"return_pct": analysis.EstimatedReturnPct,
		"avg_pe":     analysis.AvgPE,
		"avg_roic":   analysis.AvgROIC,
		"real":       analysis.RealDataCount,
		"fallback":   analysis.FallbackDataCount,
	}).Info("Year analysed")

	return analysis, nil
}

func (a *Analyzer) analyze(ctx context.Context, year, portfolioSize int) (*contracts.YearAnalysis, error) {
	entries, err := fetcher.FetchHistoricalAll(ctx, a.runner, a.fetcher, a.companies, year)
	if err != nil {
		return nil, err
	}

	ranked := selection.Score(entries)
	if len(ranked) == 0 {
		return nil, &fetcher.BatchError{Err: errEmptyRanking}
	}
	if len(ranked) > portfolioSize {
		ranked = ranked[:portfolioSize]
	}

	avgPE, avgROIC := selection.Averages(ranked)
	live, fallback := selection.CountSources(ranked)

	dataSource := sourceFallback
	if live > 0 {
		dataSource = sourceMixed
	}

	return &contracts.YearAnalysis{
		Year:               year,
		EstimatedReturnPct: round1(EstimateReturn(avgPE, avgROIC) * a.table.Multiplier(year)),
		MarketContext:      a.table.Context(year),
		TopCompanies:       ranked,
		Holdings:           contracts.Symbols(ranked),
		AvgPE:              round1(avgPE),
		AvgROIC:            round1(avgROIC),
		RealDataCount:      live,
		FallbackDataCount:  fallback,
		DataSource:         dataSource,
	}, nil
}

// staticYear builds the analysis of year from the market table alone
func (a *Analyzer) staticYear(year, portfolioSize int) *contracts.YearAnalysis {
	fb := a.table.Fallback(year, portfolioSize)

	top := make([]contracts.RankedCompany, len(fb.Holdings))
	for i, symbol := range fb.Holdings {
		top[i] = contracts.RankedCompany{
			Company:  contracts.Company{Symbol: symbol},
			Metrics:  contracts.FinancialMetrics{Symbol: symbol, Source: contracts.SourceFallback, IsFallback: true, Basis: contracts.BasisStatic, Year: year},
			Position: i + 1,
		}
	}

	return &contracts.YearAnalysis{
		Year:               year,
		EstimatedReturnPct: fb.Return,
		MarketContext:      a.table.Context(year),
		TopCompanies:       top,
		Holdings:           fb.Holdings,
		RealDataCount:      0,
		FallbackDataCount:  len(fb.Holdings),
		DataSource:         sourceFallback,
		IsStaticFallback:   true,
	}
}

// EstimateReturn is the unscaled return model in percent: a base market
// return plus a cheapness score from PE and a quality score from ROIC, each
// capped at 20 points
func EstimateReturn(avgPE, avgROIC float64) float64 {
	peScore := math.Min(maxPEScore, math.Max(0, (peCeiling-avgPE)/peCeiling*maxPEScore))
	roicScore := math.Min(maxROICScore, avgROIC*roicWeight)
	return baseReturnPct + peScore + roicScore
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
