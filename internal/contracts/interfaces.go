package contracts

import "context"

// Provider fetches the current PE/ROIC snapshot of a symbol
// ⭐ SSOT: every live data source implements this
type Provider interface {
	Source() Source
	FetchCurrent(ctx context.Context, symbol string) (*FinancialMetrics, error)
}

// HistoricalProvider fetches PE/ROIC of a symbol for one fiscal year
type HistoricalProvider interface {
	Source() Source
	FetchHistorical(ctx context.Context, symbol string, year int) (*FinancialMetrics, error)
}

// MetricsFetcher resolves metrics through the provider chain. It never fails:
// when every provider errors the fallback store answers.
// ⭐ SSOT: consumed by the screener and the year analyzer
type MetricsFetcher interface {
	FetchCurrent(ctx context.Context, symbol string) FinancialMetrics
	FetchHistorical(ctx context.Context, symbol string, year int) FinancialMetrics
}

// YearAnalyzer estimates the Magic Formula return of one year
// ⭐ SSOT: consumed by the backtest simulator
type YearAnalyzer interface {
	AnalyzeYear(ctx context.Context, year int, portfolioSize int) (*YearAnalysis, error)
}
