package backtest

import (
	"math"

	"github.com/wonny/magicformula/internal/contracts"
)

// RiskFreeRatePct is the yearly risk-free rate used by Sharpe and Sortino
const RiskFreeRatePct = 3.0

// Performance derives risk statistics from the yearly snapshot returns.
// Returns are time-weighted: contributions do not count as performance.
// ⭐ SSOT: backtest risk statistics are only computed here
func Performance(snapshots []contracts.PortfolioSnapshot) contracts.PerformanceReport {
	strategy := make([]float64, len(snapshots))
	benchmark := make([]float64, len(snapshots))
	wins := 0
	for i, s := range snapshots {
		strategy[i] = s.AdjustedReturnPct
		benchmark[i] = s.BenchmarkReturnPct
		if s.AdjustedReturnPct > s.BenchmarkReturnPct {
			wins++
		}
	}

	report := contracts.PerformanceReport{
		Strategy:  returnStats(strategy),
		Benchmark: returnStats(benchmark),
	}
	if len(snapshots) == 0 {
		return report
	}

	report.WinRate = round2(float64(wins) / float64(len(snapshots)))
	report.Beta = round2(beta(strategy, benchmark))
	report.AlphaPct = round1(cagr(strategy) - cagr(benchmark))
	return report
}

func returnStats(returns []float64) contracts.ReturnStats {
	if len(returns) == 0 {
		return contracts.ReturnStats{}
	}

	growth := cagr(returns)
	vol := volatility(returns)

	stats := contracts.ReturnStats{
		CAGRPct:        round1(growth),
		VolatilityPct:  round1(vol),
		MaxDrawdownPct: round1(maxDrawdown(returns)),
		BestYearPct:    returns[0],
		WorstYearPct:   returns[0],
	}
	if vol > 0 {
		stats.Sharpe = round2((growth - RiskFreeRatePct) / vol)
	}
	if down := downsideDeviation(returns); down > 0 {
		stats.Sortino = round2((growth - RiskFreeRatePct) / down)
	}
	for _, r := range returns[1:] {
		stats.BestYearPct = math.Max(stats.BestYearPct, r)
		stats.WorstYearPct = math.Min(stats.WorstYearPct, r)
	}
	return stats
}

// cagr is the compound yearly growth rate in percent
func cagr(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r/100
	}
	if growth <= 0 {
		return -100
	}
	return (math.Pow(growth, 1/float64(len(returns))) - 1) * 100
}

// volatility is the sample standard deviation of the yearly returns
func volatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	m := mean(returns)
	var variance float64
	for _, r := range returns {
		d := r - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(returns)-1))
}

// downsideDeviation only looks at losing years
func downsideDeviation(returns []float64) float64 {
	var sum float64
	n := 0
	for _, r := range returns {
		if r < 0 {
			sum += r * r
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// maxDrawdown is the deepest peak-to-trough fall of the growth index, in percent (<= 0)
func maxDrawdown(returns []float64) float64 {
	value, peak, maxDD := 1.0, 1.0, 0.0
	for _, r := range returns {
		value *= 1 + r/100
		if value > peak {
			peak = value
		}
		if dd := (value - peak) / peak * 100; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// beta is cov(strategy, benchmark) / var(benchmark)
func beta(strategy, benchmark []float64) float64 {
	if len(strategy) < 2 || len(strategy) != len(benchmark) {
		return 0
	}
	ms, mb := mean(strategy), mean(benchmark)
	var cov, varB float64
	for i := range strategy {
		cov += (strategy[i] - ms) * (benchmark[i] - mb)
		varB += (benchmark[i] - mb) * (benchmark[i] - mb)
	}
	if varB == 0 {
		return 0
	}
	return cov / varB
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
