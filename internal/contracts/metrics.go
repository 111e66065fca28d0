package contracts

import (
	"math"
	"time"
)

// Source identifies where a FinancialMetrics value came from
type Source string

const (
	SourceAlphaVantage Source = "alpha_vantage"
	SourceFinnhub      Source = "finnhub"
	SourceFMP          Source = "fmp"
	SourceFinviz       Source = "finviz"
	SourceFallback     Source = "fallback"
)

// IsLive reports whether the value was fetched from a remote provider
func (s Source) IsLive() bool {
	return s != SourceFallback && s != ""
}

// ROICBasis records which figure the ROIC field actually carries.
// Most providers only expose return on equity, which is used as a proxy.
type ROICBasis string

const (
	BasisROE    ROICBasis = "roe"    // return on equity
	BasisROCE   ROICBasis = "roce"   // return on capital employed
	BasisROIC   ROICBasis = "roic"   // net income over equity plus debt
	BasisStatic ROICBasis = "static" // fallback baseline table
)

// FinancialMetrics is the PE/ROIC pair of one symbol, either current (Year == 0)
// or for a past fiscal year
// ⭐ SSOT: value object shared by fetcher, scorer and backtest
type FinancialMetrics struct {
	Symbol     string    `json:"symbol"`
	PERatio    float64   `json:"pe_ratio"`
	ROIC       float64   `json:"roic"` // percent, may be negative
	Source     Source    `json:"source"`
	IsFallback bool      `json:"is_fallback"`
	Basis      ROICBasis `json:"roic_basis"`
	Year       int       `json:"year,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Rankable reports whether the entry takes part in Magic Formula ranking
func (m FinancialMetrics) Rankable() bool {
	return positiveFinite(m.PERatio) && positiveFinite(m.ROIC)
}

// CompanyMetrics pairs a company with its resolved metrics
type CompanyMetrics struct {
	Company Company          `json:"company"`
	Metrics FinancialMetrics `json:"metrics"`
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
