package contracts

// RankedCompany is one row of a Magic Formula ranking
// ⭐ SSOT: scorer output consumed by the screener and the backtest
type RankedCompany struct {
	Company       Company          `json:"company"`
	Metrics       FinancialMetrics `json:"metrics"`
	PERank        int              `json:"pe_rank"`        // 1 = lowest PE
	ROICRank      int              `json:"roic_rank"`      // 1 = highest ROIC
	CombinedScore int              `json:"combined_score"` // PERank + ROICRank, lower is better
	Position      int              `json:"position"`       // 1-based order in the output
}

// IsTopRanked checks if the company is in the top n positions
func (r *RankedCompany) IsTopRanked(n int) bool {
	return r.Position <= n && r.Position > 0
}

// Symbols returns the symbols of ranked in order
func Symbols(ranked []RankedCompany) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Company.Symbol
	}
	return out
}
