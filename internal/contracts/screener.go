package contracts

import "time"

// ScreenerResult is the output of one screener run
type ScreenerResult struct {
	RunID             string          `json:"run_id"`
	Ranked            []RankedCompany `json:"ranked"`
	Excluded          []string        `json:"excluded"`
	RealDataCount     int             `json:"real_data_count"`
	FallbackDataCount int             `json:"fallback_data_count"`
	GeneratedAt       time.Time       `json:"generated_at"`
	Duration          time.Duration   `json:"duration"`
}

// Top returns at most n ranked companies
func (r *ScreenerResult) Top(n int) []RankedCompany {
	if n <= 0 || n >= len(r.Ranked) {
		return r.Ranked
	}
	return r.Ranked[:n]
}
