package selection

import (
	"sort"

	"github.com/wonny/magicformula/internal/contracts"
)

// Score ranks entries by the Magic Formula: PE rank ascending (1 = cheapest)
// plus ROIC rank descending (1 = most profitable), sorted by the sum.
// Entries without a positive finite PE and ROIC are dropped. Equal values
// and equal combined scores are ordered by symbol so the output is stable
// across runs.
// ⭐ SSOT: Magic Formula ranking is computed only here
func Score(entries []contracts.CompanyMetrics) []contracts.RankedCompany {
	eligible := make([]contracts.CompanyMetrics, 0, len(entries))
	for _, e := range entries {
		if e.Metrics.Rankable() {
			eligible = append(eligible, e)
		}
	}

	ranked := make([]contracts.RankedCompany, len(eligible))
	for i, e := range eligible {
		ranked[i] = contracts.RankedCompany{Company: e.Company, Metrics: e.Metrics}
	}
	if len(ranked) == 0 {
		return ranked
	}

	// PE rank
	order := indices(len(ranked))
	sort.SliceStable(order, func(a, b int) bool {
		x, y := ranked[order[a]], ranked[order[b]]
		if x.Metrics.PERatio != y.Metrics.PERatio {
			return x.Metrics.PERatio < y.Metrics.PERatio
		}
		return x.Company.Symbol < y.Company.Symbol
	})
	for rank, i := range order {
		ranked[i].PERank = rank + 1
	}

	// ROIC rank
	sort.SliceStable(order, func(a, b int) bool {
		x, y := ranked[order[a]], ranked[order[b]]
		if x.Metrics.ROIC != y.Metrics.ROIC {
			return x.Metrics.ROIC > y.Metrics.ROIC
		}
		return x.Company.Symbol < y.Company.Symbol
	})
	for rank, i := range order {
		ranked[i].ROICRank = rank + 1
	}

	for i := range ranked {
		ranked[i].CombinedScore = ranked[i].PERank + ranked[i].ROICRank
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CombinedScore != ranked[j].CombinedScore {
			return ranked[i].CombinedScore < ranked[j].CombinedScore
		}
		return ranked[i].Company.Symbol < ranked[j].Company.Symbol
	})

	for i := range ranked {
		ranked[i].Position = i + 1
	}

	return ranked
}

// Excluded returns the symbols Score drops, in input order
func Excluded(entries []contracts.CompanyMetrics) []string {
	out := make([]string, 0)
	for _, e := range entries {
		if !e.Metrics.Rankable() {
			out = append(out, e.Company.Symbol)
		}
	}
	return out
}

// CountSources returns how many entries came from a live provider and how many
// from the fallback store
func CountSources(ranked []contracts.RankedCompany) (live, fallback int) {
	for _, r := range ranked {
		if r.Metrics.IsFallback {
			fallback++
		} else {
			live++
		}
	}
	return live, fallback
}

// Averages returns the mean PE and ROIC of ranked, zero for an empty set
func Averages(ranked []contracts.RankedCompany) (pe, roic float64) {
	if len(ranked) == 0 {
		return 0, 0
	}
	for _, r := range ranked {
		pe += r.Metrics.PERatio
		roic += r.Metrics.ROIC
	}
	n := float64(len(ranked))
	return pe / n, roic / n
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
