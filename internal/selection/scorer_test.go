package selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/magicformula/internal/contracts"
)

func entry(symbol string, pe, roic float64) contracts.CompanyMetrics {
	return contracts.CompanyMetrics{
		Company: contracts.Company{Name: symbol + " Corp", Symbol: symbol},
		Metrics: contracts.FinancialMetrics{Symbol: symbol, PERatio: pe, ROIC: roic, Source: contracts.SourceFinnhub},
	}
}

func TestScore_Example(t *testing.T) {
	ranked := Score([]contracts.CompanyMetrics{
		entry("AAA", 10, 20),
		entry("BBB", 15, 10),
		entry("CCC", 30, 40),
	})

	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"AAA", "CCC", "BBB"}, contracts.Symbols(ranked))

	assert.Equal(t, 1, ranked[0].PERank)
	assert.Equal(t, 2, ranked[0].ROICRank)
	assert.Equal(t, 3, ranked[0].CombinedScore)

	assert.Equal(t, 3, ranked[1].PERank)
	assert.Equal(t, 1, ranked[1].ROICRank)
	assert.Equal(t, 4, ranked[1].CombinedScore)

	assert.Equal(t, 5, ranked[2].CombinedScore)

	for i, r := range ranked {
		assert.Equal(t, i+1, r.Position)
	}
}

func TestScore_Exclusions(t *testing.T) {
	entries := []contracts.CompanyMetrics{
		entry("AAA", 10, 20),
		entry("NEG", 12, -5),
		entry("ZPE", 0, 30),
		entry("NAN", math.NaN(), 30),
		entry("INF", 11, math.Inf(1)),
		entry("BBB", 15, 10),
	}

	ranked := Score(entries)
	assert.Equal(t, []string{"AAA", "BBB"}, contracts.Symbols(ranked))
	assert.Equal(t, []string{"NEG", "ZPE", "NAN", "INF"}, Excluded(entries))
}

func TestScore_DensePermutation(t *testing.T) {
	entries := []contracts.CompanyMetrics{
		entry("A", 12, 9), entry("B", 8, 31), entry("C", 40, 22),
		entry("D", 19, 14), entry("E", 25, 50), entry("F", 7, 3),
	}

	ranked := Score(entries)
	require.Len(t, ranked, len(entries))

	peSeen := map[int]bool{}
	roicSeen := map[int]bool{}
	for _, r := range ranked {
		peSeen[r.PERank] = true
		roicSeen[r.ROICRank] = true
		assert.Equal(t, r.PERank+r.ROICRank, r.CombinedScore)
	}
	for i := 1; i <= len(entries); i++ {
		assert.True(t, peSeen[i], "pe rank %d missing", i)
		assert.True(t, roicSeen[i], "roic rank %d missing", i)
	}

	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i-1].CombinedScore, ranked[i].CombinedScore)
	}
}

func TestScore_TieBreakBySymbol(t *testing.T) {
	ranked := Score([]contracts.CompanyMetrics{
		entry("ZZZ", 10, 10),
		entry("AAA", 10, 10),
	})

	require.Len(t, ranked, 2)
	assert.Equal(t, "AAA", ranked[0].Company.Symbol)
	assert.Equal(t, 1, ranked[0].PERank)
	assert.Equal(t, 1, ranked[0].ROICRank)
	assert.Equal(t, 2, ranked[1].PERank)

	again := Score([]contracts.CompanyMetrics{
		entry("AAA", 10, 10),
		entry("ZZZ", 10, 10),
	})
	assert.Equal(t, ranked, again)
}

func TestScore_Empty(t *testing.T) {
	ranked := Score(nil)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)

	ranked = Score([]contracts.CompanyMetrics{entry("NEG", -1, 5)})
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestCountSourcesAndAverages(t *testing.T) {
	fb := entry("FB", 20, 10)
	fb.Metrics.IsFallback = true
	fb.Metrics.Source = contracts.SourceFallback

	ranked := Score([]contracts.CompanyMetrics{entry("AAA", 10, 30), fb})

	live, fallback := CountSources(ranked)
	assert.Equal(t, 1, live)
	assert.Equal(t, 1, fallback)

	pe, roic := Averages(ranked)
	assert.InDelta(t, 15.0, pe, 1e-9)
	assert.InDelta(t, 20.0, roic, 1e-9)

	pe, roic = Averages(nil)
	assert.Zero(t, pe)
	assert.Zero(t, roic)
}
