package markettable

import "sort"

// Table holds every per-year constant of the backtest model
// ⭐ SSOT: market multipliers, benchmark returns and static holdings live only here
type Table struct {
	Version                string          `yaml:"version" json:"version"`
	DefaultMultiplier      float64         `yaml:"default_multiplier" json:"default_multiplier"`
	DefaultContext         string          `yaml:"default_context" json:"default_context"`
	DefaultBenchmarkReturn float64         `yaml:"default_benchmark_return" json:"default_benchmark_return"`
	FallbackYear           int             `yaml:"fallback_year" json:"fallback_year"`
	SizeAdjustments        map[int]float64 `yaml:"size_adjustments" json:"size_adjustments"`
	Years                  map[int]Year    `yaml:"years" json:"years"`
}

// Year is the row of one calendar year
type Year struct {
	Multiplier       float64          `yaml:"multiplier" json:"multiplier"`
	Context          string           `yaml:"context" json:"context"`
	BenchmarkReturn  float64          `yaml:"benchmark_return" json:"benchmark_return"`
	FallbackReturn   float64          `yaml:"fallback_return" json:"fallback_return"`
	FallbackHoldings []string         `yaml:"fallback_holdings" json:"fallback_holdings"`
	StaticHoldings   map[int][]string `yaml:"static_holdings" json:"static_holdings"`
}

// FallbackYear is the hardcoded outcome used when a year cannot be analysed
type FallbackYear struct {
	Year     int      // requested year
	Return   float64  // percent
	Holdings []string // truncated to the requested size
}

// Multiplier returns the market multiplier of year
func (t *Table) Multiplier(year int) float64 {
	if y, ok := t.Years[year]; ok {
		return y.Multiplier
	}
	return t.DefaultMultiplier
}

// Context returns the market narrative of year
func (t *Table) Context(year int) string {
	if y, ok := t.Years[year]; ok {
		return y.Context
	}
	return t.DefaultContext
}

// BenchmarkReturn returns the benchmark return of year in percent
func (t *Table) BenchmarkReturn(year int) float64 {
	if y, ok := t.Years[year]; ok {
		return y.BenchmarkReturn
	}
	return t.DefaultBenchmarkReturn
}

// SizeAdjustment returns the return scale of a portfolio size. Sizes without
// an entry are not adjusted.
func (t *Table) SizeAdjustment(size int) float64 {
	if adj, ok := t.SizeAdjustments[size]; ok {
		return adj
	}
	return 1.0
}

// Fallback returns the hardcoded outcome of year, or of the fallback year when
// year is not listed
func (t *Table) Fallback(year, size int) FallbackYear {
	y, ok := t.Years[year]
	if !ok {
		y = t.Years[t.FallbackYear]
	}
	return FallbackYear{
		Year:     year,
		Return:   y.FallbackReturn,
		Holdings: truncate(y.FallbackHoldings, size),
	}
}

// StaticReturn returns the hardcoded strategy return of year
func (t *Table) StaticReturn(year int) float64 {
	return t.Fallback(year, 0).Return
}

// StaticHoldings returns the precomputed top holdings of year for size. The
// smallest list holding at least size symbols is used, else the largest one.
func (t *Table) StaticHoldings(year, size int) []string {
	y, ok := t.Years[year]
	if !ok {
		y = t.Years[t.FallbackYear]
	}
	if len(y.StaticHoldings) == 0 {
		return []string{}
	}

	sizes := make([]int, 0, len(y.StaticHoldings))
	for s := range y.StaticHoldings {
		sizes = append(sizes, s)
	}
	sort.Ints(sizes)

	pick := sizes[len(sizes)-1]
	for _, s := range sizes {
		if s >= size {
			pick = s
			break
		}
	}
	return truncate(y.StaticHoldings[pick], size)
}

// YearsSorted returns the listed years in ascending order
func (t *Table) YearsSorted() []int {
	out := make([]int, 0, len(t.Years))
	for y := range t.Years {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

func truncate(symbols []string, n int) []string {
	if n <= 0 || n > len(symbols) {
		n = len(symbols)
	}
	out := make([]string, n)
	copy(out, symbols[:n])
	return out
}
