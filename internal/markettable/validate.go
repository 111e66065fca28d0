package markettable

import (
	"fmt"
	"math"
)

// ValidationError is a table that must not be used
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(t *Table) error {
	if t.Version == "" {
		return ValidationError{"version", "required"}
	}
	if !positive(t.DefaultMultiplier) {
		return ValidationError{"default_multiplier", "must be > 0"}
	}
	if !finite(t.DefaultBenchmarkReturn) {
		return ValidationError{"default_benchmark_return", "must be finite"}
	}
	if len(t.Years) == 0 {
		return ValidationError{"years", "at least one year required"}
	}
	if _, ok := t.Years[t.FallbackYear]; !ok {
		return ValidationError{"fallback_year", fmt.Sprintf("%d is not listed in years", t.FallbackYear)}
	}

	for size, adj := range t.SizeAdjustments {
		if size < 1 {
			return ValidationError{"size_adjustments", fmt.Sprintf("size %d must be >= 1", size)}
		}
		if !positive(adj) {
			return ValidationError{fmt.Sprintf("size_adjustments.%d", size), "must be > 0"}
		}
	}

	for year, y := range t.Years {
		field := fmt.Sprintf("years.%d", year)

		if !positive(y.Multiplier) {
			return ValidationError{field + ".multiplier", "must be > 0"}
		}
		if !finite(y.BenchmarkReturn) || y.BenchmarkReturn <= -100 {
			return ValidationError{field + ".benchmark_return", "must be finite and > -100"}
		}
		if !finite(y.FallbackReturn) || y.FallbackReturn <= -100 {
			return ValidationError{field + ".fallback_return", "must be finite and > -100"}
		}
		if len(y.FallbackHoldings) == 0 {
			return ValidationError{field + ".fallback_holdings", "required"}
		}
		if err := unique(y.FallbackHoldings); err != nil {
			return ValidationError{field + ".fallback_holdings", err.Error()}
		}

		for size, holdings := range y.StaticHoldings {
			if len(holdings) != size {
				return ValidationError{
					fmt.Sprintf("%s.static_holdings.%d", field, size),
					fmt.Sprintf("expected %d symbols, got %d", size, len(holdings)),
				}
			}
			if err := unique(holdings); err != nil {
				return ValidationError{fmt.Sprintf("%s.static_holdings.%d", field, size), err.Error()}
			}
		}
	}

	return nil
}

func unique(symbols []string) error {
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		if s == "" {
			return fmt.Errorf("empty symbol")
		}
		if seen[s] {
			return fmt.Errorf("duplicate symbol %s", s)
		}
		seen[s] = true
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && finite(v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
