// Package external holds parsing helpers shared by the financial data provider clients.
package external

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseNumber parses a provider numeric string. Placeholders such as "None",
// "-" or "" and non-finite values are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	switch s {
	case "", "-", "None", "null", "N/A":
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !Finite(v) {
		return 0, false
	}
	return v, true
}

// Finite reports whether v is neither NaN nor infinite
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PositiveFinite reports whether v is a usable PE or return figure
func PositiveFinite(v float64) bool {
	return v > 0 && Finite(v)
}

// YearOf extracts the calendar year of a YYYY-MM-DD date
func YearOf(date string) (int, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return 0, false
	}
	return t.Year(), true
}
