package commands

import (
	"testing"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{999.5, "$999.50"},
		{1000, "$1,000.00"},
		{1234567.891, "$1,234,567.89"},
		{-42000, "-$42,000.00"},
	}

	for _, tc := range tests {
		if got := formatMoney(tc.in); got != tc.want {
			t.Errorf("formatMoney(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFormatPct(t *testing.T) {
	if got := formatPct(12.34); got != "+12.3%" {
		t.Errorf("got %s", got)
	}
	if got := formatPct(-3); got != "-3.0%" {
		t.Errorf("got %s", got)
	}
}

func TestTruncateList(t *testing.T) {
	if got := truncateList(nil, 3); got != "-" {
		t.Errorf("got %s", got)
	}
	if got := truncateList([]string{"A", "B"}, 3); got != "A, B" {
		t.Errorf("got %s", got)
	}
	if got := truncateList([]string{"A", "B", "C", "D"}, 2); got != "A, B (+2)" {
		t.Errorf("got %s", got)
	}
}
