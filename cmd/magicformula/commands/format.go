package commands

import (
	"fmt"
	"strings"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// every command prints through these helpers
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a boxed title with optional key/value lines
func PrintHeader(title string, lines ...[2]string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	if len(lines) > 0 {
		PrintSeparator()
		for _, kv := range lines {
			fmt.Printf("  %-10s: %s\n", kv[0], kv[1])
		}
	}
	PrintSeparator()
}

// PrintProgress prints a progress step with counter
// Example: [Backtest] Analyzed 2021 [2/5]
func PrintProgress(tag string, message string, current int, total int) {
	fmt.Printf("[%s] %s [%d/%d]\n", tag, message, current, total)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// formatMoney renders a dollar amount with thousands separators
func formatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	out := "$" + b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

// formatPct renders a signed percentage
func formatPct(v float64) string {
	return fmt.Sprintf("%+.1f%%", v)
}

// truncateList joins at most n items, noting how many were left out
func truncateList(items []string, n int) string {
	if len(items) == 0 {
		return "-"
	}
	if len(items) <= n {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s (+%d)", strings.Join(items[:n], ", "), len(items)-n)
}
