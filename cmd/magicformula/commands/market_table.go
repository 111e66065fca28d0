package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/magicformula/internal/markettable"
)

// marketTableCmd validates and prints a market table
var marketTableCmd = &cobra.Command{
	Use:   "market-table",
	Short: "Validate and print the market table",
	Long: `Loads the market table (embedded, or --path), validates it and prints
the per-year multipliers, benchmark returns and fallback returns with the
table hash.

Example:
  go run ./cmd/magicformula market-table
  go run ./cmd/magicformula market-table --path ./table.yaml`,
	RunE: runMarketTable,
}

var marketTablePath string

func init() {
	rootCmd.AddCommand(marketTableCmd)

	marketTableCmd.Flags().StringVar(&marketTablePath, "path", "", "YAML file to validate instead of the embedded table")
}

func runMarketTable(cmd *cobra.Command, args []string) error {
	table, err := markettable.Load(marketTablePath)
	if err != nil {
		return err
	}
	hash, err := markettable.Hash(table)
	if err != nil {
		return err
	}

	source := "embedded"
	if marketTablePath != "" {
		source = marketTablePath
	}
	PrintHeader("Market Table",
		[2]string{"Source", source},
		[2]string{"Version", table.Version},
		[2]string{"Hash", hash[:16]},
	)

	widths := []int{6, 10, 12, 12, 40}
	PrintTableHeader([]string{"Year", "Mult", "Benchmark", "Fallback", "Context"}, widths)
	for _, year := range table.YearsSorted() {
		y := table.Years[year]
		PrintTableRow([]string{
			strconv.Itoa(year),
			fmt.Sprintf("%.2f", y.Multiplier),
			formatPct(y.BenchmarkReturn),
			formatPct(y.FallbackReturn),
			y.Context,
		}, widths)
	}

	fmt.Println()
	PrintSuccess("Market table is valid")
	return nil
}
