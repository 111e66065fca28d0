package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/internal/selection"
)

// screenCmd ranks the universe with live data
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Rank the universe by the Magic Formula",
	Long: `Fetches current P/E and ROIC for every company in the universe and
prints the Magic Formula ranking (lower combined score is better).

Providers are tried in order; companies without live data use the
built-in baseline values and are marked as fallback.

Example:
  go run ./cmd/magicformula screen
  go run ./cmd/magicformula screen --top 10
  go run ./cmd/magicformula screen --last`,
	RunE: runScreen,
}

var (
	screenTop  int
	screenLast bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().IntVar(&screenTop, "top", 20, "number of companies to print (0 = all)")
	screenCmd.Flags().BoolVar(&screenLast, "last", false, "print the last persisted run instead of screening")
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var result *contracts.ScreenerResult
	if screenLast {
		if a.repo == nil {
			return fmt.Errorf("--last needs DATABASE_URL")
		}
		result, err = a.repo.LatestScreenerRun(ctx)
	} else {
		result, err = screen(ctx, a)
	}
	if err != nil {
		return err
	}

	printScreenerResult(result, screenTop)
	return nil
}

func screen(ctx context.Context, a *app) (*contracts.ScreenerResult, error) {
	PrintHeader("Magic Formula Screener",
		[2]string{"Started", time.Now().Format("2006-01-02 15:04:05")},
	)

	result, err := a.screener.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("screen: %w", err)
	}
	return result, nil
}

func printScreenerResult(result *contracts.ScreenerResult, top int) {
	fmt.Println()
	widths := []int{4, 7, 28, 8, 8, 6, 6, 6, 10}
	PrintTableHeader([]string{"#", "Symbol", "Name", "P/E", "ROIC", "PE#", "ROIC#", "Score", "Source"}, widths)

	for _, r := range result.Top(top) {
		source := string(r.Metrics.Source)
		if r.Metrics.IsFallback {
			source += "*"
		}
		PrintTableRow([]string{
			strconv.Itoa(r.Position),
			r.Company.Symbol,
			truncateName(r.Company.Name, widths[2]),
			fmt.Sprintf("%.1f", r.Metrics.PERatio),
			fmt.Sprintf("%.1f%%", r.Metrics.ROIC),
			strconv.Itoa(r.PERank),
			strconv.Itoa(r.ROICRank),
			strconv.Itoa(r.CombinedScore),
			source,
		}, widths)
	}

	fmt.Println()
	PrintKeyValue("Ranked", strconv.Itoa(len(result.Ranked)), 10)
	PrintKeyValue("Excluded", truncateList(result.Excluded, 10), 10)
	PrintKeyValue("Live data", strconv.Itoa(result.RealDataCount), 10)
	PrintKeyValue("Fallback", strconv.Itoa(result.FallbackDataCount), 10)
	PrintKeyValue("Run", result.RunID, 10)
	fmt.Println()

	live, fallback := selection.CountSources(result.Ranked)
	switch {
	case live == 0 && fallback > 0:
		PrintWarning("No provider returned live data; ranking uses baseline values only")
	case fallback > 0:
		PrintInfo(fmt.Sprintf("%d of %d ranked companies use baseline values (*)", fallback, live+fallback))
	default:
		PrintSuccess(fmt.Sprintf("All %d ranked companies use live data", live))
	}
}

func truncateName(name string, width int) string {
	r := []rune(name)
	if len(r) <= width {
		return name
	}
	return string(r[:width-1]) + "…"
}
