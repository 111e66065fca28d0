package commands

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/magicformula/internal/backtest"
	"github.com/wonny/magicformula/internal/contracts"
)

// backtestCmd groups the backtest subcommands
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest the Magic Formula against the benchmark",
	Long: `Simulates a yearly-rebalanced Magic Formula portfolio next to a
benchmark portfolio, both receiving the same contributions.

Example:
  go run ./cmd/magicformula backtest run --period 5years --size 10
  go run ./cmd/magicformula backtest run --years 2021,2022 --initial 5000 --monthly 250
  go run ./cmd/magicformula backtest history --limit 5`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a backtest",
		Long: `Runs a backtest over a period preset or an explicit list of years.

Flags:
  --period    5years | 3years | 1year (default 5years)
  --years     explicit years, overrides --period
  --size      portfolio size (default 10)
  --initial   initial investment (default 10000)
  --monthly   monthly contribution (default 500)`,
		RunE: runBacktest,
	}

	backtestHistoryCmd = &cobra.Command{
		Use:   "history",
		Short: "List recent persisted backtest runs",
		RunE:  runBacktestHistory,
	}

	// Flags
	backtestPeriod  string
	backtestYears   []int
	backtestSize    int
	backtestInitial float64
	backtestMonthly float64
	backtestLimit   int
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)
	backtestCmd.AddCommand(backtestHistoryCmd)

	backtestRunCmd.Flags().StringVar(&backtestPeriod, "period", backtest.DefaultPeriod, "period preset (5years|3years|1year)")
	backtestRunCmd.Flags().IntSliceVar(&backtestYears, "years", nil, "explicit years, e.g. 2020,2021 (overrides --period)")
	backtestRunCmd.Flags().IntVar(&backtestSize, "size", backtest.DefaultPortfolioSize, "portfolio size")
	backtestRunCmd.Flags().Float64Var(&backtestInitial, "initial", backtest.DefaultInitialInvestment, "initial investment")
	backtestRunCmd.Flags().Float64Var(&backtestMonthly, "monthly", backtest.DefaultMonthlyContribution, "monthly contribution")

	backtestHistoryCmd.Flags().IntVar(&backtestLimit, "limit", 10, "number of runs to list")
}

func backtestConfig() (contracts.BacktestConfig, error) {
	years := backtestYears
	if len(years) == 0 {
		var err error
		years, err = backtest.PeriodYears(backtestPeriod)
		if err != nil {
			return contracts.BacktestConfig{}, err
		}
	}

	cfg := contracts.BacktestConfig{
		Years:               years,
		PortfolioSize:       backtestSize,
		InitialInvestment:   backtestInitial,
		MonthlyContribution: backtestMonthly,
	}
	return cfg, cfg.Validate()
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := backtestConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	PrintHeader("Magic Formula Backtest",
		[2]string{"Years", fmt.Sprint(cfg.Years)},
		[2]string{"Size", strconv.Itoa(cfg.PortfolioSize)},
		[2]string{"Initial", formatMoney(cfg.InitialInvestment)},
		[2]string{"Monthly", formatMoney(cfg.MonthlyContribution)},
	)

	result, err := a.engine.RunWithProgress(ctx, cfg, func(done, total int, y *contracts.YearAnalysis) {
		msg := fmt.Sprintf("Analyzed %d: est %s", y.Year, formatPct(y.EstimatedReturnPct))
		if y.IsStaticFallback {
			msg += " (static)"
		}
		PrintProgress("Backtest", msg, done, total)
	})
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	printBacktestResult(result)
	return nil
}

func printBacktestResult(r *contracts.BacktestResult) {
	fmt.Println()
	widths := []int{6, 10, 10, 14, 14, 40}
	PrintTableHeader([]string{"Year", "Strategy", "Benchmark", "MF value", "Bench value", "Holdings"}, widths)
	for _, s := range r.Snapshots {
		PrintTableRow([]string{
			strconv.Itoa(s.Year),
			formatPct(s.AdjustedReturnPct),
			formatPct(s.BenchmarkReturnPct),
			formatMoney(s.MagicFormulaValue),
			formatMoney(s.BenchmarkValue),
			truncateList(s.Holdings, 5),
		}, widths)
	}

	fmt.Println()
	PrintKeyValue("Contributed", formatMoney(r.TotalContributions), 14)
	PrintKeyValue("Final value", formatMoney(r.FinalValue), 14)
	PrintKeyValue("Benchmark", formatMoney(r.FinalBenchmarkValue), 14)
	PrintKeyValue("Strategy", formatPct(r.StrategyTotalReturnPct), 14)
	PrintKeyValue("Benchmark ret", formatPct(r.BenchmarkTotalReturnPct), 14)
	PrintKeyValue("Outperformance", formatPct(r.OutperformancePct), 14)
	PrintKeyValue("Data quality", fmt.Sprintf("%s (%d live / %d fallback)", r.DataQuality, r.RealDataPoints, r.FallbackDataPoints), 14)
	PrintKeyValue("Run", r.RunID, 14)
	fmt.Println()

	if r.Degraded {
		PrintWarning("Live analysis failed; results come from the static market table")
		return
	}
	PrintSuccess(fmt.Sprintf("Backtest completed in %s", r.Duration.Round(time.Millisecond)))
}

func runBacktestHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if a.repo == nil {
		return fmt.Errorf("backtest history needs DATABASE_URL")
	}

	runs, err := a.repo.RecentBacktestRuns(cmd.Context(), backtestLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(runs) == 0 {
		PrintInfo("No backtest runs recorded yet")
		return nil
	}

	widths := []int{32, 20, 6, 10, 10, 10}
	PrintTableHeader([]string{"Run", "Started", "Size", "Strategy", "Benchmark", "Quality"}, widths)
	for _, r := range runs {
		PrintTableRow([]string{
			r.RunID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			strconv.Itoa(r.Config.PortfolioSize),
			formatPct(r.StrategyTotalReturnPct),
			formatPct(r.BenchmarkTotalReturnPct),
			r.DataQuality,
		}, widths)
	}
	return nil
}
