package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "magicformula",
	Short: "Magic Formula stock screener and backtester",
	Long: `Magic Formula CLI

Ranks a fixed universe of US large caps by earnings yield (low P/E) and
return on capital (high ROIC), and backtests the strategy against a
benchmark with yearly contributions.

Usage:
  go run ./cmd/magicformula [command]

Examples:
  go run ./cmd/magicformula screen --top 20
  go run ./cmd/magicformula backtest run --period 5years --size 10
  go run ./cmd/magicformula api --port 8089
  go run ./cmd/magicformula scheduler start`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load before the environment (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
