package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/magicformula/internal/api"
	"github.com/wonny/magicformula/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Starts the JSON/WebSocket API server.

Endpoints:
  GET  /health                - Health check
  GET  /api/screener          - Latest ranking (runs the screener when empty)
  POST /api/screener/refresh  - Re-run the screener
  POST /api/backtest          - Run a backtest
  GET  /api/backtest/stream   - Backtest over WebSocket with progress events
  GET  /api/market-table      - Market table and its hash

Example:
  go run ./cmd/magicformula api
  go run ./cmd/magicformula api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT or 8089)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "also run the scheduled jobs in this process")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	router := api.NewRouter(api.Handlers{
		Screener:    handlers.NewScreenerHandler(a.screener, a.log),
		Backtest:    handlers.NewBacktestHandler(a.engine, a.log),
		MarketTable: handlers.NewMarketTableHandler(a.table, a.log),
	}, a.log)
	server := api.New(a.cfg, a.log, router)

	if apiWithScheduler {
		sched, err := newScheduler(a)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", a.cfg.Port))
	PrintInfo("Press Ctrl+C to stop")

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
