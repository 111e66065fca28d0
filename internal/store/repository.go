package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/magicformula/internal/contracts"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when no run has been recorded yet
var ErrNotFound = errors.New("run not found")

// Repository records screener and backtest runs
// ⭐ SSOT: run history is read and written only here
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new run history repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Migrate applies the embedded schema files in name order. Every statement
// is idempotent.
func (r *Repository) Migrate(ctx context.Context) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrations.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := r.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveScreenerRun saves a screener result and its ranking
func (r *Repository) SaveScreenerRun(ctx context.Context, result *contracts.ScreenerResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	excluded := result.Excluded
	if excluded == nil {
		excluded = []string{}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO screener_runs (
			run_id, generated_at, real_count, fallback_count, excluded, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id) DO NOTHING
	`, result.RunID, result.GeneratedAt, result.RealDataCount, result.FallbackDataCount, excluded, result.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to save screener run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, rc := range result.Ranked {
		batch.Queue(`
			INSERT INTO screener_rankings (
				run_id, position, symbol, name, exchange,
				pe_ratio, roic, pe_rank, roic_rank, combined_score,
				source, is_fallback, roic_basis, fetched_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (run_id, position) DO NOTHING
		`,
			result.RunID, rc.Position, rc.Company.Symbol, rc.Company.Name, rc.Company.Exchange,
			rc.Metrics.PERatio, rc.Metrics.ROIC, rc.PERank, rc.ROICRank, rc.CombinedScore,
			string(rc.Metrics.Source), rc.Metrics.IsFallback, string(rc.Metrics.Basis), rc.Metrics.FetchedAt,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert ranking rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LatestScreenerRun loads the most recent screener result
func (r *Repository) LatestScreenerRun(ctx context.Context) (*contracts.ScreenerResult, error) {
	var result contracts.ScreenerResult
	var durationMS int64

	err := r.pool.QueryRow(ctx, `
		SELECT run_id, generated_at, real_count, fallback_count, excluded, duration_ms
		FROM screener_runs
		ORDER BY generated_at DESC
		LIMIT 1
	`).Scan(&result.RunID, &result.GeneratedAt, &result.RealDataCount, &result.FallbackDataCount, &result.Excluded, &durationMS)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get screener run: %w", err)
	}
	result.Duration = time.Duration(durationMS) * time.Millisecond

	rows, err := r.pool.Query(ctx, `
		SELECT
			position, symbol, name, exchange,
			pe_ratio, roic, pe_rank, roic_rank, combined_score,
			source, is_fallback, roic_basis, fetched_at
		FROM screener_rankings
		WHERE run_id = $1
		ORDER BY position ASC
	`, result.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking rows: %w", err)
	}
	defer rows.Close()

	result.Ranked = make([]contracts.RankedCompany, 0)
	for rows.Next() {
		var rc contracts.RankedCompany
		var source, basis string
		var fetchedAt *time.Time

		if err := rows.Scan(
			&rc.Position, &rc.Company.Symbol, &rc.Company.Name, &rc.Company.Exchange,
			&rc.Metrics.PERatio, &rc.Metrics.ROIC, &rc.PERank, &rc.ROICRank, &rc.CombinedScore,
			&source, &rc.Metrics.IsFallback, &basis, &fetchedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rc.Metrics.Symbol = rc.Company.Symbol
		rc.Metrics.Source = contracts.Source(source)
		rc.Metrics.Basis = contracts.ROICBasis(basis)
		if fetchedAt != nil {
			rc.Metrics.FetchedAt = *fetchedAt
		}
		result.Ranked = append(result.Ranked, rc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &result, nil
}

// SaveBacktestRun saves a backtest result
func (r *Repository) SaveBacktestRun(ctx context.Context, result *contracts.BacktestResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest result: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO backtest_runs (
			run_id, started_at, portfolio_size, years, final_value,
			strategy_return, benchmark_return, data_quality, degraded, result_json
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id) DO UPDATE SET
			result_json = EXCLUDED.result_json,
			created_at = NOW()
	`,
		result.RunID, result.StartedAt, result.Config.PortfolioSize, result.Config.Years, result.FinalValue,
		result.StrategyTotalReturnPct, result.BenchmarkTotalReturnPct, result.DataQuality, result.Degraded, resultJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save backtest run: %w", err)
	}

	return nil
}

// RecentBacktestRuns loads the latest backtest results, newest first
func (r *Repository) RecentBacktestRuns(ctx context.Context, limit int) ([]*contracts.BacktestResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT result_json
		FROM backtest_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest runs: %w", err)
	}
	defer rows.Close()

	results := make([]*contracts.BacktestResult, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var result contracts.BacktestResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal backtest result: %w", err)
		}
		results = append(results, &result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}
