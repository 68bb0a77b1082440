package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/storage"
)

// BacktestRunStore implements storage.BacktestRunStore using PostgreSQL.
type BacktestRunStore struct {
	pool *Pool
}

// NewBacktestRunStore creates a new BacktestRunStore.
func NewBacktestRunStore(pool *Pool) *BacktestRunStore {
	return &BacktestRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BacktestRunStore = (*BacktestRunStore)(nil)

const backtestRunColumns = `
	run_id, strategy_type, universe, start_ms, end_ms, periods,
	k, lookback, short_window, long_window, risk_free_rate, periods_per_year,
	sharpe_ratio, annualized_return, annualized_stddev,
	max_drawdown, cumulative_return, cagr
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *BacktestRunStore) Insert(ctx context.Context, r *domain.BacktestRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO backtest_runs (` + backtestRunColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15,
			$16, $17, $18
		)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, string(r.StrategyType), r.Universe, r.StartMs, r.EndMs, r.Periods,
		r.K, r.Lookback, r.ShortWindow, r.LongWindow, r.RiskFreeRate, r.PeriodsPerYear,
		r.Summary.SharpeRatio, r.Summary.AnnualizedReturn, r.Summary.AnnualizedStdDev,
		r.Summary.MaxDrawdown, r.Summary.CumulativeReturn, r.Summary.CAGR,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert backtest run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *BacktestRunStore) GetByID(ctx context.Context, runID string) (*domain.BacktestRun, error) {
	query := `SELECT ` + backtestRunColumns + ` FROM backtest_runs WHERE run_id = $1`

	r, err := scanBacktestRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get backtest run by id: %w", err)
	}
	return r, nil
}

// GetByStrategy retrieves all runs of a strategy type, ordered by run_id ASC.
func (s *BacktestRunStore) GetByStrategy(ctx context.Context, strategyType domain.StrategyType) ([]*domain.BacktestRun, error) {
	query := `
		SELECT ` + backtestRunColumns + `
		FROM backtest_runs
		WHERE strategy_type = $1
		ORDER BY run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, string(strategyType))
	if err != nil {
		return nil, fmt.Errorf("get backtest runs by strategy: %w", err)
	}
	defer rows.Close()

	return scanBacktestRuns(rows)
}

// GetAll retrieves all runs ordered by strategy_type, run_id.
func (s *BacktestRunStore) GetAll(ctx context.Context) ([]*domain.BacktestRun, error) {
	query := `
		SELECT ` + backtestRunColumns + `
		FROM backtest_runs
		ORDER BY strategy_type ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all backtest runs: %w", err)
	}
	defer rows.Close()

	return scanBacktestRuns(rows)
}

// scanBacktestRun scans a single row into a BacktestRun.
func scanBacktestRun(row pgx.Row) (*domain.BacktestRun, error) {
	var r domain.BacktestRun
	var strategyType string

	err := row.Scan(
		&r.RunID, &strategyType, &r.Universe, &r.StartMs, &r.EndMs, &r.Periods,
		&r.K, &r.Lookback, &r.ShortWindow, &r.LongWindow, &r.RiskFreeRate, &r.PeriodsPerYear,
		&r.Summary.SharpeRatio, &r.Summary.AnnualizedReturn, &r.Summary.AnnualizedStdDev,
		&r.Summary.MaxDrawdown, &r.Summary.CumulativeReturn, &r.Summary.CAGR,
	)
	if err != nil {
		return nil, err
	}

	r.StrategyType = domain.StrategyType(strategyType)
	return &r, nil
}

// scanBacktestRuns scans multiple rows into a slice of BacktestRun.
func scanBacktestRuns(rows pgx.Rows) ([]*domain.BacktestRun, error) {
	var runs []*domain.BacktestRun

	for rows.Next() {
		r, err := scanBacktestRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backtest run row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backtest run rows: %w", err)
	}

	return runs, nil
}
