package storage

import (
	"context"

	"commodity-momentum-lab/internal/domain"
)

// SeriesStore provides access to per-asset time series storage.
// The same contract backs price_series and return_series.
type SeriesStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (asset, timestamp_ms).
	InsertBulk(ctx context.Context, points []*domain.SeriesPoint) error

	// GetByAsset retrieves all points for an asset, ordered by timestamp ASC.
	GetByAsset(ctx context.Context, asset string) ([]*domain.SeriesPoint, error)

	// GetByTimeRange retrieves points for an asset within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, asset string, start, end int64) ([]*domain.SeriesPoint, error)

	// ListAssets returns all distinct assets, sorted ASC.
	ListAssets(ctx context.Context) ([]string, error)
}

// PriceSeriesStore provides access to price_series storage.
type PriceSeriesStore interface {
	SeriesStore
}

// ReturnSeriesStore provides access to return_series storage.
type ReturnSeriesStore interface {
	SeriesStore
}

// BacktestRunStore provides access to backtest_runs storage.
type BacktestRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.BacktestRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.BacktestRun, error)

	// GetByStrategy retrieves all runs of a strategy type, ordered by run_id ASC.
	GetByStrategy(ctx context.Context, strategyType domain.StrategyType) ([]*domain.BacktestRun, error)

	// GetAll retrieves all runs ordered by strategy_type, run_id.
	GetAll(ctx context.Context) ([]*domain.BacktestRun, error)
}

// GridResultStore provides access to grid_results storage.
type GridResultStore interface {
	// InsertBulk adds multiple results atomically. Fails entire batch on duplicate
	// (run_id, short_window, long_window).
	InsertBulk(ctx context.Context, results []*domain.GridResult) error

	// GetByRunID retrieves all results of a grid run, ordered by rank ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.GridResult, error)
}
