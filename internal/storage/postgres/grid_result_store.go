package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/storage"
)

// GridResultStore implements storage.GridResultStore using PostgreSQL.
type GridResultStore struct {
	pool *Pool
}

// NewGridResultStore creates a new GridResultStore.
func NewGridResultStore(pool *Pool) *GridResultStore {
	return &GridResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.GridResultStore = (*GridResultStore)(nil)

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
// Results must belong to a stored run; an unknown run_id yields ErrNotFound.
func (s *GridResultStore) InsertBulk(ctx context.Context, results []*domain.GridResult) error {
	if len(results) == 0 {
		return nil
	}
	for _, r := range results {
		if r == nil || r.RunID == "" {
			return storage.ErrInvalidInput
		}
	}

	query := `
		INSERT INTO grid_results (
			run_id, rank, short_window, long_window,
			cumulative_return, return_stddev,
			annualized_return, annualized_stddev, sharpe_ratio
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	return s.pool.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range results {
			batch.Queue(query,
				r.RunID, r.Rank, r.ShortWindow, r.LongWindow,
				r.CumulativeReturn, r.ReturnStdDev,
				r.AnnualizedReturn, r.AnnualizedStdDev, r.SharpeRatio,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for range results {
			if _, err := br.Exec(); err != nil {
				br.Close()
				switch {
				case isDuplicateKeyError(err):
					return storage.ErrDuplicateKey
				case isForeignKeyError(err):
					return storage.ErrNotFound
				}
				return fmt.Errorf("insert grid result in bulk: %w", err)
			}
		}
		return br.Close()
	})
}

// GetByRunID retrieves all results of a grid run, ordered by rank ASC.
func (s *GridResultStore) GetByRunID(ctx context.Context, runID string) ([]*domain.GridResult, error) {
	query := `
		SELECT
			run_id, rank, short_window, long_window,
			cumulative_return, return_stddev,
			annualized_return, annualized_stddev, sharpe_ratio
		FROM grid_results
		WHERE run_id = $1
		ORDER BY rank ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get grid results by run id: %w", err)
	}
	defer rows.Close()

	var results []*domain.GridResult
	for rows.Next() {
		var r domain.GridResult
		err := rows.Scan(
			&r.RunID, &r.Rank, &r.ShortWindow, &r.LongWindow,
			&r.CumulativeReturn, &r.ReturnStdDev,
			&r.AnnualizedReturn, &r.AnnualizedStdDev, &r.SharpeRatio,
		)
		if err != nil {
			return nil, fmt.Errorf("scan grid result row: %w", err)
		}
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grid result rows: %w", err)
	}

	return results, nil
}
