package clickhouse

import (
	"context"
	"fmt"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/storage"
)

// Table names backing the series stores.
const (
	PriceSeriesTable  = "price_series"
	ReturnSeriesTable = "return_series"
)

// SeriesStore implements storage.SeriesStore using ClickHouse.
// MergeTree does not enforce keys, so duplicates are rejected before insert.
type SeriesStore struct {
	conn  *Conn
	table string
}

// NewPriceSeriesStore creates a store over price_series.
func NewPriceSeriesStore(conn *Conn) *SeriesStore {
	return &SeriesStore{conn: conn, table: PriceSeriesTable}
}

// NewReturnSeriesStore creates a store over return_series.
func NewReturnSeriesStore(conn *Conn) *SeriesStore {
	return &SeriesStore{conn: conn, table: ReturnSeriesTable}
}

// Compile-time interface checks.
var (
	_ storage.PriceSeriesStore  = (*SeriesStore)(nil)
	_ storage.ReturnSeriesStore = (*SeriesStore)(nil)
)

// InsertBulk adds multiple points. Fails entire batch on duplicate (asset, timestamp_ms).
func (s *SeriesStore) InsertBulk(ctx context.Context, points []*domain.SeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates and collect the span per asset
	type key struct {
		asset       string
		timestampMs int64
	}
	type span struct{ from, to int64 }
	seen := make(map[key]struct{}, len(points))
	spans := make(map[string]span)
	for _, p := range points {
		if p == nil || p.Asset == "" {
			return storage.ErrInvalidInput
		}
		k := key{p.Asset, p.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}

		sp, ok := spans[p.Asset]
		if !ok {
			sp = span{p.TimestampMs, p.TimestampMs}
		}
		sp.from = min(sp.from, p.TimestampMs)
		sp.to = max(sp.to, p.TimestampMs)
		spans[p.Asset] = sp
	}

	// Check for duplicates against existing rows, one query per asset
	for asset, sp := range spans {
		existing, err := s.GetByTimeRange(ctx, asset, sp.from, sp.to)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for _, e := range existing {
			if _, dup := seen[key{e.Asset, e.TimestampMs}]; dup {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf(
		"INSERT INTO %s (asset, timestamp_ms, value)", s.table))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(p.Asset, p.TimestampMs, p.Value); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByAsset retrieves all points for an asset, ordered by timestamp ASC.
func (s *SeriesStore) GetByAsset(ctx context.Context, asset string) ([]*domain.SeriesPoint, error) {
	query := fmt.Sprintf(`
		SELECT asset, timestamp_ms, value
		FROM %s
		WHERE asset = ?
		ORDER BY timestamp_ms ASC
	`, s.table)

	rows, err := s.conn.Query(ctx, query, asset)
	if err != nil {
		return nil, fmt.Errorf("query %s by asset: %w", s.table, err)
	}
	defer rows.Close()

	return scanSeriesPoints(rows)
}

// GetByTimeRange retrieves points for an asset within [start, end] (inclusive).
func (s *SeriesStore) GetByTimeRange(ctx context.Context, asset string, start, end int64) ([]*domain.SeriesPoint, error) {
	query := fmt.Sprintf(`
		SELECT asset, timestamp_ms, value
		FROM %s
		WHERE asset = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`, s.table)

	rows, err := s.conn.Query(ctx, query, asset, start, end)
	if err != nil {
		return nil, fmt.Errorf("query %s by time range: %w", s.table, err)
	}
	defer rows.Close()

	return scanSeriesPoints(rows)
}

// ListAssets returns all distinct assets, sorted ASC.
func (s *SeriesStore) ListAssets(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, fmt.Sprintf("SELECT DISTINCT asset FROM %s ORDER BY asset ASC", s.table))
	if err != nil {
		return nil, fmt.Errorf("list %s assets: %w", s.table, err)
	}
	defer rows.Close()

	var assets []string
	for rows.Next() {
		var asset string
		if err := rows.Scan(&asset); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return assets, nil
}

// scanSeriesPoints scans multiple rows.
func scanSeriesPoints(rows chRows) ([]*domain.SeriesPoint, error) {
	var points []*domain.SeriesPoint

	for rows.Next() {
		var p domain.SeriesPoint
		if err := rows.Scan(&p.Asset, &p.TimestampMs, &p.Value); err != nil {
			return nil, fmt.Errorf("scan series row: %w", err)
		}
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series rows: %w", err)
	}

	return points, nil
}
