package ingestion

import (
	"context"

	"github.com/sirupsen/logrus"

	"commodity-momentum-lab/internal/storage"
)

// RowsObserver receives the number of stored rows per table.
type RowsObserver interface {
	RecordRowsIngested(table string, rows int)
}

// Manager orchestrates ingestion from a price source to storage.
// It enforces deterministic ordering and uses storage layer for duplicate rejection.
type Manager struct {
	source     PriceSource
	priceStore storage.PriceSeriesStore
	observer   RowsObserver
	log        logrus.FieldLogger
}

// ManagerOptions contains configuration for creating a Manager.
type ManagerOptions struct {
	Source     PriceSource
	PriceStore storage.PriceSeriesStore
	Observer   RowsObserver
	Logger     logrus.FieldLogger
}

// NewManager creates a new ingestion manager with the provided source and store.
func NewManager(opts ManagerOptions) *Manager {
	return &Manager{
		source:     opts.Source,
		priceStore: opts.PriceStore,
		observer:   opts.Observer,
		log:        opts.Logger,
	}
}

// IngestAsset fetches prices for one asset and stores them.
// Returns count of ingested points and any error.
// Duplicates are rejected by the storage layer (ErrDuplicateKey).
func (m *Manager) IngestAsset(ctx context.Context, asset string, from, to int64) (int, error) {
	if m.source == nil || m.priceStore == nil {
		return 0, nil
	}

	points, err := m.source.Fetch(ctx, asset, from, to)
	if err != nil {
		return 0, err
	}

	if len(points) == 0 {
		return 0, nil
	}

	SortPoints(points)

	if err := m.priceStore.InsertBulk(ctx, points); err != nil {
		return 0, err
	}

	if m.observer != nil {
		m.observer.RecordRowsIngested("price_series", len(points))
	}
	if m.log != nil {
		m.log.WithFields(logrus.Fields{"asset": asset, "points": len(points)}).Debug("ingested prices")
	}

	return len(points), nil
}

// IngestAll ingests every asset the source serves, or only the given
// assets when the list is non-empty. Returns the total count per asset.
func (m *Manager) IngestAll(ctx context.Context, assets []string, from, to int64) (map[string]int, error) {
	if m.source == nil {
		return map[string]int{}, nil
	}

	if len(assets) == 0 {
		var err error
		assets, err = m.source.Assets(ctx)
		if err != nil {
			return nil, err
		}
	}

	counts := make(map[string]int, len(assets))
	for _, asset := range assets {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		n, err := m.IngestAsset(ctx, asset, from, to)
		if err != nil {
			return counts, err
		}
		counts[asset] = n
	}
	return counts, nil
}
