package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/storage"
)

// SeriesStore is an in-memory implementation of storage.SeriesStore.
// It backs both price and return series.
type SeriesStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SeriesPoint // keyed by (asset, timestamp_ms)
}

// NewSeriesStore creates a new in-memory series store.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{
		data: make(map[string]*domain.SeriesPoint),
	}
}

// NewPriceSeriesStore creates an in-memory price series store.
func NewPriceSeriesStore() *SeriesStore {
	return NewSeriesStore()
}

// NewReturnSeriesStore creates an in-memory return series store.
func NewReturnSeriesStore() *SeriesStore {
	return NewSeriesStore()
}

// seriesKey generates a unique key for a point.
func seriesKey(asset string, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", asset, timestampMs)
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *SeriesStore) InsertBulk(_ context.Context, points []*domain.SeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(points))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range points {
		if p == nil || p.Asset == "" {
			return storage.ErrInvalidInput
		}
		key := seriesKey(p.Asset, p.TimestampMs)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range points {
		pointCopy := *p
		s.data[seriesKey(p.Asset, p.TimestampMs)] = &pointCopy
	}

	return nil
}

// GetByAsset retrieves all points for an asset, ordered by timestamp ASC.
func (s *SeriesStore) GetByAsset(_ context.Context, asset string) ([]*domain.SeriesPoint, error) {
	return s.filter(func(p *domain.SeriesPoint) bool {
		return p.Asset == asset
	}), nil
}

// GetByTimeRange retrieves points for an asset within [start, end] (inclusive).
func (s *SeriesStore) GetByTimeRange(_ context.Context, asset string, start, end int64) ([]*domain.SeriesPoint, error) {
	return s.filter(func(p *domain.SeriesPoint) bool {
		return p.Asset == asset && p.TimestampMs >= start && p.TimestampMs <= end
	}), nil
}

// ListAssets returns all distinct assets, sorted ASC.
func (s *SeriesStore) ListAssets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[string]struct{})
	for _, p := range s.data {
		set[p.Asset] = struct{}{}
	}
	assets := make([]string, 0, len(set))
	for a := range set {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	return assets, nil
}

func (s *SeriesStore) filter(keep func(*domain.SeriesPoint) bool) []*domain.SeriesPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SeriesPoint
	for _, p := range s.data {
		if keep(p) {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result
}

var (
	_ storage.PriceSeriesStore  = (*SeriesStore)(nil)
	_ storage.ReturnSeriesStore = (*SeriesStore)(nil)
)
