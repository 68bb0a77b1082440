package ingestion

import (
	"context"
	"fmt"
	"sort"

	"commodity-momentum-lab/internal/domain"
)

// PriceSource provides raw price observations from an external collaborator.
type PriceSource interface {
	// Fetch returns prices for an asset within time range [from, to] (inclusive).
	// Points may be unordered; Manager enforces deterministic ordering.
	Fetch(ctx context.Context, asset string, from, to int64) ([]*domain.SeriesPoint, error)

	// Assets returns the asset names the source can serve, sorted ASC.
	Assets(ctx context.Context) ([]string, error)
}

// SeriesSource serves prices from series already held in memory,
// such as a parsed CSV file or generated fixtures.
// Implements PriceSource.
type SeriesSource struct {
	series map[string]*domain.Series
}

// NewSeriesSource creates a source over the given series, keyed by name.
func NewSeriesSource(series []*domain.Series) (*SeriesSource, error) {
	src := &SeriesSource{series: make(map[string]*domain.Series, len(series))}
	for _, s := range series {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := src.series[s.Name]; dup {
			return nil, fmt.Errorf("duplicate asset %q", s.Name)
		}
		src.series[s.Name] = s
	}
	return src, nil
}

// Fetch returns copies of the non-missing points in [from, to].
// An unknown asset yields no points.
func (s *SeriesSource) Fetch(_ context.Context, asset string, from, to int64) ([]*domain.SeriesPoint, error) {
	series, ok := s.series[asset]
	if !ok {
		return nil, nil
	}
	var result []*domain.SeriesPoint
	for _, p := range series.Points() {
		if p.TimestampMs < from || p.TimestampMs > to || isMissing(p.Value) {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

// Assets returns the names of all held series.
func (s *SeriesSource) Assets(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(s.series))
	for name := range s.series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
