package stub

import (
	"context"
	"sort"

	"commodity-momentum-lab/internal/domain"
)

// StubPriceSource returns fixed in-memory points for testing.
// Points can be intentionally unordered to test sorting.
// Implements ingestion.PriceSource interface.
type StubPriceSource struct {
	points []*domain.SeriesPoint
	err    error
}

// NewStubPriceSource creates a new stub price source with the given points.
func NewStubPriceSource(points []*domain.SeriesPoint) *StubPriceSource {
	return &StubPriceSource{points: points}
}

// WithError makes every Fetch fail with err.
func (s *StubPriceSource) WithError(err error) *StubPriceSource {
	s.err = err
	return s
}

// Fetch returns points matching the asset and time range, in insertion order.
// Returns copies to prevent mutation.
func (s *StubPriceSource) Fetch(_ context.Context, asset string, from, to int64) ([]*domain.SeriesPoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	var result []*domain.SeriesPoint
	for _, p := range s.points {
		if p.Asset == asset && p.TimestampMs >= from && p.TimestampMs <= to {
			copy := *p
			result = append(result, &copy)
		}
	}
	return result, nil
}

// Assets returns the distinct assets of the held points.
func (s *StubPriceSource) Assets(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var assets []string
	for _, p := range s.points {
		if _, ok := seen[p.Asset]; ok {
			continue
		}
		seen[p.Asset] = struct{}{}
		assets = append(assets, p.Asset)
	}
	sort.Strings(assets)
	return assets, nil
}
