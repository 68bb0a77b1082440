package ingestion

import (
	"errors"
	"sort"

	"commodity-momentum-lab/internal/domain"
)

// ErrInvalidOrdering is returned when points are not properly ordered.
var ErrInvalidOrdering = errors.New("points are not in deterministic order")

// SortPoints orders points by (asset ASC, timestamp_ms ASC).
func SortPoints(points []*domain.SeriesPoint) {
	sort.Slice(points, func(i, j int) bool {
		return comparePoints(points[i], points[j]) < 0
	})
}

// ValidatePointOrdering checks that points are strictly ordered.
// Returns ErrInvalidOrdering if not.
func ValidatePointOrdering(points []*domain.SeriesPoint) error {
	for i := 1; i < len(points); i++ {
		if comparePoints(points[i-1], points[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// comparePoints returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (asset ASC, timestamp_ms ASC)
func comparePoints(a, b *domain.SeriesPoint) int {
	if a.Asset != b.Asset {
		if a.Asset < b.Asset {
			return -1
		}
		return 1
	}
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	return 0
}
