package normalization

import (
	"math"

	"commodity-momentum-lab/internal/domain"
)

// outlierNeighbors is the number of values taken on each side of an outlier.
const outlierNeighbors = 3

// RepairOutliers replaces values whose magnitude exceeds the period threshold
// with the mean of up to 3 preceding and 3 following values of the input.
//
// Neighbors are always read from the uncleaned input, so repair is a single
// pass with no cascading between replaced values. Missing neighbors are
// skipped; a window with no usable value yields NaN. The input is not mutated.
func RepairOutliers(s *domain.Series, period domain.Period) (*domain.Series, int, error) {
	threshold, err := period.OutlierThreshold()
	if err != nil {
		return nil, 0, err
	}

	cleaned := &domain.Series{
		Name:   s.Name,
		Index:  append([]int64(nil), s.Index...),
		Values: append([]float64(nil), s.Values...),
	}

	repaired := 0
	for i, v := range s.Values {
		if !(math.Abs(v) > threshold) {
			continue
		}
		cleaned.Values[i] = neighborMean(s.Values, i)
		repaired++
	}

	return cleaned, repaired, nil
}

// neighborMean averages the non-missing values in [i-3, i+3] excluding i.
func neighborMean(values []float64, i int) float64 {
	lo := i - outlierNeighbors
	if lo < 0 {
		lo = 0
	}
	hi := i + outlierNeighbors
	if hi > len(values)-1 {
		hi = len(values) - 1
	}

	sum := 0.0
	n := 0
	for j := lo; j <= hi; j++ {
		if j == i || math.IsNaN(values[j]) {
			continue
		}
		sum += values[j]
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
