package signal

import (
	"fmt"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/rolling"
)

// Crossover compares two rolling means elementwise: +1 where the short mean is
// above the long mean, -1 where below, 0 where equal or either side is missing.
func Crossover(shortMean, longMean []float64) ([]int, error) {
	if len(shortMean) != len(longMean) {
		return nil, fmt.Errorf("%w: short mean has %d values, long mean has %d",
			domain.ErrMisalignedInput, len(shortMean), len(longMean))
	}

	out := make([]int, len(shortMean))
	for i := range shortMean {
		out[i] = direction(shortMean[i], longMean[i])
	}
	return out, nil
}

// direction relies on NaN comparing false in both directions.
func direction(s, l float64) int {
	switch {
	case s > l:
		return 1
	case s < l:
		return -1
	default:
		return 0
	}
}

// CrossoverSeries computes both moving averages of values and their crossover
// signal. short must be strictly less than long.
func CrossoverSeries(values []float64, short, long int) ([]int, error) {
	if short >= long {
		return nil, fmt.Errorf("%w: short=%d long=%d", domain.ErrInvalidWindowPair, short, long)
	}
	shortMean, err := rolling.Mean(values, short)
	if err != nil {
		return nil, err
	}
	longMean, err := rolling.Mean(values, long)
	if err != nil {
		return nil, err
	}
	return Crossover(shortMean, longMean)
}
