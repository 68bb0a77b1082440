package backtest

import (
	"fmt"
	"math"

	"commodity-momentum-lab/internal/domain"
)

// MomentumReturns realizes cross-sectional positions one period later.
//
// The strategy return at t is sum(position[t-1] * return[t]) / (2k) over the
// assets with a defined return at t. The divisor is the nominal notional
// even when rank ties put more than k assets in a bucket.
// Row 0, rows after an undefined signal row, and rows without any defined
// asset return are NaN.
func MomentumReturns(signals *domain.SignalPanel, returns *domain.Panel, k int) ([]float64, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidBucketSize, k)
	}
	if err := checkAligned(signals, returns); err != nil {
		return nil, err
	}

	rows := returns.Rows()
	notional := float64(2 * k)
	out := make([]float64, rows)

	for t := 0; t < rows; t++ {
		out[t] = math.NaN()
		if t == 0 || !signals.Defined[t-1] {
			continue
		}

		sum := 0.0
		realized := false
		for a := range returns.Assets {
			r := returns.Data[a][t]
			if math.IsNaN(r) {
				continue
			}
			sum += float64(signals.Positions[a][t-1]) * r
			realized = true
		}
		if realized {
			out[t] = sum / notional
		}
	}

	return out, nil
}

// CrossoverReturns realizes a single-asset signal one period later:
// strategy[t] = returns[t] * signal[t-1], with strategy[0] undefined.
func CrossoverReturns(signal []int, returns []float64) ([]float64, error) {
	if len(signal) != len(returns) {
		return nil, fmt.Errorf("%w: %d signals for %d returns",
			domain.ErrMisalignedInput, len(signal), len(returns))
	}

	out := make([]float64, len(returns))
	for t := range returns {
		if t == 0 {
			out[t] = math.NaN()
			continue
		}
		out[t] = returns[t] * float64(signal[t-1])
	}
	return out, nil
}

func checkAligned(signals *domain.SignalPanel, returns *domain.Panel) error {
	if err := returns.Validate(); err != nil {
		return err
	}
	if len(signals.Index) != len(returns.Index) || len(signals.Defined) != len(returns.Index) {
		return fmt.Errorf("%w: signal panel has %d rows, return panel has %d",
			domain.ErrMisalignedInput, len(signals.Index), len(returns.Index))
	}
	for i := range returns.Index {
		if signals.Index[i] != returns.Index[i] {
			return fmt.Errorf("%w: timestamp mismatch at row %d", domain.ErrMisalignedInput, i)
		}
	}
	if len(signals.Assets) != len(returns.Assets) {
		return fmt.Errorf("%w: %d signal columns, %d return columns",
			domain.ErrMisalignedInput, len(signals.Assets), len(returns.Assets))
	}
	for a, name := range returns.Assets {
		if signals.Assets[a] != name || len(signals.Positions[a]) != len(returns.Index) {
			return fmt.Errorf("%w: column %d is %q in signals, %q in returns",
				domain.ErrMisalignedInput, a, signals.Assets[a], name)
		}
	}
	return nil
}
