// Package rolling computes trailing-window sums and means over series and panels.
package rolling

import (
	"fmt"
	"math"

	"commodity-momentum-lab/internal/domain"
)

// Sum returns the sum of the trailing w observations ending at each index.
// The first w-1 entries are NaN, as is any window containing a missing value.
func Sum(values []float64, w int) ([]float64, error) {
	if w < 1 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidWindow, w)
	}
	return window(values, w, false), nil
}

// Mean returns the arithmetic mean of the trailing w observations ending at each index.
func Mean(values []float64, w int) ([]float64, error) {
	if w < 1 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidWindow, w)
	}
	return window(values, w, true), nil
}

// SumPanel applies Sum to every column independently.
func SumPanel(p *domain.Panel, w int) (*domain.Panel, error) {
	return applyPanel(p, w, Sum)
}

// MeanPanel applies Mean to every column independently.
func MeanPanel(p *domain.Panel, w int) (*domain.Panel, error) {
	return applyPanel(p, w, Mean)
}

func applyPanel(p *domain.Panel, w int, fn func([]float64, int) ([]float64, error)) (*domain.Panel, error) {
	out := &domain.Panel{
		Index:  append([]int64(nil), p.Index...),
		Assets: append([]string(nil), p.Assets...),
		Data:   make([][]float64, len(p.Data)),
	}
	for a, col := range p.Data {
		agg, err := fn(col, w)
		if err != nil {
			return nil, err
		}
		out.Data[a] = agg
	}
	return out, nil
}

// window sums each output's own w observations in index order, so a value
// never carries rounding from observations outside its window. A window
// holding one repeated value has that value as its mean.
func window(values []float64, w int, mean bool) []float64 {
	n := len(values)
	out := make([]float64, n)

	for t := 0; t < n; t++ {
		if t < w-1 {
			out[t] = math.NaN()
			continue
		}

		first := values[t-w+1]
		sum := 0.0
		constant := true
		defined := true
		for _, v := range values[t-w+1 : t+1] {
			if math.IsNaN(v) {
				defined = false
				break
			}
			sum += v
			constant = constant && v == first
		}

		switch {
		case !defined:
			out[t] = math.NaN()
		case mean && constant:
			out[t] = first
		case mean:
			out[t] = sum / float64(w)
		default:
			out[t] = sum
		}
	}
	return out
}
