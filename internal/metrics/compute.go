package metrics

import (
	"math"
)

// msPerDay converts index spans to calendar days.
const msPerDay = 24 * 60 * 60 * 1000

// tradingDaysPerYear is the divisor that turns a calendar-day span into years for CAGR.
const tradingDaysPerYear = 252

// Mean calculates the arithmetic mean of the defined values.
// Returns NaN when no value is defined.
func Mean(values []float64) float64 {
	sum := 0.0
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// StdDev calculates the sample standard deviation (n-1 denominator) of the
// defined values. Returns NaN with fewer than 2 defined values and exactly 0
// when every defined value is equal.
func StdDev(values []float64) float64 {
	n := 0
	first := math.NaN()
	constant := true
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if n == 0 {
			first = v
		} else if v != first {
			constant = false
		}
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	if constant {
		return 0
	}

	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// AnnualizedReturn = mean(period returns) * periodsPerYear.
func AnnualizedReturn(returns []float64, periodsPerYear float64) float64 {
	return Mean(returns) * periodsPerYear
}

// AnnualizedStdDev = std(period returns) * sqrt(periodsPerYear).
func AnnualizedStdDev(returns []float64, periodsPerYear float64) float64 {
	return StdDev(returns) * math.Sqrt(periodsPerYear)
}

// SharpeRatio is exactly 0 when annStdDev is 0. An undefined std dev gives NaN.
func SharpeRatio(annReturn, annStdDev, riskFreeRate float64) float64 {
	if annStdDev == 0 {
		return 0
	}
	return (annReturn - riskFreeRate) / annStdDev
}

// CumSum is the running sum of simple returns.
// Missing entries stay missing and do not break the running total.
func CumSum(returns []float64) []float64 {
	out := make([]float64, len(returns))
	total := 0.0
	for i, r := range returns {
		if math.IsNaN(r) {
			out[i] = math.NaN()
			continue
		}
		total += r
		out[i] = total
	}
	return out
}

// CumProd is the running compounded return: prod(1+r) - 1.
// Missing entries stay missing and do not break the running product.
func CumProd(returns []float64) []float64 {
	out := make([]float64, len(returns))
	growth := 1.0
	for i, r := range returns {
		if math.IsNaN(r) {
			out[i] = math.NaN()
			continue
		}
		growth *= 1 + r
		out[i] = growth - 1
	}
	return out
}

// MaxDrawdown calculates min(cum - running max of cum) over the defined values.
// The result is <= 0, and NaN when no value is defined.
func MaxDrawdown(cumulative []float64) float64 {
	peak := math.Inf(-1)
	worst := math.NaN()
	for _, c := range cumulative {
		if math.IsNaN(c) {
			continue
		}
		if c > peak {
			peak = c
		}
		dd := c - peak
		if math.IsNaN(worst) || dd < worst {
			worst = dd
		}
	}
	return worst
}

// Final returns the value at the last index, NaN included, or NaN when empty.
func Final(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

// Years converts an index span to years as calendar days / 252.
func Years(startMs, endMs int64) float64 {
	days := math.Floor(float64(endMs-startMs) / msPerDay)
	return days / tradingDaysPerYear
}

// CAGR = (1 + totalReturn)^(1/years) - 1. Returns NaN for a non-positive span.
func CAGR(totalReturn, years float64) float64 {
	if !(years > 0) {
		return math.NaN()
	}
	return math.Pow(1+totalReturn, 1/years) - 1
}
