// Package verification re-executes stored backtest runs from stored series
// and checks that the persisted record matches the recomputation.
package verification

import (
	"context"
	"math"

	"commodity-momentum-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID        string
	StrategyType domain.StrategyType
	Match        bool              // true if all fields match
	Divergences  []FieldDivergence // list of divergent fields
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalRuns     int
	MatchedRuns   int
	DivergentRuns int
	Results       []VerificationResult
}

// Verifier interface for run replay verification.
type Verifier interface {
	// VerifyRun loads the stored run, re-executes it with the same
	// parameters on the stored series, and compares all fields.
	VerifyRun(ctx context.Context, runID string) (*VerificationResult, error)

	// VerifyAll verifies all stored runs.
	VerifyAll(ctx context.Context) (*VerificationReport, error)
}

// CompareRuns compares two run records and returns divergences.
// Uses FloatTolerance for float64 comparisons; NaN matches NaN.
func CompareRuns(stored, replayed *domain.BacktestRun) []FieldDivergence {
	var divergences []FieldDivergence

	diff := func(field string, expected, actual interface{}) {
		divergences = append(divergences, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	// Identity and span must match exactly
	if stored.RunID != replayed.RunID {
		diff("RunID", stored.RunID, replayed.RunID)
	}
	if stored.StrategyType != replayed.StrategyType {
		diff("StrategyType", stored.StrategyType, replayed.StrategyType)
	}
	if stored.Universe != replayed.Universe {
		diff("Universe", stored.Universe, replayed.Universe)
	}
	if stored.StartMs != replayed.StartMs {
		diff("StartMs", stored.StartMs, replayed.StartMs)
	}
	if stored.EndMs != replayed.EndMs {
		diff("EndMs", stored.EndMs, replayed.EndMs)
	}
	if stored.Periods != replayed.Periods {
		diff("Periods", stored.Periods, replayed.Periods)
	}

	// Parameters
	if stored.K != replayed.K {
		diff("K", stored.K, replayed.K)
	}
	if stored.Lookback != replayed.Lookback {
		diff("Lookback", stored.Lookback, replayed.Lookback)
	}
	if stored.ShortWindow != replayed.ShortWindow {
		diff("ShortWindow", stored.ShortWindow, replayed.ShortWindow)
	}
	if stored.LongWindow != replayed.LongWindow {
		diff("LongWindow", stored.LongWindow, replayed.LongWindow)
	}

	// Summary
	s, r := stored.Summary, replayed.Summary
	if !floatEquals(s.SharpeRatio, r.SharpeRatio) {
		diff("SharpeRatio", s.SharpeRatio, r.SharpeRatio)
	}
	if !floatEquals(s.AnnualizedReturn, r.AnnualizedReturn) {
		diff("AnnualizedReturn", s.AnnualizedReturn, r.AnnualizedReturn)
	}
	if !floatEquals(s.AnnualizedStdDev, r.AnnualizedStdDev) {
		diff("AnnualizedStdDev", s.AnnualizedStdDev, r.AnnualizedStdDev)
	}
	if !floatPtrEquals(s.MaxDrawdown, r.MaxDrawdown) {
		diff("MaxDrawdown", s.MaxDrawdown, r.MaxDrawdown)
	}
	if !floatPtrEquals(s.CumulativeReturn, r.CumulativeReturn) {
		diff("CumulativeReturn", s.CumulativeReturn, r.CumulativeReturn)
	}
	if !floatPtrEquals(s.CAGR, r.CAGR) {
		diff("CAGR", s.CAGR, r.CAGR)
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
// Two NaNs are equal, as are infinities of the same sign.
func floatEquals(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if a == b {
		return true
	}
	return math.Abs(a-b) <= FloatTolerance
}

// floatPtrEquals compares two *float64 values within FloatTolerance.
// Returns true if both are nil, or both are non-nil and equal.
func floatPtrEquals(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return floatEquals(*a, *b)
}
