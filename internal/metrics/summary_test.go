package metrics

import (
	"errors"
	"math"
	"testing"

	"commodity-momentum-lab/internal/domain"
)

func TestMomentumSummary(t *testing.T) {
	returns := []float64{nan, 0.02, -0.01, 0.03, -0.02}

	s := MomentumSummary(returns, 0, 12)

	wantRet := Mean(returns) * 12
	if !approx(s.AnnualizedReturn, wantRet) {
		t.Errorf("Expected annualized return %v, got %v", wantRet, s.AnnualizedReturn)
	}
	wantStd := StdDev(returns) * math.Sqrt(12)
	if !approx(s.AnnualizedStdDev, wantStd) {
		t.Errorf("Expected annualized std %v, got %v", wantStd, s.AnnualizedStdDev)
	}
	if !approx(s.SharpeRatio, wantRet/wantStd) {
		t.Errorf("Expected Sharpe %v, got %v", wantRet/wantStd, s.SharpeRatio)
	}
	if s.MaxDrawdown == nil {
		t.Fatal("Expected MaxDrawdown to be set")
	}
	// cum: 0.02, 0.01, 0.04, 0.02 => worst is 0.02 - 0.04
	if !approx(*s.MaxDrawdown, -0.02) {
		t.Errorf("Expected max drawdown -0.02, got %v", *s.MaxDrawdown)
	}
	if s.CumulativeReturn != nil || s.CAGR != nil {
		t.Error("Expected crossover-only fields to be nil")
	}
}

func TestMomentumSummary_AllMissing(t *testing.T) {
	s := MomentumSummary([]float64{nan, nan}, 0, 12)
	if !math.IsNaN(s.AnnualizedReturn) || !math.IsNaN(s.SharpeRatio) || !math.IsNaN(*s.MaxDrawdown) {
		t.Errorf("Expected undefined metrics, got %+v", s)
	}
}

func TestCrossoverSummary(t *testing.T) {
	index := []int64{0, 252 * msPerDay, 504 * msPerDay}
	returns := []float64{nan, 0.1, 0.1}

	s, err := CrossoverSummary(returns, index, 0, 252)
	if err != nil {
		t.Fatalf("CrossoverSummary failed: %v", err)
	}
	if s.CumulativeReturn == nil || !approx(*s.CumulativeReturn, 0.21) {
		t.Errorf("Expected cumulative 0.21, got %v", s.CumulativeReturn)
	}
	if s.CAGR == nil || !approx(*s.CAGR, 0.1) {
		t.Errorf("Expected CAGR 0.1, got %v", s.CAGR)
	}
	if s.SharpeRatio != 0 {
		t.Errorf("Expected Sharpe 0 for constant returns, got %v", s.SharpeRatio)
	}
	if s.MaxDrawdown != nil {
		t.Error("Expected MaxDrawdown nil for crossover")
	}
}

func TestCrossoverSummary_Misaligned(t *testing.T) {
	_, err := CrossoverSummary([]float64{0.1}, []int64{1, 2}, 0, 252)
	if !errors.Is(err, domain.ErrMisalignedInput) {
		t.Errorf("Expected ErrMisalignedInput, got %v", err)
	}
}
