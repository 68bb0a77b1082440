package normalization

import (
	"math"
	"testing"
	"time"

	"commodity-momentum-lab/internal/domain"
)

func dailyPrices(start time.Time, values ...float64) *domain.Series {
	s := &domain.Series{Name: "Copper", Index: make([]int64, len(values)), Values: values}
	for i := range values {
		s.Index[i] = start.AddDate(0, 0, i).UnixMilli()
	}
	return s
}

func TestPctChange(t *testing.T) {
	got := PctChange([]float64{100, 110, nan, 121, 0, 5})

	if !math.IsNaN(got[0]) {
		t.Errorf("Expected first value NaN, got %v", got[0])
	}
	if math.Abs(got[1]-0.1) > eps {
		t.Errorf("Expected 0.1, got %v", got[1])
	}
	if got[2] != 0 {
		t.Errorf("Expected a zero return across the gap, got %v", got[2])
	}
	if math.Abs(got[3]-0.1) > eps {
		t.Errorf("Expected 0.1 against the last known price, got %v", got[3])
	}
	if got[4] != -1 {
		t.Errorf("Expected -1, got %v", got[4])
	}
	if !math.IsNaN(got[5]) {
		t.Errorf("Expected NaN on a zero base, got %v", got[5])
	}
}

func TestPctChange_LeadingGap(t *testing.T) {
	got := PctChange([]float64{nan, nan, 50, 55})

	for i := 0; i < 3; i++ {
		if !math.IsNaN(got[i]) {
			t.Errorf("i=%d: expected NaN before a known base, got %v", i, got[i])
		}
	}
	if math.Abs(got[3]-0.1) > eps {
		t.Errorf("Expected 0.1, got %v", got[3])
	}
}

func TestPeriodReturns_Daily(t *testing.T) {
	prices := dailyPrices(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 100, 102, 99.96)

	out, err := PeriodReturns(prices, domain.PeriodDaily)
	if err != nil {
		t.Fatalf("PeriodReturns failed: %v", err)
	}
	if out.Len() != 3 {
		t.Fatalf("Expected 3 returns, got %d", out.Len())
	}
	if math.Abs(out.Values[1]-0.02) > eps || math.Abs(out.Values[2]-(-0.02)) > 1e-9 {
		t.Errorf("Unexpected returns: %v", out.Values)
	}
}

func TestPeriodReturns_MonthlyUsesLastPriceOfMonth(t *testing.T) {
	// Jan 30, Jan 31, Feb 1, Feb 29, Mar 1
	s := &domain.Series{
		Name: "Gold",
		Index: []int64{
			time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC).UnixMilli(),
			time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC).UnixMilli(),
			time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
			time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC).UnixMilli(),
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
		},
		Values: []float64{90, 100, 105, 110, 121},
	}

	out, err := PeriodReturns(s, domain.PeriodMonthly)
	if err != nil {
		t.Fatalf("PeriodReturns failed: %v", err)
	}

	wantIndex := []int64{
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC).UnixMilli(),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC).UnixMilli(),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC).UnixMilli(),
	}
	if len(out.Index) != len(wantIndex) {
		t.Fatalf("Expected %d buckets, got %d", len(wantIndex), len(out.Index))
	}
	for i := range wantIndex {
		if out.Index[i] != wantIndex[i] {
			t.Errorf("bucket %d: expected %d, got %d", i, wantIndex[i], out.Index[i])
		}
	}
	if !math.IsNaN(out.Values[0]) {
		t.Errorf("Expected first return NaN, got %v", out.Values[0])
	}
	if math.Abs(out.Values[1]-0.1) > eps || math.Abs(out.Values[2]-0.1) > 1e-9 {
		t.Errorf("Expected [NaN 0.1 0.1], got %v", out.Values)
	}
}

func TestPeriodReturns_QuarterlySkipsEmptyBuckets(t *testing.T) {
	s := &domain.Series{
		Name: "Corn",
		Index: []int64{
			time.Date(2023, 2, 15, 0, 0, 0, 0, time.UTC).UnixMilli(),
			time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC).UnixMilli(),
		},
		Values: []float64{10, 12},
	}

	out, err := PeriodReturns(s, domain.PeriodQuarterly)
	if err != nil {
		t.Fatalf("PeriodReturns failed: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("Expected 2 quarters, got %d", out.Len())
	}
	if out.Index[1] != time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("Expected Q4 label 2023-12-31, got %v", time.UnixMilli(out.Index[1]).UTC())
	}
	if math.Abs(out.Values[1]-0.2) > 1e-9 {
		t.Errorf("Expected 0.2, got %v", out.Values[1])
	}
}

func TestPeriodReturns_YearlyIgnoresTrailingGap(t *testing.T) {
	s := &domain.Series{
		Name: "Sugar",
		Index: []int64{
			time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
			time.Date(2022, 12, 30, 0, 0, 0, 0, time.UTC).UnixMilli(),
			time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
		},
		Values: []float64{20, 25, nan},
	}

	out, err := PeriodReturns(s, domain.PeriodYearly)
	if err != nil {
		t.Fatalf("PeriodReturns failed: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("Expected only the 2022 bucket, got %d", out.Len())
	}
	if out.Index[0] != time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("Unexpected label %v", time.UnixMilli(out.Index[0]).UTC())
	}
}
