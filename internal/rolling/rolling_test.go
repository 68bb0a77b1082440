package rolling

import (
	"errors"
	"math"
	"testing"

	"commodity-momentum-lab/internal/domain"
)

const eps = 1e-12

func TestSum_MatchesNaiveWindow(t *testing.T) {
	histories := [][]float64{
		{0.01, -0.02, 0.03, 0.05, -0.01, 0.02, 0.00, 0.04},
		{1e6, 0.1, 0.2, 0.7, 0.1, 0.2, 0.3, 0.1},
		{0.7, 0.1, 0.2, -3.5, 0.1, 0.2, 0.1, 0.2},
	}

	for _, values := range histories {
		for w := 1; w <= len(values); w++ {
			got, err := Sum(values, w)
			if err != nil {
				t.Fatalf("Sum(w=%d) failed: %v", w, err)
			}
			for i := range values {
				if i < w-1 {
					if !math.IsNaN(got[i]) {
						t.Errorf("w=%d i=%d: expected NaN before window is full, got %v", w, i, got[i])
					}
					continue
				}
				want := 0.0
				for j := i - w + 1; j <= i; j++ {
					want += values[j]
				}
				if got[i] != want {
					t.Errorf("history %v w=%d i=%d: expected exactly %v, got %v", values[:2], w, i, want, got[i])
				}
			}
		}
	}
}

func TestSum_SameTrailingWindowSameSum(t *testing.T) {
	a, _ := Sum([]float64{0.7, 0.1, 0.2}, 2)
	b, _ := Sum([]float64{0.3, 0.1, 0.2}, 2)

	if a[2] != b[2] {
		t.Errorf("expected equal sums for equal windows, got %v and %v", a[2], b[2])
	}
}

func TestMean_FlatWindowAfterMovement(t *testing.T) {
	prices := []float64{70.1, 70.7, 71.3, 70.9, 70.3, 70.3, 70.3, 70.3, 70.3, 70.3, 70.3, 70.3}

	for _, w := range []int{2, 3, 5} {
		got, err := Mean(prices, w)
		if err != nil {
			t.Fatalf("Mean(w=%d) failed: %v", w, err)
		}
		for i := 4 + w - 1; i < len(prices); i++ {
			if got[i] != 70.3 {
				t.Errorf("w=%d i=%d: expected exactly 70.3, got %.17g", w, i, got[i])
			}
		}
	}
}

func TestMean_Basic(t *testing.T) {
	got, err := Mean([]float64{1, 2, 3, 4, 5}, 2)
	if err != nil {
		t.Fatalf("Mean failed: %v", err)
	}

	want := []float64{math.NaN(), 1.5, 2.5, 3.5, 4.5}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Errorf("i=%d: expected NaN, got %v", i, got[i])
			}
			continue
		}
		if math.Abs(got[i]-want[i]) > eps {
			t.Errorf("i=%d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSum_MissingValuePoisonsWindow(t *testing.T) {
	values := []float64{1, math.NaN(), 2, 3, 4}

	got, _ := Sum(values, 2)

	// Windows containing index 1 are undefined
	for _, i := range []int{0, 1, 2} {
		if !math.IsNaN(got[i]) {
			t.Errorf("i=%d: expected NaN, got %v", i, got[i])
		}
	}
	if got[3] != 5 || got[4] != 7 {
		t.Errorf("expected recovery after gap [5 7], got [%v %v]", got[3], got[4])
	}
}

func TestSum_InvalidWindow(t *testing.T) {
	for _, w := range []int{0, -3} {
		_, err := Sum([]float64{1}, w)
		if !errors.Is(err, domain.ErrInvalidWindow) {
			t.Errorf("w=%d: expected ErrInvalidWindow, got %v", w, err)
		}
	}
	if _, err := Mean([]float64{1}, 0); !errors.Is(err, domain.ErrInvalidWindow) {
		t.Errorf("Mean: expected ErrInvalidWindow, got %v", err)
	}
}

func TestSum_WindowLongerThanSeries(t *testing.T) {
	got, err := Sum([]float64{1, 2}, 5)
	if err != nil {
		t.Fatalf("Sum failed: %v", err)
	}
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Errorf("i=%d: expected NaN, got %v", i, v)
		}
	}
}

func TestSumPanel_ColumnsIndependent(t *testing.T) {
	p := &domain.Panel{
		Index:  []int64{1, 2, 3},
		Assets: []string{"A", "B"},
		Data: [][]float64{
			{1, 2, 3},
			{math.NaN(), 10, 20},
		},
	}

	out, err := SumPanel(p, 2)
	if err != nil {
		t.Fatalf("SumPanel failed: %v", err)
	}

	if out.Data[0][1] != 3 || out.Data[0][2] != 5 {
		t.Errorf("column A: expected [NaN 3 5], got %v", out.Data[0])
	}
	if !math.IsNaN(out.Data[1][1]) || out.Data[1][2] != 30 {
		t.Errorf("column B: expected [NaN NaN 30], got %v", out.Data[1])
	}

	// Input untouched
	if p.Data[0][1] != 2 {
		t.Errorf("input panel mutated: %v", p.Data[0])
	}
}

func TestMeanPanel_PropagatesError(t *testing.T) {
	p := &domain.Panel{Index: []int64{1}, Assets: []string{"A"}, Data: [][]float64{{1}}}

	_, err := MeanPanel(p, 0)
	if !errors.Is(err, domain.ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
}
