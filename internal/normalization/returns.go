package normalization

import (
	"math"
	"time"

	"commodity-momentum-lab/internal/domain"
)

// PeriodReturns converts a price series into fractional period-over-period returns.
//
// Daily returns are the percentage change of consecutive observations. Coarser
// periods first keep the last price of each calendar bucket (UTC), labelled with
// the bucket's final day, then take the percentage change between buckets.
// Buckets without observations are not emitted. The first return is NaN.
func PeriodReturns(prices *domain.Series, period domain.Period) (*domain.Series, error) {
	if _, err := period.OutlierThreshold(); err != nil {
		return nil, err
	}

	sampled := prices
	if period != domain.PeriodDaily {
		sampled = resampleLast(prices, period)
	}

	return &domain.Series{
		Name:   prices.Name,
		Index:  append([]int64(nil), sampled.Index...),
		Values: PctChange(sampled.Values),
	}, nil
}

// PctChange returns the fractional change between consecutive values, with
// missing values forward-filled from the last known one. A gap therefore
// yields a zero return and the value after it is measured against the last
// known value. Entries before the first known value are NaN, as is a change
// from a zero base.
func PctChange(values []float64) []float64 {
	out := make([]float64, len(values))
	base := math.NaN()
	for i, v := range values {
		cur := v
		if math.IsNaN(cur) {
			cur = base
		}
		out[i] = pctChange(base, cur)
		base = cur
	}
	return out
}

// pctChange returns NaN when either side is missing or the base is zero.
func pctChange(prev, cur float64) float64 {
	if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
		return math.NaN()
	}
	return cur/prev - 1
}

// resampleLast keeps the last non-missing price of each calendar bucket.
func resampleLast(prices *domain.Series, period domain.Period) *domain.Series {
	out := &domain.Series{Name: prices.Name}

	var (
		current int64
		last    float64
		have    bool
	)
	flush := func() {
		if have {
			out.Index = append(out.Index, current)
			out.Values = append(out.Values, last)
		}
	}

	for i, ts := range prices.Index {
		v := prices.Values[i]
		bucket := bucketEnd(ts, period)
		if have && bucket != current {
			flush()
			have = false
		}
		if math.IsNaN(v) {
			continue
		}
		current = bucket
		last = v
		have = true
	}
	flush()

	return out
}

// bucketEnd returns midnight UTC of the last day of the period containing ts.
func bucketEnd(ts int64, period domain.Period) int64 {
	t := time.UnixMilli(ts).UTC()
	year, month := t.Year(), t.Month()

	var next time.Time
	switch period {
	case domain.PeriodMonthly:
		next = time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	case domain.PeriodQuarterly:
		qStart := time.Month((int(month)-1)/3*3 + 1)
		next = time.Date(year, qStart+3, 1, 0, 0, 0, 0, time.UTC)
	case domain.PeriodYearly:
		next = time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(year, month, t.Day(), 0, 0, 0, 0, time.UTC).UnixMilli()
	}
	return next.AddDate(0, 0, -1).UnixMilli()
}
