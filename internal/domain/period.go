package domain

import (
	"fmt"
	"strings"
)

// Period is the sampling granularity of a return series.
type Period string

// Period constants.
const (
	PeriodDaily     Period = "daily"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

// outlierThresholds are absolute return magnitudes above which a value is an outlier.
var outlierThresholds = map[Period]float64{
	PeriodDaily:     1.0, // 100%
	PeriodMonthly:   2.0, // 200%
	PeriodQuarterly: 5.0, // 500%
	PeriodYearly:    5.0, // 500%
}

// ParsePeriod normalizes a period name.
func ParsePeriod(name string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := outlierThresholds[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, name)
	}
	return p, nil
}

// OutlierThreshold returns the absolute-return cutoff for the period.
func (p Period) OutlierThreshold() (float64, error) {
	t, ok := outlierThresholds[p]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(p))
	}
	return t, nil
}

// PeriodsPerYear is the default annualization factor for the period.
// Daily uses trading days.
func (p Period) PeriodsPerYear() float64 {
	switch p {
	case PeriodDaily:
		return 252
	case PeriodMonthly:
		return 12
	case PeriodQuarterly:
		return 4
	case PeriodYearly:
		return 1
	default:
		return 0
	}
}
