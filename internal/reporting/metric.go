package reporting

import (
	"fmt"
	"strings"

	"commodity-momentum-lab/internal/domain"
)

// Metric names selectable from a momentum lookback comparison.
const (
	MetricAnnualizedReturn = "Annualized_Return"
	MetricAnnualizedStdDev = "Annualized_StdDev"
	MetricSharpeRatio      = "Sharpe_Ratio"
	MetricCumulativeReturn = "Cumulative_Return"
)

var comparisonMetrics = []string{
	MetricAnnualizedReturn,
	MetricAnnualizedStdDev,
	MetricSharpeRatio,
	MetricCumulativeReturn,
}

// MetricValues extracts one named metric from every comparison row.
// An unknown name is a configuration error listing the available names.
func MetricValues(rows []*domain.MomentumComparison, name string) ([]float64, error) {
	var pick func(*domain.MomentumComparison) float64
	switch name {
	case MetricAnnualizedReturn:
		pick = func(c *domain.MomentumComparison) float64 { return c.AnnualizedReturn }
	case MetricAnnualizedStdDev:
		pick = func(c *domain.MomentumComparison) float64 { return c.AnnualizedStdDev }
	case MetricSharpeRatio:
		pick = func(c *domain.MomentumComparison) float64 { return c.SharpeRatio }
	case MetricCumulativeReturn:
		pick = func(c *domain.MomentumComparison) float64 { return c.CumulativeReturn }
	default:
		return nil, fmt.Errorf("%w %q: available metrics: %s",
			domain.ErrUnknownMetric, name, strings.Join(comparisonMetrics, ", "))
	}

	values := make([]float64, len(rows))
	for i, c := range rows {
		values[i] = pick(c)
	}
	return values, nil
}
