package reporting

import (
	"fmt"
	"strings"

	"commodity-momentum-lab/internal/domain"
)

// RenderCSV renders stored runs as CSV string.
func RenderCSV(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("run_id,strategy_type,universe,k,lookback,short_window,long_window,")
	sb.WriteString("annualized_return,annualized_stddev,sharpe_ratio,max_drawdown,cumulative_return,cagr\n")

	// Rows
	for _, m := range r.MomentumRuns {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%d,,,%.6f,%.6f,%.6f,%.6f,,\n",
			m.RunID,
			domain.StrategyTypeMomentum,
			quote(m.Universe),
			m.K,
			m.Lookback,
			m.AnnualizedReturn,
			m.AnnualizedStdDev,
			m.SharpeRatio,
			m.MaxDrawdown,
		))
	}
	for _, c := range r.CrossoverRuns {
		strategy := domain.StrategyTypeCrossover
		if c.Grid {
			strategy = domain.StrategyTypeCrossoverGrid
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,,,%d,%d,%.6f,%.6f,%.6f,,%.6f,%.6f\n",
			c.RunID,
			strategy,
			quote(c.Asset),
			c.ShortWindow,
			c.LongWindow,
			c.AnnualizedReturn,
			c.AnnualizedStdDev,
			c.SharpeRatio,
			c.CumulativeReturn,
			c.CAGR,
		))
	}

	return sb.String()
}

// RenderGridCSV renders ranked grid results as CSV string.
func RenderGridCSV(results []*domain.GridResult) string {
	var sb strings.Builder

	sb.WriteString("run_id,rank,short_window,long_window,cumulative_return,return_stddev,annualized_return,annualized_stddev,sharpe_ratio\n")
	for _, g := range results {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			g.RunID,
			g.Rank,
			g.ShortWindow,
			g.LongWindow,
			g.CumulativeReturn,
			g.ReturnStdDev,
			g.AnnualizedReturn,
			g.AnnualizedStdDev,
			g.SharpeRatio,
		))
	}

	return sb.String()
}

// RenderComparisonCSV renders a momentum lookback comparison as CSV string.
func RenderComparisonCSV(rows []*domain.MomentumComparison) string {
	var sb strings.Builder

	sb.WriteString("lookback,annualized_return,annualized_stddev,sharpe_ratio,cumulative_return\n")
	for _, c := range rows {
		sb.WriteString(fmt.Sprintf("%d,%.6f,%.6f,%.6f,%.6f\n",
			c.Lookback,
			c.AnnualizedReturn,
			c.AnnualizedStdDev,
			c.SharpeRatio,
			c.CumulativeReturn,
		))
	}

	return sb.String()
}

// quote wraps values containing commas, as momentum universes do.
func quote(s string) string {
	if strings.ContainsAny(s, ",\"") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
