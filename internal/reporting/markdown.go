package reporting

import (
	"fmt"
	"strings"
	"time"

	"commodity-momentum-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Runs | %d |\n", r.DataSummary.TotalRuns))
	sb.WriteString(fmt.Sprintf("| Momentum Runs | %d |\n", r.DataSummary.MomentumRuns))
	sb.WriteString(fmt.Sprintf("| Crossover Runs | %d |\n", r.DataSummary.CrossoverRuns))
	sb.WriteString(fmt.Sprintf("| Grid Searches | %d |\n", r.DataSummary.GridRuns))
	sb.WriteString(fmt.Sprintf("| Date Range Start | %s |\n", formatDate(r.DataSummary.DateRangeStart)))
	sb.WriteString(fmt.Sprintf("| Date Range End | %s |\n", formatDate(r.DataSummary.DateRangeEnd)))
	sb.WriteString("\n")

	if len(r.DataQuality.Checks) > 0 {
		sb.WriteString(renderDataQuality(r.DataQuality))
	}

	// Momentum
	sb.WriteString("## Momentum Runs\n\n")
	if len(r.MomentumRuns) > 0 {
		sb.WriteString("| Run | Universe | K | Lookback | Periods | AnnReturn | AnnStdDev | Sharpe | MaxDD |\n")
		sb.WriteString("|-----|----------|---|----------|---------|-----------|-----------|--------|-------|\n")
		for _, m := range r.MomentumRuns {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %.4f | %.4f | %.2f | %.4f |\n",
				shortID(m.RunID), m.Universe, m.K, m.Lookback, m.Periods,
				m.AnnualizedReturn, m.AnnualizedStdDev, m.SharpeRatio, m.MaxDrawdown))
		}
	} else {
		sb.WriteString("No momentum runs available.\n")
	}
	sb.WriteString("\n")

	// Crossover
	sb.WriteString("## Crossover Runs\n\n")
	if len(r.CrossoverRuns) > 0 {
		sb.WriteString("| Run | Asset | Source | Short | Long | Cumulative | CAGR | AnnStdDev | Sharpe |\n")
		sb.WriteString("|-----|-------|--------|-------|------|------------|------|-----------|--------|\n")
		for _, c := range r.CrossoverRuns {
			source := "single"
			if c.Grid {
				source = "grid best"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %d | %.4f | %.2f%% | %.2f%% | %.3f |\n",
				shortID(c.RunID), c.Asset, source, c.ShortWindow, c.LongWindow,
				c.CumulativeReturn, 100*c.CAGR, 100*c.AnnualizedStdDev, c.SharpeRatio))
		}
	} else {
		sb.WriteString("No crossover runs available.\n")
	}
	sb.WriteString("\n")

	// Grid tables
	for _, table := range r.GridTables {
		sb.WriteString(fmt.Sprintf("## Grid Search: %s (%s)\n\n", table.Asset, shortID(table.RunID)))
		sb.WriteString(renderGridRows(table.Rows))
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderGridMarkdown renders the ranked pairs of a grid search.
func RenderGridMarkdown(asset string, results []*domain.GridResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Top SMA Pairs: %s\n\n", asset))
	sb.WriteString(renderGridRows(gridRows(results)))
	return sb.String()
}

// RenderComparisonMarkdown renders a momentum lookback comparison.
func RenderComparisonMarkdown(rows []*domain.MomentumComparison) string {
	var sb strings.Builder

	sb.WriteString("## Momentum Lookback Comparison\n\n")
	if len(rows) == 0 {
		sb.WriteString("No lookback periods compared.\n")
		return sb.String()
	}
	sb.WriteString("| Lookback | AnnReturn | AnnStdDev | Sharpe | Cumulative |\n")
	sb.WriteString("|----------|-----------|-----------|--------|------------|\n")
	for _, c := range rows {
		sb.WriteString(fmt.Sprintf("| %d | %.4f | %.4f | %.2f | %.4f |\n",
			c.Lookback, c.AnnualizedReturn, c.AnnualizedStdDev, c.SharpeRatio, c.CumulativeReturn))
	}
	return sb.String()
}

// RenderMetricMarkdown renders one comparison metric per lookback.
// Returns domain.ErrUnknownMetric for an unrecognized metric name.
func RenderMetricMarkdown(rows []*domain.MomentumComparison, metric string) (string, error) {
	values, err := MetricValues(rows, metric)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s Across Lookback Periods\n\n", metric))
	sb.WriteString(fmt.Sprintf("| Lookback | %s |\n", metric))
	sb.WriteString("|----------|-------|\n")
	for i, c := range rows {
		sb.WriteString(fmt.Sprintf("| %d | %.2f |\n", c.Lookback, values[i]))
	}
	return sb.String(), nil
}

func renderGridRows(rows []GridRow) string {
	var sb strings.Builder
	if len(rows) == 0 {
		sb.WriteString("No grid results available.\n")
		return sb.String()
	}
	sb.WriteString("| Rank | SMA | Cumulative | Annualized | StdDev | Sharpe |\n")
	sb.WriteString("|------|-----|------------|------------|--------|--------|\n")
	for _, g := range rows {
		sb.WriteString(fmt.Sprintf("| %d | (%d,%d) | %.4f | %.2f%% | %.2f%% | %.3f |\n",
			g.Rank, g.ShortWindow, g.LongWindow,
			g.CumulativeReturn, 100*g.AnnualizedReturn, 100*g.AnnualizedStdDev, g.SharpeRatio))
	}
	return sb.String()
}

func gridRows(results []*domain.GridResult) []GridRow {
	rows := make([]GridRow, len(results))
	for i, r := range results {
		rows[i] = GridRow{
			Rank:             r.Rank,
			ShortWindow:      r.ShortWindow,
			LongWindow:       r.LongWindow,
			CumulativeReturn: r.CumulativeReturn,
			AnnualizedReturn: r.AnnualizedReturn,
			AnnualizedStdDev: r.AnnualizedStdDev,
			SharpeRatio:      r.SharpeRatio,
		}
	}
	return rows
}

func formatDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}

func shortID(runID string) string {
	if len(runID) > 12 {
		return runID[:12]
	}
	return runID
}

func renderDataQuality(dq DataQualitySection) string {
	var sb strings.Builder
	sb.WriteString("## Data Quality\n\n")
	sb.WriteString("| Check | Threshold | Actual | Status |\n")
	sb.WriteString("|-------|-----------|--------|--------|\n")
	for _, c := range dq.Checks {
		status := "PASS"
		if !c.Pass {
			status = "FAIL"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", c.Name, c.Threshold, c.Actual, status))
	}
	sb.WriteString("\n")
	if dq.AllChecksPassed {
		sb.WriteString("All checks passed.\n\n")
	} else {
		sb.WriteString("Some checks failed; results on thin data may be undefined.\n\n")
	}
	return sb.String()
}
