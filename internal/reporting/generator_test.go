package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/storage/memory"
)

func ptr(v float64) *float64 { return &v }

func setupTestData(t *testing.T) (*memory.BacktestRunStore, *memory.GridResultStore) {
	ctx := context.Background()

	runStore := memory.NewBacktestRunStore()
	gridStore := memory.NewGridResultStore()

	runs := []*domain.BacktestRun{
		{
			RunID:          "momentum-1",
			StrategyType:   domain.StrategyTypeMomentum,
			Universe:       "Copper,Gold,Wheat",
			StartMs:        1104537600000, // 2005-01-01
			EndMs:          1704067200000, // 2024-01-01
			Periods:        228,
			K:              1,
			Lookback:       3,
			PeriodsPerYear: 12,
			Summary: domain.PerformanceSummary{
				SharpeRatio:      0.45,
				AnnualizedReturn: 0.08,
				AnnualizedStdDev: 0.13,
				MaxDrawdown:      ptr(-0.31),
			},
		},
		{
			RunID:          "crossover-1",
			StrategyType:   domain.StrategyTypeCrossover,
			Universe:       "Gold",
			StartMs:        1262304000000, // 2010-01-01
			EndMs:          1704067200000,
			Periods:        3500,
			ShortWindow:    20,
			LongWindow:     100,
			PeriodsPerYear: 252,
			Summary: domain.PerformanceSummary{
				SharpeRatio:      0.30,
				AnnualizedReturn: 0.05,
				AnnualizedStdDev: 0.15,
				CumulativeReturn: ptr(0.9),
				CAGR:             ptr(0.046),
			},
		},
		{
			RunID:          "grid-1",
			StrategyType:   domain.StrategyTypeCrossoverGrid,
			Universe:       "Gold",
			StartMs:        1262304000000,
			EndMs:          1704067200000,
			ShortWindow:    10,
			LongWindow:     50,
			PeriodsPerYear: 252,
			Summary: domain.PerformanceSummary{
				SharpeRatio:      0.52,
				AnnualizedReturn: 0.07,
				AnnualizedStdDev: 0.1,
				CumulativeReturn: ptr(1.4),
				CAGR:             ptr(0.07),
			},
		},
	}
	for _, r := range runs {
		if err := runStore.Insert(ctx, r); err != nil {
			t.Fatalf("Insert run failed: %v", err)
		}
	}

	grid := []*domain.GridResult{
		{RunID: "grid-1", Rank: 1, ShortWindow: 10, LongWindow: 50, CumulativeReturn: 1.4, AnnualizedReturn: 0.07, AnnualizedStdDev: 0.1, SharpeRatio: 0.52},
		{RunID: "grid-1", Rank: 2, ShortWindow: 5, LongWindow: 50, CumulativeReturn: 1.1, AnnualizedReturn: 0.06, AnnualizedStdDev: 0.11, SharpeRatio: 0.39},
	}
	if err := gridStore.InsertBulk(ctx, grid); err != nil {
		t.Fatalf("InsertBulk grid failed: %v", err)
	}

	return runStore, gridStore
}

func TestGenerator_Generate(t *testing.T) {
	runStore, gridStore := setupTestData(t)
	fixed := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	gen := NewGenerator(runStore, gridStore).WithClock(func() time.Time { return fixed })
	report, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !report.GeneratedAt.Equal(fixed) {
		t.Errorf("Expected GeneratedAt %v, got %v", fixed, report.GeneratedAt)
	}

	s := report.DataSummary
	if s.TotalRuns != 3 || s.MomentumRuns != 1 || s.CrossoverRuns != 1 || s.GridRuns != 1 {
		t.Errorf("Unexpected run counts: %+v", s)
	}
	if s.DateRangeStart != 1104537600000 || s.DateRangeEnd != 1704067200000 {
		t.Errorf("Unexpected date range: %d - %d", s.DateRangeStart, s.DateRangeEnd)
	}

	if len(report.MomentumRuns) != 1 || report.MomentumRuns[0].MaxDrawdown != -0.31 {
		t.Errorf("Unexpected momentum rows: %+v", report.MomentumRuns)
	}
	if len(report.CrossoverRuns) != 2 {
		t.Fatalf("Expected 2 crossover rows, got %d", len(report.CrossoverRuns))
	}
	if len(report.GridTables) != 1 || len(report.GridTables[0].Rows) != 2 {
		t.Fatalf("Expected 1 grid table with 2 rows, got %+v", report.GridTables)
	}
	if report.GridTables[0].Rows[0].Rank != 1 {
		t.Errorf("Expected grid rows ordered by rank")
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	runStore, gridStore := setupTestData(t)
	fixed := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	gen := NewGenerator(runStore, gridStore).WithClock(func() time.Time { return fixed })

	r1, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	r2, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if RenderMarkdown(r1) != RenderMarkdown(r2) {
		t.Error("Markdown output is not deterministic")
	}
	if RenderCSV(r1) != RenderCSV(r2) {
		t.Error("CSV output is not deterministic")
	}
}

func TestRenderMarkdown(t *testing.T) {
	runStore, gridStore := setupTestData(t)
	gen := NewGenerator(runStore, gridStore).WithClock(func() time.Time {
		return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	})
	report, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(report)

	expected := []string{
		"# Backtest Report",
		"Generated: 2024-02-01T00:00:00Z",
		"| Total Runs | 3 |",
		"| Date Range Start | 2005-01-01 |",
		"## Momentum Runs",
		"| momentum-1 | Copper,Gold,Wheat | 1 | 3 | 228 | 0.0800 | 0.1300 | 0.45 | -0.3100 |",
		"## Crossover Runs",
		"grid best",
		"## Grid Search: Gold (grid-1)",
		"| 1 | (10,50) | 1.4000 | 7.00% | 10.00% | 0.520 |",
	}
	for _, want := range expected {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	md := RenderMarkdown(&Report{GeneratedAt: time.Unix(0, 0).UTC()})
	if !strings.Contains(md, "No momentum runs available.") {
		t.Error("Expected empty momentum section")
	}
	if !strings.Contains(md, "No crossover runs available.") {
		t.Error("Expected empty crossover section")
	}
}

func TestRenderCSV(t *testing.T) {
	runStore, gridStore := setupTestData(t)
	report, err := NewGenerator(runStore, gridStore).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	csv := RenderCSV(report)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "run_id,strategy_type,universe") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"Copper,Gold,Wheat"`) {
		t.Errorf("Expected quoted universe, got %s", lines[1])
	}
}

func TestRenderGridCSV(t *testing.T) {
	csv := RenderGridCSV([]*domain.GridResult{
		{RunID: "g", Rank: 1, ShortWindow: 5, LongWindow: 20, CumulativeReturn: 0.5, ReturnStdDev: 0.01, AnnualizedReturn: 0.1, AnnualizedStdDev: 0.16, SharpeRatio: 0.5},
	})
	want := "run_id,rank,short_window,long_window,cumulative_return,return_stddev,annualized_return,annualized_stddev,sharpe_ratio\n" +
		"g,1,5,20,0.500000,0.010000,0.100000,0.160000,0.500000\n"
	if csv != want {
		t.Errorf("Expected:\n%s\nGot:\n%s", want, csv)
	}
}

func comparisonRows() []*domain.MomentumComparison {
	return []*domain.MomentumComparison{
		{Lookback: 3, AnnualizedReturn: 0.05, AnnualizedStdDev: 0.1, SharpeRatio: 0.3, CumulativeReturn: 0.8},
		{Lookback: 6, AnnualizedReturn: 0.07, AnnualizedStdDev: 0.12, SharpeRatio: 0.42, CumulativeReturn: 1.2},
	}
}

func TestMetricValues(t *testing.T) {
	values, err := MetricValues(comparisonRows(), MetricSharpeRatio)
	if err != nil {
		t.Fatalf("MetricValues failed: %v", err)
	}
	if len(values) != 2 || values[0] != 0.3 || values[1] != 0.42 {
		t.Errorf("Expected [0.3 0.42], got %v", values)
	}
}

func TestMetricValues_UnknownMetric(t *testing.T) {
	_, err := MetricValues(comparisonRows(), "Sortino_Ratio")
	if !errors.Is(err, domain.ErrUnknownMetric) {
		t.Fatalf("Expected ErrUnknownMetric, got %v", err)
	}
	if !domain.IsConfigError(err) {
		t.Error("Expected configuration error")
	}
	if !strings.Contains(err.Error(), MetricCumulativeReturn) {
		t.Errorf("Expected available metrics in error, got %v", err)
	}
}

func TestRenderMetricMarkdown(t *testing.T) {
	md, err := RenderMetricMarkdown(comparisonRows(), MetricAnnualizedReturn)
	if err != nil {
		t.Fatalf("RenderMetricMarkdown failed: %v", err)
	}
	if !strings.Contains(md, "| 6 | 0.07 |") {
		t.Errorf("Expected lookback 6 row, got:\n%s", md)
	}
}

func TestRenderComparison(t *testing.T) {
	md := RenderComparisonMarkdown(comparisonRows())
	if !strings.Contains(md, "| 3 | 0.0500 | 0.1000 | 0.30 | 0.8000 |") {
		t.Errorf("Unexpected comparison markdown:\n%s", md)
	}

	csv := RenderComparisonCSV(comparisonRows())
	if !strings.Contains(csv, "6,0.070000,0.120000,0.420000,1.200000\n") {
		t.Errorf("Unexpected comparison CSV:\n%s", csv)
	}
}
