package reporting

import (
	"context"
	"math"
	"time"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	runStore  storage.BacktestRunStore
	gridStore storage.GridResultStore
	now       func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(runStore storage.BacktestRunStore, gridStore storage.GridResultStore) *Generator {
	return &Generator{
		runStore:  runStore,
		gridStore: gridStore,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report covering every stored run.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	runs, err := g.runStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{GeneratedAt: g.now()}
	report.DataSummary = summarize(runs)

	for _, run := range runs {
		switch run.StrategyType {
		case domain.StrategyTypeMomentum:
			report.MomentumRuns = append(report.MomentumRuns, momentumRow(run))
		case domain.StrategyTypeCrossover:
			report.CrossoverRuns = append(report.CrossoverRuns, crossoverRow(run))
		case domain.StrategyTypeCrossoverGrid:
			report.CrossoverRuns = append(report.CrossoverRuns, crossoverRow(run))

			table, err := g.gridTable(ctx, run)
			if err != nil {
				return nil, err
			}
			report.GridTables = append(report.GridTables, *table)
		}
	}

	return report, nil
}

// gridTable loads the ranked pairs of a grid run.
func (g *Generator) gridTable(ctx context.Context, run *domain.BacktestRun) (*GridTable, error) {
	results, err := g.gridStore.GetByRunID(ctx, run.RunID)
	if err != nil {
		return nil, err
	}

	table := &GridTable{
		RunID: run.RunID,
		Asset: run.Universe,
		Rows:  make([]GridRow, len(results)),
	}
	for i, r := range results {
		table.Rows[i] = GridRow{
			Rank:             r.Rank,
			ShortWindow:      r.ShortWindow,
			LongWindow:       r.LongWindow,
			CumulativeReturn: r.CumulativeReturn,
			AnnualizedReturn: r.AnnualizedReturn,
			AnnualizedStdDev: r.AnnualizedStdDev,
			SharpeRatio:      r.SharpeRatio,
		}
	}
	return table, nil
}

// summarize counts runs per strategy type and finds the covered date range.
func summarize(runs []*domain.BacktestRun) DataSummary {
	s := DataSummary{TotalRuns: len(runs)}
	for i, run := range runs {
		switch run.StrategyType {
		case domain.StrategyTypeMomentum:
			s.MomentumRuns++
		case domain.StrategyTypeCrossover:
			s.CrossoverRuns++
		case domain.StrategyTypeCrossoverGrid:
			s.GridRuns++
		}

		if i == 0 || run.StartMs < s.DateRangeStart {
			s.DateRangeStart = run.StartMs
		}
		if i == 0 || run.EndMs > s.DateRangeEnd {
			s.DateRangeEnd = run.EndMs
		}
	}
	return s
}

func momentumRow(run *domain.BacktestRun) MomentumRunRow {
	return MomentumRunRow{
		RunID:            run.RunID,
		Universe:         run.Universe,
		K:                run.K,
		Lookback:         run.Lookback,
		Periods:          run.Periods,
		AnnualizedReturn: run.Summary.AnnualizedReturn,
		AnnualizedStdDev: run.Summary.AnnualizedStdDev,
		SharpeRatio:      run.Summary.SharpeRatio,
		MaxDrawdown:      valueOrNaN(run.Summary.MaxDrawdown),
	}
}

func crossoverRow(run *domain.BacktestRun) CrossoverRunRow {
	return CrossoverRunRow{
		RunID:            run.RunID,
		Asset:            run.Universe,
		Grid:             run.StrategyType == domain.StrategyTypeCrossoverGrid,
		ShortWindow:      run.ShortWindow,
		LongWindow:       run.LongWindow,
		AnnualizedReturn: run.Summary.AnnualizedReturn,
		CumulativeReturn: valueOrNaN(run.Summary.CumulativeReturn),
		CAGR:             valueOrNaN(run.Summary.CAGR),
		AnnualizedStdDev: run.Summary.AnnualizedStdDev,
		SharpeRatio:      run.Summary.SharpeRatio,
	}
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
