package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"commodity-momentum-lab/internal/reporting"
	"commodity-momentum-lab/internal/storage"
)

// Output file names.
const (
	ReportFile = "REPORT.md"
	RunsFile   = "backtest_runs.csv"
)

// ReportObserver is notified after a report set is written.
type ReportObserver interface {
	RecordReport()
}

// ReportPipeline orchestrates data checks, report generation and file output.
type ReportPipeline struct {
	reportGen          *reporting.Generator
	gridStore          storage.GridResultStore
	sufficiencyChecker *SufficiencyChecker
	observer           ReportObserver
	outputDir          string
}

// NewReportPipeline creates a new pipeline writing into outputDir.
func NewReportPipeline(
	runStore storage.BacktestRunStore,
	gridStore storage.GridResultStore,
	outputDir string,
) *ReportPipeline {
	return &ReportPipeline{
		reportGen: reporting.NewGenerator(runStore, gridStore),
		gridStore: gridStore,
		outputDir: outputDir,
	}
}

// WithSufficiencyChecker adds a data quality section based on stored returns.
func (p *ReportPipeline) WithSufficiencyChecker(returnStore storage.ReturnSeriesStore, req Requirements) *ReportPipeline {
	p.sufficiencyChecker = NewSufficiencyChecker(returnStore, req)
	return p
}

// WithClock sets a custom clock function for deterministic output.
func (p *ReportPipeline) WithClock(clock func() time.Time) *ReportPipeline {
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithObserver attaches a report observer (metrics).
func (p *ReportPipeline) WithObserver(o ReportObserver) *ReportPipeline {
	p.observer = o
	return p
}

// Run executes the pipeline and writes output files:
// - REPORT.md
// - backtest_runs.csv
// - grid_<asset>_<run>.csv, one per grid search
//
// Returns the written paths in that order.
func (p *ReportPipeline) Run(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return nil, err
	}

	// 1. Sufficiency check (if configured)
	var dataQuality reporting.DataQualitySection
	if p.sufficiencyChecker != nil {
		result, err := p.sufficiencyChecker.Check(ctx)
		if err != nil {
			return nil, err
		}
		dataQuality = convertToDataQuality(result)
	}

	// 2. Generate report
	report, err := p.reportGen.Generate(ctx)
	if err != nil {
		return nil, err
	}
	report.DataQuality = dataQuality

	var written []string
	write := func(name, content string) error {
		path := filepath.Join(p.outputDir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	// 3. Markdown and run table
	if err := write(ReportFile, reporting.RenderMarkdown(report)); err != nil {
		return nil, err
	}
	if err := write(RunsFile, reporting.RenderCSV(report)); err != nil {
		return nil, err
	}

	// 4. One CSV per grid search
	for _, table := range report.GridTables {
		results, err := p.gridStore.GetByRunID(ctx, table.RunID)
		if err != nil {
			return nil, err
		}
		if err := write(GridFileName(table.Asset, table.RunID), reporting.RenderGridCSV(results)); err != nil {
			return nil, err
		}
	}

	if p.observer != nil {
		p.observer.RecordReport()
	}
	return written, nil
}

// GridFileName builds a filesystem-safe name for a grid table.
func GridFileName(asset, runID string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, asset)
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return "grid_" + slug + "_" + runID + ".csv"
}
