package reporting

import "time"

// Report represents the backtest report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time

	// Data Summary
	DataSummary DataSummary

	// Data Quality (filled by the report pipeline; empty when not checked)
	DataQuality DataQualitySection

	// Run tables (sorted by strategy_type, run_id)
	MomentumRuns  []MomentumRunRow
	CrossoverRuns []CrossoverRunRow

	// Ranked grid results, one table per grid run
	GridTables []GridTable
}

// DataSummary contains run counts and the covered date range.
type DataSummary struct {
	TotalRuns      int
	MomentumRuns   int
	CrossoverRuns  int
	GridRuns       int
	DateRangeStart int64 // Unix ms
	DateRangeEnd   int64 // Unix ms
}

// DataQualitySection lists data sufficiency checks for the stored series.
type DataQualitySection struct {
	Checks          []QualityCheck
	AllChecksPassed bool
}

// QualityCheck is one sufficiency criterion with its observed value.
type QualityCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// MomentumRunRow represents one row in the momentum runs table.
type MomentumRunRow struct {
	RunID            string
	Universe         string
	K                int
	Lookback         int
	Periods          int
	AnnualizedReturn float64
	AnnualizedStdDev float64
	SharpeRatio      float64
	MaxDrawdown      float64
}

// CrossoverRunRow represents one single-pair crossover run or the best pair of a grid run.
type CrossoverRunRow struct {
	RunID            string
	Asset            string
	Grid             bool
	ShortWindow      int
	LongWindow       int
	AnnualizedReturn float64
	CumulativeReturn float64
	CAGR             float64
	AnnualizedStdDev float64
	SharpeRatio      float64
}

// GridTable lists the ranked pairs of one grid run.
type GridTable struct {
	RunID string
	Asset string
	Rows  []GridRow
}

// GridRow is one ranked (short, long) pair.
type GridRow struct {
	Rank             int
	ShortWindow      int
	LongWindow       int
	CumulativeReturn float64
	AnnualizedReturn float64 // CAGR
	AnnualizedStdDev float64
	SharpeRatio      float64
}
