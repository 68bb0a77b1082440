package domain

// StrategyType identifies a backtested rule family.
type StrategyType string

// Strategy type constants
const (
	StrategyTypeMomentum  StrategyType = "MOMENTUM"
	StrategyTypeCrossover StrategyType = "CROSSOVER"

	// StrategyTypeCrossoverGrid marks a grid search whose ranked pairs live in grid_results.
	StrategyTypeCrossoverGrid StrategyType = "CROSSOVER_GRID"
)

// PerformanceSummary is the fixed metric record computed once per backtest run.
// NaN means the metric is undefined for the input (thin or degenerate data).
type PerformanceSummary struct {
	SharpeRatio      float64
	AnnualizedReturn float64
	AnnualizedStdDev float64

	// MaxDrawdown is set for momentum runs only (running-sum cumulative convention).
	MaxDrawdown *float64

	// CumulativeReturn is the compounded (1+r) product minus one; set for crossover runs.
	CumulativeReturn *float64

	// CAGR is set for crossover runs: (1+cumulative)^(1/years) - 1.
	CAGR *float64
}

// MomentumParams configures a cross-sectional momentum run.
type MomentumParams struct {
	K              int     // bucket size on each side
	Lookback       int     // rolling-sum window X
	RiskFreeRate   float64 // annualized
	PeriodsPerYear float64 // 12 for monthly returns
}

// CrossoverParams configures a moving-average crossover run.
type CrossoverParams struct {
	Short          int
	Long           int
	RiskFreeRate   float64
	PeriodsPerYear float64 // 252 for daily returns
}

// BacktestRun is the persisted outcome of one strategy run.
// Corresponds to backtest_runs table in Postgres.
type BacktestRun struct {
	RunID        string
	StrategyType StrategyType
	Universe     string // comma-joined assets for momentum, single asset for crossover
	StartMs      int64
	EndMs        int64
	Periods      int // number of strategy-return observations, undefined ones included

	// Parameters (zero when not applicable to StrategyType)
	K              int
	Lookback       int
	ShortWindow    int
	LongWindow     int
	RiskFreeRate   float64
	PeriodsPerYear float64

	Summary PerformanceSummary
}

// GridResult is one evaluated (short, long) pair of a crossover grid search.
// Corresponds to grid_results table in Postgres.
type GridResult struct {
	RunID            string
	Rank             int // 1-based position after ranking by CumulativeReturn DESC
	ShortWindow      int
	LongWindow       int
	CumulativeReturn float64 // final compounded return
	ReturnStdDev     float64 // per-period std of strategy returns (n-1)
	AnnualizedReturn float64 // CAGR
	AnnualizedStdDev float64
	SharpeRatio      float64
}

// MomentumComparison is one row of a lookback comparison.
// CumulativeReturn uses the compounded convention here, unlike the
// running-sum series a single momentum run reports.
type MomentumComparison struct {
	Lookback         int
	AnnualizedReturn float64
	AnnualizedStdDev float64
	SharpeRatio      float64
	CumulativeReturn float64
}
