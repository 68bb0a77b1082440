package backtest

import (
	"fmt"
	"math"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/metrics"
	"commodity-momentum-lab/internal/normalization"
	"commodity-momentum-lab/internal/rolling"
	"commodity-momentum-lab/internal/signal"
)

// MomentumResult holds the output of one cross-sectional momentum run.
type MomentumResult struct {
	Index           []int64
	Scores          *domain.Panel       // rolling lookback sums
	Signals         *domain.SignalPanel // positions decided at each row
	StrategyReturns []float64
	Cumulative      []float64 // running sum of StrategyReturns
	Summary         domain.PerformanceSummary
}

// CrossoverResult holds the output of one single-asset crossover run.
type CrossoverResult struct {
	Asset           string
	Index           []int64
	ShortMean       []float64
	LongMean        []float64
	Signal          []int
	Returns         []float64 // percentage change of prices
	StrategyReturns []float64
	Cumulative      []float64 // compounded strategy return
	Baseline        []float64 // buy-and-hold: price / first price - 1
	Summary         domain.PerformanceSummary
}

// RunMomentum ranks trailing lookback sums of the return panel and holds the
// top and bottom k assets for one period.
func RunMomentum(returns *domain.Panel, p domain.MomentumParams) (*MomentumResult, error) {
	if err := validatePeriodsPerYear(p.PeriodsPerYear); err != nil {
		return nil, err
	}
	if p.K < 1 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidBucketSize, p.K)
	}

	scores, err := rolling.SumPanel(returns, p.Lookback)
	if err != nil {
		return nil, err
	}

	signals, err := signal.CrossSectional(scores, p.K)
	if err != nil {
		return nil, err
	}

	strategy, err := MomentumReturns(signals, returns, p.K)
	if err != nil {
		return nil, err
	}

	return &MomentumResult{
		Index:           append([]int64(nil), returns.Index...),
		Scores:          scores,
		Signals:         signals,
		StrategyReturns: strategy,
		Cumulative:      metrics.CumSum(strategy),
		Summary:         metrics.MomentumSummary(strategy, p.RiskFreeRate, p.PeriodsPerYear),
	}, nil
}

// RunCrossover trades one asset on the crossing of its short and long price
// moving averages. short must be strictly less than long.
func RunCrossover(prices *domain.Series, p domain.CrossoverParams) (*CrossoverResult, error) {
	if err := validatePeriodsPerYear(p.PeriodsPerYear); err != nil {
		return nil, err
	}
	if p.Short < 1 || p.Long < 1 {
		return nil, fmt.Errorf("%w: short=%d long=%d", domain.ErrInvalidWindow, p.Short, p.Long)
	}
	if p.Short >= p.Long {
		return nil, fmt.Errorf("%w: short=%d long=%d", domain.ErrInvalidWindowPair, p.Short, p.Long)
	}
	if err := prices.Validate(); err != nil {
		return nil, err
	}

	shortMean, err := rolling.Mean(prices.Values, p.Short)
	if err != nil {
		return nil, err
	}
	longMean, err := rolling.Mean(prices.Values, p.Long)
	if err != nil {
		return nil, err
	}
	sig, err := signal.Crossover(shortMean, longMean)
	if err != nil {
		return nil, err
	}

	returns := normalization.PctChange(prices.Values)
	strategy, err := CrossoverReturns(sig, returns)
	if err != nil {
		return nil, err
	}

	summary, err := metrics.CrossoverSummary(strategy, prices.Index, p.RiskFreeRate, p.PeriodsPerYear)
	if err != nil {
		return nil, err
	}

	return &CrossoverResult{
		Asset:           prices.Name,
		Index:           append([]int64(nil), prices.Index...),
		ShortMean:       shortMean,
		LongMean:        longMean,
		Signal:          sig,
		Returns:         returns,
		StrategyReturns: strategy,
		Cumulative:      metrics.CumProd(strategy),
		Baseline:        BuyAndHold(prices.Values),
		Summary:         summary,
	}, nil
}

// BuyAndHold returns price / first defined price - 1 at every index.
func BuyAndHold(prices []float64) []float64 {
	out := make([]float64, len(prices))
	base := math.NaN()
	for _, v := range prices {
		if !math.IsNaN(v) {
			base = v
			break
		}
	}
	for i, v := range prices {
		out[i] = v/base - 1
	}
	return out
}

func validatePeriodsPerYear(ppy float64) error {
	if !(ppy > 0) {
		return fmt.Errorf("%w: periods per year must be positive, got %v", domain.ErrInvalidPeriod, ppy)
	}
	return nil
}
