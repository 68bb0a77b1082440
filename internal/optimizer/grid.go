package optimizer

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"commodity-momentum-lab/internal/backtest"
	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/metrics"
	"commodity-momentum-lab/internal/normalization"
	"commodity-momentum-lab/internal/rolling"
	"commodity-momentum-lab/internal/signal"
)

// GridConfig configures a crossover grid search.
type GridConfig struct {
	Shorts         []int
	Longs          []int
	TopN           int // <= 0 keeps every evaluated pair
	RiskFreeRate   float64
	PeriodsPerYear float64
	Workers        int // <= 0 uses GOMAXPROCS
}

// GridReport is the ranked outcome of a grid search.
type GridReport struct {
	Asset     string
	StartMs   int64
	EndMs     int64
	Evaluated int
	Skipped   int
	Top       []*domain.GridResult
}

// pairOutcome is the private result slot of one evaluated pair.
type pairOutcome struct {
	pair       Pair
	cumulative float64
	stdDev     float64
}

// GridSearch evaluates every (short, long) pair with short < long on the
// price series and ranks them by final compounded return, best first.
// Ties keep ascending (short, long) order. Pairs are evaluated concurrently,
// but the ranking does not depend on scheduling.
func GridSearch(ctx context.Context, prices *domain.Series, cfg GridConfig) (*GridReport, error) {
	if err := validateGrid(cfg); err != nil {
		return nil, err
	}
	if err := prices.Validate(); err != nil {
		return nil, err
	}

	pairs, skipped := Pairs(cfg.Shorts, cfg.Longs)
	if len(pairs) == 0 {
		return nil, domain.ErrEmptyGrid
	}

	means, err := meanCache(ctx, prices.Values, windows(pairs), cfg.Workers)
	if err != nil {
		return nil, err
	}
	returns := normalization.PctChange(prices.Values)

	outcomes := make([]pairOutcome, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(cfg.Workers))
	for i, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sig, err := signal.Crossover(means[p.Short], means[p.Long])
			if err != nil {
				return err
			}
			strategy, err := backtest.CrossoverReturns(sig, returns)
			if err != nil {
				return err
			}
			outcomes[i] = pairOutcome{
				pair:       p,
				cumulative: metrics.Final(metrics.CumProd(strategy)),
				stdDev:     metrics.StdDev(strategy),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rankOutcomes(outcomes)

	n := len(outcomes)
	if cfg.TopN > 0 && cfg.TopN < n {
		n = cfg.TopN
	}

	report := &GridReport{
		Asset:     prices.Name,
		Evaluated: len(pairs),
		Skipped:   skipped,
		Top:       make([]*domain.GridResult, n),
	}
	if len(prices.Index) > 0 {
		report.StartMs = prices.Index[0]
		report.EndMs = prices.Index[len(prices.Index)-1]
	}
	years := metrics.Years(report.StartMs, report.EndMs)

	for i := 0; i < n; i++ {
		o := outcomes[i]
		cagr := metrics.CAGR(o.cumulative, years)
		annStd := o.stdDev * math.Sqrt(cfg.PeriodsPerYear)
		report.Top[i] = &domain.GridResult{
			Rank:             i + 1,
			ShortWindow:      o.pair.Short,
			LongWindow:       o.pair.Long,
			CumulativeReturn: o.cumulative,
			ReturnStdDev:     o.stdDev,
			AnnualizedReturn: cagr,
			AnnualizedStdDev: annStd,
			SharpeRatio:      gridSharpe(cagr, annStd, cfg.RiskFreeRate),
		}
	}

	return report, nil
}

// meanCache computes each distinct rolling mean once, in parallel.
func meanCache(ctx context.Context, values []float64, ws []int, workers int) (map[int][]float64, error) {
	series := make([][]float64, len(ws))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(workers))
	for i, w := range ws {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := rolling.Mean(values, w)
			if err != nil {
				return err
			}
			series[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cache := make(map[int][]float64, len(ws))
	for i, w := range ws {
		cache[w] = series[i]
	}
	return cache, nil
}

// rankOutcomes sorts by cumulative return DESC, undefined last, then short, long ASC.
func rankOutcomes(outcomes []pairOutcome) {
	sort.Slice(outcomes, func(i, j int) bool {
		a, b := outcomes[i], outcomes[j]
		aNaN, bNaN := math.IsNaN(a.cumulative), math.IsNaN(b.cumulative)
		if aNaN != bNaN {
			return bNaN
		}
		if !aNaN && a.cumulative != b.cumulative {
			return a.cumulative > b.cumulative
		}
		if a.pair.Short != b.pair.Short {
			return a.pair.Short < b.pair.Short
		}
		return a.pair.Long < b.pair.Long
	})
}

// gridSharpe is (CAGR - rf) / annualized std, and 0 unless the std is positive.
func gridSharpe(cagr, annStd, riskFreeRate float64) float64 {
	if !(annStd > 0) {
		return 0
	}
	return (cagr - riskFreeRate) / annStd
}

func validateGrid(cfg GridConfig) error {
	for _, w := range append(append([]int(nil), cfg.Shorts...), cfg.Longs...) {
		if w < 1 {
			return fmt.Errorf("%w: %d", domain.ErrInvalidWindow, w)
		}
	}
	if !(cfg.PeriodsPerYear > 0) {
		return fmt.Errorf("%w: periods per year must be positive, got %v", domain.ErrInvalidPeriod, cfg.PeriodsPerYear)
	}
	return nil
}

func workerCount(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}
