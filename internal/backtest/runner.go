package backtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/idhash"
	"commodity-momentum-lab/internal/storage"
)

// RunObserver receives completed runs (metrics).
type RunObserver interface {
	ObserveRun(strategyType domain.StrategyType, duration time.Duration)
}

// Runner loads series from storage, executes strategy runs and persists them.
type Runner struct {
	priceStore  storage.PriceSeriesStore
	returnStore storage.ReturnSeriesStore
	runStore    storage.BacktestRunStore
	observer    RunObserver
	log         logrus.FieldLogger
}

// NewRunner creates a new backtest runner. runStore may be nil to skip persistence.
func NewRunner(
	priceStore storage.PriceSeriesStore,
	returnStore storage.ReturnSeriesStore,
	runStore storage.BacktestRunStore,
	log logrus.FieldLogger,
) *Runner {
	return &Runner{
		priceStore:  priceStore,
		returnStore: returnStore,
		runStore:    runStore,
		log:         log,
	}
}

// WithObserver attaches a run observer.
func (r *Runner) WithObserver(o RunObserver) *Runner {
	r.observer = o
	return r
}

// RunMomentum loads the return panel of assets and runs the momentum strategy.
func (r *Runner) RunMomentum(ctx context.Context, assets []string, p domain.MomentumParams) (*MomentumResult, *domain.BacktestRun, error) {
	started := time.Now()

	panel, err := LoadPanel(ctx, r.returnStore, assets)
	if err != nil {
		return nil, nil, err
	}

	res, err := RunMomentum(panel, p)
	if err != nil {
		return nil, nil, err
	}

	universe := strings.Join(panel.Assets, ",")
	start, end := span(res.Index)
	run := &domain.BacktestRun{
		RunID:          idhash.ComputeRunID(domain.StrategyTypeMomentum, universe, idhash.MomentumParams(p), start, end),
		StrategyType:   domain.StrategyTypeMomentum,
		Universe:       universe,
		StartMs:        start,
		EndMs:          end,
		Periods:        len(res.StrategyReturns),
		K:              p.K,
		Lookback:       p.Lookback,
		RiskFreeRate:   p.RiskFreeRate,
		PeriodsPerYear: p.PeriodsPerYear,
		Summary:        res.Summary,
	}

	if err := r.persist(ctx, run, started); err != nil {
		return nil, nil, err
	}
	return res, run, nil
}

// RunCrossover loads the price series of asset and runs a single crossover pair.
func (r *Runner) RunCrossover(ctx context.Context, asset string, p domain.CrossoverParams) (*CrossoverResult, *domain.BacktestRun, error) {
	started := time.Now()

	prices, err := LoadSeries(ctx, r.priceStore, asset)
	if err != nil {
		return nil, nil, err
	}

	res, err := RunCrossover(prices, p)
	if err != nil {
		return nil, nil, err
	}

	start, end := span(res.Index)
	run := &domain.BacktestRun{
		RunID:          idhash.ComputeRunID(domain.StrategyTypeCrossover, asset, idhash.CrossoverParams(p), start, end),
		StrategyType:   domain.StrategyTypeCrossover,
		Universe:       asset,
		StartMs:        start,
		EndMs:          end,
		Periods:        len(res.StrategyReturns),
		ShortWindow:    p.Short,
		LongWindow:     p.Long,
		RiskFreeRate:   p.RiskFreeRate,
		PeriodsPerYear: p.PeriodsPerYear,
		Summary:        res.Summary,
	}

	if err := r.persist(ctx, run, started); err != nil {
		return nil, nil, err
	}
	return res, run, nil
}

// persist stores the run. Run IDs are deterministic, so an identical rerun
// finds its record already present and is not an error.
func (r *Runner) persist(ctx context.Context, run *domain.BacktestRun, started time.Time) error {
	if r.observer != nil {
		r.observer.ObserveRun(run.StrategyType, time.Since(started))
	}

	if r.runStore != nil {
		err := r.runStore.Insert(ctx, run)
		switch {
		case errors.Is(err, storage.ErrDuplicateKey):
			r.logger().WithField("run_id", run.RunID).Info("run already stored")
		case err != nil:
			return fmt.Errorf("store run %s: %w", run.RunID, err)
		}
	}

	r.logger().WithFields(logrus.Fields{
		"run_id":   run.RunID,
		"strategy": run.StrategyType,
		"universe": run.Universe,
		"periods":  run.Periods,
		"sharpe":   run.Summary.SharpeRatio,
	}).Info("backtest run complete")
	return nil
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.log == nil {
		return logrus.StandardLogger()
	}
	return r.log
}

// LoadSeries reads one stored asset series.
func LoadSeries(ctx context.Context, store storage.SeriesStore, asset string) (*domain.Series, error) {
	points, err := store.GetByAsset(ctx, asset)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s", storage.ErrNoSeries, asset)
	}
	s := domain.NewSeries(asset, points)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadPanel reads stored series and aligns them on the union of their timestamps.
// An empty assets list loads every stored asset.
func LoadPanel(ctx context.Context, store storage.SeriesStore, assets []string) (*domain.Panel, error) {
	if len(assets) == 0 {
		all, err := store.ListAssets(ctx)
		if err != nil {
			return nil, err
		}
		assets = all
	}
	if len(assets) == 0 {
		return nil, storage.ErrNoSeries
	}

	series := make([]*domain.Series, 0, len(assets))
	for _, asset := range assets {
		s, err := LoadSeries(ctx, store, asset)
		if err != nil {
			return nil, err
		}
		series = append(series, s)
	}
	return domain.NewPanel(series), nil
}

func span(index []int64) (int64, int64) {
	if len(index) == 0 {
		return 0, 0
	}
	return index[0], index[len(index)-1]
}
