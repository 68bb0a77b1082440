package optimizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"commodity-momentum-lab/internal/backtest"
	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/idhash"
	"commodity-momentum-lab/internal/storage"
)

// GridObserver receives grid search counters (metrics).
type GridObserver interface {
	ObserveGrid(evaluated, skipped int, duration time.Duration)
}

// Optimizer runs grid searches against stored prices and persists the ranked pairs.
type Optimizer struct {
	priceStore storage.PriceSeriesStore
	runStore   storage.BacktestRunStore
	gridStore  storage.GridResultStore
	observer   GridObserver
	log        logrus.FieldLogger
}

// NewOptimizer creates a new optimizer. runStore and gridStore may be nil to skip persistence.
func NewOptimizer(
	priceStore storage.PriceSeriesStore,
	runStore storage.BacktestRunStore,
	gridStore storage.GridResultStore,
	log logrus.FieldLogger,
) *Optimizer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Optimizer{
		priceStore: priceStore,
		runStore:   runStore,
		gridStore:  gridStore,
		log:        log,
	}
}

// WithObserver attaches a grid observer.
func (o *Optimizer) WithObserver(obs GridObserver) *Optimizer {
	o.observer = obs
	return o
}

// Run loads the asset's prices, searches the grid and stores the run with its top pairs.
// The stored run carries the best pair's windows and metrics.
func (o *Optimizer) Run(ctx context.Context, asset string, cfg GridConfig) (*GridReport, *domain.BacktestRun, error) {
	started := time.Now()

	prices, err := backtest.LoadSeries(ctx, o.priceStore, asset)
	if err != nil {
		return nil, nil, err
	}

	report, err := GridSearch(ctx, prices, cfg)
	if err != nil {
		return nil, nil, err
	}

	if o.observer != nil {
		o.observer.ObserveGrid(report.Evaluated, report.Skipped, time.Since(started))
	}

	runID := idhash.ComputeRunID(domain.StrategyTypeCrossoverGrid, asset,
		idhash.GridParams(cfg.Shorts, cfg.Longs, cfg.TopN, cfg.RiskFreeRate, cfg.PeriodsPerYear),
		report.StartMs, report.EndMs)
	for _, r := range report.Top {
		r.RunID = runID
	}

	best := report.Top[0]
	cum, cagr := best.CumulativeReturn, best.AnnualizedReturn
	run := &domain.BacktestRun{
		RunID:          runID,
		StrategyType:   domain.StrategyTypeCrossoverGrid,
		Universe:       asset,
		StartMs:        report.StartMs,
		EndMs:          report.EndMs,
		Periods:        prices.Len(),
		ShortWindow:    best.ShortWindow,
		LongWindow:     best.LongWindow,
		RiskFreeRate:   cfg.RiskFreeRate,
		PeriodsPerYear: cfg.PeriodsPerYear,
		Summary: domain.PerformanceSummary{
			SharpeRatio:      best.SharpeRatio,
			AnnualizedReturn: cagr,
			AnnualizedStdDev: best.AnnualizedStdDev,
			CumulativeReturn: &cum,
			CAGR:             &cagr,
		},
	}

	if err := o.persist(ctx, run, report.Top); err != nil {
		return nil, nil, err
	}

	o.log.WithFields(logrus.Fields{
		"run_id":    runID,
		"asset":     asset,
		"evaluated": report.Evaluated,
		"skipped":   report.Skipped,
		"best":      fmt.Sprintf("%d/%d", best.ShortWindow, best.LongWindow),
		"duration":  time.Since(started).Round(time.Millisecond),
	}).Info("grid search complete")

	return report, run, nil
}

// persist stores the run and its grid rows. A rerun with identical inputs
// already has both stored and is skipped.
func (o *Optimizer) persist(ctx context.Context, run *domain.BacktestRun, top []*domain.GridResult) error {
	if o.runStore != nil {
		err := o.runStore.Insert(ctx, run)
		if errors.Is(err, storage.ErrDuplicateKey) {
			o.log.WithField("run_id", run.RunID).Info("grid run already stored")
			return nil
		}
		if err != nil {
			return fmt.Errorf("store grid run %s: %w", run.RunID, err)
		}
	}

	if o.gridStore != nil {
		if err := o.gridStore.InsertBulk(ctx, top); err != nil {
			return fmt.Errorf("store grid results %s: %w", run.RunID, err)
		}
	}
	return nil
}
