package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"commodity-momentum-lab/internal/backtest"
	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/optimizer"
	"commodity-momentum-lab/internal/storage"
)

// ErrRunNotFound is returned when run ID doesn't exist.
var ErrRunNotFound = errors.New("run not found")

// ReplayVerifier implements Verifier by re-executing runs without persisting them.
type ReplayVerifier struct {
	runStore    storage.BacktestRunStore
	gridStore   storage.GridResultStore
	priceStore  storage.PriceSeriesStore
	returnStore storage.ReturnSeriesStore
	log         logrus.FieldLogger
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	RunStore    storage.BacktestRunStore
	GridStore   storage.GridResultStore // optional; checks the stored best pair of grid runs
	PriceStore  storage.PriceSeriesStore
	ReturnStore storage.ReturnSeriesStore
	Logger      logrus.FieldLogger
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReplayVerifier{
		runStore:    opts.RunStore,
		gridStore:   opts.GridStore,
		priceStore:  opts.PriceStore,
		returnStore: opts.ReturnStore,
		log:         log,
	}
}

// VerifyRun verifies a single run by replaying it.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	// 1. Load stored run
	stored, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	// 2. Replay
	replayed, err := v.replayRun(ctx, stored)
	if err != nil {
		return nil, err
	}

	// 3. Compare results
	divergences := CompareRuns(stored, replayed)
	if stored.StrategyType == domain.StrategyTypeCrossoverGrid {
		gridDiv, err := v.checkGridRows(ctx, stored)
		if err != nil {
			return nil, err
		}
		divergences = append(divergences, gridDiv...)
	}

	return &VerificationResult{
		RunID:        runID,
		StrategyType: stored.StrategyType,
		Match:        len(divergences) == 0,
		Divergences:  divergences,
	}, nil
}

// VerifyAll verifies all stored runs.
func (v *ReplayVerifier) VerifyAll(ctx context.Context) (*VerificationReport, error) {
	runs, err := v.runStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalRuns: len(runs),
		Results:   make([]VerificationResult, 0, len(runs)),
	}

	for _, run := range runs {
		result, err := v.VerifyRun(ctx, run.RunID)
		if err != nil {
			// Record error as divergence
			report.Results = append(report.Results, VerificationResult{
				RunID:        run.RunID,
				StrategyType: run.StrategyType,
				Match:        false,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentRuns++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedRuns++
		} else {
			report.DivergentRuns++
			v.log.WithFields(logrus.Fields{
				"run_id":      run.RunID,
				"divergences": len(result.Divergences),
			}).Warn("stored run diverges from replay")
		}
	}

	return report, nil
}

// replayRun re-executes a run with the stored parameters.
func (v *ReplayVerifier) replayRun(ctx context.Context, stored *domain.BacktestRun) (*domain.BacktestRun, error) {
	runner := backtest.NewRunner(v.priceStore, v.returnStore, nil, v.log)

	switch stored.StrategyType {
	case domain.StrategyTypeMomentum:
		_, replayed, err := runner.RunMomentum(ctx, strings.Split(stored.Universe, ","), domain.MomentumParams{
			K:              stored.K,
			Lookback:       stored.Lookback,
			RiskFreeRate:   stored.RiskFreeRate,
			PeriodsPerYear: stored.PeriodsPerYear,
		})
		return replayed, err

	case domain.StrategyTypeCrossover:
		_, replayed, err := runner.RunCrossover(ctx, stored.Universe, domain.CrossoverParams{
			Short:          stored.ShortWindow,
			Long:           stored.LongWindow,
			RiskFreeRate:   stored.RiskFreeRate,
			PeriodsPerYear: stored.PeriodsPerYear,
		})
		return replayed, err

	case domain.StrategyTypeCrossoverGrid:
		return v.replayGridBest(ctx, stored)

	default:
		return nil, fmt.Errorf("unknown strategy type: %s", stored.StrategyType)
	}
}

// replayGridBest re-evaluates the stored best pair as a one-pair grid. The full
// window ranges are not persisted, so the run ID is carried over unchanged.
func (v *ReplayVerifier) replayGridBest(ctx context.Context, stored *domain.BacktestRun) (*domain.BacktestRun, error) {
	prices, err := backtest.LoadSeries(ctx, v.priceStore, stored.Universe)
	if err != nil {
		return nil, err
	}

	report, err := optimizer.GridSearch(ctx, prices, optimizer.GridConfig{
		Shorts:         []int{stored.ShortWindow},
		Longs:          []int{stored.LongWindow},
		TopN:           1,
		RiskFreeRate:   stored.RiskFreeRate,
		PeriodsPerYear: stored.PeriodsPerYear,
		Workers:        1,
	})
	if err != nil {
		return nil, err
	}

	best := report.Top[0]
	cum, cagr := best.CumulativeReturn, best.AnnualizedReturn
	return &domain.BacktestRun{
		RunID:          stored.RunID,
		StrategyType:   domain.StrategyTypeCrossoverGrid,
		Universe:       stored.Universe,
		StartMs:        report.StartMs,
		EndMs:          report.EndMs,
		Periods:        prices.Len(),
		ShortWindow:    best.ShortWindow,
		LongWindow:     best.LongWindow,
		RiskFreeRate:   stored.RiskFreeRate,
		PeriodsPerYear: stored.PeriodsPerYear,
		Summary: domain.PerformanceSummary{
			SharpeRatio:      best.SharpeRatio,
			AnnualizedReturn: cagr,
			AnnualizedStdDev: best.AnnualizedStdDev,
			CumulativeReturn: &cum,
			CAGR:             &cagr,
		},
	}, nil
}

// checkGridRows requires the stored rank 1 row to be the run's best pair.
func (v *ReplayVerifier) checkGridRows(ctx context.Context, stored *domain.BacktestRun) ([]FieldDivergence, error) {
	if v.gridStore == nil {
		return nil, nil
	}
	rows, err := v.gridStore.GetByRunID(ctx, stored.RunID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []FieldDivergence{{Field: "GridRows", Expected: "at least 1", Actual: 0}}, nil
	}

	var divergences []FieldDivergence
	best := rows[0]
	if best.Rank != 1 {
		divergences = append(divergences, FieldDivergence{Field: "GridRank", Expected: 1, Actual: best.Rank})
	}
	if best.ShortWindow != stored.ShortWindow || best.LongWindow != stored.LongWindow {
		divergences = append(divergences, FieldDivergence{
			Field:    "GridBestPair",
			Expected: fmt.Sprintf("%d/%d", stored.ShortWindow, stored.LongWindow),
			Actual:   fmt.Sprintf("%d/%d", best.ShortWindow, best.LongWindow),
		})
	}
	if stored.Summary.CumulativeReturn != nil && !floatEquals(*stored.Summary.CumulativeReturn, best.CumulativeReturn) {
		divergences = append(divergences, FieldDivergence{
			Field:    "GridCumulativeReturn",
			Expected: *stored.Summary.CumulativeReturn,
			Actual:   best.CumulativeReturn,
		})
	}
	return divergences, nil
}
