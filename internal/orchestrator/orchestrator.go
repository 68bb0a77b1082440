// Package orchestrator provides E2E pipeline orchestration.
// It coordinates: ingestion → normalization → momentum → crossover → reporting
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"commodity-momentum-lab/internal/backtest"
	"commodity-momentum-lab/internal/config"
	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/ingestion"
	"commodity-momentum-lab/internal/normalization"
	"commodity-momentum-lab/internal/observability"
	"commodity-momentum-lab/internal/optimizer"
	"commodity-momentum-lab/internal/pipeline"
	"commodity-momentum-lab/internal/storage"
)

// Orchestrator coordinates the E2E pipeline execution.
type Orchestrator struct {
	stores  *Stores
	cfg     *config.Config
	source  ingestion.PriceSource
	metrics *observability.Metrics
	log     logrus.FieldLogger

	fromMs, toMs      int64
	outputDir         string
	clock             func() time.Time
	skipNormalization bool
}

// Options for creating Orchestrator.
type Options struct {
	Stores *Stores
	Config *config.Config

	// Source supplies prices; nil skips ingestion and uses what is stored.
	Source ingestion.PriceSource
	FromMs int64
	ToMs   int64 // 0 means no upper bound

	// OutputDir receives the report files; empty skips reporting.
	OutputDir string
	Clock     func() time.Time

	Metrics           *observability.Metrics
	Logger            logrus.FieldLogger
	SkipNormalization bool // Skip if returns already exist
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	to := opts.ToMs
	if to == 0 {
		to = math.MaxInt64
	}
	return &Orchestrator{
		stores:            opts.Stores,
		cfg:               cfg,
		source:            opts.Source,
		metrics:           opts.Metrics,
		log:               log.WithField("component", "orchestrator"),
		fromMs:            opts.FromMs,
		toMs:              to,
		outputDir:         opts.OutputDir,
		clock:             opts.Clock,
		skipNormalization: opts.SkipNormalization,
	}
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	AssetsIngested   int
	PointsIngested   int
	AssetsNormalized int
	OutliersRepaired int

	Momentum   *domain.BacktestRun
	Comparison []*domain.MomentumComparison
	Crossover  *domain.BacktestRun // single pair or grid run

	Files  []string
	Errors []string
}

// Run executes the full E2E pipeline.
// Phases:
//  1. Ingest prices from the source (if any)
//  2. Normalize prices into period returns
//  3. Momentum run and lookback comparison
//  4. Crossover single pair, or grid search when no pair is configured
//  5. Write report files
//
// Strategy failures are collected in RunResult.Errors and do not stop later phases.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result, err := o.LoadData(ctx)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 3: Momentum
	o.log.Info("Phase 3: Running momentum...")
	if err := o.runMomentum(ctx, result); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("momentum: %v", err))
	}

	// Phase 4: Crossover
	if o.cfg.Crossover.Asset != "" {
		o.log.Info("Phase 4: Running crossover...")
		if err := o.runCrossover(ctx, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("crossover %s: %v", o.cfg.Crossover.Asset, err))
		}
	} else {
		o.log.Info("Phase 4: Skipping crossover (no asset configured)")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 5: Reporting
	if o.outputDir != "" {
		o.log.Info("Phase 5: Writing reports...")
		files, err := o.runReport(ctx)
		if err != nil {
			return nil, fmt.Errorf("phase 5 (report) failed: %w", err)
		}
		result.Files = files
		o.log.Infof("  Wrote %d files to %s", len(files), o.outputDir)
	}

	o.log.WithFields(logrus.Fields{
		"assets": result.AssetsNormalized,
		"files":  len(result.Files),
		"errors": len(result.Errors),
	}).Info("Pipeline completed")

	return result, nil
}

// LoadData runs only the ingestion and normalization phases, leaving stored
// returns ready for strategy runs.
func (o *Orchestrator) LoadData(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	// Phase 1: Ingestion
	if o.source != nil {
		o.log.Info("Phase 1: Ingesting prices...")
		if err := o.runIngestion(ctx, result); err != nil {
			return nil, fmt.Errorf("phase 1 (ingestion) failed: %w", err)
		}
		o.log.Infof("  Ingested %d points for %d assets", result.PointsIngested, result.AssetsIngested)
	} else {
		o.log.Info("Phase 1: Skipping ingestion (no source)")
	}

	// Phase 2: Normalization
	if !o.skipNormalization {
		o.log.Info("Phase 2: Normalizing prices...")
		if err := o.runNormalization(ctx, result); err != nil {
			return nil, fmt.Errorf("phase 2 (normalization) failed: %w", err)
		}
		o.log.Infof("  Normalized %d assets (%d outliers repaired)", result.AssetsNormalized, result.OutliersRepaired)
	} else {
		o.log.Info("Phase 2: Skipping normalization (skipNormalization=true)")
	}

	return result, nil
}

// runIngestion stores source prices. Assets already stored are skipped.
func (o *Orchestrator) runIngestion(ctx context.Context, result *RunResult) error {
	manager := ingestion.NewManager(ingestion.ManagerOptions{
		Source:     o.source,
		PriceStore: o.stores.Prices,
		Observer:   o.rowsObserver(),
		Logger:     o.log,
	})

	assets, err := o.source.Assets(ctx)
	if err != nil {
		return err
	}

	for _, asset := range assets {
		n, err := manager.IngestAsset(ctx, asset, o.fromMs, o.toMs)
		if err != nil {
			// Skip duplicate key errors (already ingested)
			if errors.Is(err, storage.ErrDuplicateKey) {
				o.log.WithField("asset", asset).Info("prices already stored")
				continue
			}
			return fmt.Errorf("ingest %s: %w", asset, err)
		}
		if n > 0 {
			result.AssetsIngested++
			result.PointsIngested += n
		}
	}
	return nil
}

// runNormalization converts every stored price series into returns.
func (o *Orchestrator) runNormalization(ctx context.Context, result *RunResult) error {
	period, err := o.cfg.Period()
	if err != nil {
		return err
	}

	runner := normalization.NewRunner(o.stores.Prices, o.stores.Returns, normalization.Options{
		Period:         period,
		RemoveOutliers: o.cfg.Data.RemoveOutliers,
	}, o.log)
	if o.metrics != nil {
		runner = runner.WithObserver(o.metrics)
	}

	assets, err := o.stores.Prices.ListAssets(ctx)
	if err != nil {
		return err
	}

	for _, asset := range assets {
		res, err := runner.NormalizeAsset(ctx, asset)
		if err != nil {
			// Skip duplicate key errors (already normalized)
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			return fmt.Errorf("normalize %s: %w", asset, err)
		}
		result.AssetsNormalized++
		result.OutliersRepaired += res.OutliersRepaired
		if o.metrics != nil {
			o.metrics.RecordRowsIngested("return_series", res.Returns)
		}
	}
	return nil
}

// runMomentum runs the configured momentum strategy and the lookback comparison
// over the universe assets that have stored returns.
func (o *Orchestrator) runMomentum(ctx context.Context, result *RunResult) error {
	params, err := o.cfg.MomentumParams()
	if err != nil {
		return err
	}

	assets, err := UniverseAssets(ctx, o.stores.Returns, o.cfg.Assets())
	if err != nil {
		return err
	}

	runner := backtest.NewRunner(o.stores.Prices, o.stores.Returns, o.stores.Runs, o.log)
	if o.metrics != nil {
		runner = runner.WithObserver(o.metrics)
	}

	_, run, err := runner.RunMomentum(ctx, assets, params)
	if err != nil {
		return err
	}
	result.Momentum = run

	if len(o.cfg.Momentum.CompareLookbacks) == 0 {
		return nil
	}
	panel, err := backtest.LoadPanel(ctx, o.stores.Returns, assets)
	if err != nil {
		return err
	}
	rows, err := optimizer.CompareMomentumPeriods(panel, o.cfg.Momentum.CompareLookbacks,
		params.K, params.RiskFreeRate, params.PeriodsPerYear)
	if err != nil {
		return err
	}
	result.Comparison = rows
	return nil
}

// runCrossover runs the configured pair, or the grid search when no pair is set.
func (o *Orchestrator) runCrossover(ctx context.Context, result *RunResult) error {
	asset := o.cfg.Crossover.Asset

	if o.cfg.Crossover.Short != 0 {
		runner := backtest.NewRunner(o.stores.Prices, o.stores.Returns, o.stores.Runs, o.log)
		if o.metrics != nil {
			runner = runner.WithObserver(o.metrics)
		}
		_, run, err := runner.RunCrossover(ctx, asset, o.cfg.CrossoverParams())
		if err != nil {
			return err
		}
		result.Crossover = run
		return nil
	}

	opt := optimizer.NewOptimizer(o.stores.Prices, o.stores.Runs, o.stores.Grid, o.log)
	if o.metrics != nil {
		opt = opt.WithObserver(o.metrics)
	}
	_, run, err := opt.Run(ctx, asset, o.cfg.GridConfig())
	if err != nil {
		return err
	}
	result.Crossover = run
	return nil
}

// runReport writes the report set, including the data quality section.
func (o *Orchestrator) runReport(ctx context.Context) ([]string, error) {
	p := pipeline.NewReportPipeline(o.stores.Runs, o.stores.Grid, o.outputDir).
		WithSufficiencyChecker(o.stores.Returns, Requirements(o.cfg))
	if o.clock != nil {
		p = p.WithClock(o.clock)
	}
	if o.metrics != nil {
		p = p.WithObserver(o.metrics)
	}
	return p.Run(ctx)
}

// Requirements derives data checks from the momentum parameters: room for
// both buckets and at least one full lookback.
func Requirements(cfg *config.Config) pipeline.Requirements {
	longest := lo.Max(append([]int{cfg.Momentum.Lookback}, cfg.Momentum.CompareLookbacks...))
	return pipeline.Requirements{
		MinAssets:  2 * cfg.Momentum.K,
		MinPeriods: longest + 1,
	}
}

func (o *Orchestrator) rowsObserver() ingestion.RowsObserver {
	if o.metrics == nil {
		return nil
	}
	return o.metrics
}

// UniverseAssets returns the configured assets that have stored series, in
// configured order. An empty universe selects every stored asset.
func UniverseAssets(ctx context.Context, store storage.SeriesStore, universe []string) ([]string, error) {
	stored, err := store.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	if len(universe) == 0 {
		return stored, nil
	}
	assets := lo.Filter(universe, func(a string, _ int) bool {
		return lo.Contains(stored, a)
	})
	if len(assets) == 0 {
		return nil, storage.ErrNoSeries
	}
	return assets, nil
}
