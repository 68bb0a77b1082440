package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"commodity-momentum-lab/internal/config"
	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/ingestion"
	"commodity-momentum-lab/internal/logging"
	"commodity-momentum-lab/internal/normalization"
	"commodity-momentum-lab/internal/observability"
	"commodity-momentum-lab/internal/orchestrator"
	"commodity-momentum-lab/internal/pipeline"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config (defaults are used when empty)")
	csvPath := flag.String("csv", "", "Wide price CSV (date column plus one column per ticker)")
	useFixtures := flag.Bool("use-fixtures", false, "Ingest deterministic synthetic prices instead of a CSV")
	fixtureDays := flag.Int("fixture-days", 750, "Number of weekdays of synthetic prices")
	fromTime := flag.String("from-time", "", "Start date (YYYY-MM-DD, inclusive)")
	toTime := flag.String("to-time", "", "End date (YYYY-MM-DD, inclusive)")
	skipNormalize := flag.Bool("skip-normalize", false, "Only store prices; do not compute returns")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging).WithField("cmd", "ingest")
	metrics := observability.NewMetrics("")

	if *csvPath == "" && !*useFixtures {
		fmt.Fprintln(os.Stderr, "Error: --csv is required unless --use-fixtures is set")
		os.Exit(1)
	}

	from, to, err := parseRange(*fromTime, *toTime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("Received signal %v, shutting down...", sig)
		cancel()
	}()

	var series []*domain.Series
	if *csvPath != "" {
		series, err = ingestion.ReadPriceCSVFile(*csvPath, cfg.Universe)
		if err != nil {
			logger.WithError(err).Fatal("Failed to read price CSV")
		}
	} else {
		series = pipeline.SyntheticPrices(cfg.Assets(), pipeline.FixtureStart, *fixtureDays)
	}
	source, err := ingestion.NewSeriesSource(series)
	if err != nil {
		logger.WithError(err).Fatal("Invalid price data")
	}

	stores, cleanup, err := orchestrator.OpenStores(ctx, cfg.Storage, *useMemory, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create stores")
	}
	defer cleanup()

	if err := run(ctx, cfg, source, stores, metrics, logger, from, to, *skipNormalize); err != nil {
		cleanup()
		logger.WithError(err).Fatal("Ingestion failed")
	}

	metrics.MarkSuccess(time.Now())
	if cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.WithError(err).Warn("Failed to write metrics textfile")
		}
	}
	logger.Info("Ingestion complete")
}

func run(
	ctx context.Context,
	cfg *config.Config,
	source ingestion.PriceSource,
	stores *orchestrator.Stores,
	metrics *observability.Metrics,
	logger logrus.FieldLogger,
	from, to int64,
	skipNormalize bool,
) error {
	manager := ingestion.NewManager(ingestion.ManagerOptions{
		Source:     source,
		PriceStore: stores.Prices,
		Observer:   metrics,
		Logger:     logger,
	})

	counts, err := manager.IngestAll(ctx, nil, from, to)
	if err != nil {
		return fmt.Errorf("ingest prices: %w", err)
	}
	for asset, n := range counts {
		logger.WithFields(logrus.Fields{"asset": asset, "points": n}).Info("stored prices")
	}

	if skipNormalize {
		return nil
	}

	period, err := cfg.Period()
	if err != nil {
		return err
	}
	runner := normalization.NewRunner(stores.Prices, stores.Returns, normalization.Options{
		Period:         period,
		RemoveOutliers: cfg.Data.RemoveOutliers,
	}, logger).WithObserver(metrics)

	results, err := runner.NormalizeAll(ctx)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	for _, r := range results {
		metrics.RecordRowsIngested("return_series", r.Returns)
		logger.WithFields(logrus.Fields{
			"asset":    r.Asset,
			"prices":   r.Prices,
			"returns":  r.Returns,
			"outliers": r.OutliersRepaired,
			"period":   period,
		}).Info("normalized")
	}
	return nil
}

// parseRange converts optional dates to an inclusive millisecond range.
func parseRange(fromStr, toStr string) (int64, int64, error) {
	from, to := int64(math.MinInt64), int64(math.MaxInt64)
	if fromStr != "" {
		t, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --from-time: %w", err)
		}
		from = t.UnixMilli()
	}
	if toStr != "" {
		t, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --to-time: %w", err)
		}
		to = t.AddDate(0, 0, 1).UnixMilli() - 1
	}
	if from > to {
		return 0, 0, fmt.Errorf("--from-time is after --to-time")
	}
	return from, to, nil
}
