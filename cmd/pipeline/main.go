package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"commodity-momentum-lab/internal/config"
	"commodity-momentum-lab/internal/ingestion"
	"commodity-momentum-lab/internal/logging"
	"commodity-momentum-lab/internal/observability"
	"commodity-momentum-lab/internal/orchestrator"
	"commodity-momentum-lab/internal/pipeline"
	"commodity-momentum-lab/internal/reporting"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config (defaults are used when empty)")
	csvPath := flag.String("csv", "", "Wide price CSV to ingest (date column plus one column per ticker)")
	useFixtures := flag.Bool("use-fixtures", false, "Ingest deterministic synthetic prices instead of a CSV")
	fixtureDays := flag.Int("fixture-days", 750, "Number of weekdays of synthetic prices")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	fixedClock := flag.Bool("fixed-clock", false, "Stamp the report with a fixed time for reproducible output")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging).WithField("cmd", "pipeline")
	metrics := observability.NewMetrics("")

	ctx, cancel := signalContext(logger)
	defer cancel()

	var source ingestion.PriceSource
	switch {
	case *csvPath != "":
		series, err := ingestion.ReadPriceCSVFile(*csvPath, cfg.Universe)
		if err != nil {
			logger.WithError(err).Fatal("Failed to read price CSV")
		}
		source, err = ingestion.NewSeriesSource(series)
		if err != nil {
			logger.WithError(err).Fatal("Invalid price CSV")
		}
	case *useFixtures:
		src, err := ingestion.NewSeriesSource(pipeline.SyntheticPrices(cfg.Assets(), pipeline.FixtureStart, *fixtureDays))
		if err != nil {
			logger.WithError(err).Fatal("Failed to build fixtures")
		}
		source = src
	}

	stores, cleanup, err := orchestrator.OpenStores(ctx, cfg.Storage, *useMemory, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create stores")
	}
	defer cleanup()

	opts := orchestrator.Options{
		Stores:    stores,
		Config:    cfg,
		Source:    source,
		OutputDir: *outputDir,
		Metrics:   metrics,
		Logger:    logger,
	}
	if *fixedClock {
		fixed := time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC)
		opts.Clock = func() time.Time { return fixed }
	}

	result, err := orchestrator.New(opts).Run(ctx)
	if err != nil {
		cleanup()
		logger.WithError(err).Fatal("Pipeline failed")
	}

	for _, e := range result.Errors {
		logger.Warn(e)
	}
	if len(result.Comparison) > 0 {
		fmt.Print(reporting.RenderComparisonMarkdown(result.Comparison))
	}
	fmt.Println("Generated files:")
	for _, f := range result.Files {
		fmt.Printf("  - %s\n", f)
	}

	metrics.MarkSuccess(time.Now())
	if cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.WithError(err).Warn("Failed to write metrics textfile")
		}
	}
}

// signalContext cancels on SIGINT/SIGTERM and exits on a second signal.
func signalContext(logger logrus.FieldLogger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Infof("Received signal %v, shutting down...", sig)
			cancel()
		case <-ctx.Done():
			return
		}
		sig := <-sigCh
		logger.Warnf("Received second signal %v, forcing exit", sig)
		os.Exit(1)
	}()

	return ctx, cancel
}
