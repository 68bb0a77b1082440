package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"commodity-momentum-lab/internal/config"
	"commodity-momentum-lab/internal/logging"
	"commodity-momentum-lab/internal/observability"
	"commodity-momentum-lab/internal/orchestrator"
	"commodity-momentum-lab/internal/pipeline"
	"commodity-momentum-lab/internal/verification"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config (defaults are used when empty)")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	useFixtures := flag.Bool("use-fixtures", false, "Run the full pipeline on in-memory synthetic prices first")
	fixedClock := flag.Bool("fixed-clock", false, "Stamp the report with a fixed time for reproducible output")
	verify := flag.Bool("verify", false, "Replay every stored run and fail on divergence")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging).WithField("cmd", "report")
	metrics := observability.NewMetrics("")

	// Validate flags
	if !*useFixtures && (cfg.Storage.PostgresDSN == "" || cfg.Storage.ClickHouseDSN == "") {
		fmt.Fprintf(os.Stderr, "Error: %s and %s are required when not using fixtures\n",
			config.EnvPostgresDSN, config.EnvClickHouseDSN)
		fmt.Fprintln(os.Stderr, "Use --use-fixtures to run with demo data instead")
		os.Exit(1)
	}

	stores, cleanup, err := orchestrator.OpenStores(ctx, cfg.Storage, *useFixtures, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create stores")
	}
	defer cleanup()

	var clock func() time.Time
	if *fixedClock {
		fixed := time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC)
		clock = func() time.Time { return fixed }
	}

	var files []string
	if *useFixtures {
		files, err = fixtureReport(ctx, cfg, stores, metrics, logger, *outputDir, clock)
	} else {
		files, err = storedReport(ctx, cfg, stores, metrics, *outputDir, clock)
	}
	if err != nil {
		cleanup()
		logger.WithError(err).Fatal("Error running report pipeline")
	}

	fmt.Println("Report generated successfully:")
	for _, f := range files {
		fmt.Printf("  - %s\n", f)
	}

	if *verify {
		report, err := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
			RunStore:    stores.Runs,
			GridStore:   stores.Grid,
			PriceStore:  stores.Prices,
			ReturnStore: stores.Returns,
			Logger:      logger,
		}).VerifyAll(ctx)
		if err != nil {
			cleanup()
			logger.WithError(err).Fatal("Verification failed")
		}
		fmt.Printf("Verified %d runs: %d matched, %d divergent\n",
			report.TotalRuns, report.MatchedRuns, report.DivergentRuns)
		for _, r := range report.Results {
			for _, d := range r.Divergences {
				fmt.Printf("  %s %s: stored=%v replayed=%v\n", r.RunID[:min(8, len(r.RunID))], d.Field, d.Expected, d.Actual)
			}
		}
		if report.DivergentRuns > 0 {
			cleanup()
			os.Exit(1)
		}
	}

	metrics.MarkSuccess(time.Now())
	if cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.WithError(err).Warn("Failed to write metrics textfile")
		}
	}
}

// storedReport renders the runs already present in storage.
func storedReport(
	ctx context.Context,
	cfg *config.Config,
	stores *orchestrator.Stores,
	metrics *observability.Metrics,
	outputDir string,
	clock func() time.Time,
) ([]string, error) {
	p := pipeline.NewReportPipeline(stores.Runs, stores.Grid, outputDir).
		WithSufficiencyChecker(stores.Returns, orchestrator.Requirements(cfg)).
		WithObserver(metrics)
	if clock != nil {
		p = p.WithClock(clock)
	}
	return p.Run(ctx)
}

// fixtureReport runs every phase on synthetic prices, then reports.
func fixtureReport(
	ctx context.Context,
	cfg *config.Config,
	stores *orchestrator.Stores,
	metrics *observability.Metrics,
	logger logrus.FieldLogger,
	outputDir string,
	clock func() time.Time,
) ([]string, error) {
	if cfg.Crossover.Asset == "" {
		cfg.Crossover.Asset = "Gold"
	}
	if err := pipeline.LoadFixtures(ctx, stores.Prices, cfg.Assets(), 750); err != nil {
		return nil, err
	}

	result, err := orchestrator.New(orchestrator.Options{
		Stores:    stores,
		Config:    cfg,
		OutputDir: outputDir,
		Clock:     clock,
		Metrics:   metrics,
		Logger:    logger,
	}).Run(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range result.Errors {
		logger.Warn(e)
	}
	return result.Files, nil
}
