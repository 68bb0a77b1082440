package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"commodity-momentum-lab/internal/backtest"
	"commodity-momentum-lab/internal/config"
	"commodity-momentum-lab/internal/ingestion"
	"commodity-momentum-lab/internal/logging"
	"commodity-momentum-lab/internal/observability"
	"commodity-momentum-lab/internal/optimizer"
	"commodity-momentum-lab/internal/orchestrator"
	"commodity-momentum-lab/internal/pipeline"
	"commodity-momentum-lab/internal/reporting"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config (defaults are used when empty)")
	asset := flag.String("asset", "", "Commodity to backtest (overrides config)")
	short := flag.Int("short", 0, "Short SMA window; with --long runs a single pair")
	long := flag.Int("long", 0, "Long SMA window; with --short runs a single pair")
	topN := flag.Int("top", 0, "Number of ranked grid pairs to keep (overrides config)")
	workers := flag.Int("workers", 0, "Grid search workers (0 uses GOMAXPROCS)")
	format := flag.String("format", "markdown", "Grid output format: markdown or csv")
	useFixtures := flag.Bool("use-fixtures", false, "Load deterministic synthetic prices before running")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *asset != "" {
		cfg.Crossover.Asset = *asset
	}
	if *short != 0 || *long != 0 {
		cfg.Crossover.Short, cfg.Crossover.Long = *short, *long
	}
	if *topN > 0 {
		cfg.Crossover.TopN = *topN
	}
	if *workers > 0 {
		cfg.Crossover.Workers = *workers
	}
	if cfg.Crossover.Asset == "" {
		fmt.Fprintln(os.Stderr, "Error: --asset is required (or set crossover.asset in the config)")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).WithFields(logrus.Fields{"cmd": "crossover", "asset": cfg.Crossover.Asset})
	metrics := observability.NewMetrics("")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("Received signal %v, shutting down...", sig)
		cancel()
	}()

	stores, cleanup, err := orchestrator.OpenStores(ctx, cfg.Storage, *useMemory, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create stores")
	}
	defer cleanup()

	if *useFixtures {
		src, err := ingestion.NewSeriesSource(pipeline.SyntheticPrices(cfg.Assets(), pipeline.FixtureStart, 750))
		if err == nil {
			_, err = orchestrator.New(orchestrator.Options{
				Stores:  stores,
				Config:  cfg,
				Source:  src,
				Metrics: metrics,
				Logger:  logger,
			}).LoadData(ctx)
		}
		if err != nil {
			cleanup()
			logger.WithError(err).Fatal("Failed to load fixtures")
		}
	}

	var out string
	if cfg.Crossover.Short != 0 {
		out, err = runPair(ctx, cfg, stores, metrics, logger)
	} else {
		out, err = runGrid(ctx, cfg, stores, metrics, logger, *format)
	}
	if err != nil {
		cleanup()
		logger.WithError(err).Fatal("Crossover backtest failed")
	}
	fmt.Print(out)

	metrics.MarkSuccess(time.Now())
	if cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.WithError(err).Warn("Failed to write metrics textfile")
		}
	}
}

// runPair backtests one (short, long) pair and prints its summary.
func runPair(ctx context.Context, cfg *config.Config, stores *orchestrator.Stores, metrics *observability.Metrics, logger logrus.FieldLogger) (string, error) {
	runner := backtest.NewRunner(stores.Prices, stores.Returns, stores.Runs, logger).WithObserver(metrics)
	res, stored, err := runner.RunCrossover(ctx, cfg.Crossover.Asset, cfg.CrossoverParams())
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Crossover run %s: %s SMA %d/%d (%d periods)\n",
		stored.RunID[:8], res.Asset, stored.ShortWindow, stored.LongWindow, stored.Periods))
	sb.WriteString(fmt.Sprintf("  CAGR:              %.4f\n", deref(stored.Summary.CAGR)))
	sb.WriteString(fmt.Sprintf("  Cumulative return: %.4f\n", deref(stored.Summary.CumulativeReturn)))
	sb.WriteString(fmt.Sprintf("  Buy and hold:      %.4f\n", lastOrNaN(res.Baseline)))
	sb.WriteString(fmt.Sprintf("  Annualized stddev: %.4f\n", stored.Summary.AnnualizedStdDev))
	sb.WriteString(fmt.Sprintf("  Sharpe ratio:      %.2f\n", stored.Summary.SharpeRatio))
	return sb.String(), nil
}

// runGrid searches the configured window grid and prints the ranked pairs.
func runGrid(ctx context.Context, cfg *config.Config, stores *orchestrator.Stores, metrics *observability.Metrics, logger logrus.FieldLogger, format string) (string, error) {
	opt := optimizer.NewOptimizer(stores.Prices, stores.Runs, stores.Grid, logger).WithObserver(metrics)
	report, stored, err := opt.Run(ctx, cfg.Crossover.Asset, cfg.GridConfig())
	if err != nil {
		return "", err
	}

	if format == "csv" {
		return reporting.RenderGridCSV(report.Top), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Grid run %s: %d pairs evaluated, %d skipped\n\n",
		stored.RunID[:8], report.Evaluated, report.Skipped))
	sb.WriteString(reporting.RenderGridMarkdown(cfg.Crossover.Asset, report.Top))
	return sb.String(), nil
}

func deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func lastOrNaN(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
