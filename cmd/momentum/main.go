package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
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
	k := flag.Int("k", 0, "Long/short bucket size (overrides config)")
	lookback := flag.Int("lookback", 0, "Lookback periods for the stored run (overrides config)")
	compare := flag.String("compare", "", "Comma-separated lookbacks to compare (overrides config)")
	metric := flag.String("metric", "", "Print a single comparison metric (Annualized_Return, Annualized_StdDev, Sharpe_Ratio, Cumulative_Return)")
	format := flag.String("format", "markdown", "Comparison output format: markdown or csv")
	useFixtures := flag.Bool("use-fixtures", false, "Load deterministic synthetic prices before running")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *k > 0 {
		cfg.Momentum.K = *k
	}
	if *lookback > 0 {
		cfg.Momentum.Lookback = *lookback
	}
	if *compare != "" {
		lookbacks, err := parseInts(*compare)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --compare: %v\n", err)
			os.Exit(1)
		}
		cfg.Momentum.CompareLookbacks = lookbacks
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).WithField("cmd", "momentum")
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
		if err := loadFixtures(ctx, cfg, stores, metrics, logger); err != nil {
			cleanup()
			logger.WithError(err).Fatal("Failed to load fixtures")
		}
	}

	out, err := run(ctx, cfg, stores, metrics, logger, *metric, *format)
	if err != nil {
		cleanup()
		logger.WithError(err).Fatal("Momentum backtest failed")
	}
	fmt.Print(out)

	metrics.MarkSuccess(time.Now())
	if cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.WithError(err).Warn("Failed to write metrics textfile")
		}
	}
}

func run(
	ctx context.Context,
	cfg *config.Config,
	stores *orchestrator.Stores,
	metrics *observability.Metrics,
	logger logrus.FieldLogger,
	metric, format string,
) (string, error) {
	params, err := cfg.MomentumParams()
	if err != nil {
		return "", err
	}

	assets, err := orchestrator.UniverseAssets(ctx, stores.Returns, cfg.Assets())
	if err != nil {
		return "", err
	}

	runner := backtest.NewRunner(stores.Prices, stores.Returns, stores.Runs, logger).WithObserver(metrics)
	res, stored, err := runner.RunMomentum(ctx, assets, params)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Momentum run %s (K=%d, lookback=%d, %d assets, %d periods)\n",
		stored.RunID[:8], params.K, params.Lookback, len(assets), len(res.StrategyReturns)))
	sb.WriteString(fmt.Sprintf("  Annualized return: %.4f\n", stored.Summary.AnnualizedReturn))
	sb.WriteString(fmt.Sprintf("  Annualized stddev: %.4f\n", stored.Summary.AnnualizedStdDev))
	sb.WriteString(fmt.Sprintf("  Sharpe ratio:      %.2f\n", stored.Summary.SharpeRatio))
	if stored.Summary.MaxDrawdown != nil {
		sb.WriteString(fmt.Sprintf("  Max drawdown:      %.4f\n", *stored.Summary.MaxDrawdown))
	}
	sb.WriteString("\n")

	if len(cfg.Momentum.CompareLookbacks) == 0 {
		return sb.String(), nil
	}

	panel, err := backtest.LoadPanel(ctx, stores.Returns, assets)
	if err != nil {
		return "", err
	}
	rows, err := optimizer.CompareMomentumPeriods(panel, cfg.Momentum.CompareLookbacks,
		params.K, params.RiskFreeRate, params.PeriodsPerYear)
	if err != nil {
		return "", err
	}

	switch {
	case metric != "":
		table, err := reporting.RenderMetricMarkdown(rows, metric)
		if err != nil {
			return "", err
		}
		sb.WriteString(table)
	case format == "csv":
		sb.WriteString(reporting.RenderComparisonCSV(rows))
	default:
		sb.WriteString(reporting.RenderComparisonMarkdown(rows))
	}
	return sb.String(), nil
}

// loadFixtures ingests synthetic prices for the configured universe and normalizes them.
func loadFixtures(ctx context.Context, cfg *config.Config, stores *orchestrator.Stores, metrics *observability.Metrics, logger logrus.FieldLogger) error {
	src, err := ingestion.NewSeriesSource(pipeline.SyntheticPrices(cfg.Assets(), pipeline.FixtureStart, 750))
	if err != nil {
		return err
	}
	_, err = orchestrator.New(orchestrator.Options{
		Stores:  stores,
		Config:  cfg,
		Source:  src,
		Metrics: metrics,
		Logger:  logger,
	}).LoadData(ctx)
	return err
}

func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
