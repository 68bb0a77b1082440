package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"commodity-momentum-lab/internal/config"
	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/ingestion"
	"commodity-momentum-lab/internal/observability"
	"commodity-momentum-lab/internal/pipeline"
	"commodity-momentum-lab/internal/storage"
	"commodity-momentum-lab/internal/storage/memory"
)

var fixedClock = func() time.Time { return time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC) }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Data.Period = string(domain.PeriodDaily)
	cfg.Momentum.K = 2
	cfg.Momentum.Lookback = 20
	cfg.Momentum.CompareLookbacks = []int{5, 20}
	cfg.Momentum.PeriodsPerYear = 252
	cfg.Crossover.Asset = "Gold"
	cfg.Crossover.Shorts = config.WindowSpec{Values: []int{5, 10}}
	cfg.Crossover.Longs = config.WindowSpec{Values: []int{20, 50}}
	cfg.Crossover.TopN = 2
	cfg.Crossover.Workers = 2
	return cfg
}

func fixtureSource(t *testing.T) *ingestion.SeriesSource {
	t.Helper()
	src, err := ingestion.NewSeriesSource(pipeline.SyntheticPrices(pipeline.FixtureAssets, pipeline.FixtureStart, 300))
	if err != nil {
		t.Fatalf("NewSeriesSource failed: %v", err)
	}
	return src
}

func TestOrchestrator_Run_EmptyStores(t *testing.T) {
	ctx := context.Background()
	logger, _ := logtest.NewNullLogger()
	cfg := config.Default()

	orch := New(Options{
		Stores:    NewMemoryStores(),
		Config:    cfg,
		OutputDir: t.TempDir(),
		Clock:     fixedClock,
		Logger:    logger,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.AssetsNormalized != 0 {
		t.Errorf("expected 0 normalized assets, got %d", result.AssetsNormalized)
	}
	if result.Momentum != nil {
		t.Error("expected no momentum run without returns")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error (momentum without data), got %v", result.Errors)
	}
	if len(result.Files) != 2 {
		t.Errorf("expected report and runs files, got %v", result.Files)
	}
}

func TestOrchestrator_Run_WithSource(t *testing.T) {
	ctx := context.Background()
	logger, _ := logtest.NewNullLogger()
	stores := NewMemoryStores()
	dir := t.TempDir()

	orch := New(Options{
		Stores:    stores,
		Config:    testConfig(),
		Source:    fixtureSource(t),
		OutputDir: dir,
		Clock:     fixedClock,
		Metrics:   observability.NewMetrics("test"),
		Logger:    logger,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	if result.AssetsIngested != len(pipeline.FixtureAssets) {
		t.Errorf("expected %d ingested assets, got %d", len(pipeline.FixtureAssets), result.AssetsIngested)
	}
	if result.AssetsNormalized != len(pipeline.FixtureAssets) {
		t.Errorf("expected %d normalized assets, got %d", len(pipeline.FixtureAssets), result.AssetsNormalized)
	}

	if result.Momentum == nil || result.Momentum.StrategyType != domain.StrategyTypeMomentum {
		t.Fatalf("expected momentum run, got %+v", result.Momentum)
	}
	if len(result.Comparison) != 2 || result.Comparison[0].Lookback != 5 || result.Comparison[1].Lookback != 20 {
		t.Errorf("unexpected comparison rows: %+v", result.Comparison)
	}

	if result.Crossover == nil || result.Crossover.StrategyType != domain.StrategyTypeCrossoverGrid {
		t.Fatalf("expected grid run, got %+v", result.Crossover)
	}
	top, err := stores.Grid.GetByRunID(ctx, result.Crossover.RunID)
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(top) != 2 {
		t.Errorf("expected 2 stored grid rows, got %d", len(top))
	}

	want := []string{
		filepath.Join(dir, pipeline.ReportFile),
		filepath.Join(dir, pipeline.RunsFile),
		filepath.Join(dir, pipeline.GridFileName("Gold", result.Crossover.RunID)),
	}
	if len(result.Files) != len(want) {
		t.Fatalf("expected files %v, got %v", want, result.Files)
	}
	for i := range want {
		if result.Files[i] != want[i] {
			t.Errorf("file %d: expected %s, got %s", i, want[i], result.Files[i])
		}
	}
}

func TestOrchestrator_Run_Idempotent(t *testing.T) {
	ctx := context.Background()
	logger, _ := logtest.NewNullLogger()
	stores := NewMemoryStores()
	src := fixtureSource(t)

	opts := Options{
		Stores: stores,
		Config: testConfig(),
		Source: src,
		Logger: logger,
	}

	first, err := New(opts).Run(ctx)
	if err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	second, err := New(opts).Run(ctx)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	if second.AssetsIngested != 0 {
		t.Errorf("expected no new assets on rerun, got %d", second.AssetsIngested)
	}
	if second.AssetsNormalized != 0 {
		t.Errorf("expected no newly normalized assets on rerun, got %d", second.AssetsNormalized)
	}
	if len(second.Errors) != 0 {
		t.Errorf("unexpected errors on rerun: %v", second.Errors)
	}
	if first.Momentum.RunID != second.Momentum.RunID {
		t.Errorf("momentum run ID changed: %s vs %s", first.Momentum.RunID, second.Momentum.RunID)
	}

	runs, err := stores.Runs.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 stored runs after rerun, got %d", len(runs))
	}
}

func TestOrchestrator_Run_SinglePair(t *testing.T) {
	ctx := context.Background()
	logger, _ := logtest.NewNullLogger()

	cfg := testConfig()
	cfg.Crossover.Short = 10
	cfg.Crossover.Long = 30

	result, err := New(Options{
		Stores: NewMemoryStores(),
		Config: cfg,
		Source: fixtureSource(t),
		Logger: logger,
	}).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Crossover == nil {
		t.Fatal("expected crossover run")
	}
	if result.Crossover.StrategyType != domain.StrategyTypeCrossover {
		t.Errorf("expected %s, got %s", domain.StrategyTypeCrossover, result.Crossover.StrategyType)
	}
	if result.Crossover.ShortWindow != 10 || result.Crossover.LongWindow != 30 {
		t.Errorf("expected 10/30, got %d/%d", result.Crossover.ShortWindow, result.Crossover.LongWindow)
	}
	if len(result.Files) != 0 {
		t.Errorf("expected no files without output dir, got %v", result.Files)
	}
}

func TestOrchestrator_Run_UnknownCrossoverAsset(t *testing.T) {
	ctx := context.Background()
	logger, _ := logtest.NewNullLogger()

	cfg := testConfig()
	cfg.Crossover.Asset = "Platinum"

	result, err := New(Options{
		Stores: NewMemoryStores(),
		Config: cfg,
		Source: fixtureSource(t),
		Logger: logger,
	}).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Momentum == nil {
		t.Error("momentum should still run")
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 crossover error, got %v", result.Errors)
	}
}

func TestOrchestrator_Run_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	logger, _ := logtest.NewNullLogger()

	_, err := New(Options{
		Stores: NewMemoryStores(),
		Config: testConfig(),
		Logger: logger,
	}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestUniverseAssets(t *testing.T) {
	ctx := context.Background()
	store := memory.NewReturnSeriesStore()
	for _, asset := range []string{"Silver", "Gold", "Corn"} {
		if err := store.InsertBulk(ctx, []*domain.SeriesPoint{{Asset: asset, TimestampMs: 1, Value: 0.01}}); err != nil {
			t.Fatalf("InsertBulk failed: %v", err)
		}
	}

	got, err := UniverseAssets(ctx, store, []string{"Gold", "Platinum", "Silver"})
	if err != nil {
		t.Fatalf("UniverseAssets failed: %v", err)
	}
	if len(got) != 2 || got[0] != "Gold" || got[1] != "Silver" {
		t.Errorf("expected [Gold Silver], got %v", got)
	}

	all, err := UniverseAssets(ctx, store, nil)
	if err != nil {
		t.Fatalf("UniverseAssets failed: %v", err)
	}
	if len(all) != 3 || all[0] != "Corn" {
		t.Errorf("expected all stored assets sorted, got %v", all)
	}

	if _, err := UniverseAssets(ctx, store, []string{"Platinum"}); !errors.Is(err, storage.ErrNoSeries) {
		t.Errorf("expected ErrNoSeries, got %v", err)
	}
}

func TestOpenStores_Memory(t *testing.T) {
	logger, _ := logtest.NewNullLogger()

	stores, cleanup, err := OpenStores(context.Background(), config.Storage{}, true, logger)
	if err != nil {
		t.Fatalf("OpenStores failed: %v", err)
	}
	defer cleanup()

	if stores.Prices == nil || stores.Returns == nil || stores.Runs == nil || stores.Grid == nil {
		t.Error("expected every store to be set")
	}
}

func TestOpenStores_MissingDSN(t *testing.T) {
	logger, _ := logtest.NewNullLogger()

	if _, _, err := OpenStores(context.Background(), config.Storage{}, false, logger); err == nil {
		t.Error("expected error without postgres DSN")
	}
	if _, _, err := OpenStores(context.Background(), config.Storage{PostgresDSN: "postgres://localhost/x"}, false, logger); err == nil {
		t.Error("expected error without clickhouse DSN")
	}
}

func TestRequirements(t *testing.T) {
	cfg := config.Default()
	cfg.Momentum.K = 3
	cfg.Momentum.Lookback = 6
	cfg.Momentum.CompareLookbacks = []int{3, 12}

	req := Requirements(cfg)
	if req.MinAssets != 6 {
		t.Errorf("expected MinAssets 6, got %d", req.MinAssets)
	}
	if req.MinPeriods != 13 {
		t.Errorf("expected MinPeriods 13, got %d", req.MinPeriods)
	}
}
