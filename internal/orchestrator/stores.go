package orchestrator

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"commodity-momentum-lab/internal/config"
	"commodity-momentum-lab/internal/storage"
	chstore "commodity-momentum-lab/internal/storage/clickhouse"
	"commodity-momentum-lab/internal/storage/memory"
	"commodity-momentum-lab/internal/storage/migrations"
	pgstore "commodity-momentum-lab/internal/storage/postgres"
)

// Stores groups every store a command may need.
type Stores struct {
	Prices  storage.PriceSeriesStore
	Returns storage.ReturnSeriesStore
	Runs    storage.BacktestRunStore
	Grid    storage.GridResultStore
}

// NewMemoryStores returns empty in-memory stores.
func NewMemoryStores() *Stores {
	return &Stores{
		Prices:  memory.NewPriceSeriesStore(),
		Returns: memory.NewReturnSeriesStore(),
		Runs:    memory.NewBacktestRunStore(),
		Grid:    memory.NewGridResultStore(),
	}
}

// OpenStores connects the configured databases and applies migrations.
// Series live in ClickHouse, runs and grid results in PostgreSQL.
// With useMemory set, no connection is made and the cleanup is a no-op.
func OpenStores(ctx context.Context, cfg config.Storage, useMemory bool, log logrus.FieldLogger) (*Stores, func(), error) {
	if useMemory {
		log.Info("using in-memory storage")
		return NewMemoryStores(), func() {}, nil
	}

	if cfg.PostgresDSN == "" {
		return nil, nil, fmt.Errorf("postgres DSN is required (set %s or use --use-memory)", config.EnvPostgresDSN)
	}
	if cfg.ClickHouseDSN == "" {
		return nil, nil, fmt.Errorf("clickhouse DSN is required (set %s or use --use-memory)", config.EnvClickHouseDSN)
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool, log)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	log.WithField("applied", len(applied)).Info("postgres ready")

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN, log)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	log.Info("clickhouse ready")

	stores := &Stores{
		Prices:  chstore.NewPriceSeriesStore(chConn),
		Returns: chstore.NewReturnSeriesStore(chConn),
		Runs:    pgstore.NewBacktestRunStore(pool),
		Grid:    pgstore.NewGridResultStore(pool),
	}

	cleanup := func() {
		if err := chConn.Close(); err != nil {
			log.WithError(err).Warn("close clickhouse")
		}
		pool.Close()
	}
	return stores, cleanup, nil
}
