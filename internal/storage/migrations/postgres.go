package migrations

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"commodity-momentum-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies all embedded SQL files in lexical order,
// each in its own transaction. Migrations are expected to be idempotent.
// Returns the applied file names.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool, log logrus.FieldLogger) ([]string, error) {
	migrations, err := Load(PostgresFS, "postgres")
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(migrations))
	for _, m := range migrations {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return applied, fmt.Errorf("begin migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			_ = tx.Rollback(ctx)
			return applied, fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return applied, fmt.Errorf("commit migration %s: %w", m.Name, err)
		}
		applied = append(applied, m.Name)
		if log != nil {
			log.WithField("migration", m.Name).Debug("applied postgres migration")
		}
	}

	return applied, nil
}
