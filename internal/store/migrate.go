package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/JonMunkholm/polyglot/internal/store/migrations"
)

var ErrFailedToApplyMigrations = errors.New("failed to apply migrations")

// migrate brings the schema up to date with the embedded migration set.
func migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	gooseDialect := goose.DialectPostgres
	if dialect == DialectSQLite {
		gooseDialect = goose.DialectSQLite3
	}

	provider, err := goose.NewProvider(gooseDialect, db, migrations.FS)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, fmt.Errorf("%s: %w", dialect, err))
	}

	for _, r := range results {
		slog.Info("migration applied",
			"dialect", string(dialect),
			"version", r.Source.Version,
			"duration", r.Duration,
		)
	}
	return nil
}
