// Package store owns the relational connection used by the core. It speaks
// PostgreSQL through pgx and SQLite through modernc, exposing both through
// sqlx so queries are written once with ? placeholders and rebound per
// dialect.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/polyglot/internal/config"
)

var (
	ErrFailedToOpen       = errors.New("failed to open database connection")
	ErrHealthcheckFailed  = errors.New("healthcheck failed, connection is not available")
	ErrUnsupportedDriver  = errors.New("unsupported database driver")
	ErrEmptySQLiteStorage = errors.New("sqlite storage path is required")
)

// Dialect identifies the SQL flavour behind a DB.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ForUpdate returns the row-locking clause for a SELECT on the given table
// alias. SQLite has no row locks; its single connection serializes writers.
func (d Dialect) ForUpdate(alias string) string {
	if d == DialectPostgres {
		return " FOR UPDATE OF " + alias
	}
	return ""
}

// DB is the application's handle to storage.
type DB struct {
	db      *sqlx.DB
	dialect Dialect
	pool    *pgxpool.Pool
}

// Open connects to the database selected by cfg.Driver and applies the
// embedded migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// OpenPostgres establishes a pgx pool with retry, bridges it to database/sql
// for sqlx and goose, and migrates the schema.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := connectWithRetry(ctx, poolConfig, cfg.RetryAttempts, cfg.RetryInterval)
	if err != nil {
		return nil, err
	}

	db := &DB{
		db:      sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"),
		dialect: DialectPostgres,
		pool:    pool,
	}

	if err := migrate(ctx, db.db.DB, DialectPostgres); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// connectWithRetry waits attempt*interval between failed attempts so that
// restarts do not hammer a database that is still coming up.
func connectWithRetry(ctx context.Context, poolConfig *pgxpool.Config, attempts int, interval time.Duration) (*pgxpool.Pool, error) {
	var lastErr error
	for i := range max(attempts, 1) {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		slog.Warn("database connection attempt failed",
			"attempt", i+1,
			"max_attempts", attempts,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpen, ctx.Err())
		case <-time.After(time.Duration(i+1) * interval):
		}
	}
	return nil, errors.Join(ErrFailedToOpen, lastErr)
}

// OpenSQLite opens (creating if needed) a SQLite database file and migrates
// it. The handle is limited to one connection so transactions serialize.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptySQLiteStorage
	}
	dsn := filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	// Migrations run on their own handle so goose never waits on the
	// single pooled connection.
	migrateDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	err = migrate(ctx, migrateDB, DialectSQLite)
	_ = migrateDB.Close()
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	return &DB{
		db:      sqlx.NewDb(sqlDB, "sqlite3"),
		dialect: DialectSQLite,
	}, nil
}

// Close releases the connection and, for PostgreSQL, the pgx pool.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	err := d.db.Close()
	if d.pool != nil {
		d.pool.Close()
	}
	return err
}

// Dialect reports which SQL flavour this DB speaks.
func (d *DB) Dialect() Dialect {
	return d.dialect
}

// Healthcheck verifies the database is reachable.
func (d *DB) Healthcheck(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

// GetContext scans a single row into dest.
func (d *DB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return d.db.GetContext(ctx, dest, d.db.Rebind(query), args...)
}

// SelectContext scans all rows into the slice pointed to by dest.
func (d *DB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return d.db.SelectContext(ctx, dest, d.db.Rebind(query), args...)
}

// ExecContext runs a statement that returns no rows.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, d.db.Rebind(query), args...)
}
