package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pressly/goose/v3"

	"github.com/malbeclabs/orders-dashboard/warehouse"
)

const migrationsDir = "db/clickhouse/migrations"

// slogGooseLogger adapts slog.Logger to goose.Logger interface
type slogGooseLogger struct {
	log *slog.Logger
}

func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// RunMigrations creates the source relations (alias for Up).
func RunMigrations(ctx context.Context, log *slog.Logger, cfg Config) error {
	return Up(ctx, log, cfg)
}

// Up runs all pending migrations
func Up(ctx context.Context, log *slog.Logger, cfg Config) error {
	log.Info("running ClickHouse migrations (up)", "database", cfg.Database)
	err := withGoose(log, cfg, func(db *sql.DB) error {
		if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info("ClickHouse migrations completed successfully")
	return nil
}

// Down rolls back the most recent migration
func Down(ctx context.Context, log *slog.Logger, cfg Config) error {
	log.Info("rolling back ClickHouse migration (down)", "database", cfg.Database)
	err := withGoose(log, cfg, func(db *sql.DB) error {
		if err := goose.DownContext(ctx, db, migrationsDir); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info("ClickHouse migration rolled back successfully")
	return nil
}

// MigrationStatus logs the status of all migrations
func MigrationStatus(ctx context.Context, log *slog.Logger, cfg Config) error {
	log.Info("checking ClickHouse migration status", "database", cfg.Database)
	return withGoose(log, cfg, func(db *sql.DB) error {
		return goose.StatusContext(ctx, db, migrationsDir)
	})
}

// withGoose opens a database/sql handle for goose and configures the embedded migrations.
func withGoose(log *slog.Logger, cfg Config, fn func(db *sql.DB) error) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	db := clickhouse.OpenDB(cfg.options())
	defer db.Close()

	goose.SetLogger(&slogGooseLogger{log: log})
	goose.SetBaseFS(warehouse.ClickHouseMigrationsFS)

	if err := goose.SetDialect("clickhouse"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return fn(db)
}
