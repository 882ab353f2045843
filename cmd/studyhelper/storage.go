package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/studyhelper/studyhelper/internal/config"
	"github.com/studyhelper/studyhelper/internal/platform/memory"
	"github.com/studyhelper/studyhelper/internal/platform/migrate"
	"github.com/studyhelper/studyhelper/internal/platform/postgres"
	"github.com/studyhelper/studyhelper/internal/platform/sqlite"
	"github.com/studyhelper/studyhelper/internal/store"
)

// Supported database drivers.
const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
	driverMemory   = "memory"
)

var errNoMigrations = errors.New("the memory driver has no schema to migrate")

// openDB opens the SQL database configured for the postgres or sqlite driver.
func openDB(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, error) {
	switch cfg.Driver {
	case driverPostgres:
		return postgres.Open(ctx, cfg.URL, log)
	case driverSQLite:
		return sqlite.Open(ctx, cfg.Path, log)
	case driverMemory:
		return nil, errNoMigrations
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// runMigrations runs a goose command against db for the configured driver.
func runMigrations(ctx context.Context, driver string, db *sql.DB, command string, log *slog.Logger) error {
	switch driver {
	case driverPostgres:
		return postgres.Migrate(ctx, db, command, log)
	case driverSQLite:
		return sqlite.Migrate(ctx, db, command, log)
	default:
		return errNoMigrations
	}
}

// openStore opens the configured storage backend with its schema migrated
// to the latest version.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (store.Store, error) {
	if cfg.Driver == driverMemory {
		log.Warn("using the in-memory store; data is lost on exit")
		return memory.New(), nil
	}

	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(ctx, cfg.Driver, db, migrate.CommandUp, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	if cfg.Driver == driverPostgres {
		return postgres.NewStore(db, log), nil
	}
	return sqlite.NewStore(db, log), nil
}
