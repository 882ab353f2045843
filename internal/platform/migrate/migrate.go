// Package migrate applies the embedded SQL schema migrations of a storage
// backend using goose.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
)

// Supported migration commands.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandReset   = "reset"
	CommandStatus  = "status"
	CommandVersion = "version"
)

// Commands lists the accepted command names in display order.
var Commands = []string{CommandUp, CommandDown, CommandReset, CommandStatus, CommandVersion}

// Run executes command against db using the migrations found at the root of fsys.
// A goose Provider is used instead of the package-level goose API so that
// several backends can migrate in the same process.
func Run(ctx context.Context, db *sql.DB, dialect goose.Dialect, fsys fs.FS, command string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(
		slog.String("component", "migrations"),
		slog.String("command", command),
		slog.String("dialect", string(dialect)),
	)

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		log.Error("failed to create migration provider", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	start := time.Now()
	switch command {
	case CommandUp:
		var results []*goose.MigrationResult
		results, err = provider.Up(ctx)
		logResults(log, results)
	case CommandDown:
		var result *goose.MigrationResult
		result, err = provider.Down(ctx)
		if result != nil {
			logResults(log, []*goose.MigrationResult{result})
		}
	case CommandReset:
		var results []*goose.MigrationResult
		results, err = provider.DownTo(ctx, 0)
		logResults(log, results)
	case CommandStatus:
		var statuses []*goose.MigrationStatus
		statuses, err = provider.Status(ctx)
		for _, st := range statuses {
			log.Info("migration status",
				slog.Int64("version", st.Source.Version),
				slog.String("state", string(st.State)),
				slog.Time("applied_at", st.AppliedAt))
		}
	case CommandVersion:
		var version int64
		version, err = provider.GetDBVersion(ctx)
		if err == nil {
			log.Info("current database version", slog.Int64("version", version))
		}
	default:
		return fmt.Errorf("unknown migration command: %s (expected one of %v)", command, Commands)
	}

	if err != nil {
		log.Error("migration command failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	log.Info("migration command completed", slog.Duration("duration", time.Since(start)))
	return nil
}

func logResults(log *slog.Logger, results []*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		log.Info("applied migration",
			slog.Int64("version", r.Source.Version),
			slog.String("direction", r.Direction),
			slog.Duration("duration", r.Duration))
	}
}
