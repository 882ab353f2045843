package migrate_test

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/studyhelper/studyhelper/internal/platform/migrate"
)

var testMigrations = fstest.MapFS{
	"00001_widgets.sql": &fstest.MapFile{Data: []byte(`-- +goose Up
CREATE TABLE widgets (id INTEGER PRIMARY KEY);

-- +goose Down
DROP TABLE widgets;
`)},
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'widgets'`).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestRun_UpAndReset(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	require.NoError(t, migrate.Run(ctx, db, goose.DialectSQLite3, testMigrations, migrate.CommandUp, nil))
	assert.True(t, tableExists(t, db))

	// Applying again is a no-op
	require.NoError(t, migrate.Run(ctx, db, goose.DialectSQLite3, testMigrations, migrate.CommandUp, nil))
	require.NoError(t, migrate.Run(ctx, db, goose.DialectSQLite3, testMigrations, migrate.CommandStatus, nil))
	require.NoError(t, migrate.Run(ctx, db, goose.DialectSQLite3, testMigrations, migrate.CommandVersion, nil))

	require.NoError(t, migrate.Run(ctx, db, goose.DialectSQLite3, testMigrations, migrate.CommandReset, nil))
	assert.False(t, tableExists(t, db))
}

func TestRun_UnknownCommand(t *testing.T) {
	err := migrate.Run(context.Background(), openDB(t), goose.DialectSQLite3, testMigrations, "sideways", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}
