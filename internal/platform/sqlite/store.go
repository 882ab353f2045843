// Package sqlite implements the storage port on a local SQLite file using the
// pure-Go modernc.org/sqlite driver. It is the default backend for a
// single-user study tool.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/studyhelper/studyhelper/internal/platform/migrate"
	"github.com/studyhelper/studyhelper/internal/store"
)

// MemoryPath opens a private in-memory database instead of a file.
const MemoryPath = ":memory:"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations returns the schema migrations for SQLite.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		// ALLOW-PANIC: the embedded directory is fixed at build time
		panic(err)
	}
	return sub
}

// dsn builds a connection string that enables foreign keys on every
// connection the pool opens.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	if path != MemoryPath {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + path + "?" + q.Encode()
}

// Open opens the database at path (or MemoryPath) and verifies it with a ping.
// The pool is limited to one connection: SQLite allows a single writer and an
// in-memory database exists only on the connection that created it.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if logger != nil {
		logger.Info("database connection established",
			slog.String("driver", "sqlite"),
			slog.String("path", path))
	}
	return db, nil
}

// Migrate runs a migration command against db.
func Migrate(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	return migrate.Run(ctx, db, goose.DialectSQLite3, Migrations(), command, logger)
}

// Store is the SQLite store.Store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore wraps an open database. The database is closed by Close.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Subjects() store.SubjectStore   { return NewSubjectStore(s.db, s.logger) }
func (s *Store) Questions() store.QuestionStore { return NewQuestionStore(s.db, s.logger) }
func (s *Store) Close() error                   { return s.db.Close() }

// RunInTx implements store.Store.RunInTx on top of store.RunInTransaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &txStore{tx: tx, logger: s.logger})
	})
}

type txStore struct {
	tx     *sql.Tx
	logger *slog.Logger
}

func (t *txStore) Subjects() store.SubjectStore   { return NewSubjectStore(t.tx, t.logger) }
func (t *txStore) Questions() store.QuestionStore { return NewQuestionStore(t.tx, t.logger) }
func (t *txStore) Close() error                   { return nil }

// RunInTx joins the enclosing transaction.
func (t *txStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, t)
}
