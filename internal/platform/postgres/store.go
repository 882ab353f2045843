package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"

	"github.com/studyhelper/studyhelper/internal/platform/migrate"
	"github.com/studyhelper/studyhelper/internal/store"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations returns the schema migrations for PostgreSQL.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		// ALLOW-PANIC: the embedded directory is fixed at build time
		panic(err)
	}
	return sub
}

// Open establishes a connection pool to url and verifies it with a ping.
func Open(ctx context.Context, url string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if logger != nil {
		logger.Info("database connection established", slog.String("driver", "postgres"))
	}
	return db, nil
}

// Migrate runs a migration command against db.
func Migrate(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	return migrate.Run(ctx, db, goose.DialectPostgres, Migrations(), command, logger)
}

// Store is the PostgreSQL store.Store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore wraps an open connection pool. The pool is closed by Close.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Ensure Store implements store.Store interface
var _ store.Store = (*Store)(nil)

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Subjects() store.SubjectStore {
	return NewPostgresSubjectStore(s.db, s.logger)
}

func (s *Store) Questions() store.QuestionStore {
	return NewPostgresQuestionStore(s.db, s.logger)
}

// RunInTx implements store.Store.RunInTx on top of store.RunInTransaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &txStore{tx: tx, logger: s.logger})
	})
}

func (s *Store) Close() error { return s.db.Close() }

// txStore binds the entity stores to one transaction.
type txStore struct {
	tx     *sql.Tx
	logger *slog.Logger
}

func (t *txStore) Subjects() store.SubjectStore {
	return NewPostgresSubjectStore(t.tx, t.logger)
}

func (t *txStore) Questions() store.QuestionStore {
	return NewPostgresQuestionStore(t.tx, t.logger)
}

// RunInTx joins the enclosing transaction.
func (t *txStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, t)
}

// Close is a no-op; the transaction is finished by RunInTransaction.
func (t *txStore) Close() error { return nil }
