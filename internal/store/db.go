package store

import (
	"context"
	"database/sql"
)

// DBTX abstracts the database access layer used by the SQL-backed stores.
// It is implemented by both *sql.DB and *sql.Tx, so a store can be bound to
// either a connection pool or a single transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
