// Package postgres implements the storage port on PostgreSQL through the pgx
// database/sql driver. Schema migrations are embedded and applied with goose;
// database errors are translated to store errors by MapError.
package postgres
