// Package store defines the storage port: CRUD and sorted queries over
// subjects and questions. Implementations live under internal/platform
// (postgres, sqlite and an in-memory store) so that business rules stay
// independent of the database technology.
package store
