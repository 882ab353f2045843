package store

import "context"

// Store groups the entity stores of one backend.
type Store interface {
	Subjects() SubjectStore
	Questions() QuestionStore

	// RunInTx runs fn against stores bound to a single transaction. The
	// transaction commits if fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	// Close releases the backend's resources.
	Close() error
}
