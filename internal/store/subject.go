package store

import (
	"context"

	"github.com/studyhelper/studyhelper/internal/domain"
)

// SubjectStore defines the interface for subject data persistence.
type SubjectStore interface {
	// GetByID retrieves a subject by its ID.
	// Returns ErrSubjectNotFound if the subject does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Subject, error)

	// GetByText retrieves a subject whose text matches exactly.
	// Returns ErrSubjectNotFound if no subject has that text.
	GetByText(ctx context.Context, text string) (*domain.Subject, error)

	// List returns every subject in the requested order:
	// SortAlphabetic is case-insensitive by text, SortNewestFirst is
	// UpdatedAt descending, SortOldestFirst is UpdatedAt ascending.
	// Ties are broken by ascending ID so the order is stable.
	List(ctx context.Context, order domain.SortMode) ([]*domain.Subject, error)

	// Create persists a new subject and assigns its ID.
	// The subject's ID must be zero on entry.
	Create(ctx context.Context, subject *domain.Subject) error

	// Delete removes a subject and, through cascading, all of its questions.
	// Returns ErrSubjectNotFound if the subject does not exist.
	Delete(ctx context.Context, id int64) error
}
