package store

import (
	"context"

	"github.com/studyhelper/studyhelper/internal/domain"
)

// QuestionStore defines the interface for question data persistence.
type QuestionStore interface {
	// GetByID retrieves a question by its ID.
	// Returns ErrQuestionNotFound if the question does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Question, error)

	// ListBySubject returns the questions of one subject in ascending ID order.
	// An unknown subject yields an empty list, not an error.
	ListBySubject(ctx context.Context, subjectID int64) ([]*domain.Question, error)

	// Create persists a new question and assigns its ID.
	// Returns ErrInvalidEntity if the owning subject does not exist.
	Create(ctx context.Context, question *domain.Question) error

	// Update writes the question's text and answer.
	// Returns ErrQuestionNotFound if the question does not exist.
	Update(ctx context.Context, question *domain.Question) error

	// Delete removes a question by its ID.
	// Returns ErrQuestionNotFound if the question does not exist.
	Delete(ctx context.Context, id int64) error
}
