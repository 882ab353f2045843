package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/platform/logger"
	"github.com/studyhelper/studyhelper/internal/store"
)

// PostgresQuestionStore implements the store.QuestionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuestionStore creates a new PostgreSQL implementation of the QuestionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresQuestionStore(db store.DBTX, logger *slog.Logger) *PostgresQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "question_store")),
	}
}

// Ensure PostgresQuestionStore implements store.QuestionStore interface
var _ store.QuestionStore = (*PostgresQuestionStore)(nil)

// GetByID implements store.QuestionStore.GetByID
func (s *PostgresQuestionStore) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, text, answer, subject_id
		FROM questions
		WHERE id = $1
	`

	var q domain.Question
	err := s.db.QueryRowContext(ctx, query, id).Scan(&q.ID, &q.Text, &q.Answer, &q.SubjectID)
	if err != nil {
		if errors.Is(MapError(err), store.ErrNotFound) {
			log.Debug("question not found", slog.Int64("question_id", id))
			return nil, store.ErrQuestionNotFound
		}
		log.Error("failed to get question by ID",
			slog.String("error", err.Error()),
			slog.Int64("question_id", id))
		return nil, MapError(err)
	}

	return &q, nil
}

// ListBySubject implements store.QuestionStore.ListBySubject
func (s *PostgresQuestionStore) ListBySubject(ctx context.Context, subjectID int64) ([]*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, text, answer, subject_id
		FROM questions
		WHERE subject_id = $1
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		log.Error("failed to list questions",
			slog.String("error", err.Error()),
			slog.Int64("subject_id", subjectID))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	questions := make([]*domain.Question, 0)
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Answer, &q.SubjectID); err != nil {
			log.Error("failed to scan question row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		questions = append(questions, &q)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating question rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return questions, nil
}

// Create implements store.QuestionStore.Create
// Returns store.ErrInvalidEntity if the subject doesn't exist (foreign key violation).
func (s *PostgresQuestionStore) Create(ctx context.Context, question *domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := question.Validate(); err != nil {
		log.Warn("question validation failed during create", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if question.ID != 0 {
		return fmt.Errorf("%w: question already has ID %d", store.ErrInvalidEntity, question.ID)
	}

	query := `
		INSERT INTO questions (text, answer, subject_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query, question.Text, question.Answer, question.SubjectID).Scan(&id)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during question creation",
				slog.Int64("subject_id", question.SubjectID))
			return fmt.Errorf("%w: subject with ID %d not found", store.ErrInvalidEntity, question.SubjectID)
		}
		log.Error("failed to create question",
			slog.String("error", err.Error()),
			slog.Int64("subject_id", question.SubjectID))
		return MapError(err)
	}

	question.ID = id
	log.Debug("question created",
		slog.Int64("question_id", id),
		slog.Int64("subject_id", question.SubjectID))
	return nil
}

// Update implements store.QuestionStore.Update
// Only text and answer change; a question never moves between subjects.
func (s *PostgresQuestionStore) Update(ctx context.Context, question *domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if question.ID == 0 {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrQuestionIDEmpty)
	}

	query := `
		UPDATE questions
		SET text = $1, answer = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, question.Text, question.Answer, question.ID)
	if err != nil {
		log.Error("failed to update question",
			slog.String("error", err.Error()),
			slog.Int64("question_id", question.ID))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrQuestionNotFound); err != nil {
		return err
	}

	log.Debug("question updated", slog.Int64("question_id", question.ID))
	return nil
}

// Delete implements store.QuestionStore.Delete
func (s *PostgresQuestionStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete question",
			slog.String("error", err.Error()),
			slog.Int64("question_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrQuestionNotFound); err != nil {
		return err
	}

	log.Debug("question deleted", slog.Int64("question_id", id))
	return nil
}
