package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/platform/logger"
	"github.com/studyhelper/studyhelper/internal/store"
)

// QuestionStore implements store.QuestionStore on SQLite.
type QuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewQuestionStore creates a QuestionStore over a connection or transaction.
func NewQuestionStore(db store.DBTX, logger *slog.Logger) *QuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "question_store")),
	}
}

var _ store.QuestionStore = (*QuestionStore)(nil)

func (s *QuestionStore) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var q domain.Question
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text, answer, subject_id FROM questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.Text, &q.Answer, &q.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrQuestionNotFound
		}
		log.Error("failed to get question",
			slog.String("error", err.Error()),
			slog.Int64("question_id", id))
		return nil, MapError(err)
	}
	return &q, nil
}

func (s *QuestionStore) ListBySubject(ctx context.Context, subjectID int64) ([]*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, answer, subject_id FROM questions WHERE subject_id = ? ORDER BY id ASC`,
		subjectID)
	if err != nil {
		log.Error("failed to list questions",
			slog.String("error", err.Error()),
			slog.Int64("subject_id", subjectID))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	questions := make([]*domain.Question, 0)
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Answer, &q.SubjectID); err != nil {
			return nil, MapError(err)
		}
		questions = append(questions, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return questions, nil
}

func (s *QuestionStore) Create(ctx context.Context, question *domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := question.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if question.ID != 0 {
		return fmt.Errorf("%w: question already has ID %d", store.ErrInvalidEntity, question.ID)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (text, answer, subject_id) VALUES (?, ?, ?)`,
		question.Text, question.Answer, question.SubjectID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during question creation",
				slog.Int64("subject_id", question.SubjectID))
			return fmt.Errorf("%w: subject with ID %d not found", store.ErrInvalidEntity, question.SubjectID)
		}
		log.Error("failed to create question", slog.String("error", err.Error()))
		return MapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read question ID: %w", err)
	}
	question.ID = id
	return nil
}

func (s *QuestionStore) Update(ctx context.Context, question *domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if question.ID == 0 {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrQuestionIDEmpty)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE questions SET text = ?, answer = ? WHERE id = ?`,
		question.Text, question.Answer, question.ID)
	if err != nil {
		log.Error("failed to update question",
			slog.String("error", err.Error()),
			slog.Int64("question_id", question.ID))
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrQuestionNotFound)
}

func (s *QuestionStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete question",
			slog.String("error", err.Error()),
			slog.Int64("question_id", id))
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrQuestionNotFound)
}
