package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/platform/logger"
	"github.com/studyhelper/studyhelper/internal/store"
)

var subjectOrderClauses = map[domain.SortMode]string{
	domain.SortAlphabetic:  "text COLLATE " + foldCollation + " ASC, id ASC",
	domain.SortNewestFirst: "updated_at_unixms DESC, id ASC",
	domain.SortOldestFirst: "updated_at_unixms ASC, id ASC",
}

// SubjectStore implements store.SubjectStore on SQLite.
type SubjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSubjectStore creates a SubjectStore over a connection or transaction.
func NewSubjectStore(db store.DBTX, logger *slog.Logger) *SubjectStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SubjectStore{
		db:     db,
		logger: logger.With(slog.String("component", "subject_store")),
	}
}

var _ store.SubjectStore = (*SubjectStore)(nil)

func scanSubject(row interface{ Scan(...any) error }) (*domain.Subject, error) {
	var (
		subject domain.Subject
		unixMS  int64
	)
	if err := row.Scan(&subject.ID, &subject.Text, &unixMS); err != nil {
		return nil, err
	}
	subject.UpdatedAt = time.UnixMilli(unixMS).UTC()
	return &subject, nil
}

func (s *SubjectStore) get(ctx context.Context, query string, arg any) (*domain.Subject, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	subject, err := scanSubject(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSubjectNotFound
		}
		log.Error("failed to get subject", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return subject, nil
}

func (s *SubjectStore) GetByID(ctx context.Context, id int64) (*domain.Subject, error) {
	return s.get(ctx, `SELECT id, text, updated_at_unixms FROM subjects WHERE id = ?`, id)
}

// GetByText returns the oldest subject whose text matches exactly.
func (s *SubjectStore) GetByText(ctx context.Context, text string) (*domain.Subject, error) {
	return s.get(ctx, `SELECT id, text, updated_at_unixms FROM subjects WHERE text = ? ORDER BY id ASC LIMIT 1`, text)
}

func (s *SubjectStore) List(ctx context.Context, order domain.SortMode) ([]*domain.Subject, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	orderBy, ok := subjectOrderClauses[order]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSortMode, order)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, text, updated_at_unixms FROM subjects ORDER BY `+orderBy)
	if err != nil {
		log.Error("failed to list subjects", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	subjects := make([]*domain.Subject, 0)
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			log.Error("failed to scan subject row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		subjects = append(subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return subjects, nil
}

func (s *SubjectStore) Create(ctx context.Context, subject *domain.Subject) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := subject.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if subject.ID != 0 {
		return fmt.Errorf("%w: subject already has ID %d", store.ErrInvalidEntity, subject.ID)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO subjects (text, updated_at_unixms) VALUES (?, ?)`,
		subject.Text, subject.UpdatedAt.UnixMilli())
	if err != nil {
		log.Error("failed to create subject", slog.String("error", err.Error()))
		return MapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read subject ID: %w", err)
	}

	subject.ID = id
	log.Info("subject created", slog.Int64("subject_id", id))
	return nil
}

// Delete removes the subject; foreign_keys is enabled on every connection so
// its questions go with it.
func (s *SubjectStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete subject",
			slog.String("error", err.Error()),
			slog.Int64("subject_id", id))
		return MapError(err)
	}
	if err := checkRowsAffected(result, store.ErrSubjectNotFound); err != nil {
		return err
	}

	log.Info("subject deleted", slog.Int64("subject_id", id))
	return nil
}
