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

// subjectOrderClauses maps each sort mode to its ORDER BY clause.
// The trailing id keeps the order stable when keys tie.
var subjectOrderClauses = map[domain.SortMode]string{
	domain.SortAlphabetic:  "LOWER(text) ASC, id ASC",
	domain.SortNewestFirst: "updated_at DESC, id ASC",
	domain.SortOldestFirst: "updated_at ASC, id ASC",
}

// PostgresSubjectStore implements the store.SubjectStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSubjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSubjectStore creates a new PostgreSQL implementation of the SubjectStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSubjectStore(db store.DBTX, logger *slog.Logger) *PostgresSubjectStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSubjectStore{
		db:     db,
		logger: logger.With(slog.String("component", "subject_store")),
	}
}

// Ensure PostgresSubjectStore implements store.SubjectStore interface
var _ store.SubjectStore = (*PostgresSubjectStore)(nil)

// GetByID implements store.SubjectStore.GetByID
func (s *PostgresSubjectStore) GetByID(ctx context.Context, id int64) (*domain.Subject, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, text, updated_at
		FROM subjects
		WHERE id = $1
	`

	var subject domain.Subject
	err := s.db.QueryRowContext(ctx, query, id).Scan(&subject.ID, &subject.Text, &subject.UpdatedAt)
	if err != nil {
		if errors.Is(MapError(err), store.ErrNotFound) {
			log.Debug("subject not found", slog.Int64("subject_id", id))
			return nil, store.ErrSubjectNotFound
		}
		log.Error("failed to get subject by ID",
			slog.String("error", err.Error()),
			slog.Int64("subject_id", id))
		return nil, MapError(err)
	}

	subject.UpdatedAt = subject.UpdatedAt.UTC()
	return &subject, nil
}

// GetByText implements store.SubjectStore.GetByText
// Subject texts are not unique; the oldest matching row is returned.
func (s *PostgresSubjectStore) GetByText(ctx context.Context, text string) (*domain.Subject, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, text, updated_at
		FROM subjects
		WHERE text = $1
		ORDER BY id ASC
		LIMIT 1
	`

	var subject domain.Subject
	err := s.db.QueryRowContext(ctx, query, text).Scan(&subject.ID, &subject.Text, &subject.UpdatedAt)
	if err != nil {
		if errors.Is(MapError(err), store.ErrNotFound) {
			return nil, store.ErrSubjectNotFound
		}
		log.Error("failed to get subject by text", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	subject.UpdatedAt = subject.UpdatedAt.UTC()
	return &subject, nil
}

// List implements store.SubjectStore.List
func (s *PostgresSubjectStore) List(ctx context.Context, order domain.SortMode) ([]*domain.Subject, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	orderBy, ok := subjectOrderClauses[order]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSortMode, order)
	}

	// orderBy comes from a fixed table, never from input.
	query := `SELECT id, text, updated_at FROM subjects ORDER BY ` + orderBy

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list subjects",
			slog.String("error", err.Error()),
			slog.String("order", order.String()))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	subjects := make([]*domain.Subject, 0)
	for rows.Next() {
		var subject domain.Subject
		if err := rows.Scan(&subject.ID, &subject.Text, &subject.UpdatedAt); err != nil {
			log.Error("failed to scan subject row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		subject.UpdatedAt = subject.UpdatedAt.UTC()
		subjects = append(subjects, &subject)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating subject rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("subjects listed",
		slog.Int("count", len(subjects)),
		slog.String("order", order.String()))
	return subjects, nil
}

// Create implements store.SubjectStore.Create
// The generated ID is written back to subject.
func (s *PostgresSubjectStore) Create(ctx context.Context, subject *domain.Subject) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := subject.Validate(); err != nil {
		log.Warn("subject validation failed during create", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if subject.ID != 0 {
		return fmt.Errorf("%w: subject already has ID %d", store.ErrInvalidEntity, subject.ID)
	}

	query := `
		INSERT INTO subjects (text, updated_at)
		VALUES ($1, $2)
		RETURNING id
	`

	var id int64
	if err := s.db.QueryRowContext(ctx, query, subject.Text, subject.UpdatedAt.UTC()).Scan(&id); err != nil {
		log.Error("failed to create subject", slog.String("error", err.Error()))
		return MapError(err)
	}

	subject.ID = id
	log.Info("subject created", slog.Int64("subject_id", id))
	return nil
}

// Delete implements store.SubjectStore.Delete
// Questions are removed by the ON DELETE CASCADE foreign key.
func (s *PostgresSubjectStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete subject",
			slog.String("error", err.Error()),
			slog.Int64("subject_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrSubjectNotFound); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("failed to check rows affected",
				slog.String("error", err.Error()),
				slog.Int64("subject_id", id))
		}
		return err
	}

	log.Info("subject deleted", slog.Int64("subject_id", id))
	return nil
}
