package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/store"
)

func createSubject(t *testing.T, s *Store, text string, updatedAt time.Time) *domain.Subject {
	t.Helper()
	subject := &domain.Subject{Text: text, UpdatedAt: updatedAt}
	require.NoError(t, s.Subjects().Create(context.Background(), subject))
	return subject
}

func subjectTexts(subjects []*domain.Subject) []string {
	texts := make([]string, len(subjects))
	for i, s := range subjects {
		texts[i] = s.Text
	}
	return texts
}

func TestSubjectStore_ListOrders(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	createSubject(t, s, "banana", base)
	createSubject(t, s, "Apple", base.Add(time.Hour))
	createSubject(t, s, "cherry", base.Add(2*time.Hour))

	alpha, err := s.Subjects().List(ctx, domain.SortAlphabetic)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "banana", "cherry"}, subjectTexts(alpha))

	newest, err := s.Subjects().List(ctx, domain.SortNewestFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{"cherry", "Apple", "banana"}, subjectTexts(newest))

	oldest, err := s.Subjects().List(ctx, domain.SortOldestFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{"banana", "Apple", "cherry"}, subjectTexts(oldest))

	_, err = s.Subjects().List(ctx, domain.SortMode("random"))
	assert.ErrorIs(t, err, domain.ErrInvalidSortMode)
}

func TestSubjectStore_ListFoldsNonASCII(t *testing.T) {
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	createSubject(t, s, "Ábz", base)
	createSubject(t, s, "ába", base)

	alpha, err := s.Subjects().List(context.Background(), domain.SortAlphabetic)
	require.NoError(t, err)
	assert.Equal(t, []string{"ába", "Ábz"}, subjectTexts(alpha))
}

func TestSubjectStore_CreateAssignsIncreasingIDs(t *testing.T) {
	s := New()
	now := time.Now()
	a := createSubject(t, s, "a", now)
	b := createSubject(t, s, "b", now)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	require.NoError(t, s.Subjects().Delete(context.Background(), b.ID))
	c := createSubject(t, s, "c", now)
	assert.Equal(t, int64(3), c.ID, "deleted IDs are not reused")

	err := s.Subjects().Create(context.Background(), &domain.Subject{Text: "  "})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestSubjectStore_GetByText(t *testing.T) {
	ctx := context.Background()
	s := New()
	math := createSubject(t, s, "Math", time.Now())

	got, err := s.Subjects().GetByText(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, math.ID, got.ID)

	_, err = s.Subjects().GetByText(ctx, "math")
	assert.ErrorIs(t, err, store.ErrSubjectNotFound, "exact match only")
}

func TestSubjectStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	math := createSubject(t, s, "Math", time.Now())
	history := createSubject(t, s, "History", time.Now())

	for _, subjectID := range []int64{math.ID, math.ID, history.ID} {
		require.NoError(t, s.Questions().Create(ctx, &domain.Question{SubjectID: subjectID, Text: "q"}))
	}

	require.NoError(t, s.Subjects().Delete(ctx, math.ID))

	remaining, err := s.Questions().ListBySubject(ctx, math.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	others, err := s.Questions().ListBySubject(ctx, history.ID)
	require.NoError(t, err)
	assert.Len(t, others, 1)

	assert.ErrorIs(t, s.Subjects().Delete(ctx, math.ID), store.ErrSubjectNotFound)
}

func TestQuestionStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	math := createSubject(t, s, "Math", time.Now())

	q := &domain.Question{SubjectID: math.ID, Text: "2+3?", Answer: "5"}
	require.NoError(t, s.Questions().Create(ctx, q))
	assert.NotZero(t, q.ID)

	q.Answer = "five"
	require.NoError(t, s.Questions().Update(ctx, q))

	got, err := s.Questions().GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "five", got.Answer)

	// Mutating the returned copy does not touch the stored record
	got.Answer = "mutated"
	again, err := s.Questions().GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "five", again.Answer)

	require.NoError(t, s.Questions().Delete(ctx, q.ID))
	_, err = s.Questions().GetByID(ctx, q.ID)
	assert.ErrorIs(t, err, store.ErrQuestionNotFound)
	assert.ErrorIs(t, s.Questions().Delete(ctx, q.ID), store.ErrQuestionNotFound)
	assert.ErrorIs(t, s.Questions().Update(ctx, q), store.ErrQuestionNotFound)
}

func TestQuestionStore_CreateRequiresSubject(t *testing.T) {
	err := New().Questions().Create(context.Background(), &domain.Question{SubjectID: 42})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestQuestionStore_ListAscendingID(t *testing.T) {
	ctx := context.Background()
	s := New()
	math := createSubject(t, s, "Math", time.Now())
	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, s.Questions().Create(ctx, &domain.Question{SubjectID: math.ID, Text: text}))
	}

	questions, err := s.Questions().ListBySubject(ctx, math.ID)
	require.NoError(t, err)
	require.Len(t, questions, 3)
	for i := 1; i < len(questions); i++ {
		assert.Less(t, questions[i-1].ID, questions[i].ID)
	}
	assert.Equal(t, "one", questions[0].Text)
}

func TestRunInTx_RollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	existing := createSubject(t, s, "Existing", time.Now())
	boom := errors.New("boom")

	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		subject := &domain.Subject{Text: "Imported", UpdatedAt: time.Now()}
		if err := tx.Subjects().Create(ctx, subject); err != nil {
			return err
		}
		if err := tx.Questions().Create(ctx, &domain.Question{SubjectID: subject.ID, Text: "q"}); err != nil {
			return err
		}
		if err := tx.Subjects().Delete(ctx, existing.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	subjects, err := s.Subjects().List(ctx, domain.SortAlphabetic)
	require.NoError(t, err)
	assert.Equal(t, []string{"Existing"}, subjectTexts(subjects))
}

func TestRunInTx_Commits(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		return tx.Subjects().Create(ctx, &domain.Subject{Text: "Imported", UpdatedAt: time.Now()})
	})
	require.NoError(t, err)

	_, err = s.Subjects().GetByText(ctx, "Imported")
	assert.NoError(t, err)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New()
	err := s.Subjects().Create(ctx, &domain.Subject{Text: "Math"})
	assert.ErrorIs(t, err, context.Canceled)

	subjects, err := s.Subjects().List(context.Background(), domain.SortAlphabetic)
	require.NoError(t, err)
	assert.Empty(t, subjects)
}
