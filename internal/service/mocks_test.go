package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/platform/memory"
	"github.com/studyhelper/studyhelper/internal/store"
)

// MockQuestionSource mocks the QuestionSource interface
type MockQuestionSource struct {
	mock.Mock
}

func (m *MockQuestionSource) FetchQuestions(ctx context.Context, subjectText string) ([]domain.QuestionCandidate, error) {
	args := m.Called(ctx, subjectText)
	questions, _ := args.Get(0).([]domain.QuestionCandidate)
	return questions, args.Error(1)
}

// faults selects which store operations fail and with what error.
type faults struct {
	listSubjects   error
	getSubject     error
	createSubject  error
	deleteSubject  error
	createQuestion error
	updateQuestion error
	deleteQuestion error
}

// faultyStore wraps a memory store and injects failures per operation.
type faultyStore struct {
	*memory.Store
	f *faults
}

func newFaultyStore() *faultyStore {
	return &faultyStore{Store: memory.New(), f: &faults{}}
}

func (s *faultyStore) Subjects() store.SubjectStore {
	return &faultySubjects{SubjectStore: s.Store.Subjects(), f: s.f}
}

func (s *faultyStore) Questions() store.QuestionStore {
	return &faultyQuestions{QuestionStore: s.Store.Questions(), f: s.f}
}

func (s *faultyStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return s.Store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, &faultyTx{Store: tx, f: s.f})
	})
}

type faultyTx struct {
	store.Store
	f *faults
}

func (t *faultyTx) Subjects() store.SubjectStore {
	return &faultySubjects{SubjectStore: t.Store.Subjects(), f: t.f}
}

func (t *faultyTx) Questions() store.QuestionStore {
	return &faultyQuestions{QuestionStore: t.Store.Questions(), f: t.f}
}

type faultySubjects struct {
	store.SubjectStore
	f *faults
}

func (s *faultySubjects) List(ctx context.Context, order domain.SortMode) ([]*domain.Subject, error) {
	if s.f.listSubjects != nil {
		return nil, s.f.listSubjects
	}
	return s.SubjectStore.List(ctx, order)
}

func (s *faultySubjects) GetByID(ctx context.Context, id int64) (*domain.Subject, error) {
	if s.f.getSubject != nil {
		return nil, s.f.getSubject
	}
	return s.SubjectStore.GetByID(ctx, id)
}

func (s *faultySubjects) Create(ctx context.Context, subject *domain.Subject) error {
	if s.f.createSubject != nil {
		return s.f.createSubject
	}
	return s.SubjectStore.Create(ctx, subject)
}

func (s *faultySubjects) Delete(ctx context.Context, id int64) error {
	if s.f.deleteSubject != nil {
		return s.f.deleteSubject
	}
	return s.SubjectStore.Delete(ctx, id)
}

type faultyQuestions struct {
	store.QuestionStore
	f *faults
}

func (q *faultyQuestions) Create(ctx context.Context, question *domain.Question) error {
	if q.f.createQuestion != nil {
		return q.f.createQuestion
	}
	return q.QuestionStore.Create(ctx, question)
}

func (q *faultyQuestions) Update(ctx context.Context, question *domain.Question) error {
	if q.f.updateQuestion != nil {
		return q.f.updateQuestion
	}
	return q.QuestionStore.Update(ctx, question)
}

func (q *faultyQuestions) Delete(ctx context.Context, id int64) error {
	if q.f.deleteQuestion != nil {
		return q.f.deleteQuestion
	}
	return q.QuestionStore.Delete(ctx, id)
}

// seedSubject stores a subject with the given questions as (text, answer) pairs.
func seedSubject(t *testing.T, st store.Store, text string, qa ...string) *domain.Subject {
	t.Helper()
	ctx := context.Background()

	subject, err := domain.NewSubject(text)
	require.NoError(t, err)
	require.NoError(t, st.Subjects().Create(ctx, subject))

	for i := 0; i+1 < len(qa); i += 2 {
		q, err := domain.NewQuestion(subject.ID, qa[i], qa[i+1])
		require.NoError(t, err)
		require.NoError(t, st.Questions().Create(ctx, q))
	}
	return subject
}
