// Package memory provides an in-process implementation of the storage port.
// It backs the "memory" database driver and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/text/cases"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/store"
)

// Store keeps subjects and questions in maps guarded by a mutex.
// IDs are assigned from monotonically increasing counters, so a deleted
// ID is never reused.
type Store struct {
	mu        sync.RWMutex
	subjects  map[int64]domain.Subject
	questions map[int64]domain.Question
	lastSubj  int64
	lastQuest int64

	// txMu serialises RunInTx calls.
	txMu sync.Mutex
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		subjects:  make(map[int64]domain.Subject),
		questions: make(map[int64]domain.Question),
	}
}

// Ensure Store implements store.Store interface
var _ store.Store = (*Store)(nil)

// Subjects returns the subject store.
func (s *Store) Subjects() store.SubjectStore { return &subjectStore{s: s} }

// Questions returns the question store.
func (s *Store) Questions() store.QuestionStore { return &questionStore{s: s} }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// RunInTx runs fn with stores that journal every mutation. If fn fails the
// journal is replayed backwards, restoring the state the transaction touched.
// Writes made outside the transaction in the meantime are left alone.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &txStore{s: s}
	if err := fn(ctx, tx); err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// txStore is the store.Store handed to RunInTx callbacks.
type txStore struct {
	s    *Store
	undo []func()
}

func (t *txStore) Subjects() store.SubjectStore   { return &subjectStore{s: t.s, tx: t} }
func (t *txStore) Questions() store.QuestionStore { return &questionStore{s: t.s, tx: t} }
func (t *txStore) Close() error                   { return nil }

// RunInTx on a transaction-bound store joins the outer transaction.
func (t *txStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, t)
}

// record appends a compensating action. Callers hold s.mu.
func (t *txStore) record(fn func()) {
	if t != nil {
		t.undo = append(t.undo, fn)
	}
}

type subjectStore struct {
	s  *Store
	tx *txStore
}

func (st *subjectStore) GetByID(ctx context.Context, id int64) (*domain.Subject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()

	subject, ok := st.s.subjects[id]
	if !ok {
		return nil, store.ErrSubjectNotFound
	}
	return &subject, nil
}

func (st *subjectStore) GetByText(ctx context.Context, text string) (*domain.Subject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()

	// Lowest ID wins when several subjects share a text.
	var found *domain.Subject
	for _, subject := range st.s.subjects {
		if subject.Text != text {
			continue
		}
		if found == nil || subject.ID < found.ID {
			subject := subject
			found = &subject
		}
	}
	if found == nil {
		return nil, store.ErrSubjectNotFound
	}
	return found, nil
}

func (st *subjectStore) List(ctx context.Context, order domain.SortMode) ([]*domain.Subject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !order.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSortMode, order)
	}

	st.s.mu.RLock()
	subjects := make([]*domain.Subject, 0, len(st.s.subjects))
	for _, subject := range st.s.subjects {
		subject := subject
		subjects = append(subjects, &subject)
	}
	st.s.mu.RUnlock()

	sortSubjects(subjects, order)
	return subjects, nil
}

func (st *subjectStore) Create(ctx context.Context, subject *domain.Subject) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := subject.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if subject.ID != 0 {
		return fmt.Errorf("%w: subject already has ID %d", store.ErrInvalidEntity, subject.ID)
	}

	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	st.s.lastSubj++
	id := st.s.lastSubj
	stored := *subject
	stored.ID = id
	st.s.subjects[id] = stored
	st.tx.record(func() { delete(st.s.subjects, id) })

	subject.ID = id
	return nil
}

func (st *subjectStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	subject, ok := st.s.subjects[id]
	if !ok {
		return store.ErrSubjectNotFound
	}

	delete(st.s.subjects, id)
	var removed []domain.Question
	for qid, question := range st.s.questions {
		if question.SubjectID == id {
			removed = append(removed, question)
			delete(st.s.questions, qid)
		}
	}

	st.tx.record(func() {
		st.s.subjects[id] = subject
		for _, question := range removed {
			st.s.questions[question.ID] = question
		}
	})
	return nil
}

type questionStore struct {
	s  *Store
	tx *txStore
}

func (qs *questionStore) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	qs.s.mu.RLock()
	defer qs.s.mu.RUnlock()

	question, ok := qs.s.questions[id]
	if !ok {
		return nil, store.ErrQuestionNotFound
	}
	return &question, nil
}

func (qs *questionStore) ListBySubject(ctx context.Context, subjectID int64) ([]*domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	qs.s.mu.RLock()
	questions := make([]*domain.Question, 0)
	for _, question := range qs.s.questions {
		if question.SubjectID == subjectID {
			question := question
			questions = append(questions, &question)
		}
	}
	qs.s.mu.RUnlock()

	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions, nil
}

func (qs *questionStore) Create(ctx context.Context, question *domain.Question) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := question.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if question.ID != 0 {
		return fmt.Errorf("%w: question already has ID %d", store.ErrInvalidEntity, question.ID)
	}

	qs.s.mu.Lock()
	defer qs.s.mu.Unlock()

	if _, ok := qs.s.subjects[question.SubjectID]; !ok {
		return fmt.Errorf("%w: subject with ID %d not found", store.ErrInvalidEntity, question.SubjectID)
	}

	qs.s.lastQuest++
	id := qs.s.lastQuest
	stored := *question
	stored.ID = id
	qs.s.questions[id] = stored
	qs.tx.record(func() { delete(qs.s.questions, id) })

	question.ID = id
	return nil
}

func (qs *questionStore) Update(ctx context.Context, question *domain.Question) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if question.ID == 0 {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrQuestionIDEmpty)
	}

	qs.s.mu.Lock()
	defer qs.s.mu.Unlock()

	previous, ok := qs.s.questions[question.ID]
	if !ok {
		return store.ErrQuestionNotFound
	}

	updated := previous
	updated.Text = question.Text
	updated.Answer = question.Answer
	qs.s.questions[question.ID] = updated
	qs.tx.record(func() { qs.s.questions[previous.ID] = previous })
	return nil
}

func (qs *questionStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	qs.s.mu.Lock()
	defer qs.s.mu.Unlock()

	question, ok := qs.s.questions[id]
	if !ok {
		return store.ErrQuestionNotFound
	}
	delete(qs.s.questions, id)
	qs.tx.record(func() { qs.s.questions[id] = question })
	return nil
}

// sortSubjects orders subjects the way the SQL stores' ORDER BY clauses do.
// Alphabetic order compares Unicode case foldings, like SQLite's casefold
// collation.
func sortSubjects(subjects []*domain.Subject, order domain.SortMode) {
	switch order {
	case domain.SortAlphabetic:
		keys := make(map[int64]string, len(subjects))
		for _, subject := range subjects {
			keys[subject.ID] = cases.Fold().String(subject.Text)
		}
		sort.SliceStable(subjects, func(i, j int) bool {
			a, b := keys[subjects[i].ID], keys[subjects[j].ID]
			if a != b {
				return a < b
			}
			return subjects[i].ID < subjects[j].ID
		})
	case domain.SortNewestFirst, domain.SortOldestFirst:
		newest := order == domain.SortNewestFirst
		sort.SliceStable(subjects, func(i, j int) bool {
			a, b := subjects[i].UpdatedAt, subjects[j].UpdatedAt
			if !a.Equal(b) {
				if newest {
					return a.After(b)
				}
				return a.Before(b)
			}
			return subjects[i].ID < subjects[j].ID
		})
	}
}
