package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/platform/logger"
	"github.com/studyhelper/studyhelper/internal/store"
)

// NoIndex marks the absence of a current or selected item.
const NoIndex = -1

const browserComponent = "question_browser"

// BrowserState is a snapshot of a QuestionBrowser for renderers.
type BrowserState struct {
	SubjectID   int64  `json:"subject_id"`
	SubjectText string `json:"subject_text"`

	// Current is a copy of the displayed question, nil when the list is empty.
	Current *domain.Question `json:"current,omitempty"`

	// Index is the zero-based current index or NoIndex.
	Index int `json:"index"`
	Count int `json:"count"`

	Revealed      bool `json:"revealed"`
	UndoAvailable bool `json:"undo_available"`
}

// Empty reports whether the browser has no questions.
func (s BrowserState) Empty() bool { return s.Index == NoIndex }

// Title renders the heading shown above a question, e.g. "Math (1/2)".
// With no questions the position is 0.
func (s BrowserState) Title() string {
	return fmt.Sprintf("%s (%d/%d)", s.SubjectText, s.Index+1, s.Count)
}

// QuestionBrowser navigates and edits the questions of one subject.
//
// The question list is read once by Open and afterwards kept in step with the
// store by the mutating operations. A single deleted question is buffered so
// the deletion can be undone.
type QuestionBrowser struct {
	store  store.Store
	logger *slog.Logger

	subject     *domain.Subject
	questions   []*domain.Question
	current     int
	revealed    bool
	lastDeleted *domain.Question
}

// NewQuestionBrowser creates a browser with no subject open.
func NewQuestionBrowser(st store.Store, logger *slog.Logger) (*QuestionBrowser, error) {
	if st == nil {
		return nil, domain.NewValidationError("store", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &QuestionBrowser{
		store:   st,
		logger:  logger.With(slog.String("component", browserComponent)),
		current: NoIndex,
	}, nil
}

// Open loads the questions of subjectID in ascending ID order and shows the
// first one. It fails with store.ErrSubjectNotFound if the subject does not
// exist; an empty question list is not an error. On failure the previously
// open session is left as it was.
func (b *QuestionBrowser) Open(ctx context.Context, subjectID int64) error {
	log := logger.FromContextOrDefault(ctx, b.logger)

	subject, err := b.store.Subjects().GetByID(ctx, subjectID)
	if err != nil {
		log.Warn("failed to open subject",
			slog.Int64("subject_id", subjectID),
			slog.String("error", err.Error()))
		return NewServiceError(browserComponent, "open", "failed to load subject", err)
	}

	questions, err := b.store.Questions().ListBySubject(ctx, subjectID)
	if err != nil {
		log.Error("failed to list questions",
			slog.Int64("subject_id", subjectID),
			slog.String("error", err.Error()))
		return NewServiceError(browserComponent, "open", "failed to load questions", err)
	}

	b.subject = subject
	b.questions = questions
	b.revealed = false
	b.lastDeleted = nil
	b.current = NoIndex
	b.Show(0)

	log.Debug("subject opened",
		slog.Int64("subject_id", subjectID),
		slog.Int("question_count", len(questions)))
	return nil
}

// Subject returns the open subject, or nil before Open succeeds.
func (b *QuestionBrowser) Subject() *domain.Subject {
	if b.subject == nil {
		return nil
	}
	s := *b.subject
	return &s
}

// Show makes the question at index current. A negative index wraps to the
// last question and an index past the end wraps to the first. With no
// questions the current index becomes NoIndex.
func (b *QuestionBrowser) Show(index int) {
	n := len(b.questions)
	switch {
	case n == 0:
		b.current = NoIndex
	case index < 0:
		b.current = n - 1
	case index >= n:
		b.current = 0
	default:
		b.current = index
	}
}

// Next shows the following question, wrapping to the first.
func (b *QuestionBrowser) Next() { b.Show(b.current + 1) }

// Previous shows the preceding question, wrapping to the last.
func (b *QuestionBrowser) Previous() { b.Show(b.current - 1) }

// ToggleReveal flips whether the answer is shown and returns the new value.
func (b *QuestionBrowser) ToggleReveal() bool {
	b.revealed = !b.revealed
	return b.revealed
}

// Add inserts a question for the open subject and makes it current.
func (b *QuestionBrowser) Add(ctx context.Context, text, answer string) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	if b.subject == nil {
		return nil, invalidState("no subject is open")
	}

	question, err := domain.NewQuestion(b.subject.ID, text, answer)
	if err != nil {
		return nil, err
	}

	if err := b.store.Questions().Create(ctx, question); err != nil {
		log.Error("failed to add question",
			slog.Int64("subject_id", b.subject.ID),
			slog.String("error", err.Error()))
		return nil, NewServiceError(browserComponent, "add", "failed to save question", err)
	}

	b.questions = append(b.questions, question)
	b.current = len(b.questions) - 1

	log.Debug("question added", slog.Int64("question_id", question.ID))
	return question.Clone(), nil
}

// Edit replaces the text and answer of the current question.
// Returns ErrInvalidState when there is no current question.
func (b *QuestionBrowser) Edit(ctx context.Context, text, answer string) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	if b.current == NoIndex {
		return nil, invalidState("no current question to edit")
	}

	updated := b.questions[b.current].Clone()
	updated.Text = text
	updated.Answer = answer

	if err := b.store.Questions().Update(ctx, updated); err != nil {
		log.Error("failed to edit question",
			slog.Int64("question_id", updated.ID),
			slog.String("error", err.Error()))
		return nil, NewServiceError(browserComponent, "edit", "failed to save question", err)
	}

	b.questions[b.current] = updated
	return updated.Clone(), nil
}

// Delete removes the current question and buffers it for UndoDelete,
// replacing anything buffered before. The question that moves into the
// vacated position becomes current; when the last question was removed the
// new last one is shown instead.
// Returns ErrInvalidState when there is no current question.
func (b *QuestionBrowser) Delete(ctx context.Context) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	if b.current == NoIndex {
		return nil, invalidState("no current question to delete")
	}

	question := b.questions[b.current]
	if err := b.store.Questions().Delete(ctx, question.ID); err != nil {
		log.Error("failed to delete question",
			slog.Int64("question_id", question.ID),
			slog.String("error", err.Error()))
		return nil, NewServiceError(browserComponent, "delete", "failed to delete question", err)
	}

	b.questions = append(b.questions[:b.current:b.current], b.questions[b.current+1:]...)
	b.lastDeleted = question

	switch {
	case len(b.questions) == 0:
		b.current = NoIndex
	case b.current >= len(b.questions):
		b.current = len(b.questions) - 1
	}

	log.Debug("question deleted",
		slog.Int64("question_id", question.ID),
		slog.Int("remaining", len(b.questions)))
	return question.Clone(), nil
}

// UndoDelete re-inserts the buffered question as a new record, appends it and
// makes it current. The restored question gets a new ID. Returns
// ErrInvalidState when nothing is buffered, so a second undo changes nothing.
func (b *QuestionBrowser) UndoDelete(ctx context.Context) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	if b.lastDeleted == nil {
		return nil, invalidState("nothing to undo")
	}

	previousID := b.lastDeleted.ID
	restored := b.lastDeleted.Clone()
	restored.ID = 0

	if err := b.store.Questions().Create(ctx, restored); err != nil {
		log.Error("failed to restore question",
			slog.Int64("subject_id", restored.SubjectID),
			slog.String("error", err.Error()))
		return nil, NewServiceError(browserComponent, "undo_delete", "failed to restore question", err)
	}

	b.questions = append(b.questions, restored)
	b.current = len(b.questions) - 1
	b.lastDeleted = nil

	log.Debug("question restored",
		slog.Int64("previous_id", previousID),
		slog.Int64("question_id", restored.ID))
	return restored.Clone(), nil
}

// Questions returns copies of the questions in display order.
func (b *QuestionBrowser) Questions() []*domain.Question {
	out := make([]*domain.Question, len(b.questions))
	for i, q := range b.questions {
		out[i] = q.Clone()
	}
	return out
}

// State returns a snapshot of the browser.
func (b *QuestionBrowser) State() BrowserState {
	state := BrowserState{
		Index:         b.current,
		Count:         len(b.questions),
		Revealed:      b.revealed,
		UndoAvailable: b.lastDeleted != nil,
	}
	if b.subject != nil {
		state.SubjectID = b.subject.ID
		state.SubjectText = b.subject.Text
	}
	if b.current != NoIndex {
		state.Current = b.questions[b.current].Clone()
	}
	return state
}
