package service

import (
	"context"
	"log/slog"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/platform/logger"
	"github.com/studyhelper/studyhelper/internal/store"
)

const subjectListComponent = "subject_list"

// ListState is a snapshot of a SubjectList for renderers.
type ListState struct {
	Subjects      []*domain.Subject `json:"subjects"`
	Order         domain.SortMode   `json:"order"`
	SelectedIndex int               `json:"selected_index"`
	ActionActive  bool              `json:"action_active"`
}

// SubjectList keeps the visible subject list and the contextual action
// session used to confirm deleting one subject.
//
// The list is ordered by the store when Load runs. Added subjects are
// prepended until the next Load; the list is never re-sorted in place.
type SubjectList struct {
	store  store.Store
	logger *slog.Logger

	subjects []*domain.Subject
	order    domain.SortMode

	// selected and selectedID describe the subject captured by
	// SelectForAction. They are only meaningful while actionActive is set.
	selected     int
	selectedID   int64
	actionActive bool
}

// NewSubjectList creates an empty list that will use order until Load is
// called with another mode.
func NewSubjectList(st store.Store, order domain.SortMode, logger *slog.Logger) (*SubjectList, error) {
	if st == nil {
		return nil, domain.NewValidationError("store", "cannot be nil", domain.ErrValidation)
	}
	if !order.IsValid() {
		return nil, domain.NewValidationError("order", "is not a supported sort mode", domain.ErrInvalidSortMode)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SubjectList{
		store:    st,
		logger:   logger.With(slog.String("component", subjectListComponent)),
		order:    order,
		selected: NoIndex,
	}, nil
}

// Load replaces the list with every stored subject in the given order and
// ends any open action session. On failure nothing changes.
func (l *SubjectList) Load(ctx context.Context, order domain.SortMode) error {
	log := logger.FromContextOrDefault(ctx, l.logger)

	subjects, err := l.store.Subjects().List(ctx, order)
	if err != nil {
		log.Error("failed to load subjects",
			slog.String("order", order.String()),
			slog.String("error", err.Error()))
		return NewServiceError(subjectListComponent, "load", "failed to list subjects", err)
	}

	l.subjects = subjects
	l.order = order
	l.endAction()

	log.Debug("subjects loaded",
		slog.Int("count", len(subjects)),
		slog.String("order", order.String()))
	return nil
}

// Reload calls Load with the current order.
func (l *SubjectList) Reload(ctx context.Context) error {
	return l.Load(ctx, l.order)
}

// AddSubject stores a new subject and puts it at the top of the list.
// Blank text is ignored: the result is nil with no error and nothing changes.
func (l *SubjectList) AddSubject(ctx context.Context, text string) (*domain.Subject, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	if domain.IsBlank(text) {
		log.Debug("ignoring blank subject text")
		return nil, nil
	}

	subject, err := domain.NewSubject(text)
	if err != nil {
		return nil, err
	}

	if err := l.store.Subjects().Create(ctx, subject); err != nil {
		log.Error("failed to add subject", slog.String("error", err.Error()))
		return nil, NewServiceError(subjectListComponent, "add_subject", "failed to save subject", err)
	}

	l.subjects = append([]*domain.Subject{subject}, l.subjects...)
	if l.actionActive {
		// The captured subject moved down one row.
		l.selected++
	}

	log.Info("subject added", slog.Int64("subject_id", subject.ID))
	c := *subject
	return &c, nil
}

// SelectForAction opens an action session on the subject at index. It does
// nothing and returns false if a session is already open or index is out of
// range.
func (l *SubjectList) SelectForAction(index int) bool {
	if l.actionActive || index < 0 || index >= len(l.subjects) {
		return false
	}

	l.selected = index
	l.selectedID = l.subjects[index].ID
	l.actionActive = true
	return true
}

// CancelAction ends the action session without touching any data.
func (l *SubjectList) CancelAction() {
	l.endAction()
}

// ConfirmDelete deletes the selected subject, together with its questions,
// and ends the action session. It returns ErrInvalidState when no session is
// open. When the selected subject has meanwhile been removed by another path
// the session is closed, the stale row is dropped, and ErrInvalidState is
// returned. Any other storage failure leaves the list and session unchanged.
func (l *SubjectList) ConfirmDelete(ctx context.Context) (*domain.Subject, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	if !l.actionActive || l.selected == NoIndex {
		return nil, invalidState("no subject selected")
	}

	id := l.selectedID
	if l.selected >= len(l.subjects) || l.subjects[l.selected].ID != id {
		l.endAction()
		return nil, invalidState("selection no longer matches the list")
	}

	subject, err := l.store.Subjects().GetByID(ctx, id)
	if err == nil {
		err = l.store.Subjects().Delete(ctx, id)
	}
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Warn("selected subject was removed elsewhere", slog.Int64("subject_id", id))
			l.removeAt(l.selected)
			l.endAction()
			return nil, invalidState("subject %d no longer exists", id)
		}
		log.Error("failed to delete subject",
			slog.Int64("subject_id", id),
			slog.String("error", err.Error()))
		return nil, NewServiceError(subjectListComponent, "confirm_delete", "failed to delete subject", err)
	}

	l.removeAt(l.selected)
	l.endAction()

	log.Info("subject deleted", slog.Int64("subject_id", id))
	return subject, nil
}

// Subjects returns copies of the listed subjects in display order.
func (l *SubjectList) Subjects() []*domain.Subject {
	out := make([]*domain.Subject, len(l.subjects))
	for i, s := range l.subjects {
		c := *s
		out[i] = &c
	}
	return out
}

// Order returns the sort mode of the last successful Load.
func (l *SubjectList) Order() domain.SortMode { return l.order }

// State returns a snapshot of the list.
func (l *SubjectList) State() ListState {
	return ListState{
		Subjects:      l.Subjects(),
		Order:         l.order,
		SelectedIndex: l.selected,
		ActionActive:  l.actionActive,
	}
}

func (l *SubjectList) endAction() {
	l.actionActive = false
	l.selected = NoIndex
	l.selectedID = 0
}

func (l *SubjectList) removeAt(i int) {
	l.subjects = append(l.subjects[:i:i], l.subjects[i+1:]...)
}
