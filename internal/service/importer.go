package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/platform/logger"
	"github.com/studyhelper/studyhelper/internal/store"
	"github.com/studyhelper/studyhelper/internal/task"
)

const importerComponent = "importer"

// TaskTypeSubjectImport identifies the merge of one remote subject.
const TaskTypeSubjectImport = "subject_import"

// QuestionSource fetches the questions the remote source offers for a subject.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, subjectText string) ([]domain.QuestionCandidate, error)
}

// SubjectSource lists the subjects the remote source offers.
type SubjectSource interface {
	FetchSubjects(ctx context.Context) ([]domain.SubjectCandidate, error)
}

// ErrNotOffered marks a requested subject the remote source does not list.
var ErrNotOffered = errors.New("not offered by the import source")

// OutcomeKind classifies the result of merging one candidate subject.
type OutcomeKind string

// Possible outcome kinds
const (
	OutcomeImported         OutcomeKind = "imported"
	OutcomeDuplicateSkipped OutcomeKind = "duplicate_skipped"
	OutcomeEmptyQuestionSet OutcomeKind = "empty_question_set"
	OutcomeFailed           OutcomeKind = "failed"
)

// ImportOutcome reports what happened to one candidate subject.
type ImportOutcome struct {
	Subject string      `json:"subject"`
	Kind    OutcomeKind `json:"kind"`

	// SubjectID is the stored subject: the new one for Imported and
	// EmptyQuestionSet, the existing one for DuplicateSkipped.
	SubjectID int64 `json:"subject_id,omitempty"`

	// Count is the number of questions stored for Imported.
	Count int `json:"count,omitempty"`

	// Reason describes a Failed outcome.
	Reason string `json:"reason,omitempty"`
}

// ImporterConfig configures an Importer.
type ImporterConfig struct {
	// Workers bounds how many subjects are merged concurrently.
	// If zero or negative, defaults to 1
	Workers int
}

// Importer merges remote subjects and their questions into the store.
//
// For each candidate a subject with identical text already in the store is
// left alone. Otherwise the candidate's questions are fetched and the subject
// is stored together with them in one transaction, so a failure leaves no
// trace of that subject.
type Importer struct {
	store   store.Store
	source  QuestionSource
	workers int
	logger  *slog.Logger
	now     func() time.Time
}

// NewImporter creates an Importer reading questions from source.
func NewImporter(st store.Store, source QuestionSource, cfg ImporterConfig, logger *slog.Logger) (*Importer, error) {
	if st == nil {
		return nil, domain.NewValidationError("store", "cannot be nil", domain.ErrValidation)
	}
	if source == nil {
		return nil, domain.NewValidationError("source", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Importer{
		store:   st,
		source:  source,
		workers: workers,
		logger:  logger.With(slog.String("component", importerComponent)),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Merge merges every candidate and returns one outcome per candidate, in
// candidate order. A candidate whose text repeats an earlier candidate of the
// same batch is reported as DuplicateSkipped without touching the store.
// Subjects are merged on a bounded worker pool; no order between subjects is
// guaranteed. The returned error is non-nil only when ctx ended before every
// candidate was processed, in which case the unprocessed ones are Failed.
func (im *Importer) Merge(ctx context.Context, candidates []domain.SubjectCandidate) ([]ImportOutcome, error) {
	log := logger.FromContextOrDefault(ctx, im.logger)

	outcomes := make([]ImportOutcome, len(candidates))
	if len(candidates) == 0 {
		return outcomes, nil
	}

	queue := task.NewTaskQueue(len(candidates), log)
	taskIndex := make(map[uuid.UUID]int, len(candidates))
	seen := make(map[string]bool, len(candidates))

	for i, candidate := range candidates {
		if seen[candidate.Text] {
			outcomes[i] = ImportOutcome{Subject: candidate.Text, Kind: OutcomeDuplicateSkipped}
			continue
		}
		seen[candidate.Text] = true

		i, candidate := i, candidate
		t := task.NewFunc(TaskTypeSubjectImport, func(ctx context.Context) error {
			outcomes[i] = im.MergeOne(ctx, candidate)
			if outcomes[i].Kind == OutcomeFailed {
				return errors.New(outcomes[i].Reason)
			}
			return nil
		})
		taskIndex[t.ID()] = i
		if err := queue.Enqueue(t); err != nil {
			// The queue is sized for the whole batch.
			outcomes[i] = failed(candidate.Text, err)
		}
	}
	queue.Close()

	pool := task.NewWorkerPool(ctx, queue, task.WorkerPoolConfig{WorkerCount: im.workers}, log)
	pool.SetErrorHandler(func(t task.Task, err error) {
		// Covers tasks that panicked before recording an outcome.
		if i, ok := taskIndex[t.ID()]; ok && outcomes[i].Kind == "" {
			outcomes[i] = failed(candidates[i].Text, err)
		}
	})
	pool.Start()
	pool.Wait()

	ctxErr := ctx.Err()
	for i := range outcomes {
		if outcomes[i].Kind == "" {
			outcomes[i] = failed(candidates[i].Text, fmt.Errorf("not processed: %v", ctxErr))
		}
	}

	log.Info("import merge finished", summarize(outcomes)...)
	return outcomes, ctxErr
}

// MergeSelected merges the offered candidates whose text is in names and
// returns one outcome per name, in names order. Only offered candidates are
// merged, so each keeps the UpdatedAt the source reported. A name the source
// does not list is Failed with ErrNotOffered and nothing is stored for it.
// With no names every offered candidate is merged.
func (im *Importer) MergeSelected(ctx context.Context, offered []domain.SubjectCandidate, names []string) ([]ImportOutcome, error) {
	if len(names) == 0 {
		return im.Merge(ctx, offered)
	}
	log := logger.FromContextOrDefault(ctx, im.logger)

	byText := make(map[string]domain.SubjectCandidate, len(offered))
	for _, candidate := range offered {
		if _, ok := byText[candidate.Text]; !ok {
			byText[candidate.Text] = candidate
		}
	}

	outcomes := make([]ImportOutcome, len(names))
	selected := make([]domain.SubjectCandidate, 0, len(names))
	positions := make([]int, 0, len(names))
	for i, name := range names {
		candidate, ok := byText[name]
		if !ok {
			log.Warn("requested subject not offered", slog.String("subject", name))
			outcomes[i] = failed(name, ErrNotOffered)
			continue
		}
		selected = append(selected, candidate)
		positions = append(positions, i)
	}

	merged, err := im.Merge(ctx, selected)
	for j, outcome := range merged {
		outcomes[positions[j]] = outcome
	}
	return outcomes, err
}

// MergeOne merges a single candidate.
func (im *Importer) MergeOne(ctx context.Context, candidate domain.SubjectCandidate) ImportOutcome {
	log := logger.FromContextOrDefault(ctx, im.logger).With(slog.String("subject", candidate.Text))

	if domain.IsBlank(candidate.Text) {
		return failed(candidate.Text, domain.ErrEmptySubjectText)
	}

	existing, err := im.store.Subjects().GetByText(ctx, candidate.Text)
	switch {
	case err == nil:
		log.Debug("subject already imported", slog.Int64("subject_id", existing.ID))
		return ImportOutcome{Subject: candidate.Text, Kind: OutcomeDuplicateSkipped, SubjectID: existing.ID}
	case !store.IsNotFoundError(err):
		log.Error("failed to look up subject", slog.String("error", err.Error()))
		return failed(candidate.Text, err)
	}

	questions, err := im.source.FetchQuestions(ctx, candidate.Text)
	if err != nil {
		log.Warn("failed to fetch questions", slog.String("error", err.Error()))
		return failed(candidate.Text, err)
	}

	updatedAt := candidate.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = im.now()
	}
	subject := &domain.Subject{Text: candidate.Text, UpdatedAt: updatedAt.UTC()}

	var duplicateID int64
	err = im.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		// Another import may have stored the same text since the check above.
		if existing, err := tx.Subjects().GetByText(ctx, candidate.Text); err == nil {
			duplicateID = existing.ID
			return nil
		} else if !store.IsNotFoundError(err) {
			return err
		}

		if err := tx.Subjects().Create(ctx, subject); err != nil {
			return err
		}
		for _, qc := range questions {
			question := &domain.Question{
				Text:      qc.Text,
				Answer:    qc.Answer,
				SubjectID: subject.ID,
			}
			if err := tx.Questions().Create(ctx, question); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to store imported subject", slog.String("error", err.Error()))
		return failed(candidate.Text, err)
	}
	if duplicateID != 0 {
		return ImportOutcome{Subject: candidate.Text, Kind: OutcomeDuplicateSkipped, SubjectID: duplicateID}
	}

	if len(questions) == 0 {
		log.Info("imported subject has no questions", slog.Int64("subject_id", subject.ID))
		return ImportOutcome{Subject: candidate.Text, Kind: OutcomeEmptyQuestionSet, SubjectID: subject.ID}
	}

	log.Info("subject imported",
		slog.Int64("subject_id", subject.ID),
		slog.Int("question_count", len(questions)))
	return ImportOutcome{
		Subject:   candidate.Text,
		Kind:      OutcomeImported,
		SubjectID: subject.ID,
		Count:     len(questions),
	}
}

func failed(subject string, err error) ImportOutcome {
	return ImportOutcome{Subject: subject, Kind: OutcomeFailed, Reason: err.Error()}
}

func summarize(outcomes []ImportOutcome) []any {
	counts := make(map[OutcomeKind]int)
	for _, o := range outcomes {
		counts[o.Kind]++
	}
	return []any{
		slog.Int("candidates", len(outcomes)),
		slog.Int(string(OutcomeImported), counts[OutcomeImported]),
		slog.Int(string(OutcomeDuplicateSkipped), counts[OutcomeDuplicateSkipped]),
		slog.Int(string(OutcomeEmptyQuestionSet), counts[OutcomeEmptyQuestionSet]),
		slog.Int(string(OutcomeFailed), counts[OutcomeFailed]),
	}
}
