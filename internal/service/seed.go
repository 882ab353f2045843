package service

import (
	"context"
	"log/slog"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/platform/logger"
	"github.com/studyhelper/studyhelper/internal/store"
)

type starterSubject struct {
	text      string
	questions []domain.QuestionCandidate
}

var starterData = []starterSubject{
	{
		text: "Math",
		questions: []domain.QuestionCandidate{
			{Text: "What is 2 + 3?", Answer: "2 + 3 = 5"},
			{Text: "What is pi?", Answer: "Pi is the ratio of a circle's circumference to its diameter."},
		},
	},
	{
		text: "History",
		questions: []domain.QuestionCandidate{
			{Text: "On what date was the U.S. Declaration of Independence adopted?", Answer: "July 4, 1776."},
		},
	},
	{
		text: "Computing",
	},
}

// SeedStarterData fills an empty store with a few example subjects and
// questions in one transaction. It reports whether anything was written; a
// store that already holds subjects is left untouched.
func SeedStarterData(ctx context.Context, st store.Store, log *slog.Logger) (bool, error) {
	log = logger.FromContextOrDefault(ctx, log)

	existing, err := st.Subjects().List(ctx, domain.SortAlphabetic)
	if err != nil {
		return false, NewServiceError("seed", "check", "failed to list subjects", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	err = st.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		for _, s := range starterData {
			subject, err := domain.NewSubject(s.text)
			if err != nil {
				return err
			}
			if err := tx.Subjects().Create(ctx, subject); err != nil {
				return err
			}
			for _, q := range s.questions {
				question, err := domain.NewQuestion(subject.ID, q.Text, q.Answer)
				if err != nil {
					return err
				}
				if err := tx.Questions().Create(ctx, question); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return false, NewServiceError("seed", "insert", "failed to store starter data", err)
	}

	if log != nil {
		log.Info("seeded starter data", slog.Int("subjects", len(starterData)))
	}
	return true, nil
}
