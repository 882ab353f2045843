package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Subject-specific validation errors
var (
	// ErrEmptySubjectText is returned when a subject's text is empty or only whitespace.
	ErrEmptySubjectText = fmt.Errorf("%w: subject text", ErrEmptyContent)

	// ErrSubjectIDEmpty is returned when an operation needs a persisted subject.
	ErrSubjectIDEmpty = errors.New("subject ID cannot be empty")
)

// Subject is a named category grouping questions.
//
// ID is zero until the subject has been persisted. UpdatedAt is stamped when
// the subject is constructed and is only used for ordering; edits do not
// refresh it, so "newest first" reflects creation order.
type Subject struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSubject creates an unpersisted Subject stamped with the current time.
// Returns ErrEmptySubjectText if text is blank.
func NewSubject(text string) (*Subject, error) {
	subject := &Subject{
		Text:      text,
		UpdatedAt: time.Now().UTC(),
	}

	if err := subject.Validate(); err != nil {
		return nil, err
	}

	return subject, nil
}

// Validate checks if the Subject has valid data.
func (s *Subject) Validate() error {
	if IsBlank(s.Text) {
		return ErrEmptySubjectText
	}
	return nil
}

// IsBlank reports whether text is empty or whitespace only.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
