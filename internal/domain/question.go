package domain

import "errors"

// Question-specific validation errors
var (
	// ErrQuestionSubjectIDEmpty is returned when a question has no owning subject.
	ErrQuestionSubjectIDEmpty = errors.New("question subject ID cannot be empty")

	// ErrQuestionIDEmpty is returned when an update or delete targets an unpersisted question.
	ErrQuestionIDEmpty = errors.New("question ID cannot be empty")
)

// Question is a text/answer pair belonging to one subject.
// Text and answer may be empty; only the owning subject is mandatory.
type Question struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Answer    string `json:"answer"`
	SubjectID int64  `json:"subject_id"`
}

// NewQuestion creates an unpersisted Question owned by subjectID.
func NewQuestion(subjectID int64, text, answer string) (*Question, error) {
	question := &Question{
		Text:      text,
		Answer:    answer,
		SubjectID: subjectID,
	}

	if err := question.Validate(); err != nil {
		return nil, err
	}

	return question, nil
}

// Validate checks if the Question has valid data.
func (q *Question) Validate() error {
	if q.SubjectID == 0 {
		return ErrQuestionSubjectIDEmpty
	}
	return nil
}

// Clone returns a copy of the question that shares no state with q.
func (q *Question) Clone() *Question {
	c := *q
	return &c
}
