package domain

import "time"

// SubjectCandidate is a subject offered by the remote import source.
// It becomes a Subject only once the import merge stores it.
type SubjectCandidate struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuestionCandidate is a question offered by the remote import source for
// one subject.
type QuestionCandidate struct {
	Text   string `json:"text"`
	Answer string `json:"answer"`
}
