package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/service"
)

// Subject list requests and responses

// AddSubjectRequest is the payload for POST /api/subjects.
// Blank text is accepted and ignored.
type AddSubjectRequest struct {
	Text string `json:"text" validate:"max=500"`
}

// SelectSubjectRequest is the payload for POST /api/subjects/select.
type SelectSubjectRequest struct {
	Index *int `json:"index" validate:"required"`
}

// SubjectListResponse is returned by every subject list endpoint.
type SubjectListResponse struct {
	service.ListState

	// Added is set by POST /api/subjects when a subject was stored.
	Added *domain.Subject `json:"added,omitempty"`

	// Deleted is set by POST /api/subjects/action/delete.
	Deleted *domain.Subject `json:"deleted,omitempty"`
}

// Browsing session requests and responses

// OpenSessionRequest is the payload for POST /api/sessions.
type OpenSessionRequest struct {
	SubjectID int64 `json:"subject_id" validate:"required,gt=0"`
}

// ShowRequest is the payload for POST /api/sessions/{id}/show.
type ShowRequest struct {
	Index *int `json:"index" validate:"required"`
}

// QuestionRequest is the payload for adding or editing a question.
// Text falls back to the configured default question text when omitted
// on add.
type QuestionRequest struct {
	Text   *string `json:"text" validate:"omitempty,max=5000"`
	Answer string  `json:"answer" validate:"max=5000"`
}

// SessionResponse is returned by every session endpoint.
type SessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Title     string    `json:"title"`
	service.BrowserState

	// Question is the question created, edited, deleted or restored by the request.
	Question *domain.Question `json:"question,omitempty"`
}

// Import requests and responses

// ImportCandidate is one subject offered for import.
type ImportCandidate struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ImportRequest is the payload for POST /api/import. Subjects names remote
// subjects by text; with none, every subject the remote source lists is merged.
type ImportRequest struct {
	Subjects []string `json:"subjects" validate:"omitempty,max=500,dive,required"`
}

// CandidatesResponse is returned by GET /api/import/subjects.
type CandidatesResponse struct {
	Subjects []ImportCandidate `json:"subjects"`
}

// ImportResponse is returned by POST /api/import.
type ImportResponse struct {
	Outcomes []service.ImportOutcome `json:"outcomes"`
}

func toImportCandidates(in []domain.SubjectCandidate) []ImportCandidate {
	out := make([]ImportCandidate, len(in))
	for i, c := range in {
		out[i] = ImportCandidate{Text: c.Text, UpdatedAt: c.UpdatedAt}
	}
	return out
}
