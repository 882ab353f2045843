package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/studyhelper/studyhelper/internal/api/shared"
	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/platform/logger"
	"github.com/studyhelper/studyhelper/internal/service"
)

// SubjectHandler serves the subject list. One list is shared by every client;
// calls on it are serialised.
type SubjectHandler struct {
	mu     sync.Mutex
	list   *service.SubjectList
	logger *slog.Logger
}

// NewSubjectHandler creates a SubjectHandler over list.
func NewSubjectHandler(list *service.SubjectList, logger *slog.Logger) *SubjectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubjectHandler{
		list:   list,
		logger: logger.With(slog.String("handler", "subjects")),
	}
}

// Reload refreshes the list from the store with its current order.
func (h *SubjectHandler) Reload(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.list.Reload(ctx)
}

// ListSubjects handles GET /api/subjects. The optional order query parameter
// selects alpha, new_first or old_first; without it the current order is kept.
func (h *SubjectHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	h.mu.Lock()
	defer h.mu.Unlock()

	order := h.list.Order()
	if raw := r.URL.Query().Get("order"); raw != "" {
		parsed, err := domain.ParseSortMode(raw)
		if err != nil {
			log.Debug("invalid subject order", slog.String("order", raw))
			HandleAPIError(w, r, err, "")
			return
		}
		order = parsed
	}

	if err := h.list.Load(r.Context(), order); err != nil {
		HandleAPIError(w, r, err, "Failed to load subjects")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SubjectListResponse{ListState: h.list.State()})
}

// AddSubject handles POST /api/subjects.
func (h *SubjectHandler) AddSubject(w http.ResponseWriter, r *http.Request) {
	var req AddSubjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	added, err := h.list.AddSubject(r.Context(), req.Text)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add subject")
		return
	}

	status := http.StatusCreated
	if added == nil {
		status = http.StatusOK
	}
	shared.RespondWithJSON(w, r, status, SubjectListResponse{ListState: h.list.State(), Added: added})
}

// SelectSubject handles POST /api/subjects/select, opening the delete
// confirmation for the subject at index.
func (h *SubjectHandler) SelectSubject(w http.ResponseWriter, r *http.Request) {
	var req SelectSubjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.list.SelectForAction(*req.Index) {
		shared.RespondWithError(w, r, http.StatusConflict, "Subject cannot be selected")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SubjectListResponse{ListState: h.list.State()})
}

// ConfirmDelete handles POST /api/subjects/action/delete.
func (h *SubjectHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	deleted, err := h.list.ConfirmDelete(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete subject", shared.WithElevatedLogLevel())
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SubjectListResponse{ListState: h.list.State(), Deleted: deleted})
}

// CancelAction handles POST /api/subjects/action/cancel.
func (h *SubjectHandler) CancelAction(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.list.CancelAction()
	shared.RespondWithJSON(w, r, http.StatusOK, SubjectListResponse{ListState: h.list.State()})
}
