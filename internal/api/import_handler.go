package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/studyhelper/studyhelper/internal/api/shared"
	"github.com/studyhelper/studyhelper/internal/platform/logger"
	"github.com/studyhelper/studyhelper/internal/service"
)

// ImportHandler lists remote subjects and merges them into the store.
type ImportHandler struct {
	source   service.SubjectSource
	importer *service.Importer
	// afterMerge runs once a merge stored at least one subject.
	afterMerge func(ctx context.Context) error
	logger     *slog.Logger
}

// NewImportHandler creates an ImportHandler. afterMerge may be nil.
func NewImportHandler(
	source service.SubjectSource,
	importer *service.Importer,
	afterMerge func(ctx context.Context) error,
	logger *slog.Logger,
) *ImportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportHandler{
		source:     source,
		importer:   importer,
		afterMerge: afterMerge,
		logger:     logger.With(slog.String("handler", "import")),
	}
}

// ListCandidates handles GET /api/import/subjects.
func (h *ImportHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.source.FetchSubjects(r.Context())
	if err != nil {
		h.respondSourceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CandidatesResponse{Subjects: toImportCandidates(candidates)})
}

// Import handles POST /api/import. The remote list is always fetched first:
// subjects named in the body are looked up in it and an empty body merges
// everything it holds.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req ImportRequest
	if err := shared.DecodeOptionalJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	offered, err := h.source.FetchSubjects(r.Context())
	if err != nil {
		h.respondSourceError(w, r, err)
		return
	}

	outcomes, err := h.importer.MergeSelected(r.Context(), offered, req.Subjects)
	if err != nil {
		HandleAPIError(w, r, err, "Import was interrupted")
		return
	}

	if h.afterMerge != nil && storedAny(outcomes) {
		if err := h.afterMerge(r.Context()); err != nil {
			// The merge itself succeeded; the list catches up on its next load.
			log.Warn("failed to refresh subjects after import", slog.String("error", err.Error()))
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ImportResponse{Outcomes: outcomes})
}

func (h *ImportHandler) respondSourceError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	if status == http.StatusInternalServerError {
		// Network failures carry no sentinel; they are still the source's fault.
		status = http.StatusBadGateway
	}
	shared.RespondWithErrorAndLog(w, r, status, "The import source could not be read", err)
}

func storedAny(outcomes []service.ImportOutcome) bool {
	for _, o := range outcomes {
		if o.Kind == service.OutcomeImported || o.Kind == service.OutcomeEmptyQuestionSet {
			return true
		}
	}
	return false
}
