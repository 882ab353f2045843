package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apiMiddleware "github.com/studyhelper/studyhelper/internal/api/middleware"
)

// Handlers groups the handlers mounted by NewRouter. Import may be nil when
// no remote source is configured.
type Handlers struct {
	Subjects *SubjectHandler
	Sessions *SessionHandler
	Import   *ImportHandler
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(h Handlers, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))

	r.Route("/api", func(r chi.Router) {
		r.Route("/subjects", func(r chi.Router) {
			r.Get("/", h.Subjects.ListSubjects)
			r.Post("/", h.Subjects.AddSubject)
			r.Post("/select", h.Subjects.SelectSubject)
			r.Post("/action/delete", h.Subjects.ConfirmDelete)
			r.Post("/action/cancel", h.Subjects.CancelAction)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.Sessions.OpenSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Sessions.GetSession)
				r.Delete("/", h.Sessions.CloseSession)
				r.Post("/show", h.Sessions.Show)
				r.Post("/next", h.Sessions.Next)
				r.Post("/previous", h.Sessions.Previous)
				r.Post("/reveal", h.Sessions.ToggleReveal)
				r.Post("/questions", h.Sessions.AddQuestion)
				r.Put("/questions/current", h.Sessions.EditQuestion)
				r.Delete("/questions/current", h.Sessions.DeleteQuestion)
				r.Post("/undo", h.Sessions.UndoDelete)
			})
		})

		if h.Import != nil {
			r.Get("/import/subjects", h.Import.ListCandidates)
			r.Post("/import", h.Import.Import)
		}
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
