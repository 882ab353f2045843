package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/studyhelper/studyhelper/internal/api/shared"
	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/platform/logger"
	"github.com/studyhelper/studyhelper/internal/service"
	"github.com/studyhelper/studyhelper/internal/store"
)

// Session limits used when no SessionOption overrides them.
const (
	DefaultSessionIdleTimeout = 30 * time.Minute
	DefaultMaxSessions        = 100
)

// session is one open question browser. Calls on it are serialised by mu.
type session struct {
	mu      sync.Mutex
	browser *service.QuestionBrowser

	// lastUsed is read while pruning without holding mu.
	lastUsed atomic.Int64
}

func (s *session) touch(now time.Time) { s.lastUsed.Store(now.UnixNano()) }

func (s *session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastUsed.Load()))
}

// SessionOption configures a SessionHandler.
type SessionOption func(*SessionHandler)

// WithIdleTimeout closes sessions left unused for longer than d.
func WithIdleTimeout(d time.Duration) SessionOption {
	return func(h *SessionHandler) {
		if d > 0 {
			h.idleTimeout = d
		}
	}
}

// WithMaxSessions caps the number of open sessions. Opening a session at the
// cap closes the least recently used one.
func WithMaxSessions(n int) SessionOption {
	return func(h *SessionHandler) {
		if n > 0 {
			h.maxSessions = n
		}
	}
}

// SessionHandler serves question browsing sessions. Each POST /api/sessions
// opens an independent browser over one subject.
type SessionHandler struct {
	store               store.Store
	defaultQuestionText string
	idleTimeout         time.Duration
	maxSessions         int
	now                 func() time.Time
	logger              *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

// NewSessionHandler creates a SessionHandler. defaultQuestionText is used
// for questions added without text.
func NewSessionHandler(st store.Store, defaultQuestionText string, logger *slog.Logger, opts ...SessionOption) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &SessionHandler{
		store:               st,
		defaultQuestionText: defaultQuestionText,
		idleTimeout:         DefaultSessionIdleTimeout,
		maxSessions:         DefaultMaxSessions,
		now:                 time.Now,
		logger:              logger.With(slog.String("handler", "sessions")),
		sessions:            make(map[uuid.UUID]*session),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OpenSession handles POST /api/sessions.
func (h *SessionHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req OpenSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	browser, err := service.NewQuestionBrowser(h.store, h.logger)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to open subject")
		return
	}
	if err := browser.Open(r.Context(), req.SubjectID); err != nil {
		HandleAPIError(w, r, err, "Failed to open subject")
		return
	}

	id := uuid.New()
	s := &session{browser: browser}
	now := h.now()
	s.touch(now)

	h.mu.Lock()
	h.pruneLocked(log, now)
	h.sessions[id] = s
	h.mu.Unlock()

	log.Info("session opened",
		slog.String("session_id", id.String()),
		slog.Int64("subject_id", req.SubjectID))
	shared.RespondWithJSON(w, r, http.StatusCreated, newSessionResponse(id, browser, nil))
}

// GetSession handles GET /api/sessions/{id}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(_ context.Context, _ *service.QuestionBrowser) (int, *domain.Question, error) {
		return http.StatusOK, nil, nil
	})
}

// Show handles POST /api/sessions/{id}/show.
func (h *SessionHandler) Show(w http.ResponseWriter, r *http.Request) {
	var req ShowRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.withSession(w, r, func(_ context.Context, b *service.QuestionBrowser) (int, *domain.Question, error) {
		b.Show(*req.Index)
		return http.StatusOK, nil, nil
	})
}

// Next handles POST /api/sessions/{id}/next.
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(_ context.Context, b *service.QuestionBrowser) (int, *domain.Question, error) {
		b.Next()
		return http.StatusOK, nil, nil
	})
}

// Previous handles POST /api/sessions/{id}/previous.
func (h *SessionHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(_ context.Context, b *service.QuestionBrowser) (int, *domain.Question, error) {
		b.Previous()
		return http.StatusOK, nil, nil
	})
}

// ToggleReveal handles POST /api/sessions/{id}/reveal.
func (h *SessionHandler) ToggleReveal(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(_ context.Context, b *service.QuestionBrowser) (int, *domain.Question, error) {
		b.ToggleReveal()
		return http.StatusOK, nil, nil
	})
}

// AddQuestion handles POST /api/sessions/{id}/questions.
func (h *SessionHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	text := h.defaultQuestionText
	if req.Text != nil {
		text = *req.Text
	}

	h.withSession(w, r, func(ctx context.Context, b *service.QuestionBrowser) (int, *domain.Question, error) {
		q, err := b.Add(ctx, text, req.Answer)
		return http.StatusCreated, q, err
	})
}

// EditQuestion handles PUT /api/sessions/{id}/questions/current.
func (h *SessionHandler) EditQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	h.withSession(w, r, func(ctx context.Context, b *service.QuestionBrowser) (int, *domain.Question, error) {
		text := ""
		if req.Text != nil {
			text = *req.Text
		} else if current := b.State().Current; current != nil {
			text = current.Text
		}
		q, err := b.Edit(ctx, text, req.Answer)
		return http.StatusOK, q, err
	})
}

// DeleteQuestion handles DELETE /api/sessions/{id}/questions/current.
func (h *SessionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctx context.Context, b *service.QuestionBrowser) (int, *domain.Question, error) {
		q, err := b.Delete(ctx)
		return http.StatusOK, q, err
	})
}

// UndoDelete handles POST /api/sessions/{id}/undo.
func (h *SessionHandler) UndoDelete(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(ctx context.Context, b *service.QuestionBrowser) (int, *domain.Question, error) {
		q, err := b.UndoDelete(ctx)
		return http.StatusOK, q, err
	})
}

// CloseSession handles DELETE /api/sessions/{id}.
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.mu.Lock()
	_, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		HandleAPIError(w, r, ErrSessionNotFound, "")
		return
	}
	logger.FromContextOrDefault(r.Context(), h.logger).Info("session closed", slog.String("session_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// SessionCount reports how many sessions are open.
func (h *SessionHandler) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// pruneLocked drops idle sessions and, if the handler is still at its cap,
// the least recently used one. h.mu must be held for writing.
func (h *SessionHandler) pruneLocked(log *slog.Logger, now time.Time) {
	var (
		oldestID   uuid.UUID
		oldestIdle time.Duration = -1
	)
	for id, s := range h.sessions {
		idle := s.idleSince(now)
		if idle > h.idleTimeout {
			delete(h.sessions, id)
			log.Debug("session expired", slog.String("session_id", id.String()))
			continue
		}
		if idle > oldestIdle {
			oldestID, oldestIdle = id, idle
		}
	}

	if len(h.sessions) >= h.maxSessions && oldestIdle >= 0 {
		delete(h.sessions, oldestID)
		log.Info("session evicted",
			slog.String("session_id", oldestID.String()),
			slog.Int("max_sessions", h.maxSessions))
	}
}

// lookup returns the open session id, or false if it is unknown or has been
// idle too long. An expired session is removed.
func (h *SessionHandler) lookup(id uuid.UUID, now time.Time) (*session, bool) {
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.idleSince(now) <= h.idleTimeout {
		return s, true
	}

	h.mu.Lock()
	if h.sessions[id] == s {
		delete(h.sessions, id)
	}
	h.mu.Unlock()
	return nil, false
}

type sessionOp func(ctx context.Context, b *service.QuestionBrowser) (int, *domain.Question, error)

// withSession resolves the {id} session, runs op while holding its lock and
// writes the resulting state.
func (h *SessionHandler) withSession(w http.ResponseWriter, r *http.Request, op sessionOp) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	now := h.now()
	s, ok := h.lookup(id, now)
	if !ok {
		HandleAPIError(w, r, ErrSessionNotFound, "")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(now)

	status, question, err := op(r.Context(), s.browser)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update session")
		return
	}
	shared.RespondWithJSON(w, r, status, newSessionResponse(id, s.browser, question))
}

func newSessionResponse(id uuid.UUID, b *service.QuestionBrowser, question *domain.Question) SessionResponse {
	state := b.State()
	return SessionResponse{
		SessionID:    id,
		Title:        state.Title(),
		BrowserState: state,
		Question:     question,
	}
}
