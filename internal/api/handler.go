// internal/api/handler.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/remaimber-it/quizrunner/internal/catalog"
	quizsession "github.com/remaimber-it/quizrunner/internal/domain/quiz_session"
	"github.com/remaimber-it/quizrunner/internal/service"
)

// Handler holds all dependencies needed by HTTP handlers, plus the one quiz
// attempt currently open.
type Handler struct {
	catalog  catalog.Catalog
	states   *service.StateManager
	history  *service.History
	prefs    *service.Preferences
	sessions *service.SessionService
	logger   *zap.Logger

	mu     sync.Mutex
	active *service.Engine
}

func NewHandler(
	c catalog.Catalog,
	states *service.StateManager,
	history *service.History,
	prefs *service.Preferences,
	sessions *service.SessionService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		catalog:  c,
		states:   states,
		history:  history,
		prefs:    prefs,
		sessions: sessions,
		logger:   logger,
	}
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads the request body into v. It writes a 400 and returns false
// when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// engine returns the open attempt, writing a 404 when there is none.
func (h *Handler) engine(w http.ResponseWriter) (*service.Engine, bool) {
	h.mu.Lock()
	e := h.active
	h.mu.Unlock()
	if e == nil {
		http.Error(w, "no active quiz session", http.StatusNotFound)
		return nil, false
	}
	return e, true
}

// dropActive forgets the open attempt when its quiz identity is key, or
// unconditionally when key is empty.
func (h *Handler) dropActive(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active != nil && (key == "" || h.active.Key() == key) {
		h.active = nil
	}
}

// handleSessionError maps session errors to HTTP responses. Returns true if an
// error was handled (caller should return).
func (h *Handler) handleSessionError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, service.ErrInvalidConfig),
		errors.Is(err, quizsession.ErrIndexOutOfRange),
		errors.Is(err, quizsession.ErrAnswerShape):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, quizsession.ErrFinished),
		errors.Is(err, quizsession.ErrNotMultiSelect),
		errors.Is(err, quizsession.ErrNotStarted):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("session error", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
	return true
}
