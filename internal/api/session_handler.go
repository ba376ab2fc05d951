package api

import (
	"net/http"

	quizsession "github.com/remaimber-it/quizrunner/internal/domain/quiz_session"
	"github.com/remaimber-it/quizrunner/internal/service"
)

// ── Request / Response types ────────────────────────────────────────────────

type StartSessionRequest struct {
	CourseID string  `json:"courseId"`
	TopicID  *string `json:"topicId"`
}

type RecordAnswerRequest struct {
	Index  *int               `json:"index"`
	Answer quizsession.Answer `json:"answer"`
}

type CheckAnswerRequest struct {
	Index *int `json:"index"`
}

type NavigateResponse struct {
	Moved bool `json:"moved"`
	service.View
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /session
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	e, err := h.sessions.Start(r.Context(), quizsession.Config{
		CourseID: req.CourseID,
		TopicID:  req.TopicID,
	})
	if h.handleSessionError(w, err) {
		return
	}

	h.mu.Lock()
	h.active = e
	h.mu.Unlock()

	respondJSON(w, http.StatusCreated, e.View())
}

// GET /session
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, e.View())
}

// POST /session/answers
func (h *Handler) recordAnswer(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w)
	if !ok {
		return
	}

	var req RecordAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Index == nil {
		http.Error(w, "index is required", http.StatusBadRequest)
		return
	}

	if h.handleSessionError(w, e.RecordAnswer(r.Context(), *req.Index, req.Answer)) {
		return
	}
	respondJSON(w, http.StatusOK, e.View())
}

// POST /session/check
func (h *Handler) checkAnswer(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w)
	if !ok {
		return
	}

	var req CheckAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Index == nil {
		http.Error(w, "index is required", http.StatusBadRequest)
		return
	}

	_, err := e.Check(r.Context(), *req.Index)
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, e.View())
}

// POST /session/next
func (h *Handler) next(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w)
	if !ok {
		return
	}
	moved := e.Next(r.Context())
	respondJSON(w, http.StatusOK, NavigateResponse{Moved: moved, View: e.View()})
}

// POST /session/prev
func (h *Handler) prev(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w)
	if !ok {
		return
	}
	moved := e.Prev(r.Context())
	respondJSON(w, http.StatusOK, NavigateResponse{Moved: moved, View: e.View()})
}

// POST /session/finish
func (h *Handler) finish(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w)
	if !ok {
		return
	}

	res, err := e.Finish(r.Context())
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, res)
}
