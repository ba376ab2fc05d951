package api

import (
	"net/http"

	quizsession "github.com/remaimber-it/quizrunner/internal/domain/quiz_session"
)

// GET /history
func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	list := h.history.List(r.Context())
	if list == nil {
		list = []quizsession.Results{}
	}
	respondJSON(w, http.StatusOK, list)
}

// GET /history/latest
func (h *Handler) latestAttempts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.history.LatestByIdentity(r.Context()))
}
