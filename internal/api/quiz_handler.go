package api

import (
	"net/http"

	"github.com/gorilla/mux"

	quizsession "github.com/remaimber-it/quizrunner/internal/domain/quiz_session"
)

// GET /quizzes/in-progress
func (h *Handler) listInProgress(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.states.Refresh(r.Context()))
}

// DELETE /quizzes/in-progress
func (h *Handler) clearAll(w http.ResponseWriter, r *http.Request) {
	h.states.ClearAll(r.Context())
	h.dropActive("")
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /quizzes/in-progress/{courseID}?topic=
func (h *Handler) clearQuiz(w http.ResponseWriter, r *http.Request) {
	cfg := quizsession.FullQuiz(mux.Vars(r)["courseID"])
	if q := r.URL.Query(); q.Has("topic") {
		cfg = quizsession.TopicQuiz(cfg.CourseID, q.Get("topic"))
	}

	key, ok := h.states.Key(cfg)
	if !ok {
		http.Error(w, "invalid quiz configuration", http.StatusBadRequest)
		return
	}

	h.states.Save(r.Context(), cfg, nil)
	h.dropActive(key)
	w.WriteHeader(http.StatusNoContent)
}
