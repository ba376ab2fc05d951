package api

import (
	"errors"
	"net/http"

	"github.com/remaimber-it/quizrunner/internal/service"
)

type SelectedCourse struct {
	CourseID string `json:"courseId"`
}

// GET /preferences/course
func (h *Handler) getSelectedCourse(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, SelectedCourse{CourseID: h.prefs.SelectedCourse(r.Context())})
}

// PUT /preferences/course
func (h *Handler) selectCourse(w http.ResponseWriter, r *http.Request) {
	var req SelectedCourse
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.prefs.SelectCourse(r.Context(), req.CourseID)
	if errors.Is(err, service.ErrUnknownCourse) {
		http.Error(w, "course not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, req)
}
