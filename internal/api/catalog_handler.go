package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// GET /health
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /courses
func (h *Handler) listCourses(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.ListCourses())
}

// GET /courses/{courseID}/topics
func (h *Handler) listTopics(w http.ResponseWriter, r *http.Request) {
	courseID := mux.Vars(r)["courseID"]

	for _, c := range h.catalog.ListCourses() {
		if c.ID == courseID {
			topics := h.catalog.ListTopics(courseID)
			if topics == nil {
				topics = []string{}
			}
			respondJSON(w, http.StatusOK, topics)
			return
		}
	}
	http.Error(w, "course not found", http.StatusNotFound)
}
