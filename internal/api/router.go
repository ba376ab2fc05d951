// internal/api/router.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/remaimber-it/quizrunner/internal/metrics"
)

// NewRouter registers every route. The chain is Logging → CORS → router,
// with request metrics recorded per matched route.
func NewRouter(h *Handler, gatherer prometheus.Gatherer, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	router.Use(metrics.Middleware)

	router.HandleFunc("/health", h.health).Methods(http.MethodGet)

	// Catalog
	router.HandleFunc("/courses", h.listCourses).Methods(http.MethodGet)
	router.HandleFunc("/courses/{courseID}/topics", h.listTopics).Methods(http.MethodGet)

	// In-progress quizzes
	router.HandleFunc("/quizzes/in-progress", h.listInProgress).Methods(http.MethodGet)
	router.HandleFunc("/quizzes/in-progress", h.clearAll).Methods(http.MethodDelete)
	router.HandleFunc("/quizzes/in-progress/{courseID}", h.clearQuiz).Methods(http.MethodDelete)

	// Active session
	router.HandleFunc("/session", h.startSession).Methods(http.MethodPost)
	router.HandleFunc("/session", h.getSession).Methods(http.MethodGet)
	router.HandleFunc("/session/answers", h.recordAnswer).Methods(http.MethodPost)
	router.HandleFunc("/session/check", h.checkAnswer).Methods(http.MethodPost)
	router.HandleFunc("/session/next", h.next).Methods(http.MethodPost)
	router.HandleFunc("/session/prev", h.prev).Methods(http.MethodPost)
	router.HandleFunc("/session/finish", h.finish).Methods(http.MethodPost)

	// Completed attempts
	router.HandleFunc("/history", h.listHistory).Methods(http.MethodGet)
	router.HandleFunc("/history/latest", h.latestAttempts).Methods(http.MethodGet)

	// Preferences
	router.HandleFunc("/preferences/course", h.getSelectedCourse).Methods(http.MethodGet)
	router.HandleFunc("/preferences/course", h.selectCourse).Methods(http.MethodPut)

	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	})

	return Logging(h.logger)(corsMiddleware.Handler(router))
}
