// Package rest exposes the session API consumed by the browser front end.
package rest

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/ewilliams-labs/moodmuse/internal/core/services"
)

// Handler manages the HTTP interface for the service.
type Handler struct {
	registry *services.Registry
	router   *http.ServeMux
	logger   *log.Logger
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(registry *services.Registry, logger *log.Logger) *Handler {
	h := &Handler{
		registry: registry,
		router:   http.NewServeMux(),
		logger:   logger,
	}
	h.routes()
	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.HandleFunc("GET /health", h.HealthCheck)

	h.router.HandleFunc("POST /sessions", h.CreateSession)
	h.router.HandleFunc("GET /sessions/{id}", h.GetSession)
	h.router.HandleFunc("DELETE /sessions/{id}", h.DeleteSession)

	h.router.HandleFunc("POST /sessions/{id}/next", h.Next)
	h.router.HandleFunc("POST /sessions/{id}/prev", h.Prev)
	h.router.HandleFunc("POST /sessions/{id}/events/advance", h.TrackAdvanced)
	h.router.HandleFunc("POST /sessions/{id}/events/like", h.TrackLiked)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// session looks up the {id} path session, writing a 404 when it is gone.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	s, ok := h.registry.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}
