package rest

import (
	"io"
	"net/http"

	"github.com/ewilliams-labs/moodmuse/internal/core/domain"
	"github.com/ewilliams-labs/moodmuse/internal/core/services"
)

// Uploads above this size are rejected outright.
const maxUploadBytes = 10 << 20

type trackResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Mood        string  `json:"mood_description,omitempty"`
	PreviewURL  string  `json:"preview_url,omitempty"`
	CoverURL    string  `json:"cover_url"`
	ExternalURL string  `json:"external_url,omitempty"`
	IsPlayable  bool    `json:"is_playable"`
	Resolved    bool    `json:"resolved"`
	Energy      float64 `json:"energy,omitempty"`
}

type sessionResponse struct {
	SessionID string          `json:"session_id"`
	Mood      string          `json:"mood"`
	Cursor    int             `json:"cursor"`
	Tracks    []trackResponse `json:"tracks"`
	Notices   []string        `json:"notices,omitempty"`
}

func mapTrack(t domain.Track) trackResponse {
	return trackResponse{
		ID:          t.ID,
		Title:       t.Title,
		Artist:      t.Artist,
		Mood:        t.Mood,
		PreviewURL:  t.PreviewURL,
		CoverURL:    t.CoverURL,
		ExternalURL: t.ExternalURL,
		IsPlayable:  t.IsPlayable,
		Resolved:    t.Resolved,
		Energy:      t.Energy,
	}
}

func mapSession(s *services.Session) sessionResponse {
	snap := s.Snapshot()
	tracks := make([]trackResponse, 0, len(snap.Tracks))
	for _, t := range snap.Tracks {
		tracks = append(tracks, mapTrack(t))
	}
	return sessionResponse{
		SessionID: s.ID,
		Mood:      snap.Mood,
		Cursor:    snap.Cursor,
		Tracks:    tracks,
		Notices:   snap.Notices,
	}
}

// CreateSession handles POST /sessions: a multipart photo upload that opens a
// new session. An analysis failure maps to 502 so the front end can show the
// alert and return to the upload state.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		http.Error(w, "photo file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil || len(image) == 0 {
		http.Error(w, "could not read photo", http.StatusBadRequest)
		return
	}

	session, err := h.registry.Create(r.Context(), image)
	if err != nil {
		h.logger.Error("rest: session creation failed", "err", err)
		http.Error(w, "could not read the mood of your photo, please try again", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusCreated, mapSession(session))
}

// GetSession handles GET /sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mapSession(session))
}

// DeleteSession handles DELETE /sessions/{id}: the reset path. Background
// work for the session is cancelled, not awaited.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.registry.Delete(r.PathValue("id")) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
