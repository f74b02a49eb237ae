package rest

import (
	"encoding/json"
	"net/http"
)

type navigateResponse struct {
	Cursor  int           `json:"cursor"`
	Track   trackResponse `json:"track"`
	Notices []string      `json:"notices,omitempty"`
}

type advanceRequest struct {
	Index           int     `json:"index"`
	ListenedSeconds float64 `json:"listened_seconds"`
}

type likeRequest struct {
	Index int `json:"index"`
}

// Next handles POST /sessions/{id}/next
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, 1)
}

// Prev handles POST /sessions/{id}/prev
func (h *Handler) Prev(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, -1)
}

func (h *Handler) navigate(w http.ResponseWriter, r *http.Request, direction int) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	cursor, err := session.Navigate(direction)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	// Snapshot drains pending notices, so they ride along here instead of
	// silently disappearing between an expansion merge and the next fetch.
	snap := session.Snapshot()
	resp := navigateResponse{Cursor: cursor, Notices: snap.Notices}
	if cursor < len(snap.Tracks) {
		resp.Track = mapTrack(snap.Tracks[cursor])
	}
	writeJSON(w, http.StatusOK, resp)
}

// TrackAdvanced handles POST /sessions/{id}/events/advance: playback moved
// off a track after listening for some duration. Any resulting playlist
// expansion happens in the background, so the event is just accepted.
func (h *Handler) TrackAdvanced(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session.TrackAdvanced(req.Index, req.ListenedSeconds)
	w.WriteHeader(http.StatusAccepted)
}

// TrackLiked handles POST /sessions/{id}/events/like
func (h *Handler) TrackLiked(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req likeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session.TrackLiked(req.Index)
	w.WriteHeader(http.StatusAccepted)
}
