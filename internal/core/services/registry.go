package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ewilliams-labs/moodmuse/internal/core/ports"
	"github.com/ewilliams-labs/moodmuse/internal/shared"
	"github.com/ewilliams-labs/moodmuse/internal/worker"
)

// Registry creates and tracks live sessions. Everything is in memory; a
// deleted session is gone, along with its history and background work.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	resolver ports.CatalogResolver
	engine   ports.SuggestionEngine
	history  ports.HistoryRepository
	pool     *worker.Pool
	throttle time.Duration
	logger   *log.Logger
}

// NewRegistry constructs a Registry. The throttle spaces catalog lookups
// within each session's backfill runs.
func NewRegistry(
	resolver ports.CatalogResolver,
	engine ports.SuggestionEngine,
	history ports.HistoryRepository,
	pool *worker.Pool,
	throttle time.Duration,
	logger *log.Logger,
) *Registry {
	if throttle <= 0 {
		throttle = 1200 * time.Millisecond
	}
	return &Registry{
		sessions: make(map[string]*Session),
		resolver: resolver,
		engine:   engine,
		history:  history,
		pool:     pool,
		throttle: throttle,
		logger:   logger,
	}
}

// Create analyzes an uploaded photo and opens a session seeded with the
// resulting suggestions. An analysis failure surfaces to the caller, the one
// AI failure the listener is meant to see.
func (r *Registry) Create(ctx context.Context, image []byte) (*Session, error) {
	reading, err := r.engine.AnalyzeImage(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("service: image analysis failed: %w", err)
	}
	if len(reading.Songs) == 0 {
		return nil, fmt.Errorf("service: image analysis returned no songs")
	}

	s := newSession(shared.GenerateID(), reading.OverallMood, sessionDeps{
		resolver: r.resolver,
		engine:   r.engine,
		history:  r.history,
		pool:     r.pool,
		throttle: r.throttle,
		logger:   r.logger,
	})
	s.seed(ctx, reading.Songs)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Info("service: session opened", "session", s.ID, "mood", reading.OverallMood, "songs", len(reading.Songs))
	return s, nil
}

// Get returns the live session with the given id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete closes and discards a session, reporting whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Close()
		r.logger.Info("service: session closed", "session", id)
	}
	return ok
}

// Close shuts down every live session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
