// Package services holds the core session logic: playlist state, background
// backfill coordination, and the engagement policy that drives playlist
// expansion.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ewilliams-labs/moodmuse/internal/core/domain"
	"github.com/ewilliams-labs/moodmuse/internal/core/ports"
	"github.com/ewilliams-labs/moodmuse/internal/worker"
	"golang.org/x/time/rate"
)

// Session owns one listener's playlist from photo upload to reset. All
// mutable state is guarded by a single mutex; background resolution results
// arrive on the updates channel and are applied by one consumer goroutine, so
// concurrent backfill runs never write into the playlist directly.
type Session struct {
	ID   string
	mood string

	mu          sync.Mutex
	playlist    *domain.Playlist
	skipStreak  int
	recentSkips []string
	generating  bool // single-flight guard for AI expansion calls
	notices     []string

	resolver ports.CatalogResolver
	engine   ports.SuggestionEngine
	history  ports.HistoryRepository
	pool     *worker.Pool
	limiter  *rate.Limiter
	logger   *log.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	updates chan worker.Resolved
}

// Snapshot is a point-in-time copy of the session state for the API layer.
// Reading a snapshot drains pending notices.
type Snapshot struct {
	Mood    string
	Cursor  int
	Tracks  []domain.Track
	Notices []string
}

func newSession(id, mood string, deps sessionDeps) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:       id,
		mood:     mood,
		playlist: domain.NewPlaylist(),
		resolver: deps.resolver,
		engine:   deps.engine,
		history:  deps.history,
		pool:     deps.pool,
		limiter:  rate.NewLimiter(rate.Every(deps.throttle), 1),
		logger:   deps.logger.With("session", id),
		ctx:      ctx,
		cancel:   cancel,
		updates:  make(chan worker.Resolved, 16),
	}
	go s.consumeUpdates()
	return s
}

type sessionDeps struct {
	resolver ports.CatalogResolver
	engine   ports.SuggestionEngine
	history  ports.HistoryRepository
	pool     *worker.Pool
	throttle time.Duration
	logger   *log.Logger
}

// seed populates the playlist from the initial suggestion batch. The first
// suggestion resolves synchronously so the caller returns with a playable
// (or terminally failed) track at index 0; the rest become placeholders and
// backfill in the background.
func (s *Session) seed(ctx context.Context, batch []domain.Suggestion) {
	first := s.resolver.Resolve(ctx, batch[0], 0)

	s.mu.Lock()
	s.playlist.Append(first)
	stamp := time.Now().UnixMilli()
	for i, sg := range batch[1:] {
		s.playlist.Append(domain.NewPlaceholder(placeholderID(i+1, stamp), sg))
	}
	s.mu.Unlock()

	if err := s.history.RecordSuggestions(ctx, s.ID, batch); err != nil {
		s.logger.Warn("service: failed to record suggestions", "err", err)
	}

	if first.IsPlayable {
		s.pool.Submit(worker.PreviewJob{Index: 0, PreviewURL: first.PreviewURL, Sink: s})
	}
	if len(batch) > 1 {
		go worker.RunBackfill(s.ctx, s.resolver, s.limiter, batch[1:], 1, s.updates, s.logger)
	}
}

// AppendBatch merges a new suggestion batch into the playlist: duplicates of
// existing entries are dropped, the remainder is appended as placeholders
// with collision-resistant IDs, and a backfill run scoped to the appended
// slice starts in the background. Returns the number of tracks added.
func (s *Session) AppendBatch(ctx context.Context, batch []domain.Suggestion) int {
	s.mu.Lock()
	unique := s.playlist.DedupSuggestions(batch)
	if len(unique) == 0 {
		s.mu.Unlock()
		return 0
	}

	start := s.playlist.Len()
	stamp := time.Now().UnixMilli()
	for i, sg := range unique {
		s.playlist.Append(domain.NewPlaceholder(placeholderID(start+i, stamp), sg))
	}
	s.notices = append(s.notices, fmt.Sprintf("Added %d new tracks to your mix", len(unique)))
	s.mu.Unlock()

	if err := s.history.RecordSuggestions(ctx, s.ID, unique); err != nil {
		s.logger.Warn("service: failed to record suggestions", "err", err)
	}

	go worker.RunBackfill(s.ctx, s.resolver, s.limiter, unique, start, s.updates, s.logger)
	return len(unique)
}

// Navigate moves the playback cursor one step, wrapping at both ends.
func (s *Session) Navigate(direction int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playlist.Navigate(direction)
}

// Snapshot returns the current session state and drains pending notices.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Mood:    s.mood,
		Cursor:  s.playlist.Cursor(),
		Tracks:  s.playlist.Tracks(),
		Notices: s.notices,
	}
	s.notices = nil
	return snap
}

// ApplyEnergy satisfies the preview pool's sink interface.
func (s *Session) ApplyEnergy(index int, energy float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playlist.SetEnergy(index, energy)
}

// Close cancels in-flight background work and discards session history.
func (s *Session) Close() {
	s.cancel()
	if err := s.history.ClearSession(context.Background(), s.ID); err != nil {
		s.logger.Warn("service: failed to clear history", "err", err)
	}
}

// consumeUpdates is the single writer for background resolution results.
// Every write is existence-checked against the current playlist, so a run
// that outlived its playlist lands harmlessly.
func (s *Session) consumeUpdates() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case u := <-s.updates:
			s.applyResolved(u)
		}
	}
}

func (s *Session) applyResolved(u worker.Resolved) {
	s.mu.Lock()
	ok := s.playlist.SetTrack(u.Index, u.Track)
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("service: stale resolution discarded", "index", u.Index)
		return
	}
	if u.Track.IsPlayable {
		s.pool.Submit(worker.PreviewJob{Index: u.Index, PreviewURL: u.Track.PreviewURL, Sink: s})
	}
}

func placeholderID(index int, stamp int64) string {
	return fmt.Sprintf("pending-%d-%d", index, stamp)
}
