package services

import (
	"slices"

	"github.com/ewilliams-labs/moodmuse/internal/core/domain"
)

const (
	// Listening below this many seconds before advancing counts as a fast
	// skip; at or above it, skip pressure resets.
	fastSkipSeconds = 8.0

	// Consecutive fast skips needed to pivot the playlist.
	pivotStreak = 3

	// Expansion prompts exclude at most this many recent titles.
	excludeLimit = 50

	maxSkipContext = 3
)

// TrackAdvanced records that playback moved off the track at index after the
// given listened duration. Fast skips of playable tracks build skip pressure;
// three in a row pivot the playlist away from the rejected style, subject to
// the single-flight generation lock. Skipping an unplayable track says
// nothing about taste and is ignored.
func (s *Session) TrackAdvanced(index int, listenedSeconds float64) {
	s.mu.Lock()

	track, ok := s.playlist.Track(index)
	if !ok || !track.IsPlayable {
		s.mu.Unlock()
		return
	}

	if listenedSeconds >= fastSkipSeconds {
		// Sustained listening cancels pending skip pressure.
		s.skipStreak = 0
		s.recentSkips = nil
		s.mu.Unlock()
		return
	}

	s.skipStreak++
	s.recentSkips = append(s.recentSkips, track.Title)
	if len(s.recentSkips) > maxSkipContext {
		s.recentSkips = s.recentSkips[len(s.recentSkips)-maxSkipContext:]
	}

	if s.skipStreak < pivotStreak || s.generating {
		// A trigger while an expansion is in flight is dropped, not queued.
		s.mu.Unlock()
		return
	}

	s.skipStreak = 0
	s.generating = true
	skipped := slices.Clone(s.recentSkips)
	s.recentSkips = nil
	mood := s.mood
	s.mu.Unlock()

	go s.runPivot(mood, skipped)
}

// TrackLiked records an explicit like of the track at index and, when no
// expansion is already in flight, refines the playlist toward it. A like
// while the lock is held is accepted but triggers nothing.
func (s *Session) TrackLiked(index int) {
	s.mu.Lock()

	track, ok := s.playlist.Track(index)
	if !ok || s.generating {
		s.mu.Unlock()
		return
	}

	s.skipStreak = 0
	s.recentSkips = nil
	s.generating = true
	mood := s.mood
	s.mu.Unlock()

	go s.runRefine(mood, track)
}

func (s *Session) runPivot(mood string, skipped []string) {
	defer s.endGeneration()

	batch, err := s.engine.Pivot(s.ctx, mood, skipped, s.excludeTitles())
	if err != nil {
		// Background expansion failures never interrupt the listener.
		s.logger.Warn("service: pivot failed", "err", err)
		return
	}

	added := s.AppendBatch(s.ctx, batch)
	s.logger.Info("service: pivot merged", "suggested", len(batch), "added", added)
}

func (s *Session) runRefine(mood string, anchor domain.Track) {
	defer s.endGeneration()

	batch, err := s.engine.Refine(s.ctx, mood, anchor, s.excludeTitles())
	if err != nil {
		s.logger.Warn("service: refine failed", "err", err)
		return
	}

	added := s.AppendBatch(s.ctx, batch)
	s.logger.Info("service: refine merged", "anchor", anchor.Title, "suggested", len(batch), "added", added)
}

func (s *Session) endGeneration() {
	s.mu.Lock()
	s.generating = false
	s.mu.Unlock()
}

// excludeTitles builds the exclusion list for expansion prompts from session
// history, falling back to the current playlist titles when history is
// unavailable.
func (s *Session) excludeTitles() []string {
	titles, err := s.history.RecentTitles(s.ctx, s.ID, excludeLimit)
	if err == nil {
		return titles
	}
	s.logger.Warn("service: history unavailable for exclusions", "err", err)

	s.mu.Lock()
	defer s.mu.Unlock()
	titles = s.playlist.Titles()
	if len(titles) > excludeLimit {
		titles = titles[len(titles)-excludeLimit:]
	}
	return titles
}
