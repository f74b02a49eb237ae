package services

import (
	"context"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ewilliams-labs/moodmuse/internal/core/domain"
	"github.com/ewilliams-labs/moodmuse/internal/worker"
)

// --- Mocks ---

// stubResolver resolves every suggestion to a playable track unless told
// otherwise, recording the order of assigned indices.
type stubResolver struct {
	mu        sync.Mutex
	indices   []int
	playable  map[string]bool // by title; default true
	resolveFn func(s domain.Suggestion, index int) domain.Track
}

func (r *stubResolver) Resolve(ctx context.Context, s domain.Suggestion, index int) domain.Track {
	r.mu.Lock()
	r.indices = append(r.indices, index)
	r.mu.Unlock()

	if r.resolveFn != nil {
		return r.resolveFn(s, index)
	}

	playable := true
	if r.playable != nil {
		if v, ok := r.playable[s.Title]; ok {
			playable = v
		}
	}
	if !playable {
		return domain.NewFallback(strconv.Itoa(index), s)
	}
	return domain.Track{
		ID:         "cat-" + strconv.Itoa(index),
		Title:      s.Title,
		Artist:     s.Artist,
		Mood:       s.Mood,
		PreviewURL: "https://audio.example/" + strconv.Itoa(index) + ".m4a",
		CoverURL:   "https://img.example/600x600.jpg",
		IsPlayable: true,
		Resolved:   true,
	}
}

func (r *stubResolver) resolvedIndices() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.indices))
	copy(out, r.indices)
	return out
}

// stubEngine serves canned suggestion batches and can block inside a call to
// hold the generation lock open.
type stubEngine struct {
	mu          sync.Mutex
	pivotCalls  int
	refineCalls int
	batch       []domain.Suggestion
	err         error
	release     chan struct{} // calls block on this when non-nil
	started     chan string   // receives "pivot"/"refine" on call entry
}

func (e *stubEngine) AnalyzeImage(ctx context.Context, image []byte) (domain.MoodReading, error) {
	return domain.MoodReading{}, nil
}

func (e *stubEngine) Refine(ctx context.Context, mood string, anchor domain.Track, exclude []string) ([]domain.Suggestion, error) {
	e.mu.Lock()
	e.refineCalls++
	release := e.release
	e.mu.Unlock()
	if e.started != nil {
		e.started <- "refine"
	}
	if release != nil {
		<-release
	}
	return e.batch, e.err
}

func (e *stubEngine) Pivot(ctx context.Context, mood string, skipped []string, exclude []string) ([]domain.Suggestion, error) {
	e.mu.Lock()
	e.pivotCalls++
	release := e.release
	e.mu.Unlock()
	if e.started != nil {
		e.started <- "pivot"
	}
	if release != nil {
		<-release
	}
	return e.batch, e.err
}

func (e *stubEngine) calls() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pivotCalls, e.refineCalls
}

// stubHistory is a minimal in-memory history repository.
type stubHistory struct {
	mu     sync.Mutex
	titles []string
	err    error
}

func (h *stubHistory) RecordSuggestions(ctx context.Context, sessionID string, batch []domain.Suggestion) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range batch {
		h.titles = append(h.titles, s.Title)
	}
	return h.err
}

func (h *stubHistory) RecentTitles(ctx context.Context, sessionID string, limit int) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	out := make([]string, 0, limit)
	for i := len(h.titles) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.titles[i])
	}
	return out, nil
}

func (h *stubHistory) ClearSession(ctx context.Context, sessionID string) error { return nil }

// --- Helpers ---

func newTestSession(t *testing.T, resolver *stubResolver, engine *stubEngine) *Session {
	t.Helper()

	prev := worker.AnalyzePreviewFunc
	worker.AnalyzePreviewFunc = func(url string) (float64, error) { return 0.5, nil }
	t.Cleanup(func() { worker.AnalyzePreviewFunc = prev })

	logger := log.New(io.Discard)
	pool := worker.NewPool(1, 16, logger)
	pool.Start()
	t.Cleanup(pool.Stop)

	s := newSession("test-session", "calma", sessionDeps{
		resolver: resolver,
		engine:   engine,
		history:  &stubHistory{},
		pool:     pool,
		throttle: time.Millisecond,
		logger:   logger,
	})
	t.Cleanup(s.Close)
	return s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func suggestions(titles ...string) []domain.Suggestion {
	out := make([]domain.Suggestion, 0, len(titles))
	for _, title := range titles {
		out = append(out, domain.Suggestion{Title: title, Artist: "Artist " + title, Mood: "m"})
	}
	return out
}

// --- Tests ---

func TestSession_SeedResolvesFirstTrackSynchronously(t *testing.T) {
	resolver := &stubResolver{}
	s := newTestSession(t, resolver, &stubEngine{})

	s.seed(context.Background(), suggestions("One", "Two", "Three"))

	// Index 0 must be resolved before seed returns.
	snap := s.Snapshot()
	if len(snap.Tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(snap.Tracks))
	}
	if !snap.Tracks[0].Resolved || !snap.Tracks[0].IsPlayable {
		t.Fatalf("track 0 must resolve synchronously: %+v", snap.Tracks[0])
	}

	waitFor(t, "backfill to finish", func() bool {
		snap := s.Snapshot()
		return snap.Tracks[1].Resolved && snap.Tracks[2].Resolved
	})

	snap = s.Snapshot()
	for i, tr := range snap.Tracks {
		if tr.IsPlayable != (tr.PreviewURL != "") {
			t.Fatalf("track %d playability inconsistent: %+v", i, tr)
		}
	}
	if snap.Tracks[0].Title != "One" || snap.Tracks[1].Title != "Two" || snap.Tracks[2].Title != "Three" {
		t.Fatalf("track order must match the suggestion order: %+v", snap.Tracks)
	}
}

func TestSession_SeedMixedCatalogOutcomes(t *testing.T) {
	resolver := &stubResolver{playable: map[string]bool{"Two": false}}
	s := newTestSession(t, resolver, &stubEngine{})

	s.seed(context.Background(), suggestions("One", "Two", "Three"))

	waitFor(t, "backfill to finish", func() bool {
		snap := s.Snapshot()
		return snap.Tracks[1].Resolved && snap.Tracks[2].Resolved
	})

	snap := s.Snapshot()
	if !snap.Tracks[0].IsPlayable || snap.Tracks[1].IsPlayable || !snap.Tracks[2].IsPlayable {
		t.Fatalf("playability must reflect individual outcomes: %+v", snap.Tracks)
	}
}

func TestSession_BackfillIsSequential(t *testing.T) {
	resolver := &stubResolver{}
	s := newTestSession(t, resolver, &stubEngine{})

	s.seed(context.Background(), suggestions("A", "B", "C", "D"))
	waitFor(t, "backfill to finish", func() bool {
		return len(resolver.resolvedIndices()) == 4
	})

	got := resolver.resolvedIndices()
	want := []int{0, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("resolution order: got %v, want %v", got, want)
		}
	}
}

func TestSession_AppendBatchDedupsAndAssignsStableIndices(t *testing.T) {
	resolver := &stubResolver{}
	s := newTestSession(t, resolver, &stubEngine{})

	s.seed(context.Background(), suggestions("Blinding Lights", "Levitating"))
	waitFor(t, "seed backfill", func() bool { return len(resolver.resolvedIndices()) == 2 })

	added := s.AppendBatch(context.Background(), []domain.Suggestion{
		{Title: "blinding lights", Artist: "Artist Blinding Lights"},
		{Title: "Save Your Tears", Artist: "The Weeknd"},
	})
	if added != 1 {
		t.Fatalf("added: got %d, want 1", added)
	}

	snap := s.Snapshot()
	if len(snap.Tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(snap.Tracks))
	}
	if snap.Tracks[2].Title != "Save Your Tears" {
		t.Fatalf("appended track landed wrong: %+v", snap.Tracks[2])
	}

	waitFor(t, "append backfill", func() bool {
		snap := s.Snapshot()
		return snap.Tracks[2].Resolved
	})
	if got := resolver.resolvedIndices(); got[len(got)-1] != 2 {
		t.Fatalf("appended slice must backfill at its absolute index, got %v", got)
	}
}

func TestSession_AppendBatchEmitsNotice(t *testing.T) {
	resolver := &stubResolver{}
	s := newTestSession(t, resolver, &stubEngine{})
	s.seed(context.Background(), suggestions("One"))

	s.AppendBatch(context.Background(), suggestions("Two", "Three"))

	snap := s.Snapshot()
	if len(snap.Notices) != 1 {
		t.Fatalf("expected one notice, got %v", snap.Notices)
	}
	// Notices drain on read.
	if again := s.Snapshot(); len(again.Notices) != 0 {
		t.Fatalf("notices must drain, got %v", again.Notices)
	}
}

func TestSession_CloseStopsBackfill(t *testing.T) {
	resolved := make(chan int, 64)
	resolver := &stubResolver{resolveFn: func(s domain.Suggestion, index int) domain.Track {
		resolved <- index
		return domain.NewFallback(strconv.Itoa(index), s)
	}}

	logger := log.New(io.Discard)
	pool := worker.NewPool(1, 4, logger)
	pool.Start()
	defer pool.Stop()

	s := newSession("doomed", "calma", sessionDeps{
		resolver: resolver,
		engine:   &stubEngine{},
		history:  &stubHistory{},
		pool:     pool,
		throttle: 50 * time.Millisecond,
		logger:   logger,
	})

	s.seed(context.Background(), suggestions("A", "B", "C", "D", "E", "F"))
	<-resolved // index 0, synchronous
	s.Close()

	// Give any in-flight lookup time to drain, then confirm the run stopped.
	time.Sleep(200 * time.Millisecond)
	drained := len(resolved)
	time.Sleep(200 * time.Millisecond)
	if len(resolved) != drained {
		t.Fatal("backfill kept resolving after Close")
	}
	if drained >= 5 {
		t.Fatalf("expected cancellation to cut the run short, saw %d resolutions", drained+1)
	}
}

func TestSession_NavigateWraps(t *testing.T) {
	resolver := &stubResolver{}
	s := newTestSession(t, resolver, &stubEngine{})
	s.seed(context.Background(), suggestions("One", "Two", "Three"))

	if cursor, _ := s.Navigate(1); cursor != 1 {
		t.Fatalf("next: got %d, want 1", cursor)
	}
	if cursor, _ := s.Navigate(1); cursor != 2 {
		t.Fatalf("next: got %d, want 2", cursor)
	}
	if cursor, _ := s.Navigate(1); cursor != 0 {
		t.Fatalf("wrap: got %d, want 0", cursor)
	}
	if cursor, _ := s.Navigate(-1); cursor != 2 {
		t.Fatalf("prev wrap: got %d, want 2", cursor)
	}
}

func TestSession_EnergyAppliedToResolvedTracks(t *testing.T) {
	resolver := &stubResolver{}
	s := newTestSession(t, resolver, &stubEngine{})
	s.seed(context.Background(), suggestions("One", "Two"))

	waitFor(t, "energy readings", func() bool {
		snap := s.Snapshot()
		return len(snap.Tracks) == 2 &&
			snap.Tracks[0].Energy == 0.5 && snap.Tracks[1].Energy == 0.5
	})
}
