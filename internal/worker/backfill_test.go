package worker

import (
	"context"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ewilliams-labs/moodmuse/internal/core/domain"
	"golang.org/x/time/rate"
)

type recordingResolver struct {
	mu      sync.Mutex
	indices []int
}

func (r *recordingResolver) Resolve(ctx context.Context, s domain.Suggestion, index int) domain.Track {
	r.mu.Lock()
	r.indices = append(r.indices, index)
	r.mu.Unlock()
	return domain.Track{ID: strconv.Itoa(index), Title: s.Title, Resolved: true}
}

func testBatch(n int) []domain.Suggestion {
	batch := make([]domain.Suggestion, n)
	for i := range batch {
		batch[i] = domain.Suggestion{Title: "Song " + strconv.Itoa(i), Artist: "Artist"}
	}
	return batch
}

func TestRunBackfillEmitsFixedAbsoluteIndices(t *testing.T) {
	resolver := &recordingResolver{}
	updates := make(chan Resolved, 8)
	limiter := rate.NewLimiter(rate.Every(time.Millisecond), 1)

	RunBackfill(context.Background(), resolver, limiter, testBatch(3), 5, updates, log.New(io.Discard))
	close(updates)

	want := 5
	for u := range updates {
		if u.Index != want {
			t.Fatalf("index: got %d, want %d", u.Index, want)
		}
		if u.Track.ID != strconv.Itoa(want) {
			t.Fatalf("track resolved with wrong index: %+v", u.Track)
		}
		want++
	}
	if want != 8 {
		t.Fatalf("expected 3 updates, got %d", want-5)
	}

	for i, got := range resolver.indices {
		if got != 5+i {
			t.Fatalf("resolution order: got %v", resolver.indices)
		}
	}
}

func TestRunBackfillStopsOnCancel(t *testing.T) {
	resolver := &recordingResolver{}
	updates := make(chan Resolved, 16)
	limiter := rate.NewLimiter(rate.Every(20*time.Millisecond), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunBackfill(ctx, resolver, limiter, testBatch(50), 0, updates, log.New(io.Discard))
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("backfill did not stop after cancel")
	}

	resolver.mu.Lock()
	resolved := len(resolver.indices)
	resolver.mu.Unlock()
	if resolved >= 50 {
		t.Fatal("cancellation should have cut the run short")
	}
}

func TestRunBackfillSharedLimiterSpacesConcurrentRuns(t *testing.T) {
	var mu sync.Mutex
	var stamps []time.Time
	resolver := &timestampResolver{mu: &mu, stamps: &stamps}

	spacing := 30 * time.Millisecond
	limiter := rate.NewLimiter(rate.Every(spacing), 1)
	updates := make(chan Resolved, 16)

	var wg sync.WaitGroup
	for run := 0; run < 2; run++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			RunBackfill(context.Background(), resolver, limiter, testBatch(3), start, updates, log.New(io.Discard))
		}(run * 10)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(stamps); i++ {
		if gap := stamps[i].Sub(stamps[i-1]); gap < spacing/2 {
			t.Fatalf("lookups %d and %d only %v apart", i-1, i, gap)
		}
	}
}

type timestampResolver struct {
	mu     *sync.Mutex
	stamps *[]time.Time
}

func (r *timestampResolver) Resolve(ctx context.Context, s domain.Suggestion, index int) domain.Track {
	r.mu.Lock()
	*r.stamps = append(*r.stamps, time.Now())
	r.mu.Unlock()
	return domain.Track{Resolved: true}
}
