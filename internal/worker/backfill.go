// Package worker provides the background pieces of the resolution pipeline:
// the sequential backfill runner and the preview analysis pool.
package worker

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/ewilliams-labs/moodmuse/internal/core/domain"
	"github.com/ewilliams-labs/moodmuse/internal/core/ports"
	"golang.org/x/time/rate"
)

// Resolved is the message a backfill run emits for each finished lookup. The
// index is the track's absolute playlist position, fixed when the run was
// created.
type Resolved struct {
	Index int
	Track domain.Track
}

// RunBackfill resolves a suggestion batch strictly in order, one lookup at a
// time, waiting on the shared limiter before each call. The sequencing is
// intentional throttling: the catalog's abuse detection punishes bursts, and
// the limiter is shared so that concurrently running backfills (the seed's
// and an appended batch's) still space their calls globally.
//
// Results go out on the updates channel; a single consumer applies them to
// the playlist. Cancelling the context stops the run between lookups.
func RunBackfill(
	ctx context.Context,
	resolver ports.CatalogResolver,
	limiter *rate.Limiter,
	batch []domain.Suggestion,
	start int,
	updates chan<- Resolved,
	logger *log.Logger,
) {
	for i, s := range batch {
		if err := limiter.Wait(ctx); err != nil {
			logger.Debug("worker: backfill stopped", "start", start, "remaining", len(batch)-i)
			return
		}

		index := start + i
		track := resolver.Resolve(ctx, s, index)

		select {
		case updates <- Resolved{Index: index, Track: track}:
		case <-ctx.Done():
			return
		}
	}
}
