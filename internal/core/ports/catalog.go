package ports

import (
	"context"

	"github.com/ewilliams-labs/moodmuse/internal/core/domain"
)

// CatalogResolver turns a song suggestion into a playable track via the music
// catalog. Resolve is total: it never fails, degrading to a non-playable
// fallback track instead, so one bad suggestion can never stall the playlist
// pipeline. The assigned index is the track's permanent playlist position and
// doubles as the fallback identifier.
type CatalogResolver interface {
	Resolve(ctx context.Context, s domain.Suggestion, index int) domain.Track
}
