package ports

import (
	"context"

	"github.com/ewilliams-labs/moodmuse/internal/core/domain"
)

// SuggestionEngine is the image-understanding AI collaborator. AnalyzeImage
// opens a session from an uploaded photo; Refine and Pivot are the follow-up
// expansion calls, steering toward a liked track or away from skipped ones.
// The exclude list carries recently suggested titles so the engine does not
// repeat itself.
type SuggestionEngine interface {
	AnalyzeImage(ctx context.Context, image []byte) (domain.MoodReading, error)
	Refine(ctx context.Context, mood string, anchor domain.Track, exclude []string) ([]domain.Suggestion, error)
	Pivot(ctx context.Context, mood string, skipped []string, exclude []string) ([]domain.Suggestion, error)
}
