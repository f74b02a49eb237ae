package ports

import (
	"context"

	"github.com/ewilliams-labs/moodmuse/internal/core/domain"
)

// HistoryRepository records every suggestion issued within a session and
// serves the recent-titles exclusion list for expansion calls. History is
// session-scoped and in-memory only; nothing survives a restart.
type HistoryRepository interface {
	RecordSuggestions(ctx context.Context, sessionID string, batch []domain.Suggestion) error
	RecentTitles(ctx context.Context, sessionID string, limit int) ([]string, error)
	ClearSession(ctx context.Context, sessionID string) error
}
