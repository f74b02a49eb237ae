// Package sqlite provides a SQLite-backed implementation of the history
// repository port. The store runs fully in memory: suggestion history only
// needs to outlive individual requests within one server run, never a
// restart.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ewilliams-labs/moodmuse/internal/core/domain"
	"github.com/ewilliams-labs/moodmuse/internal/core/ports"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Adapter implements the history repository port for SQLite
type Adapter struct {
	db *sql.DB
}

// compile-time interface assertion
var _ ports.HistoryRepository = (*Adapter)(nil)

// NewAdapter opens an in-memory database and runs the schema migration.
func NewAdapter() (*Adapter, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// Each sqlite connection gets its own private in-memory database, so the
	// pool must stay at a single connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}
	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS suggestions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_suggestions_session ON suggestions(session_id);
	`
	if _, err := a.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// RecordSuggestions appends a suggestion batch to the session's history.
func (a *Adapter) RecordSuggestions(ctx context.Context, sessionID string, batch []domain.Suggestion) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO suggestions (session_id, title, artist) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range batch {
		if _, err := stmt.ExecContext(ctx, sessionID, s.Title, s.Artist); err != nil {
			return fmt.Errorf("failed to record suggestion: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit suggestions: %w", err)
	}
	return nil
}

// RecentTitles returns up to limit of the most recently suggested titles for
// a session, newest first.
func (a *Adapter) RecentTitles(ctx context.Context, sessionID string, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}

	rows, err := a.db.QueryContext(ctx,
		"SELECT title FROM suggestions WHERE session_id = ? ORDER BY id DESC LIMIT ?",
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent titles: %w", err)
	}
	defer rows.Close()

	titles := []string{}
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate titles: %w", err)
	}

	return titles, nil
}

// ClearSession discards all history for a session.
func (a *Adapter) ClearSession(ctx context.Context, sessionID string) error {
	if _, err := a.db.ExecContext(ctx, "DELETE FROM suggestions WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear session history: %w", err)
	}
	return nil
}
