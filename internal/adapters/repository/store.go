// Package repository keeps the arcade high-score table.
package repository

import (
	"context"
	"time"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank       int       `json:"rank"`
	SessionID  string    `json:"session_id"`
	Score      int       `json:"score"`
	Birds      []string  `json:"birds"`
	FinishedAt time.Time `json:"finished_at"`
}

// Store provides read/write access to the high-score table.
type Store interface {
	// Add records a finished round. It returns the round's rank and whether
	// it made the table.
	Add(ctx context.Context, e Entry) (int, bool, error)

	// Rank returns the current rank and score for a session.
	// Returns ErrNotFound if the session is not on the table.
	Rank(ctx context.Context, sessionID string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of rounds on the table.
	Count(ctx context.Context) int
}
