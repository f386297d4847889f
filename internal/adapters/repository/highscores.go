package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

const defaultCapacity = 10

// HighScores is an in-memory Store holding the best rounds.
//
// Ordering: score DESC, then earlier finish first, then session id ASC.
type HighScores struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

// NewHighScores creates an empty table.
func NewHighScores(opts ...Option) *HighScores {
	s := &HighScores{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(s)
	}
	s.entries = make([]Entry, 0, s.capacity+1)
	return s
}

func less(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.FinishedAt.Equal(b.FinishedAt) {
		return a.FinishedAt.Before(b.FinishedAt)
	}
	return a.SessionID < b.SessionID
}

// Add inserts e in rank order and trims the table to capacity.
func (s *HighScores) Add(_ context.Context, e Entry) (int, bool, error) {
	if e.SessionID == "" {
		return 0, false, fmt.Errorf("%w: empty session id", ErrInvalidEntry)
	}
	if e.Score < 0 {
		return 0, false, fmt.Errorf("%w: negative score", ErrInvalidEntry)
	}
	e.Birds = append([]string(nil), e.Birds...)

	s.mu.Lock()
	defer s.mu.Unlock()

	i := sort.Search(len(s.entries), func(i int) bool { return less(e, s.entries[i]) })
	s.entries = append(s.entries, Entry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
	if len(s.entries) > s.capacity {
		s.entries = s.entries[:s.capacity]
	}
	s.renumber()
	if i >= s.capacity {
		return i + 1, false, nil
	}
	return i + 1, true, nil
}

func (s *HighScores) renumber() {
	for i := range s.entries {
		s.entries[i].Rank = i + 1
	}
}

// Rank returns the entry for sessionID.
func (s *HighScores) Rank(_ context.Context, sessionID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.SessionID == sessionID {
			return clone(e), nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
}

// TopN returns up to n entries, best first.
func (s *HighScores) TopN(_ context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i] = clone(s.entries[i])
	}
	return out, nil
}

// Count returns the number of rounds on the table.
func (s *HighScores) Count(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func clone(e Entry) Entry {
	e.Birds = append([]string(nil), e.Birds...)
	return e
}
