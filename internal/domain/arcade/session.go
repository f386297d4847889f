// Package arcade implements the timed challenge round: a pausable countdown
// and a score of distinct birds found.
package arcade

import (
	"time"

	"github.com/google/uuid"

	"github.com/okian/bainoculars/internal/domain/collection"
)

// Session is one arcade round. It is not safe for concurrent use; the kiosk
// loop owns it.
type Session struct {
	ID    string
	Start time.Time
	Total time.Duration

	pauseStart time.Time
	score      int
	seen       *collection.Set
	running    bool
	frozen     bool
	finished   time.Time
}

// NewSession starts a round of length total at now.
func NewSession(now time.Time, total time.Duration) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Start:   now,
		Total:   total,
		seen:    collection.New(),
		running: true,
	}
}

// Remaining returns the time left at now. Time spent frozen is excluded once
// the session resumes; while frozen the value is held at the pause instant.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s.frozen {
		now = s.pauseStart
	}
	return s.Total - now.Sub(s.Start)
}

// RemainingSeconds is Remaining truncated to whole seconds, never negative.
func (s *Session) RemainingSeconds(now time.Time) int {
	r := s.Remaining(now)
	if r <= 0 {
		return 0
	}
	return int(r / time.Second)
}

// Expired reports whether the countdown has reached zero.
func (s *Session) Expired(now time.Time) bool {
	return s.Remaining(now) <= 0
}

// Freeze pauses the countdown. It returns false when the session is already
// frozen or no longer running.
func (s *Session) Freeze(now time.Time) bool {
	if s.frozen || !s.running {
		return false
	}
	s.frozen = true
	s.pauseStart = now
	return true
}

// Resume ends a freeze and shifts the start time by the paused duration.
func (s *Session) Resume(now time.Time) {
	if !s.frozen {
		return
	}
	s.Start = s.Start.Add(now.Sub(s.pauseStart))
	s.frozen = false
	s.pauseStart = time.Time{}
}

// Record adds label to the collection. It returns true when the label was new
// and the score increased.
func (s *Session) Record(label string) bool {
	if s.seen.SeenAndRecord(label) {
		return false
	}
	s.score++
	return true
}

// Stop ends the round.
func (s *Session) Stop(now time.Time) {
	if !s.running {
		return
	}
	s.running = false
	s.finished = now
}

// Score returns the number of distinct birds found.
func (s *Session) Score() int { return s.score }

// Running reports whether the round is still live.
func (s *Session) Running() bool { return s.running }

// Frozen reports whether the countdown is paused.
func (s *Session) Frozen() bool { return s.frozen }

// Seen returns the found labels in discovery order.
func (s *Session) Seen() []string { return s.seen.Labels() }

// FinishedAt returns when Stop was called, zero while running.
func (s *Session) FinishedAt() time.Time { return s.finished }
