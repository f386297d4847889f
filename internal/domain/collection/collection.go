// Package collection tracks which bird labels have been found in a round.
package collection

import (
	"sort"
	"sync"
)

// Set records seen labels. Safe for concurrent use.
type Set struct {
	mu    sync.RWMutex
	seen  map[string]int
	order []string
}

// New returns an empty Set.
func New() *Set {
	return &Set{seen: make(map[string]int)}
}

// SeenAndRecord checks whether label was already seen and records it if not.
// Returns true if it was already present.
func (s *Set) SeenAndRecord(label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[label]; ok {
		return true
	}
	s.seen[label] = len(s.order)
	s.order = append(s.order, label)
	return false
}

// Contains reports whether label was recorded.
func (s *Set) Contains(label string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[label]
	return ok
}

// Size returns the number of distinct labels.
func (s *Set) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Labels returns the labels in discovery order.
func (s *Set) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Sorted returns the labels alphabetically.
func (s *Set) Sorted() []string {
	out := s.Labels()
	sort.Strings(out)
	return out
}

// Reset forgets every label.
func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[string]int)
	s.order = nil
}
