package classifier

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/bainoculars/internal/domain/model"
)

// Default simulation parameters.
const (
	defaultMinLatency = 80 * time.Millisecond
	defaultMaxLatency = 150 * time.Millisecond
	defaultSeed       = 42
	simulatedTopK     = 3
)

var defaultLabels = []string{
	"American Robin", "Blue Jay", "Northern Cardinal", "House Sparrow",
	"Black-capped Chickadee", "Mourning Dove", "European Starling",
	"Red-winged Blackbird", "American Goldfinch", "Downy Woodpecker",
}

// SimOption configures the Simulated classifier.
type SimOption func(*Simulated)

// WithLatencyRange sets the simulated inference latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) SimOption {
	return func(s *Simulated) {
		if minLatency > 0 && maxLatency > minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithLabels sets the label vocabulary.
func WithLabels(labels ...string) SimOption {
	return func(s *Simulated) {
		if len(labels) > 0 {
			s.labels = append([]string(nil), labels...)
		}
	}
}

// WithSeed sets the random seed.
func WithSeed(seed int64) SimOption {
	return func(s *Simulated) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic simulation
	}
}

// Simulated stands in for a real model on kiosks without network access and
// in demos. Output is deterministic for a given seed.
type Simulated struct {
	labels     []string
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulated classifier.
func NewSimulated(opts ...SimOption) *Simulated {
	s := &Simulated{
		labels:     defaultLabels,
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewSource(defaultSeed)), //nolint:gosec // deterministic simulation
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classify waits for the simulated latency and returns up to three labels
// whose confidences sum to at most 100.
func (s *Simulated) Classify(ctx context.Context, f model.Frame) ([]model.Prediction, error) {
	if f.Empty() {
		return nil, fmt.Errorf("%w: empty frame", ErrClassify)
	}

	s.mu.Lock()
	latency := s.minLatency + time.Duration(s.rng.Int63n(int64(s.maxLatency-s.minLatency)))
	k := simulatedTopK
	if k > len(s.labels) {
		k = len(s.labels)
	}
	picks := s.rng.Perm(len(s.labels))[:k]
	remaining := 100.0
	preds := make([]model.Prediction, 0, k)
	for _, idx := range picks {
		c := s.rng.Float64() * remaining
		remaining -= c
		preds = append(preds, model.Prediction{Label: s.labels[idx], Confidence: c})
	}
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-time.After(latency):
	}
	return rank(preds), nil
}
