// Package policy turns ranked classifier predictions into a single accepted
// label.
package policy

import (
	"strings"

	"github.com/okian/bainoculars/internal/domain/model"
)

// Default decision parameters.
const (
	DefaultThreshold = 50.0
	defaultExcluded  = "looney"
)

// Option applies a configuration option to the Decider.
type Option func(*Decider)

// WithThreshold sets the minimum confidence (0-100) for acceptance.
func WithThreshold(threshold float64) Option {
	return func(d *Decider) {
		if threshold >= 0 && threshold <= 100 {
			d.threshold = threshold
		}
	}
}

// WithExcludedLabels replaces the excluded substrings. Matching ignores case;
// empty entries are dropped. Passing none disables exclusion.
func WithExcludedLabels(labels ...string) Option {
	return func(d *Decider) {
		d.excluded = d.excluded[:0]
		for _, l := range labels {
			if l = strings.TrimSpace(l); l != "" {
				d.excluded = append(d.excluded, strings.ToLower(l))
			}
		}
	}
}

// Decider applies the acceptance rule to the top prediction.
type Decider struct {
	threshold float64
	excluded  []string
}

// New creates a Decider with the default threshold and exclusion list.
func New(opts ...Option) *Decider {
	d := &Decider{
		threshold: DefaultThreshold,
		excluded:  []string{defaultExcluded},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Threshold returns the configured acceptance threshold.
func (d *Decider) Threshold() float64 {
	return d.threshold
}

// Decide returns the accepted label and its confidence.
//
// preds is ranked by the classifier and only the first entry is considered.
// It is accepted when its confidence reaches the threshold and its label
// contains no excluded substring. A rejected top prediction yields UnknownLabel with the top
// confidence kept; an empty list yields UnknownLabel and 0.
func (d *Decider) Decide(preds []model.Prediction) (string, float64) {
	if len(preds) == 0 {
		return model.UnknownLabel, 0
	}
	top := preds[0]
	if top.Confidence >= d.threshold && !d.Excluded(top.Label) {
		return top.Label, top.Confidence
	}
	return model.UnknownLabel, top.Confidence
}

// Excluded reports whether label contains an excluded substring.
func (d *Decider) Excluded(label string) bool {
	lower := strings.ToLower(label)
	for _, ex := range d.excluded {
		if strings.Contains(lower, ex) {
			return true
		}
	}
	return false
}

// Scores reports whether an accepted result counts toward an arcade score.
func (d *Decider) Scores(label string, confidence float64) bool {
	return label != "" && label != model.UnknownLabel && confidence >= d.threshold
}
