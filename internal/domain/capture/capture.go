// Package capture implements snapshot, persist, classify, decide, rename.
package capture

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/internal/domain/policy"
	"github.com/okian/bainoculars/pkg/logger"
	"github.com/okian/bainoculars/pkg/metrics"
)

// TimestampLayout is the second-resolution stamp embedded in filenames.
const TimestampLayout = "20060102_150405"

// ProvisionalPrefix names a capture before classification finishes.
const ProvisionalPrefix = "capture"

// Snapshotter returns a copy of the latest frame.
type Snapshotter interface {
	Snapshot() (model.Frame, bool)
}

// Storage persists capture images per mode.
type Storage interface {
	// Save writes f as <mode>/<name> and returns the stored path.
	Save(ctx context.Context, f model.Frame, mode model.Mode, name string) (string, error)
	// Rename moves a stored capture to newName in the same directory.
	Rename(ctx context.Context, path, newName string) (string, error)
}

// Classifier ranks labels for a frame.
type Classifier interface {
	Classify(ctx context.Context, f model.Frame) ([]model.Prediction, error)
}

// Recorder is notified of every persisted capture.
type Recorder interface {
	Captured(ctx context.Context, rec model.CaptureRecord)
}

// Pipeline runs a single capture end to end.
type Pipeline struct {
	frames     Snapshotter
	storage    Storage
	classifier Classifier
	decider    *policy.Decider
	clock      clockwork.Clock
	logger     logger.Logger
	recorder   Recorder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDecider sets the decision policy.
func WithDecider(d *policy.Decider) Option {
	return func(p *Pipeline) {
		if d != nil {
			p.decider = d
		}
	}
}

// WithClock sets the clock used for capture timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(p *Pipeline) {
		if lg != nil {
			p.logger = lg
		}
	}
}

// WithRecorder registers a listener for persisted captures.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// New creates a Pipeline over the given collaborators.
func New(frames Snapshotter, storage Storage, classifier Classifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		frames:     frames,
		storage:    storage,
		classifier: classifier,
		decider:    policy.New(),
		clock:      clockwork.NewRealClock(),
		logger:     logger.Get().Named("capture"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Decider returns the decision policy in use.
func (p *Pipeline) Decider() *policy.Decider {
	return p.decider
}

// CaptureAndIdentify snapshots the frame buffer, stores the frame under mode,
// classifies it and renames the file after the resolved label.
//
// An empty buffer yields (Unknown, 0, nil frame) with nothing written.
// Classifier failures resolve to Unknown; storage failures are returned.
func (p *Pipeline) CaptureAndIdentify(ctx context.Context, mode model.Mode) (model.Result, error) {
	start := p.clock.Now()
	defer func() {
		metrics.RecordCaptureLatency(float64(p.clock.Since(start).Milliseconds()))
	}()

	frame, ok := p.frames.Snapshot()
	if !ok {
		metrics.RecordCapture(mode.String(), "no_frame")
		p.logger.Debug(ctx, "capture skipped, no frame", logger.String("mode", mode.String()))
		return model.Result{Label: model.UnknownLabel}, nil
	}

	stamp := start.Format(TimestampLayout)
	path, err := p.storage.Save(ctx, frame, mode, ProvisionalPrefix+"_"+stamp+".jpg")
	if err != nil {
		metrics.RecordCapture(mode.String(), "save_failed")
		metrics.RecordError("capture", "save")
		return model.Result{}, fmt.Errorf("%w: save: %w", ErrPersist, err)
	}

	label, confidence := p.decider.Decide(p.classify(ctx, frame))

	final, err := p.storage.Rename(ctx, path, FileName(label, stamp))
	if err != nil {
		metrics.RecordCapture(mode.String(), "rename_failed")
		metrics.RecordError("capture", "rename")
		return model.Result{}, fmt.Errorf("%w: rename: %w", ErrPersist, err)
	}

	outcome := "identified"
	if label == model.UnknownLabel {
		outcome = "unknown"
	}
	metrics.RecordCapture(mode.String(), outcome)
	p.logger.Info(ctx, "capture identified",
		logger.String("mode", mode.String()),
		logger.String("label", label),
		logger.Float64("confidence", confidence),
		logger.String("path", final),
	)

	if p.recorder != nil {
		p.recorder.Captured(ctx, model.CaptureRecord{
			ID:         uuid.NewString(),
			Timestamp:  start,
			Mode:       mode,
			Path:       final,
			Label:      label,
			Confidence: confidence,
		})
	}

	return model.Result{Label: label, Confidence: confidence, Frame: &frame}, nil
}

func (p *Pipeline) classify(ctx context.Context, frame model.Frame) []model.Prediction {
	t := p.clock.Now()
	preds, err := p.classifier.Classify(ctx, frame)
	metrics.RecordClassificationLatency(float64(p.clock.Since(t).Milliseconds()))
	if err != nil {
		metrics.RecordError("capture", "classify")
		p.logger.Warn(ctx, "classification failed, treating as no prediction", logger.Error(err))
		return nil
	}
	return preds
}

// FileName builds the final capture file name for a resolved label.
func FileName(label, stamp string) string {
	return SanitizeLabel(label) + "_" + stamp + ".jpg"
}

// SanitizeLabel replaces characters that cannot appear in a file name.
func SanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return model.UnknownLabel
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '\t':
			return '_'
		}
		return r
	}, label)
}

// ParseFileName splits a stored file name into label and timestamp. The label
// keeps its underscores. ok is false for names that do not follow the pattern.
func ParseFileName(name string) (label string, ts time.Time, ok bool) {
	base := strings.TrimSuffix(name, ".jpg")
	if base == name || len(base) < len(TimestampLayout)+2 {
		return "", time.Time{}, false
	}
	cut := len(base) - len(TimestampLayout)
	if base[cut-1] != '_' {
		return "", time.Time{}, false
	}
	ts, err := time.ParseInLocation(TimestampLayout, base[cut:], time.Local)
	if err != nil {
		return "", time.Time{}, false
	}
	return base[:cut-1], ts, true
}
