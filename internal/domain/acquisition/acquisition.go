// Package acquisition runs the background loop that pulls camera frames into
// the frame buffer at a fixed cadence.
package acquisition

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/pkg/logger"
	"github.com/okian/bainoculars/pkg/metrics"
)

const (
	defaultInterval = 33 * time.Millisecond
	// fpsWindow is the number of recent frame timestamps used for FPS stats.
	fpsWindow = 30
)

// Source yields the most recent camera frame. A false return means no frame
// was available this cycle; it is never fatal.
type Source interface {
	TryRead() (model.Frame, bool)
	Close() error
}

// Sink receives every acquired frame.
type Sink interface {
	Publish(model.Frame)
}

// Stats summarises acquisition progress.
type Stats struct {
	Acquired uint64  `json:"acquired"`
	Failed   uint64  `json:"failed"`
	FPS      float64 `json:"fps"`
	LastSeq  uint64  `json:"last_seq"`
}

// Loop repeatedly reads from a Source and publishes into a Sink.
type Loop struct {
	source   Source
	sink     Sink
	interval time.Duration
	clock    clockwork.Clock
	logger   logger.Logger

	acquired atomic.Uint64
	failed   atomic.Uint64
	seq      atomic.Uint64

	mu     sync.Mutex
	times  []time.Time
	stop   chan struct{}
	done   chan struct{}
	closed sync.Once
}

// Option configures a Loop.
type Option func(*Loop)

// WithInterval sets the acquisition period.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithClock sets the clock used for the ticker and frame timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(l *Loop) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loop) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// New creates a Loop. It does not start reading until Start is called.
func New(source Source, sink Sink, opts ...Option) *Loop {
	l := &Loop{
		source:   source,
		sink:     sink,
		interval: defaultInterval,
		clock:    clockwork.NewRealClock(),
		logger:   logger.Get().Named("acquisition"),
		times:    make([]time.Time, 0, fpsWindow),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start launches the loop goroutine. It returns immediately.
func (l *Loop) Start(ctx context.Context) {
	l.logger.Info(ctx, "acquisition started", logger.Duration("interval", l.interval))
	go l.run(ctx)
}

// Stop asks the loop to exit and waits until the source is closed.
// Latency is bounded by one period plus the source's Close.
func (l *Loop) Stop() {
	l.closed.Do(func() { close(l.stop) })
	<-l.done
}

// Done is closed once the loop has exited and released its source.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) run(ctx context.Context) {
	ticker := l.clock.NewTicker(l.interval)
	defer func() {
		ticker.Stop()
		if err := l.source.Close(); err != nil {
			l.logger.Warn(ctx, "closing frame source", logger.Error(err))
		}
		l.logger.Info(ctx, "acquisition stopped",
			logger.Uint64("acquired", l.acquired.Load()),
			logger.Uint64("failed", l.failed.Load()),
		)
		close(l.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-ticker.Chan():
			l.cycle(ctx)
		}
	}
}

func (l *Loop) cycle(ctx context.Context) {
	now := l.clock.Now()
	f, ok := l.source.TryRead()
	if !ok || f.Empty() {
		l.failed.Add(1)
		metrics.RecordAcquisitionFailure()
		l.logger.Debug(ctx, "no frame this cycle")
		return
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = now
	}
	f.Seq = l.seq.Add(1)
	l.sink.Publish(f)
	l.acquired.Add(1)
	metrics.RecordFrameAcquired()
	metrics.UpdateAcquisitionFPS(l.observe(now))
}

// observe records a frame time and returns the FPS over the window.
func (l *Loop) observe(t time.Time) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.times) == fpsWindow {
		copy(l.times, l.times[1:])
		l.times = l.times[:fpsWindow-1]
	}
	l.times = append(l.times, t)
	return meanFPS(l.times)
}

// meanFPS returns frames per second across the given timestamps.
func meanFPS(times []time.Time) float64 {
	if len(times) < 2 {
		return 0
	}
	span := times[len(times)-1].Sub(times[0]).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(len(times)-1) / span
}

// Stats returns a snapshot of counters and the measured frame rate.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	fps := meanFPS(l.times)
	l.mu.Unlock()
	return Stats{
		Acquired: l.acquired.Load(),
		Failed:   l.failed.Load(),
		FPS:      fps,
		LastSeq:  l.seq.Load(),
	}
}
