package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/pkg/logger"
	"github.com/okian/bainoculars/pkg/metrics"
)

const defaultTaskBuffer = 256

// Loop is the kiosk's single event loop. Machine code, timer callbacks,
// capture results and user commands all run on the goroutine executing Run.
type Loop struct {
	clock  clockwork.Clock
	tasks  chan func()
	done   chan struct{}
	logger logger.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithTaskBuffer sets how many posted tasks may wait for the loop.
func WithTaskBuffer(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.tasks = make(chan func(), n)
		}
	}
}

// WithLoopLogger sets the loop logger.
func WithLoopLogger(lg logger.Logger) LoopOption {
	return func(l *Loop) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// NewLoop creates a loop driven by clock.
func NewLoop(clock clockwork.Clock, opts ...LoopOption) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	l := &Loop{
		clock:  clock,
		tasks:  make(chan func(), defaultTaskBuffer),
		done:   make(chan struct{}),
		logger: logger.Get().Named("loop"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the loop clock's time.
func (l *Loop) Now() time.Time { return l.clock.Now() }

// After runs fn on the loop once d has elapsed. Timers cannot be cancelled;
// callers guard fn with their own generation check.
func (l *Loop) After(d time.Duration, fn func()) {
	l.clock.AfterFunc(d, func() { l.Post(fn) })
}

// Post queues fn for the loop. It reports false once the loop has exited.
// Post must not be called from the loop goroutine while the buffer is full.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case <-l.done:
		return false
	case l.tasks <- fn:
		return true
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return fmt.Errorf("loop call: %w", ErrNotRunning)
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return fmt.Errorf("loop call: %w", ErrNotRunning)
	case <-ctx.Done():
		return fmt.Errorf("loop call: %w", ctx.Err())
	}
}

// Done is closed once Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Run executes posted tasks and handles commands until ctx is cancelled.
func (l *Loop) Run(ctx context.Context, commands <-chan model.Command, handle func(model.Command)) {
	defer close(l.done)
	l.logger.Debug(ctx, "event loop started")
	defer l.logger.Debug(ctx, "event loop stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		case c, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			metrics.RecordCommandProcessed()
			if handle != nil {
				handle(c)
			}
		}
	}
}
