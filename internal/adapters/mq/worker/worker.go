// Package worker runs capture jobs off the kiosk event loop.
//
// Classification can take seconds on a remote model; the worker executes the
// capture pipeline on its own goroutine and posts the result back to the loop
// so state changes stay single-threaded.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/pkg/logger"
	"github.com/okian/bainoculars/pkg/metrics"
)

const (
	defaultJobTimeout     = 30 * time.Second
	workerShutdownTimeout = 5 * time.Second
)

// Pipeline runs a single capture.
type Pipeline interface {
	CaptureAndIdentify(ctx context.Context, mode model.Mode) (model.Result, error)
}

// Poster schedules fn on the event loop. It returns false when the loop no
// longer accepts work.
type Poster interface {
	Post(fn func()) bool
}

// Job is one capture request.
type Job struct {
	ID   string
	Mode model.Mode
	Done func(model.Result, error)
}

// CaptureWorker processes capture jobs one at a time.
type CaptureWorker struct {
	pipeline Pipeline
	poster   Poster
	name     string
	timeout  time.Duration

	jobs     chan Job
	shutdown chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	logger logger.Logger
}

// NewCaptureWorker creates a worker. Call Run to start processing.
func NewCaptureWorker(pipeline Pipeline, poster Poster, opts ...Option) *CaptureWorker {
	w := &CaptureWorker{
		pipeline: pipeline,
		poster:   poster,
		name:     "capture-worker",
		timeout:  defaultJobTimeout,
		jobs:     make(chan Job, 1),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("capture-worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Identify submits a capture for mode. done runs on the event loop.
func (w *CaptureWorker) Identify(ctx context.Context, mode model.Mode, done func(model.Result, error)) {
	job := Job{ID: uuid.NewString(), Mode: mode, Done: done}

	select {
	case <-w.shutdown:
		w.reply(ctx, job, model.Result{}, ErrStopped)
		return
	default:
	}

	select {
	case w.jobs <- job:
		w.logger.Debug(ctx, "capture job queued",
			logger.String("job", job.ID),
			logger.String("mode", mode.String()),
		)
	default:
		metrics.RecordError("worker", "busy")
		w.reply(ctx, job, model.Result{}, ErrBusy)
	}
}

// Run processes jobs until ctx is cancelled or Shutdown is called.
func (w *CaptureWorker) Run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job := <-w.jobs:
			w.process(ctx, job)
		}
	}
}

func (w *CaptureWorker) process(ctx context.Context, job Job) {
	jobCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	res, err := w.pipeline.CaptureAndIdentify(jobCtx, job.Mode)
	if err != nil {
		metrics.RecordError("worker", "capture")
		w.logger.Error(ctx, "capture job failed",
			logger.String("job", job.ID),
			logger.Error(err),
		)
		err = fmt.Errorf("capture job %s: %w", job.ID, err)
	} else {
		w.logger.Debug(ctx, "capture job done",
			logger.String("job", job.ID),
			logger.Duration("took", time.Since(start)),
		)
	}
	w.reply(ctx, job, res, err)
}

func (w *CaptureWorker) reply(ctx context.Context, job Job, res model.Result, err error) {
	if job.Done == nil {
		return
	}
	if !w.poster.Post(func() { job.Done(res, err) }) {
		w.logger.Warn(ctx, "event loop gone, dropping capture result", logger.String("job", job.ID))
	}
}

// Shutdown stops the worker and waits for the current job to finish.
func (w *CaptureWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })

	timeout, cancel := context.WithTimeout(ctx, workerShutdownTimeout)
	defer cancel()
	select {
	case <-w.done:
		return nil
	case <-timeout.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", timeout.Err())
	}
}
