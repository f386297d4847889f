// Package service assembles the kiosk: camera acquisition, the capture
// worker, the mode state machine on its event loop, the display and the
// arcade high-score table. It implements the dependencies of the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/bainoculars/internal/adapters/camera"
	"github.com/okian/bainoculars/internal/adapters/classifier"
	"github.com/okian/bainoculars/internal/adapters/display"
	"github.com/okian/bainoculars/internal/adapters/mq/queue"
	"github.com/okian/bainoculars/internal/adapters/mq/worker"
	"github.com/okian/bainoculars/internal/adapters/repository"
	"github.com/okian/bainoculars/internal/adapters/storage"
	"github.com/okian/bainoculars/internal/adapters/trigger"
	"github.com/okian/bainoculars/internal/config"
	"github.com/okian/bainoculars/internal/domain/acquisition"
	"github.com/okian/bainoculars/internal/domain/arcade"
	"github.com/okian/bainoculars/internal/domain/capture"
	"github.com/okian/bainoculars/internal/domain/framebuffer"
	"github.com/okian/bainoculars/internal/domain/kiosk"
	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/internal/domain/policy"
	"github.com/okian/bainoculars/pkg/logger"
	"github.com/okian/bainoculars/pkg/metrics"
)

const stopTimeout = 5 * time.Second

// Service implements the API dependencies for the kiosk.
type Service struct {
	mu sync.RWMutex

	cfg   *config.Config
	clock clockwork.Clock

	// Injected or built from cfg at Start.
	source     acquisition.Source
	classifier capture.Classifier
	trigger    kiosk.Trigger
	gpio       *trigger.Button

	buffer   *framebuffer.Buffer
	acq      *acquisition.Loop
	storage  *storage.Local
	pipeline *capture.Pipeline
	worker   *worker.CaptureWorker
	loop     *Loop
	machine  *kiosk.Machine
	commands *queue.InMemoryQueue
	scores   *repository.HighScores
	display  *display.MJPEG
	closers  []io.Closer

	captures    uint64
	lastCapture *model.CaptureRecord

	started  bool
	cancel   context.CancelFunc
	quit     chan struct{}
	quitOnce sync.Once
	workerWG sync.WaitGroup

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults to config.New().
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithSource sets the frame source. Defaults to the pattern test card.
func WithSource(src acquisition.Source) Option {
	return func(s *Service) { s.source = src }
}

// WithClassifier overrides the classifier selected by classifier_backend.
func WithClassifier(c capture.Classifier) Option {
	return func(s *Service) { s.classifier = c }
}

// WithTrigger sets the capture button. Overrides gpio_enabled.
func WithTrigger(t kiosk.Trigger) Option {
	return func(s *Service) { s.trigger = t }
}

// WithClock sets the clock driving the event loop and acquisition.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(lg logger.Logger) Option {
	return func(s *Service) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// New constructs a new Service.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:    config.New(),
		clock:  clockwork.NewRealClock(),
		quit:   make(chan struct{}),
		logger: logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.display = display.New(
		display.WithSize(s.cfg.FrameWidth, s.cfg.FrameHeight),
		display.WithLogger(s.logger.Named("display")),
	)
	s.scores = repository.NewHighScores(repository.WithCapacity(s.cfg.LeaderboardSize))
	return s
}

// NewClassifier builds the classifier named by cfg.ClassifierBackend.
func NewClassifier(cfg *config.Config) (capture.Classifier, error) {
	switch cfg.ClassifierBackend {
	case "huggingface":
		return classifier.NewHuggingFace(
			classifier.WithEndpoint(cfg.ClassifierEndpoint),
			classifier.WithModel(cfg.ClassifierModel),
			classifier.WithToken(cfg.ClassifierToken),
			classifier.WithTimeout(cfg.ClassifierTimeout()),
		), nil
	case "simulated":
		return classifier.NewSimulated(), nil
	}
	return nil, fmt.Errorf("%w: classifier_backend %q", ErrUnsupported, cfg.ClassifierBackend)
}

// Start builds and starts every component. The menu is shown once the event
// loop is running. On failure the frame source and any opened hardware
// handles are released.
func (s *Service) Start(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	cfg := s.cfg
	s.logger.Info(ctx, "starting kiosk service...")
	defer func() {
		if err != nil {
			s.release(ctx)
		}
	}()

	store, err := storage.NewLocal(cfg.CaptureDir,
		storage.WithQuality(cfg.JPEGQuality),
		storage.WithLogger(s.logger.Named("storage")),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStart, err)
	}
	s.storage = store

	if s.classifier == nil {
		c, err := NewClassifier(cfg)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStart, err)
		}
		s.classifier = c
	}
	if s.trigger == nil && cfg.GPIOEnabled {
		b, err := trigger.Open(ctx, cfg.GPIOPin)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStart, err)
		}
		s.trigger, s.gpio = b, b
		s.closers = append(s.closers, b)
	}
	if s.source == nil {
		s.source = camera.NewPattern(cfg.FrameWidth, cfg.FrameHeight)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	decider := policy.New(
		policy.WithThreshold(cfg.ConfidenceThreshold),
		policy.WithExcludedLabels(cfg.ExcludedLabels...),
	)

	s.buffer = framebuffer.New()
	s.acq = acquisition.New(s.source, s.buffer,
		acquisition.WithInterval(cfg.AcquisitionInterval()),
		acquisition.WithClock(s.clock),
		acquisition.WithLogger(s.logger.Named("acquisition")),
	)

	s.pipeline = capture.New(s.buffer, s.storage, s.classifier,
		capture.WithDecider(decider),
		capture.WithClock(s.clock),
		capture.WithRecorder(s),
		capture.WithLogger(s.logger.Named("capture")),
	)

	s.loop = NewLoop(s.clock, WithLoopLogger(s.logger.Named("loop")))
	s.worker = worker.NewCaptureWorker(s.pipeline, s.loop,
		worker.WithJobTimeout(cfg.ClassifierTimeout()+time.Second),
		worker.WithLogger(s.logger.Named("capture-worker")),
	)
	s.commands = queue.NewInMemoryQueue(queue.WithCapacity(cfg.CommandQueueSize))

	machineOpts := []kiosk.Option{
		kiosk.WithRefreshInterval(cfg.RefreshInterval()),
		kiosk.WithPollInterval(cfg.PollInterval()),
		kiosk.WithDebounce(cfg.Debounce()),
		kiosk.WithDisplayDuration(cfg.DisplayDuration()),
		kiosk.WithFinalDisplay(cfg.FinalDisplay()),
		kiosk.WithArcadeDuration(cfg.ArcadeDuration()),
		kiosk.WithDecider(decider),
		kiosk.WithSessionSink(s),
		kiosk.WithLogger(s.logger.Named("kiosk")),
	}
	if s.trigger != nil {
		machineOpts = append(machineOpts, kiosk.WithTrigger(s.trigger))
	}
	s.machine = kiosk.New(s.loop, s.buffer, s.display, s.worker, machineOpts...)

	s.acq.Start(runCtx)
	s.workerWG.Add(1)
	go func() {
		defer s.workerWG.Done()
		s.worker.Run(runCtx)
	}()
	go s.loop.Run(runCtx, s.commands.Dequeue(), s.handle)
	s.loop.Post(func() { s.machine.Start(runCtx) })

	s.started = true
	s.logger.Info(ctx, "kiosk service started",
		logger.String("capture_dir", store.Root()),
		logger.String("classifier", cfg.ClassifierBackend),
		logger.Bool("gpio", s.trigger != nil),
	)
	return nil
}

// release closes the frame source and the opened handles after a failed
// Start. The caller holds s.mu.
func (s *Service) release(ctx context.Context) {
	if s.source != nil {
		if err := s.source.Close(); err != nil {
			s.logger.Warn(ctx, "failed to close frame source", logger.Error(err))
		}
		s.source = nil
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Warn(ctx, "failed to release resource", logger.Error(err))
		}
	}
	s.closers = nil
	if s.gpio != nil {
		s.trigger, s.gpio = nil, nil
	}
}

// Stop shuts the kiosk down and releases the camera and GPIO handles.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	// The capture worker reports back through Captured, which takes s.mu, so
	// the teardown below must run unlocked.
	ctx := context.Background()
	s.logger.Info(ctx, "stopping kiosk service...")

	_ = s.commands.Close()
	s.cancel()

	s.acq.Stop()
	shutdownCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := s.worker.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "capture worker did not stop cleanly", logger.Error(err))
	}
	s.workerWG.Wait()
	<-s.loop.Done()

	for _, c := range closers {
		if err := c.Close(); err != nil {
			s.logger.Warn(ctx, "failed to release resource", logger.Error(err))
		}
	}
	s.logger.Info(ctx, "kiosk service stopped")
}

// handle runs on the event loop.
func (s *Service) handle(c model.Command) {
	ctx := context.Background()
	switch c.Kind {
	case model.CommandEnter:
		if err := s.machine.Enter(c.Mode); err != nil {
			s.logger.Warn(ctx, "rejected mode change", logger.String("mode", c.Mode.String()), logger.Error(err))
		}
	case model.CommandBack:
		s.machine.Back()
	case model.CommandCapture:
		s.machine.Capture()
	case model.CommandQuit:
		s.logger.Info(ctx, "quit requested")
		s.quitOnce.Do(func() { close(s.quit) })
	}
}

// Quit is closed when a quit command has been handled.
func (s *Service) Quit() <-chan struct{} { return s.quit }

// Display returns the screen broadcaster.
func (s *Service) Display() *display.MJPEG { return s.display }

// Submit queues a user command for the event loop.
func (s *Service) Submit(ctx context.Context, c model.Command) error {
	s.mu.RLock()
	q := s.commands
	s.mu.RUnlock()
	if q == nil {
		return queue.ErrClosed
	}
	if err := q.Enqueue(ctx, c); err != nil {
		return fmt.Errorf("submit %s: %w", c.Kind, err)
	}
	return nil
}

// State reads the machine state on the event loop.
func (s *Service) State(ctx context.Context) (kiosk.State, error) {
	s.mu.RLock()
	loop, machine := s.loop, s.machine
	s.mu.RUnlock()
	if loop == nil {
		return kiosk.State{}, ErrNotRunning
	}
	var st kiosk.State
	if err := loop.Call(ctx, func() { st = machine.State() }); err != nil {
		return kiosk.State{}, err
	}
	return st, nil
}

// TopN returns the top N arcade rounds.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	return s.scores.TopN(ctx, n)
}

// SessionFinished records a finished arcade round on the high-score table.
func (s *Service) SessionFinished(ctx context.Context, sess *arcade.Session) {
	rank, kept, err := s.scores.Add(ctx, repository.Entry{
		SessionID:  sess.ID,
		Score:      sess.Score(),
		Birds:      sess.Seen(),
		FinishedAt: sess.FinishedAt(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidEntry) {
			s.logger.Warn(ctx, "arcade round not recorded", logger.Error(err))
			return
		}
		s.logger.Error(ctx, "failed to record arcade round", logger.Error(err))
		return
	}
	s.logger.Info(ctx, "arcade round finished",
		logger.String("session", sess.ID),
		logger.Int("score", sess.Score()),
		logger.Int("rank", rank),
		logger.Bool("on_table", kept),
	)
}

// Captured tracks the latest capture. It runs on the capture worker.
func (s *Service) Captured(_ context.Context, rec model.CaptureRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captures++
	s.lastCapture = &rec
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"captures":         s.captures,
		"stream_clients":   s.display.Clients(),
		"leaderboard_size": s.scores.Count(ctx),
	}
	if s.lastCapture != nil {
		stats["last_capture"] = s.lastCapture
	}

	if s.started {
		acq := s.acq.Stats()
		stats["frames_acquired"] = acq.Acquired
		stats["acquisition_failures"] = acq.Failed
		stats["fps"] = acq.FPS
		stats["last_seq"] = acq.LastSeq
		stats["command_queue_length"] = s.commands.Len()

		metrics.UpdateCommandQueueSize(s.commands.Len())
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	stats["goroutines"] = runtime.NumGoroutine()

	return stats
}
