// Package kiosk implements the mode state machine: Menu, Explore and Arcade,
// each with a Live/Frozen/Final phase.
//
// Every method must run on the event loop behind Scheduler. Deferred work
// captures the machine generation when it is scheduled; any mode change or
// end of round bumps the generation, so stale callbacks return without
// touching state.
package kiosk

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/bainoculars/internal/domain/arcade"
	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/internal/domain/policy"
	"github.com/okian/bainoculars/pkg/logger"
	"github.com/okian/bainoculars/pkg/metrics"
)

// Default timings.
const (
	DefaultRefreshInterval = 33 * time.Millisecond
	DefaultPollInterval    = 20 * time.Millisecond
	DefaultDebounce        = 300 * time.Millisecond
	DefaultDisplayDuration = 2 * time.Second
	DefaultFinalDisplay    = 2 * time.Second
	DefaultArcadeDuration  = 60 * time.Second
)

// Phase is the sub-state of Explore and Arcade.
type Phase int

const (
	// PhaseLive renders the live preview and accepts captures.
	PhaseLive Phase = iota
	// PhaseFrozen holds a capture result on screen until resume.
	PhaseFrozen
	// PhaseFinal holds the arcade final score until the return to Menu.
	PhaseFinal
)

func (p Phase) String() string {
	switch p {
	case PhaseLive:
		return "live"
	case PhaseFrozen:
		return "frozen"
	case PhaseFinal:
		return "final"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Machine is the kiosk mode state machine.
type Machine struct {
	sched      Scheduler
	frames     Frames
	display    Display
	identifier Identifier
	trigger    Trigger
	decider    *policy.Decider
	sessions   SessionSink
	logger     logger.Logger

	refresh     time.Duration
	poll        time.Duration
	displayFor  time.Duration
	finalFor    time.Duration
	arcadeTotal time.Duration
	debounce    *Debouncer

	ctx      context.Context
	mode     model.Mode
	phase    Phase
	gen      uint64
	resumeAt time.Time
	session  *arcade.Session
	last     *model.Result
}

// Option configures a Machine.
type Option func(*Machine)

// WithRefreshInterval sets the live preview and countdown cadence.
func WithRefreshInterval(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.refresh = d
		}
	}
}

// WithPollInterval sets the trigger polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.poll = d
		}
	}
}

// WithDebounce sets the refractory period after an accepted capture.
func WithDebounce(d time.Duration) Option {
	return func(m *Machine) {
		if d >= 0 {
			m.debounce = NewDebouncer(d)
		}
	}
}

// WithDisplayDuration sets how long a capture result stays on screen.
func WithDisplayDuration(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.displayFor = d
		}
	}
}

// WithFinalDisplay sets how long the final arcade score stays on screen.
func WithFinalDisplay(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.finalFor = d
		}
	}
}

// WithArcadeDuration sets the arcade round length.
func WithArcadeDuration(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.arcadeTotal = d
		}
	}
}

// WithTrigger attaches a polled hardware button.
func WithTrigger(t Trigger) Option {
	return func(m *Machine) {
		m.trigger = t
	}
}

// WithDecider sets the policy used to decide whether a result scores.
func WithDecider(d *policy.Decider) Option {
	return func(m *Machine) {
		if d != nil {
			m.decider = d
		}
	}
}

// WithSessionSink receives finished arcade rounds.
func WithSessionSink(s SessionSink) Option {
	return func(m *Machine) {
		m.sessions = s
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(m *Machine) {
		if lg != nil {
			m.logger = lg
		}
	}
}

// New creates a Machine in Menu mode.
func New(sched Scheduler, frames Frames, display Display, identifier Identifier, opts ...Option) *Machine {
	m := &Machine{
		sched:       sched,
		frames:      frames,
		display:     display,
		identifier:  identifier,
		decider:     policy.New(),
		logger:      logger.Get().Named("kiosk"),
		refresh:     DefaultRefreshInterval,
		poll:        DefaultPollInterval,
		displayFor:  DefaultDisplayDuration,
		finalFor:    DefaultFinalDisplay,
		arcadeTotal: DefaultArcadeDuration,
		debounce:    NewDebouncer(DefaultDebounce),
		ctx:         context.Background(),
		mode:        model.ModeMenu,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start binds ctx to the machine and shows the menu.
func (m *Machine) Start(ctx context.Context) {
	m.ctx = ctx
	m.display.ShowMenu()
	metrics.UpdateCurrentMode(int(m.mode))
}

// Mode returns the active mode.
func (m *Machine) Mode() model.Mode { return m.mode }

// Phase returns the phase of the active mode.
func (m *Machine) Phase() Phase { return m.phase }

// Generation returns the current task generation.
func (m *Machine) Generation() uint64 { return m.gen }

// Enter switches to mode. Entering Menu is the same as ToMenu. Leaving a
// non-menu mode first goes through Menu so nothing carries over.
func (m *Machine) Enter(mode model.Mode) error {
	switch mode {
	case model.ModeMenu:
		m.ToMenu()
		return nil
	case model.ModeExplore, model.ModeArcade:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
	if m.mode != model.ModeMenu {
		m.ToMenu()
	}

	now := m.sched.Now()
	m.gen++
	m.mode = mode
	m.phase = PhaseLive
	m.resumeAt = time.Time{}
	m.last = nil
	m.debounce.Reset()
	if mode == model.ModeArcade {
		m.session = arcade.NewSession(now, m.arcadeTotal)
		metrics.RecordArcadeSession()
		metrics.UpdateArcadeScore(0)
		m.logger.Info(m.ctx, "arcade round started",
			logger.String("session", m.session.ID),
			logger.Duration("duration", m.arcadeTotal),
		)
	}
	m.transitioned()

	g := m.gen
	m.sched.After(m.refresh, func() { m.refreshTick(g) })
	if m.trigger != nil {
		m.sched.After(m.poll, func() { m.pollTick(g) })
	}
	return nil
}

// ToMenu returns to the menu from any mode. A running arcade round is
// stopped without a final display.
func (m *Machine) ToMenu() {
	if m.session != nil && m.session.Running() {
		m.session.Stop(m.sched.Now())
	}
	m.gen++
	m.mode = model.ModeMenu
	m.phase = PhaseLive
	m.resumeAt = time.Time{}
	m.session = nil
	m.display.ShowMenu()
	m.transitioned()
}

// Back handles user back navigation. In Arcade a running round ends through
// the final score display; otherwise the machine returns to Menu.
func (m *Machine) Back() {
	switch m.mode {
	case model.ModeMenu:
		return
	case model.ModeArcade:
		if m.session != nil && m.session.Running() {
			m.logger.Info(m.ctx, "arcade round ended early", logger.String("session", m.session.ID))
			m.finish()
			return
		}
	}
	m.ToMenu()
}

// Capture handles a capture request from touch, HTTP or the hardware button.
// It returns false when the request was ignored.
func (m *Machine) Capture() bool {
	if !m.captureAllowed() {
		return false
	}
	now := m.sched.Now()
	if !m.debounce.Accept(now) {
		return false
	}

	g := m.gen
	mode := m.mode
	m.phase = PhaseFrozen
	if mode == model.ModeArcade {
		m.session.Freeze(now)
	}
	m.logger.Debug(m.ctx, "capture requested", logger.String("mode", mode.String()))
	m.identifier.Identify(m.ctx, mode, func(res model.Result, err error) {
		m.onResult(g, mode, res, err)
	})
	return true
}

func (m *Machine) captureAllowed() bool {
	if m.phase != PhaseLive {
		return false
	}
	switch m.mode {
	case model.ModeExplore:
		return true
	case model.ModeArcade:
		return m.session != nil && m.session.Running() && !m.session.Expired(m.sched.Now())
	default:
		return false
	}
}

func (m *Machine) onResult(g uint64, mode model.Mode, res model.Result, err error) {
	if g != m.gen || m.phase != PhaseFrozen {
		metrics.RecordStaleTask()
		return
	}
	if err != nil {
		m.logger.Error(m.ctx, "capture failed", logger.String("mode", mode.String()), logger.Error(err))
		m.resume(g)
		return
	}
	if res.Frame == nil {
		m.resume(g)
		return
	}

	overlay := model.Overlay{}
	if mode == model.ModeArcade {
		scored := m.decider.Scores(res.Label, res.Confidence)
		if scored && m.session.Record(res.Label) {
			metrics.UpdateArcadeScore(m.session.Score())
			m.logger.Info(m.ctx, "new bird collected",
				logger.String("label", res.Label),
				logger.Int("score", m.session.Score()),
			)
		}
		overlay.Headline = NoBirdText
		if scored {
			overlay.Headline = IdentifiedText(res.Label, res.Confidence)
		}
		overlay.Status = CountdownText(m.session.RemainingSeconds(m.sched.Now()), m.session.Score())
	} else {
		overlay.Headline = resultText(res)
	}

	m.last = &model.Result{Label: res.Label, Confidence: res.Confidence}
	m.display.ShowFrame(res.Frame, overlay)
	m.resumeAt = m.sched.Now().Add(m.displayFor)
	m.sched.After(m.displayFor, func() { m.resume(g) })
}

// resume clears a freeze. In Arcade the paused time is added back to the
// round.
func (m *Machine) resume(g uint64) {
	if g != m.gen {
		metrics.RecordStaleTask()
		return
	}
	if m.phase != PhaseFrozen {
		return
	}
	if m.session != nil {
		m.session.Resume(m.sched.Now())
	}
	m.phase = PhaseLive
	m.resumeAt = time.Time{}
}

func (m *Machine) refreshTick(g uint64) {
	if g != m.gen {
		metrics.RecordStaleTask()
		return
	}
	if m.phase == PhaseLive {
		switch m.mode {
		case model.ModeExplore:
			if f, ok := m.frames.Snapshot(); ok {
				m.display.ShowFrame(&f, model.Overlay{})
			}
		case model.ModeArcade:
			now := m.sched.Now()
			if m.session.Expired(now) {
				m.finish()
				return
			}
			if f, ok := m.frames.Snapshot(); ok {
				m.display.ShowFrame(&f, model.Overlay{
					Status: CountdownText(m.session.RemainingSeconds(now), m.session.Score()),
				})
			}
		}
	}
	m.sched.After(m.refresh, func() { m.refreshTick(g) })
}

func (m *Machine) pollTick(g uint64) {
	if g != m.gen {
		metrics.RecordStaleTask()
		return
	}
	if m.trigger.Pressed() {
		m.Capture()
	}
	if g == m.gen {
		m.sched.After(m.poll, func() { m.pollTick(g) })
	}
}

// finish ends the arcade round and holds the final score before returning
// to Menu.
func (m *Machine) finish() {
	now := m.sched.Now()
	s := m.session
	s.Stop(now)
	m.gen++
	m.phase = PhaseFinal
	m.resumeAt = now.Add(m.finalFor)

	metrics.RecordArcadeFinalScore(s.Score())
	m.logger.Info(m.ctx, "arcade round finished",
		logger.String("session", s.ID),
		logger.Int("score", s.Score()),
	)
	if m.sessions != nil {
		m.sessions.SessionFinished(m.ctx, s)
	}
	var frame *model.Frame
	if f, ok := m.frames.Snapshot(); ok {
		frame = &f
	}
	m.display.ShowFrame(frame, model.Overlay{Headline: FinalText(s.Score())})

	g := m.gen
	m.sched.After(m.finalFor, func() {
		if g != m.gen {
			metrics.RecordStaleTask()
			return
		}
		m.ToMenu()
	})
}

func (m *Machine) transitioned() {
	metrics.UpdateCurrentMode(int(m.mode))
	metrics.RecordModeTransition(m.mode.String())
	m.logger.Info(m.ctx, "mode changed",
		logger.String("mode", m.mode.String()),
		logger.Uint64("generation", m.gen),
	)
}
