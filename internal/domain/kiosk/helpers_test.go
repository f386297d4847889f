package kiosk_test

import (
	"context"
	"sort"
	"time"

	"github.com/okian/bainoculars/internal/domain/arcade"
	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// virtualScheduler runs callbacks in virtual time, in due order.
type virtualScheduler struct {
	now   time.Time
	seq   int
	tasks []vtask
}

type vtask struct {
	at  time.Time
	seq int
	fn  func()
}

func newVirtualScheduler(start time.Time) *virtualScheduler {
	return &virtualScheduler{now: start}
}

func (s *virtualScheduler) Now() time.Time { return s.now }

func (s *virtualScheduler) After(d time.Duration, fn func()) {
	s.seq++
	s.tasks = append(s.tasks, vtask{at: s.now.Add(d), seq: s.seq, fn: fn})
}

// Advance runs every task due within d, moving the clock to each task's time.
func (s *virtualScheduler) Advance(d time.Duration) {
	target := s.now.Add(d)
	for {
		sort.SliceStable(s.tasks, func(i, j int) bool {
			if s.tasks[i].at.Equal(s.tasks[j].at) {
				return s.tasks[i].seq < s.tasks[j].seq
			}
			return s.tasks[i].at.Before(s.tasks[j].at)
		})
		if len(s.tasks) == 0 || s.tasks[0].at.After(target) {
			break
		}
		t := s.tasks[0]
		s.tasks = s.tasks[1:]
		s.now = t.at
		t.fn()
	}
	s.now = target
}

type staticFrames struct {
	frame *model.Frame
}

func (f *staticFrames) Snapshot() (model.Frame, bool) {
	if f.frame == nil {
		return model.Frame{}, false
	}
	return f.frame.Clone(), true
}

type shown struct {
	menu    bool
	frame   bool
	overlay model.Overlay
}

type recordingDisplay struct {
	calls []shown
}

func (d *recordingDisplay) ShowMenu() { d.calls = append(d.calls, shown{menu: true}) }

func (d *recordingDisplay) ShowFrame(f *model.Frame, o model.Overlay) {
	d.calls = append(d.calls, shown{frame: f != nil, overlay: o})
}

func (d *recordingDisplay) headlines(text string) int {
	n := 0
	for _, c := range d.calls {
		if c.overlay.Headline == text {
			n++
		}
	}
	return n
}

func (d *recordingDisplay) last() shown {
	if len(d.calls) == 0 {
		return shown{}
	}
	return d.calls[len(d.calls)-1]
}

// scriptedIdentifier answers captures with queued results. When hold is set
// the callback is kept for the test to deliver.
type scriptedIdentifier struct {
	results []model.Result
	err     error
	calls   int
	hold    bool
	pending func(model.Result, error)
}

func (s *scriptedIdentifier) Identify(_ context.Context, _ model.Mode, done func(model.Result, error)) {
	s.calls++
	res := model.Result{Label: model.UnknownLabel}
	if len(s.results) > 0 {
		res = s.results[0]
		s.results = s.results[1:]
	}
	if s.hold {
		s.pending = func(model.Result, error) { done(res, s.err) }
		return
	}
	done(res, s.err)
}

func (s *scriptedIdentifier) deliver() {
	if s.pending != nil {
		p := s.pending
		s.pending = nil
		p(model.Result{}, nil)
	}
}

type button struct{ down bool }

func (b *button) Pressed() bool { return b.down }

type sessionLog struct{ scores []int }

func (l *sessionLog) SessionFinished(_ context.Context, s *arcade.Session) {
	l.scores = append(l.scores, s.Score())
}

func frameResult(label string, conf float64) model.Result {
	f := model.Frame{Data: make([]byte, 12), Width: 2, Height: 2}
	return model.Result{Label: label, Confidence: conf, Frame: &f}
}
