package kiosk

import (
	"context"
	"time"

	"github.com/okian/bainoculars/internal/domain/arcade"
	"github.com/okian/bainoculars/internal/domain/model"
)

// Scheduler runs deferred work on the kiosk's single event loop.
// Callbacks passed to After must be executed on that same loop.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func())
}

// Frames yields copies of the latest camera frame.
type Frames interface {
	Snapshot() (model.Frame, bool)
}

// Display renders kiosk screens.
type Display interface {
	ShowMenu()
	// ShowFrame renders f with overlay text. f may be nil.
	ShowFrame(f *model.Frame, overlay model.Overlay)
}

// Trigger is a polled capture button.
type Trigger interface {
	Pressed() bool
}

// Identifier runs the capture pipeline for mode and reports back through
// done, which must be invoked on the event loop.
type Identifier interface {
	Identify(ctx context.Context, mode model.Mode, done func(model.Result, error))
}

// SessionSink receives arcade rounds once they end.
type SessionSink interface {
	SessionFinished(ctx context.Context, s *arcade.Session)
}
