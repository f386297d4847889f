package model

import (
	"fmt"
	"strings"
	"time"
)

// UnknownLabel is reported when no prediction passes the decision policy.
const UnknownLabel = "Unknown"

// Prediction is one ranked classifier output.
type Prediction struct {
	Label      string  `json:"label" yaml:"label"`
	Confidence float64 `json:"confidence" yaml:"confidence"` // percent, 0-100
}

// Result is the outcome of a capture-and-identify run.
type Result struct {
	Label      string
	Confidence float64
	Frame      *Frame // nil when no frame was available
}

// Identified reports whether r carries an accepted label.
func (r Result) Identified() bool {
	return r.Label != "" && r.Label != UnknownLabel
}

// CaptureRecord describes a capture persisted to disk.
type CaptureRecord struct {
	ID         string    `json:"id" yaml:"id"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	Mode       Mode      `json:"mode" yaml:"mode"`
	Path       string    `json:"path" yaml:"path"`
	Label      string    `json:"label" yaml:"label"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
}

// Mode is the active kiosk mode.
type Mode int

const (
	ModeMenu Mode = iota
	ModeExplore
	ModeArcade
)

func (m Mode) String() string {
	switch m {
	case ModeMenu:
		return "menu"
	case ModeExplore:
		return "explore"
	case ModeArcade:
		return "arcade"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "menu":
		return ModeMenu, nil
	case "explore":
		return ModeExplore, nil
	case "arcade":
		return ModeArcade, nil
	}
	return ModeMenu, fmt.Errorf("unknown mode %q", s)
}

// CommandKind enumerates user intents delivered to the kiosk loop.
type CommandKind int

const (
	CommandEnter   CommandKind = iota // enter Command.Mode from the menu
	CommandBack                       // return to the menu, ending an arcade round early
	CommandCapture                    // touch or button capture request
	CommandQuit                       // shut the kiosk down
)

func (k CommandKind) String() string {
	switch k {
	case CommandEnter:
		return "enter"
	case CommandBack:
		return "back"
	case CommandCapture:
		return "capture"
	case CommandQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Command is a single user intent.
type Command struct {
	Kind CommandKind
	Mode Mode
}

// Overlay is text drawn on top of a displayed frame.
type Overlay struct {
	Headline string
	Status   string
}
