// Package config defines kiosk configuration and its loading hooks.
//
// Conventions:
//   - Defaults live in New; Load layers a YAML file and environment on top.
//   - Durations are configured in milliseconds (seconds for the arcade round)
//     and exposed as time.Duration through accessor methods.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the HTTP listen address of the control API and display stream.
	Addr string `koanf:"addr"`

	// CameraBackend selects the frame source: "gstreamer" or "pattern".
	CameraBackend string `koanf:"camera_backend"`
	// CameraDevice is the V4L2 device used by the gstreamer backend.
	CameraDevice string `koanf:"camera_device"`
	FrameWidth   int    `koanf:"frame_width"`
	FrameHeight  int    `koanf:"frame_height"`

	// AcquisitionIntervalMS is the acquisition loop period (~30 fps).
	AcquisitionIntervalMS int `koanf:"acquisition_interval_ms"`
	// RefreshIntervalMS is the live preview and countdown cadence.
	RefreshIntervalMS int `koanf:"refresh_interval_ms"`
	// PollIntervalMS is the input trigger polling cadence.
	PollIntervalMS int `koanf:"poll_interval_ms"`
	// DebounceMS is the refractory period after an accepted capture request.
	DebounceMS int `koanf:"debounce_ms"`
	// DisplayDurationMS is how long an annotated result stays on screen.
	DisplayDurationMS int `koanf:"display_duration_ms"`
	// FinalDisplayMS is how long the arcade final score stays on screen.
	FinalDisplayMS int `koanf:"final_display_ms"`
	// ArcadeDurationS is the arcade round length.
	ArcadeDurationS int `koanf:"arcade_duration_s"`

	// ConfidenceThreshold is the minimum confidence (0-100) for an accepted label.
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`
	// ExcludedLabels are case-insensitive substrings that force "Unknown".
	ExcludedLabels []string `koanf:"excluded_labels"`

	// CaptureDir is the root directory; captures go to CaptureDir/<mode>/.
	CaptureDir  string `koanf:"capture_dir"`
	JPEGQuality int    `koanf:"jpeg_quality"`

	// ClassifierBackend selects "huggingface" or "simulated".
	ClassifierBackend   string `koanf:"classifier_backend"`
	ClassifierModel     string `koanf:"classifier_model"`
	ClassifierEndpoint  string `koanf:"classifier_endpoint"`
	ClassifierToken     string `koanf:"classifier_token"`
	ClassifierTimeoutMS int    `koanf:"classifier_timeout_ms"`

	// GPIOEnabled turns on the hardware capture button.
	GPIOEnabled bool   `koanf:"gpio_enabled"`
	GPIOPin     string `koanf:"gpio_pin"`

	// CommandQueueSize bounds pending UI commands.
	CommandQueueSize int `koanf:"command_queue_size"`
	// LeaderboardSize caps the arcade high-score table.
	LeaderboardSize int `koanf:"leaderboard_size"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":8080",
		CameraBackend:         "gstreamer",
		CameraDevice:          "/dev/video0",
		FrameWidth:            640,
		FrameHeight:           480,
		AcquisitionIntervalMS: 33,
		RefreshIntervalMS:     33,
		PollIntervalMS:        20,
		DebounceMS:            300,
		DisplayDurationMS:     2000,
		FinalDisplayMS:        2000,
		ArcadeDurationS:       60,
		ConfidenceThreshold:   50,
		ExcludedLabels:        []string{"looney"},
		CaptureDir:            "captures",
		JPEGQuality:           90,
		ClassifierBackend:     "huggingface",
		ClassifierModel:       "chriamue/bird-species-classifier",
		ClassifierEndpoint:    "https://api-inference.huggingface.co/models",
		ClassifierTimeoutMS:   15000,
		GPIOEnabled:           false,
		GPIOPin:               "GPIO18",
		CommandQueueSize:      64,
		LeaderboardSize:       10,
	}
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// AcquisitionInterval returns the acquisition loop period.
func (c *Config) AcquisitionInterval() time.Duration { return ms(c.AcquisitionIntervalMS) }

// RefreshInterval returns the live preview cadence.
func (c *Config) RefreshInterval() time.Duration { return ms(c.RefreshIntervalMS) }

// PollInterval returns the trigger polling cadence.
func (c *Config) PollInterval() time.Duration { return ms(c.PollIntervalMS) }

// Debounce returns the capture refractory period.
func (c *Config) Debounce() time.Duration { return ms(c.DebounceMS) }

// DisplayDuration returns how long a result is shown.
func (c *Config) DisplayDuration() time.Duration { return ms(c.DisplayDurationMS) }

// FinalDisplay returns how long the final arcade score is shown.
func (c *Config) FinalDisplay() time.Duration { return ms(c.FinalDisplayMS) }

// ArcadeDuration returns the arcade round length.
func (c *Config) ArcadeDuration() time.Duration {
	return time.Duration(c.ArcadeDurationS) * time.Second
}

// ClassifierTimeout returns the per-request classifier timeout.
func (c *Config) ClassifierTimeout() time.Duration { return ms(c.ClassifierTimeoutMS) }
