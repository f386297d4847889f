package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "BAINOC_"
	envConfigFile = "BAINOC_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if BAINOC_CONFIG is set
//  3. env (prefix BAINOC_); list values are comma separated
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// BAINOC_CAPTURE_DIR -> capture_dir (flat keys, underscores preserved).
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if key == "excluded_labels" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitList(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks values the kiosk cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.CaptureDir == "":
		return fmt.Errorf("%w: capture_dir must not be empty", ErrInvalidConfig)
	case c.FrameWidth <= 0 || c.FrameHeight <= 0:
		return fmt.Errorf("%w: frame size must be positive", ErrInvalidConfig)
	case c.AcquisitionIntervalMS <= 0 || c.RefreshIntervalMS <= 0 || c.PollIntervalMS <= 0:
		return fmt.Errorf("%w: intervals must be positive", ErrInvalidConfig)
	case c.ArcadeDurationS <= 0:
		return fmt.Errorf("%w: arcade_duration_s must be positive", ErrInvalidConfig)
	case c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 100:
		return fmt.Errorf("%w: confidence_threshold must be within [0,100]", ErrInvalidConfig)
	case c.JPEGQuality < 1 || c.JPEGQuality > 100:
		return fmt.Errorf("%w: jpeg_quality must be within [1,100]", ErrInvalidConfig)
	}
	switch c.CameraBackend {
	case "gstreamer", "pattern":
	default:
		return fmt.Errorf("%w: unknown camera_backend %q", ErrInvalidConfig, c.CameraBackend)
	}
	switch c.ClassifierBackend {
	case "huggingface", "simulated":
	default:
		return fmt.Errorf("%w: unknown classifier_backend %q", ErrInvalidConfig, c.ClassifierBackend)
	}
	return nil
}
