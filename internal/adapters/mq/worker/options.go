package worker

import (
	"time"

	"github.com/okian/bainoculars/pkg/logger"
)

// Option applies a configuration option to the CaptureWorker.
type Option func(*CaptureWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *CaptureWorker) {
		if name != "" {
			w.name = name
			w.logger = logger.Get().Named(name)
		}
	}
}

// WithJobTimeout bounds a single capture, classification included.
func WithJobTimeout(d time.Duration) Option {
	return func(w *CaptureWorker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(lg logger.Logger) Option {
	return func(w *CaptureWorker) {
		if lg != nil {
			w.logger = lg
		}
	}
}
