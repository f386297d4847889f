package display

import "github.com/okian/bainoculars/pkg/logger"

// Option configures an MJPEG display.
type Option func(*MJPEG)

// WithSize sets the output resolution. Frames of another size are scaled.
func WithSize(width, height int) Option {
	return func(m *MJPEG) {
		if width > 0 && height > 0 {
			m.width, m.height = width, height
		}
	}
}

// WithQuality sets the JPEG quality (1-100).
func WithQuality(q int) Option {
	return func(m *MJPEG) {
		if q >= 1 && q <= 100 {
			m.quality = q
		}
	}
}

// WithTitle sets the heading drawn on the menu screen.
func WithTitle(title string) Option {
	return func(m *MJPEG) { m.title = title }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *MJPEG) {
		if l != nil {
			m.logger = l
		}
	}
}
