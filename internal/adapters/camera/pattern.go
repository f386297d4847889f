// Package camera provides frame sources for the acquisition loop.
//
// The V4L2 camera lives in the gstcam subpackage because it needs cgo and the
// GStreamer runtime; Pattern is a pure-Go test card for kiosks without a
// camera, demos and tests.
package camera

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/bainoculars/internal/domain/model"
)

// Pattern renders a moving colour-bar test card.
type Pattern struct {
	width  int
	height int
	// failEvery makes every n-th read fail, emulating a warming-up device.
	failEvery uint64

	reads  atomic.Uint64
	mu     sync.Mutex
	offset int
	closed atomic.Bool
}

// PatternOption configures Pattern.
type PatternOption func(*Pattern)

// WithFailEvery makes every n-th read report no frame. Zero disables.
func WithFailEvery(n uint64) PatternOption {
	return func(p *Pattern) { p.failEvery = n }
}

// NewPattern creates a test card of the given size.
func NewPattern(width, height int, opts ...PatternOption) *Pattern {
	p := &Pattern{width: width, height: height}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var bars = [][3]byte{
	{235, 235, 235}, {235, 235, 16}, {16, 235, 235}, {16, 235, 16},
	{235, 16, 235}, {235, 16, 16}, {16, 16, 235}, {16, 16, 16},
}

// TryRead returns the next test card frame.
func (p *Pattern) TryRead() (model.Frame, bool) {
	if p.closed.Load() || p.width <= 0 || p.height <= 0 {
		return model.Frame{}, false
	}
	n := p.reads.Add(1)
	if p.failEvery > 0 && n%p.failEvery == 0 {
		return model.Frame{}, false
	}

	p.mu.Lock()
	p.offset = (p.offset + 2) % p.width
	offset := p.offset
	p.mu.Unlock()

	data := make([]byte, p.width*p.height*model.BytesPerPixel)
	barWidth := p.width/len(bars) + 1
	for y := 0; y < p.height; y++ {
		row := y * p.width * model.BytesPerPixel
		for x := 0; x < p.width; x++ {
			c := bars[((x+offset)%p.width)/barWidth]
			i := row + x*model.BytesPerPixel
			data[i], data[i+1], data[i+2] = c[0], c[1], c[2]
		}
	}
	return model.Frame{Data: data, Width: p.width, Height: p.height, Timestamp: time.Now()}, true
}

// Close stops the source; further reads fail.
func (p *Pattern) Close() error {
	p.closed.Store(true)
	return nil
}
