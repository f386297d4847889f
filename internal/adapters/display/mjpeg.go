// Package display renders kiosk screens into JPEG frames and broadcasts them
// as an MJPEG stream.
package display

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"sync/atomic"

	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/pkg/logger"
	"github.com/okian/bainoculars/pkg/metrics"
)

const (
	defaultWidth   = 640
	defaultHeight  = 480
	defaultQuality = 80
	defaultTitle   = "bAInoculars"
)

// MJPEG keeps the latest rendered screen and fans it out to stream clients.
type MJPEG struct {
	width   int
	height  int
	quality int
	title   string
	logger  logger.Logger

	mu      sync.RWMutex
	latest  []byte
	version uint64
	clients map[chan []byte]struct{}

	failures atomic.Uint64
}

// New creates an MJPEG display.
func New(opts ...Option) *MJPEG {
	m := &MJPEG{
		width:   defaultWidth,
		height:  defaultHeight,
		quality: defaultQuality,
		title:   defaultTitle,
		logger:  logger.Get().Named("display"),
		clients: make(map[chan []byte]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ShowMenu renders the mode selection screen.
func (m *MJPEG) ShowMenu() {
	img := canvas(nil, m.width, m.height, menuColor)
	mid := m.height / 2
	centered(img, m.title, mid-2*lineHeight)
	centered(img, "[ Explore ]     [ Arcade ]", mid)
	centered(img, "POST /mode/explore  or  POST /mode/arcade", mid+2*lineHeight)
	m.publish(img)
}

// ShowFrame renders f with the overlay: headline top-left, status below it.
// A nil frame renders the overlay on a blank screen.
func (m *MJPEG) ShowFrame(f *model.Frame, overlay model.Overlay) {
	img := canvas(nil, m.width, m.height, menuColor)
	if f != nil && !f.Empty() {
		img = canvas(f.Image(), m.width, m.height, menuColor)
	}
	y := margin + lineHeight
	if overlay.Headline != "" {
		outlined(img, overlay.Headline, margin, y)
		y += lineHeight
	}
	if overlay.Status != "" {
		outlined(img, overlay.Status, margin, y)
	}
	m.publish(img)
}

func (m *MJPEG) publish(img *image.RGBA) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: m.quality}); err != nil {
		if m.failures.Add(1) == 1 {
			m.logger.Error(context.Background(), "failed to encode screen", logger.Error(fmt.Errorf("%w: %w", ErrEncode, err)))
		}
		metrics.RecordError("display", "encode")
		return
	}
	data := buf.Bytes()

	m.mu.Lock()
	m.latest = data
	m.version++
	for ch := range m.clients {
		// Slow clients skip frames instead of blocking the loop.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- data:
		default:
		}
	}
	m.mu.Unlock()
	metrics.RecordFrameRendered()
}

// Latest returns the most recently rendered JPEG and its version.
func (m *MJPEG) Latest() ([]byte, uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return nil, 0, ErrNoFrame
	}
	return m.latest, m.version, nil
}

// Clients returns the number of connected stream clients.
func (m *MJPEG) Clients() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *MJPEG) subscribe() chan []byte {
	ch := make(chan []byte, 1)
	m.mu.Lock()
	m.clients[ch] = struct{}{}
	if m.latest != nil {
		ch <- m.latest
	}
	n := len(m.clients)
	m.mu.Unlock()
	metrics.UpdateStreamClients(n)
	return ch
}

func (m *MJPEG) unsubscribe(ch chan []byte) {
	m.mu.Lock()
	delete(m.clients, ch)
	n := len(m.clients)
	m.mu.Unlock()
	metrics.UpdateStreamClients(n)
}
