// Package trigger adapts physical capture buttons to the kiosk's polled
// Trigger port.
package trigger

import (
	"context"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/okian/bainoculars/pkg/logger"
)

// DefaultPin is the BCM pin the capture button is wired to.
const DefaultPin = "GPIO18"

// Button is an active-low push button with the internal pull-up enabled.
type Button struct {
	pin    gpio.PinIO
	mu     sync.Mutex
	closed bool
}

// Open initialises the host drivers and configures pin as an input.
func Open(ctx context.Context, name string) (*Button, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHostInit, err)
	}
	return OpenPin(ctx, name)
}

// OpenPin configures an already-registered pin. Host drivers must be loaded.
func OpenPin(ctx context.Context, name string) (*Button, error) {
	if name == "" {
		name = DefaultPin
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPinNotFound, name)
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPinSetup, name, err)
	}
	logger.Get().Named("trigger").Info(ctx, "capture button ready", logger.String("pin", name))
	return &Button{pin: p}, nil
}

// Pressed reports whether the button is held down.
func (b *Button) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	return b.pin.Read() == gpio.Low
}

// Close releases the pin.
func (b *Button) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pin.Halt()
}
