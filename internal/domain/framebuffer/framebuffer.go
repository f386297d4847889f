// Package framebuffer holds the most recent camera frame.
//
// One goroutine publishes, any number read. Both directions copy, so a reader
// never observes a frame the acquisition loop is still writing and never
// shares backing memory with another reader.
package framebuffer

import (
	"sync"

	"github.com/okian/bainoculars/internal/domain/model"
)

// Buffer is a single-slot frame cell. The zero value is empty and ready to use.
type Buffer struct {
	mu    sync.RWMutex
	frame model.Frame
	set   bool
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Publish replaces the held frame with a copy of f.
func (b *Buffer) Publish(f model.Frame) {
	if f.Empty() {
		return
	}
	// reuse the backing array when the size matches
	b.mu.Lock()
	if cap(b.frame.Data) >= len(f.Data) {
		data := b.frame.Data[:len(f.Data)]
		copy(data, f.Data)
		b.frame = f
		b.frame.Data = data
	} else {
		b.frame = f.Clone()
	}
	b.set = true
	b.mu.Unlock()
}

// Snapshot returns an independent copy of the latest frame, or false when
// nothing has been published yet.
func (b *Buffer) Snapshot() (model.Frame, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.set {
		return model.Frame{}, false
	}
	return b.frame.Clone(), true
}

// Seq returns the sequence number of the held frame, 0 when empty.
func (b *Buffer) Seq() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frame.Seq
}
