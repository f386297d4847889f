// Package queue carries user commands from the control surfaces to the kiosk
// event loop.
//
// Enqueue never blocks: HTTP handlers and the touch surface get an immediate
// answer when the loop is behind.
package queue

import (
	"context"
	"sync"

	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/pkg/metrics"
)

const defaultCapacity = 64

// Command is the payload type flowing through the queue.
type Command = model.Command

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a command. It returns ErrFull or ErrClosed when the
	// command was not accepted.
	Enqueue(ctx context.Context, c Command) error

	// Dequeue returns the channel commands arrive on. It is closed by Close.
	Dequeue() <-chan Command

	// Len returns the current number of queued commands.
	Len() int

	// Close stops accepting commands and closes the dequeue channel.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	commands chan Command
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.commands = make(chan Command, q.capacity)

	metrics.UpdateCommandQueueCapacity(q.capacity)
	metrics.UpdateCommandQueueSize(0)
	return q
}

// Enqueue adds a command to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c Command) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordCommandRejected("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordCommandRejected("context_cancelled")
		return err
	}

	select {
	case q.commands <- c:
		metrics.UpdateCommandQueueSize(len(q.commands))
		return nil
	default:
		metrics.RecordCommandRejected("queue_full")
		return ErrFull
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue() <-chan Command {
	return q.commands
}

// Len returns the current number of queued commands.
func (q *InMemoryQueue) Len() int {
	n := len(q.commands)
	metrics.UpdateCommandQueueSize(n)
	return n
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.commands)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
