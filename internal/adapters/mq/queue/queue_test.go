package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/bainoculars/internal/domain/model"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, model.Command{Kind: model.CommandEnter, Mode: model.ModeArcade}); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}

	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	cmd := <-q.Dequeue()
	if cmd.Kind != model.CommandEnter || cmd.Mode != model.ModeArcade {
		t.Errorf("unexpected command %+v", cmd)
	}

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := q.Enqueue(ctx, model.Command{Kind: model.CommandCapture}); err != nil {
			t.Fatalf("expected enqueue to succeed, got %v", err)
		}
	}

	if err := q.Enqueue(ctx, model.Command{Kind: model.CommandCapture}); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}

	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	_ = q.Enqueue(ctx, model.Command{Kind: model.CommandBack})
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}

	if err := q.Enqueue(ctx, model.Command{Kind: model.CommandBack}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Pending commands drain before the channel reports closed.
	if _, ok := <-q.Dequeue(); !ok {
		t.Error("expected pending command before close")
	}
	if _, ok := <-q.Dequeue(); ok {
		t.Error("expected closed channel")
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, model.Command{Kind: model.CommandCapture}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := q.Enqueue(ctx, model.Command{Kind: model.CommandCapture}); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if l := q.Len(); l != 500 {
		t.Errorf("expected 500 queued commands, got %d", l)
	}
}
