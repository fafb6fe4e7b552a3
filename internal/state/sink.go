package state

import (
	"errors"
	"sync"

	"firmware-manager/internal/view"
)

var (
	// ErrSinkClosed is returned when sending on a closed outbox.
	ErrSinkClosed = errors.New("state: sink closed")

	// ErrSinkFull is returned when an outbox has no room left.
	ErrSinkFull = errors.New("state: sink full")

	// ErrStopped is returned when posting to a loop that has stopped.
	ErrStopped = errors.New("state: loop stopped")
)

// UISink receives outbound events for the presentation layer.
type UISink interface {
	Send(view.Event) error
}

// WorkerSink receives requests for the worker.
type WorkerSink interface {
	Send(Request) error
}

// Outbox is a buffered one-way channel whose sends never block. It
// satisfies UISink or WorkerSink depending on T.
type Outbox[T any] struct {
	ch chan T

	mu     sync.RWMutex
	closed bool
}

// NewOutbox returns an outbox buffering up to size values.
func NewOutbox[T any](size int) *Outbox[T] {
	return &Outbox[T]{ch: make(chan T, size)}
}

// Send queues v or reports why it could not.
func (o *Outbox[T]) Send(v T) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrSinkClosed
	}
	select {
	case o.ch <- v:
		return nil
	default:
		return ErrSinkFull
	}
}

// C returns the receiving side.
func (o *Outbox[T]) C() <-chan T {
	return o.ch
}

// Close stops accepting values. Values already queued stay readable.
func (o *Outbox[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.ch)
	}
}
