package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

const defaultQueueSize = 256

type job struct {
	kind    string
	deliver func(Sink) error
}

// Hub queues outcomes and delivers them to every sink from its own
// goroutine. When the queue is full the outcome is dropped and logged.
type Hub struct {
	sinks []Sink
	queue chan job

	mu     sync.Mutex
	closed bool
}

// NewHub creates a hub delivering to sinks.
func NewHub(sinks ...Sink) *Hub {
	return &Hub{
		sinks: sinks,
		queue: make(chan job, defaultQueueSize),
	}
}

func (h *Hub) Updated(u Updated) {
	h.enqueue(job{kind: "updated", deliver: func(s Sink) error { return s.Updated(u) }})
}

func (h *Hub) Failed(f Failed) {
	h.enqueue(job{kind: "failed", deliver: func(s Sink) error { return s.Failed(f) }})
}

func (h *Hub) Progressed(p Progress) {
	h.enqueue(job{kind: "progress", deliver: func(s Sink) error { return s.Progressed(p) }})
}

func (h *Hub) enqueue(j job) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	select {
	case h.queue <- j:
	default:
		log.Warn().Str("kind", j.kind).Msg("Notification queue full, dropping outcome")
	}
}

// Run delivers queued outcomes until ctx is done, then drains what is left.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.close()
			for j := range h.queue {
				h.deliver(j)
			}
			return nil
		case j := <-h.queue:
			h.deliver(j)
		}
	}
}

func (h *Hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.queue)
	}
}

func (h *Hub) deliver(j job) {
	for _, s := range h.sinks {
		if err := j.deliver(s); err != nil {
			log.Error().
				Err(err).
				Str("sink", s.Name()).
				Str("kind", j.kind).
				Msg("Failed to deliver update outcome")
		}
	}
}
