package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultQueueSize is the inbound event buffer of a Loop.
const DefaultQueueSize = 64

// Loop serializes every event touching a State onto one goroutine.
type Loop struct {
	state  *State
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// NewLoop attaches s to a new loop. Timers armed by s post back into it.
func NewLoop(s *State, size int) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	l := &Loop{state: s, events: make(chan Event, size), done: make(chan struct{})}
	s.post = func(ev Event) {
		if err := l.Post(ev); err != nil {
			log.Debug().Err(err).Type("event", ev).Msg("Dropped internal event")
		}
	}
	return l
}

// Post queues ev. It blocks while the queue is full and fails once the
// loop stopped. Safe for concurrent use.
func (l *Loop) Post(ev Event) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.events <- ev:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// TryPost queues ev without blocking.
func (l *Loop) TryPost(ev Event) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.events <- ev:
		return nil
	default:
		return ErrSinkFull
	}
}

// Run handles events in arrival order until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	log.Info().Msg("State loop started")
	for {
		select {
		case <-ctx.Done():
			l.stop()
			log.Info().Msg("State loop stopped")
			return nil
		case ev := <-l.events:
			l.handle(ev)
		}
	}
}

func (l *Loop) stop() {
	l.once.Do(func() { close(l.done) })
}

func (l *Loop) handle(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Err(fmt.Errorf("panic: %v", r)).
				Type("event", ev).
				Msg("State event handler panicked")
		}
	}()
	l.state.Handle(ev)
}
