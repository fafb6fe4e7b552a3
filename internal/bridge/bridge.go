// Package bridge connects the state loop to an out-of-process firmware
// worker. Requests are published as JSON envelopes and worker reports are
// decoded back into state events.
package bridge

import (
	"context"

	"github.com/rs/zerolog/log"

	"firmware-manager/internal/state"
)

// Transport is the pub/sub connection to the worker.
type Transport interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler MessageHandler) error
}

// Poster accepts events for the state loop.
type Poster interface {
	Post(ev state.Event) error
}

// Topics names the request and event topics under a prefix.
type Topics struct {
	Prefix string
}

func (t Topics) Requests() string { return t.Prefix + "/requests" }
func (t Topics) Events() string   { return t.Prefix + "/events" }

// Bridge forwards worker requests to a Transport and worker events to the
// state loop.
type Bridge struct {
	transport Transport
	topics    Topics
	loop      Poster
}

// New returns a bridge over transport.
func New(transport Transport, topics Topics, loop Poster) *Bridge {
	return &Bridge{transport: transport, topics: topics, loop: loop}
}

// Run subscribes to worker events, then publishes requests until ctx is
// done or requests is closed.
func (b *Bridge) Run(ctx context.Context, requests <-chan state.Request) error {
	if err := b.transport.Subscribe(b.topics.Events(), b.handleEvent); err != nil {
		return err
	}
	log.Info().Str("events", b.topics.Events()).Str("requests", b.topics.Requests()).Msg("Worker bridge running")

	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-requests:
			if !ok {
				return nil
			}
			b.publish(r)
		}
	}
}

func (b *Bridge) publish(r state.Request) {
	payload, err := EncodeRequest(r)
	if err != nil {
		log.Error().Err(err).Type("request", r).Msg("Failed to encode worker request")
		return
	}
	if err := b.transport.Publish(b.topics.Requests(), payload); err != nil {
		log.Error().Err(err).Type("request", r).Msg("Failed to publish worker request")
		return
	}
	log.Debug().Type("request", r).Msg("Worker request published")
}

func (b *Bridge) handleEvent(_ string, payload []byte) error {
	ev, err := DecodeEvent(payload)
	if err != nil {
		return err
	}
	return b.loop.Post(ev)
}

// Discard drains requests when no worker transport is configured.
func Discard(ctx context.Context, requests <-chan state.Request) error {
	log.Warn().Msg("No worker transport configured, worker requests are dropped")
	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-requests:
			if !ok {
				return nil
			}
			log.Warn().Type("request", r).Msg("Dropping worker request")
		}
	}
}
