// Package notify fans update outcomes out to the journal, webhooks and
// telemetry without blocking the state loop.
package notify

import (
	"time"

	"firmware-manager/internal/entity"
	"firmware-manager/internal/firmware"
)

// Updated records a firmware update the worker reported as successful.
type Updated struct {
	Entity  entity.Entity
	Name    string
	Backend firmware.Kind
	From    string
	To      string
	System  bool
	At      time.Time
}

// Failed records a failure the worker reported.
type Failed struct {
	Entity  entity.Entity
	Name    string
	Message string
	At      time.Time
}

// Progress records download progress of an update.
type Progress struct {
	Entity  entity.Entity
	Name    string
	Current uint64
	Total   uint64
	At      time.Time
}

// Observer receives update outcomes. Implementations must not block.
type Observer interface {
	Updated(Updated)
	Failed(Failed)
	Progressed(Progress)
}

// Sink is one destination behind a Hub. Calls happen on the hub goroutine.
type Sink interface {
	Name() string
	Updated(Updated) error
	Failed(Failed) error
	Progressed(Progress) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Updated(Updated)     {}
func (Nop) Failed(Failed)       {}
func (Nop) Progressed(Progress) {}
