package component

import (
	"firmware-manager/internal/entity"
	"firmware-manager/internal/firmware"
	"firmware-manager/internal/view"
)

// Phase is the position of an entity in the update lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConfirming
	PhaseUpdating
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseConfirming:
		return "confirming"
	case PhaseUpdating:
		return "updating"
	case PhaseCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// Progress tracks an in-flight firmware download.
type Progress struct {
	Current uint64
	Total   uint64
}

// Fraction returns the completed share in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	f := float64(p.Current) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// Store holds every component kind tracked for devices.
//
// Store is not safe for concurrent use; it is owned by the state loop.
type Store struct {
	// Info is the generic display metadata reported at discovery.
	Info *Map[firmware.Info]
	// Display is the on-screen representation of each device. Owned by
	// the presentation layer, referenced here.
	Display *Map[view.Widget]
	// Progress is present only while a download is active.
	Progress *Map[Progress]
	// Latest is the newest firmware version, present iff an update exists.
	Latest *Map[string]
	// Payload is the backend-specific data; at most one shape per entity.
	Payload *Map[firmware.Payload]
	// Phase is the update lifecycle position of upgradeable devices.
	Phase *Map[Phase]
	// Confirming holds the confirmation opened for an entity until the
	// user accepts or cancels it.
	Confirming *Map[view.Confirmation]
	// Hidden marks rows the presentation layer already hid on its own.
	Hidden *Map[bool]
}

// NewStore returns a store with every map allocated.
func NewStore() *Store {
	return &Store{
		Info:       NewMap[firmware.Info](),
		Display:    NewMap[view.Widget](),
		Progress:   NewMap[Progress](),
		Latest:     NewMap[string](),
		Payload:    NewMap[firmware.Payload](),
		Phase:      NewMap[Phase](),
		Confirming: NewMap[view.Confirmation](),
		Hidden:     NewMap[bool](),
	}
}

// Clear drops every component of every entity.
func (s *Store) Clear() {
	s.Info.Clear()
	s.Display.Clear()
	s.Progress.Clear()
	s.Latest.Clear()
	s.Payload.Clear()
	s.Phase.Clear()
	s.Confirming.Clear()
	s.Hidden.Clear()
}

// Entities returns every entity that has a display handle.
func (s *Store) Entities() []entity.Entity {
	out := make([]entity.Entity, 0, s.Display.Len())
	s.Display.Each(func(e entity.Entity, _ view.Widget) {
		out = append(out, e)
	})
	return out
}
