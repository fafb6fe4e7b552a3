// Package entity issues the opaque identities that tie every tracked
// firmware device to its components.
package entity

import "strconv"

// Entity is an opaque handle for one tracked device. The zero value is
// never issued and means "no entity".
type Entity uint64

func (e Entity) String() string {
	return strconv.FormatUint(uint64(e), 10)
}

// Parse converts the textual form produced by String back into an Entity.
func Parse(s string) (Entity, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return Entity(n), true
}

// Registry allocates entities and tracks which ones are system devices.
// Identities come from a monotonic counter and are never recycled, so a
// freshly created entity can never inherit an old system tag.
//
// Registry is not safe for concurrent use; it is owned by the state loop.
type Registry struct {
	next   uint64
	system map[Entity]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{system: make(map[Entity]struct{})}
}

// Create allocates a new entity.
func (r *Registry) Create() Entity {
	r.next++
	return Entity(r.next)
}

// MarkSystem tags the entity as a system device. Marking twice is a no-op.
func (r *Registry) MarkSystem(e Entity) {
	r.system[e] = struct{}{}
}

// IsSystem reports whether the entity was tagged as a system device.
// Once true it stays true.
func (r *Registry) IsSystem(e Entity) bool {
	_, ok := r.system[e]
	return ok
}

// Len returns how many entities were issued.
func (r *Registry) Len() int {
	return int(r.next)
}
