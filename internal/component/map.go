// Package component stores optional per-entity data, one sparse map per
// kind of component.
package component

import "firmware-manager/internal/entity"

// Map is a sparse mapping from entity to a component value. Lookups on an
// entity without a value report absence; they never fail.
type Map[T any] struct {
	items map[entity.Entity]T
}

// NewMap returns an empty map.
func NewMap[T any]() *Map[T] {
	return &Map[T]{items: make(map[entity.Entity]T)}
}

// Insert sets the value for e, replacing any previous value.
func (m *Map[T]) Insert(e entity.Entity, v T) {
	m.items[e] = v
}

// Get returns the value for e and whether one was present.
func (m *Map[T]) Get(e entity.Entity) (T, bool) {
	v, ok := m.items[e]
	return v, ok
}

// Has reports whether e has a value.
func (m *Map[T]) Has(e entity.Entity) bool {
	_, ok := m.items[e]
	return ok
}

// Remove drops the value for e and returns it.
func (m *Map[T]) Remove(e entity.Entity) (T, bool) {
	v, ok := m.items[e]
	if ok {
		delete(m.items, e)
	}
	return v, ok
}

// Len returns the number of entities holding a value.
func (m *Map[T]) Len() int {
	return len(m.items)
}

// Clear removes every value.
func (m *Map[T]) Clear() {
	clear(m.items)
}

// Each calls fn for every stored value in unspecified order.
func (m *Map[T]) Each(fn func(entity.Entity, T)) {
	for e, v := range m.items {
		fn(e, v)
	}
}
