package gopher

import (
	"iter"
	"sync/atomic"
)

// Menu is an ordered list of entities parsed out of a directory.
//
// The menu owns its entities: releasing it releases all of them, and only
// the first call to Release does anything.
type Menu struct {
	released atomic.Bool
	entities []Entity
}

func (m *Menu) append(ent Entity) {
	if len(m.entities) == cap(m.entities) {
		grown := make([]Entity, len(m.entities), cap(m.entities)+menuGrowth)
		copy(grown, m.entities)
		m.entities = grown
	}
	m.entities = append(m.entities, ent)
}

// Len returns the number of entities.
func (m *Menu) Len() int {
	return len(m.entities)
}

// At returns the entity at index i.
func (m *Menu) At(i int) *Entity {
	return &m.entities[i]
}

// Entities returns the entities in order. The slice aliases the menu.
func (m *Menu) Entities() []Entity {
	return m.entities
}

// All iterates over the entities in order.
func (m *Menu) All() iter.Seq2[int, *Entity] {
	return func(yield func(int, *Entity) bool) {
		for i := range m.entities {
			if !yield(i, &m.entities[i]) {
				return
			}
		}
	}
}

// Released reports whether Release was called.
func (m *Menu) Released() bool {
	return m.released.Load()
}

// Release releases every entity.
func (m *Menu) Release() {
	if !m.released.CompareAndSwap(false, true) {
		return
	}
	for i := range m.entities {
		m.entities[i].Release()
	}
	m.entities = nil
}
