// Package slotmap provides a fixed-capacity arena addressed by
// generation-checked handles.
//
// Removing a value bumps the generation of its slot, so handles to the
// removed value stop resolving even after the slot is reused.
package slotmap

import "iter"

// Handle refers to a value stored in a Map. The zero Handle never
// resolves.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

// Index returns the slot index. Indices are stable for the lifetime of
// the value and are reused after removal.
func (h Handle) Index() int {
	return int(h.index)
}

type slot[T any] struct {
	gen  uint32
	used bool
	val  T
}

// Map stores up to a fixed number of values.
type Map[T any] struct {
	slots    []slot[T]
	free     []uint32
	live     int
	capacity int
}

// New creates a Map holding at most capacity values.
func New[T any](capacity int) *Map[T] {
	return &Map[T]{capacity: capacity}
}

// Insert stores v and returns its handle. It returns false when the map
// is full.
func (m *Map[T]) Insert(v T) (Handle, bool) {
	var idx uint32
	switch {
	case len(m.free) > 0:
		idx = m.free[len(m.free)-1]
		m.free = m.free[:len(m.free)-1]
	case len(m.slots) < m.capacity:
		idx = uint32(len(m.slots))
		m.slots = append(m.slots, slot[T]{})
	default:
		return Handle{}, false
	}

	s := &m.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.used = true
	s.val = v
	m.live++
	return Handle{index: idx, gen: s.gen}, true
}

// Get returns a pointer to the value for h. The pointer is valid until
// the value is removed.
func (m *Map[T]) Get(h Handle) (*T, bool) {
	if h.IsZero() || int(h.index) >= len(m.slots) {
		return nil, false
	}
	s := &m.slots[h.index]
	if !s.used || s.gen != h.gen {
		return nil, false
	}
	return &s.val, true
}

// Contains reports whether h resolves.
func (m *Map[T]) Contains(h Handle) bool {
	_, ok := m.Get(h)
	return ok
}

// Remove deletes the value for h and returns it.
func (m *Map[T]) Remove(h Handle) (T, bool) {
	var zero T
	if _, ok := m.Get(h); !ok {
		return zero, false
	}
	s := &m.slots[h.index]
	v := s.val
	s.val = zero
	s.used = false
	s.gen++
	m.free = append(m.free, h.index)
	m.live--
	return v, true
}

// Len returns the number of stored values.
func (m *Map[T]) Len() int {
	return m.live
}

// Cap returns the maximum number of values.
func (m *Map[T]) Cap() int {
	return m.capacity
}

// All iterates over stored values in slot order.
func (m *Map[T]) All() iter.Seq2[Handle, *T] {
	return func(yield func(Handle, *T) bool) {
		for i := range m.slots {
			s := &m.slots[i]
			if !s.used {
				continue
			}
			if !yield(Handle{index: uint32(i), gen: s.gen}, &s.val) {
				return
			}
		}
	}
}
