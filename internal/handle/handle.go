// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package handle implements an arena that addresses its
// elements through stable integer identifiers.
// Identifiers are reused only after removal, and removal
// never moves the identifier of another element.
package handle

import "iter"

// entry is what a Map stores.
type entry[D any] struct {
	data D
	id   int
}

// Map stores data of type D with identifiers of type I.
// The zero value is an empty map ready for use.
type Map[I ~int, D any] struct {
	// index[id] is the position of id's entry in data,
	// or -1 if id is not in use.
	index []int
	ids   bitVec
	data  []entry[D]
}

// Insert inserts data into m.
// It returns an I value that identifies data in m.
func (m *Map[I, D]) Insert(data D) I {
	if m.ids.Rem() == 0 {
		n := 1
		if l := len(m.ids.s); l > 0 {
			n = l
		}
		m.ids.Grow(n)
		for len(m.index) < m.ids.Len() {
			m.index = append(m.index, -1)
		}
	}
	idx, ok := m.ids.Search()
	if !ok {
		// Should never happen.
		panic("handle: unexpected failure from bitVec.Search")
	}
	m.ids.Set(idx)
	m.index[idx] = len(m.data)
	m.data = append(m.data, entry[D]{data, idx})
	return I(idx)
}

// Remove removes the data identified by id.
// It returns the removed data and whether id was in use.
func (m *Map[I, D]) Remove(id I) (data D, ok bool) {
	if !m.Has(id) {
		return
	}
	d := m.index[id]
	data = m.data[d].data
	last := len(m.data) - 1
	if d < last {
		swap := m.data[last].id
		m.index[swap] = d
		m.data[d] = m.data[last]
	}
	m.index[id] = -1
	m.ids.Unset(int(id))
	m.data[last] = entry[D]{}
	m.data = m.data[:last]
	return data, true
}

// Has reports whether id identifies data in m.
func (m *Map[I, D]) Has(id I) bool { return m.ids.IsSet(int(id)) }

// Get returns the data identified by id.
// ok is false if id is not in use.
func (m *Map[I, D]) Get(id I) (data D, ok bool) {
	if !m.Has(id) {
		return
	}
	return m.data[m.index[id]].data, true
}

// Len returns the number of elements in m.
func (m *Map[_, _]) Len() int { return len(m.data) }

// All returns an iterator over the elements of m.
// m must not be modified during iteration.
func (m *Map[I, D]) All() iter.Seq2[I, D] {
	return func(yield func(I, D) bool) {
		for _, e := range m.data {
			if !yield(I(e.id), e.data) {
				return
			}
		}
	}
}
