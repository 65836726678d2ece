// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package handle

import "math/bits"

// bitVec is a growable bit vector.
// Each set bit marks an identifier in use.
type bitVec struct {
	s   []uint32
	rem int
}

const nbit = 32

// Len returns the number of bits in the vector.
func (v *bitVec) Len() int { return len(v.s) * nbit }

// Rem returns the number of unset bits in the vector.
func (v *bitVec) Rem() int { return v.rem }

// Grow resizes the vector to contain nplus additional
// words of unset bits.
// It returns the value of v.Len prior to growing.
func (v *bitVec) Grow(nplus int) (index int) {
	index = v.Len()
	if nplus > 0 {
		v.rem += nplus * nbit
		v.s = append(v.s, make([]uint32, nplus)...)
	}
	return
}

// Set sets a given bit.
func (v *bitVec) Set(index int) {
	i := index / nbit
	b := uint32(1) << (index & (nbit - 1))
	if v.s[i]&b == 0 {
		v.s[i] |= b
		v.rem--
	}
}

// Unset unsets a given bit.
func (v *bitVec) Unset(index int) {
	i := index / nbit
	b := uint32(1) << (index & (nbit - 1))
	if v.s[i]&b != 0 {
		v.s[i] &^= b
		v.rem++
	}
}

// IsSet checks whether a given bit is set.
// Indices out of bounds are never set.
func (v *bitVec) IsSet(index int) bool {
	if index < 0 || index >= v.Len() {
		return false
	}
	i := index / nbit
	b := uint32(1) << (index & (nbit - 1))
	return v.s[i]&b != 0
}

// Search locates the lowest unset bit in the vector.
// It fails only when v.Rem() == 0.
func (v *bitVec) Search() (index int, ok bool) {
	if v.rem == 0 {
		return
	}
	for i, x := range v.s {
		if x == ^uint32(0) {
			continue
		}
		return i*nbit + bits.TrailingZeros32(^x), true
	}
	return
}
