package fragmentation

import (
	"math/bits"
	"strings"
)

// Bitset is a fixed-size set of atom indices.
type Bitset struct {
	words []uint64
	size  int
}

// NewBitset returns an empty Bitset able to hold indices [0, size).
func NewBitset(size int) Bitset {
	return Bitset{words: make([]uint64, (size+63)/64), size: size}
}

// BitsetOf returns a Bitset of the given size with the listed indices set.
func BitsetOf(size int, indices ...int) Bitset {
	b := NewBitset(size)
	for _, i := range indices {
		b.Set(i)
	}
	return b
}

// Size returns the capacity in bits.
func (b Bitset) Size() int { return b.size }

// Set marks index i.  Out-of-range indices are ignored.
func (b Bitset) Set(i int) {
	if i < 0 || i >= b.size {
		return
	}
	b.words[i>>6] |= 1 << uint(i&63)
}

// Clear unmarks index i.
func (b Bitset) Clear(i int) {
	if i < 0 || i >= b.size {
		return
	}
	b.words[i>>6] &^= 1 << uint(i&63)
}

// Test reports whether index i is marked.
func (b Bitset) Test(i int) bool {
	if i < 0 || i >= b.size {
		return false
	}
	return b.words[i>>6]&(1<<uint(i&63)) != 0
}

// Count returns the number of marked indices.
func (b Bitset) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Clone returns an independent copy.
func (b Bitset) Clone() Bitset {
	w := make([]uint64, len(b.words))
	copy(w, b.words)
	return Bitset{words: w, size: b.size}
}

// Union returns b ∪ o as a new Bitset.
func (b Bitset) Union(o Bitset) Bitset {
	out := b.Clone()
	for i := range out.words {
		if i < len(o.words) {
			out.words[i] |= o.words[i]
		}
	}
	return out
}

// Intersects reports whether b and o share an index.
func (b Bitset) Intersects(o Bitset) bool {
	for i := range b.words {
		if i < len(o.words) && b.words[i]&o.words[i] != 0 {
			return true
		}
	}
	return false
}

// Complement returns the indices in [0, Size) that are not in b.
func (b Bitset) Complement() Bitset {
	out := NewBitset(b.size)
	for i := range out.words {
		out.words[i] = ^b.words[i]
	}
	if r := b.size & 63; r != 0 && len(out.words) > 0 {
		out.words[len(out.words)-1] &= (1 << uint(r)) - 1
	}
	return out
}

// Equal reports whether both bitsets hold the same indices.
func (b Bitset) Equal(o Bitset) bool {
	if b.size != o.size {
		return false
	}
	for i := range b.words {
		if b.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// Indices returns the marked indices in ascending order.
func (b Bitset) Indices() []int {
	out := make([]int, 0, b.Count())
	for wi, w := range b.words {
		for w != 0 {
			t := bits.TrailingZeros64(w)
			out = append(out, wi*64+t)
			w &= w - 1
		}
	}
	return out
}

// CountWhere returns how many marked indices satisfy pred.
func (b Bitset) CountWhere(pred func(int) bool) int {
	n := 0
	for _, i := range b.Indices() {
		if pred(i) {
			n++
		}
	}
	return n
}

func (b Bitset) String() string {
	var sb strings.Builder
	sb.Grow(b.size)
	for i := 0; i < b.size; i++ {
		if b.Test(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

//Personal.AI order the ending
