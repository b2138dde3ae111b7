package fragmentation

import (
	"sort"
	"strconv"
	"strings"
)

// Combination is an ordered set of bonds cut together.  Bonds are kept sorted
// by BondIdentifier.Compare and are unique, so two combinations holding the
// same bonds are equal whatever order they were built in.
type Combination struct {
	bonds []BondIdentifier
}

// NewCombination builds a Combination, dropping duplicate bonds.
func NewCombination(bonds ...BondIdentifier) Combination {
	out := append(make([]BondIdentifier, 0, len(bonds)), bonds...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	uniq := out[:0]
	for i, b := range out {
		if i > 0 && b.Same(uniq[len(uniq)-1]) {
			continue
		}
		uniq = append(uniq, b)
	}
	return Combination{bonds: uniq}
}

// Len returns the number of bonds.
func (c Combination) Len() int { return len(c.bonds) }

// At returns the i-th bond in canonical order.
func (c Combination) At(i int) BondIdentifier { return c.bonds[i] }

// Bonds returns a copy of the bonds in canonical order.
func (c Combination) Bonds() []BondIdentifier {
	out := make([]BondIdentifier, len(c.bonds))
	copy(out, c.bonds)
	return out
}

// Contains reports membership, ignoring direction.
func (c Combination) Contains(b BondIdentifier) bool {
	i := sort.Search(len(c.bonds), func(i int) bool { return c.bonds[i].Compare(b) >= 0 })
	return i < len(c.bonds) && c.bonds[i].Same(b)
}

// ContainsAll reports whether o is a subset of c.
func (c Combination) ContainsAll(o Combination) bool {
	for _, b := range o.bonds {
		if !c.Contains(b) {
			return false
		}
	}
	return true
}

// With returns a new Combination extended by b.
func (c Combination) With(b BondIdentifier) Combination {
	if c.Contains(b) {
		return c
	}
	out := make([]BondIdentifier, len(c.bonds), len(c.bonds)+1)
	copy(out, c.bonds)
	return NewCombination(append(out, b)...)
}

// Equal reports set equality.
func (c Combination) Equal(o Combination) bool {
	if len(c.bonds) != len(o.bonds) {
		return false
	}
	for i := range c.bonds {
		if !c.bonds[i].Same(o.bonds[i]) {
			return false
		}
	}
	return true
}

// Compare orders combinations lexicographically by their sorted bonds,
// shorter first on a common prefix.
func (c Combination) Compare(o Combination) int {
	for i := 0; i < len(c.bonds) && i < len(o.bonds); i++ {
		if r := c.bonds[i].Compare(o.bonds[i]); r != 0 {
			return r
		}
	}
	return cmpInt(len(c.bonds), len(o.bonds))
}

// Key returns the canonical value key of the combination: the bond indices in
// canonical order joined by commas.  It is only unique among bonds whose
// indices are unique, such as the matching bonds of one molecule.
func (c Combination) Key() string {
	var sb strings.Builder
	for i, b := range c.bonds {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(b.Index))
	}
	return sb.String()
}

// memoKey identifies c by its atom pairs, ignoring the caller's indices.  A
// lone bond also records its direction since that picks the core side.
func (c Combination) memoKey() string {
	var sb strings.Builder
	if len(c.bonds) == 1 {
		b := c.bonds[0]
		sb.WriteString(strconv.Itoa(b.Start))
		sb.WriteByte('>')
		sb.WriteString(strconv.Itoa(b.End))
		return sb.String()
	}
	for i, b := range c.bonds {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(b.lo()))
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(b.hi()))
	}
	return sb.String()
}

// Triplets calls fn for every 3-bond subset until fn returns false.
func (c Combination) Triplets(fn func(Combination) bool) {
	n := len(c.bonds)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				t := Combination{bonds: []BondIdentifier{c.bonds[i], c.bonds[j], c.bonds[k]}}
				if !fn(t) {
					return
				}
			}
		}
	}
}

func (c Combination) String() string {
	parts := make([]string, len(c.bonds))
	for i, b := range c.bonds {
		parts[i] = b.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func sortCombinations(cs []Combination) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Compare(cs[j]) < 0 })
}

func sortBonds(bs []BondIdentifier) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].Compare(bs[j]) < 0 })
}

//Personal.AI order the ending
