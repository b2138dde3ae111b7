// Package molecule is the reference chemistry backend of the fragmentation
// engine: an atom/bond graph, a SMILES reader and canonical writer, bond
// matchers and the Toolkit callbacks the engine drives.
//
// Stereochemistry is not modelled; chirality marks and directional bonds are
// read and dropped.
package molecule

import (
	"fmt"

	"github.com/turtacn/MolFrag/pkg/errors"
)

// BondOrder is the multiplicity of a bond.
type BondOrder int

const (
	Single BondOrder = iota + 1
	Double
	Triple
	Aromatic
)

func (o BondOrder) String() string {
	switch o {
	case Single:
		return "single"
	case Double:
		return "double"
	case Triple:
		return "triple"
	case Aromatic:
		return "aromatic"
	}
	return fmt.Sprintf("BondOrder(%d)", int(o))
}

// Atom is one vertex of a Molecule.
type Atom struct {
	Element  string
	Aromatic bool
	Charge   int
	Isotope  int
	// HCount is the hydrogen count written inside brackets.  Organic subset
	// atoms carry implicit hydrogens that are not tracked.
	HCount  int
	Bracket bool
	// Attachment marks a "*" placeholder; Label is its index (0 when unset).
	Attachment bool
	Label      int
}

// IsHydrogen reports whether the atom is a plain hydrogen.
func (a Atom) IsHydrogen() bool { return a.Element == "H" && !a.Attachment }

// Bond joins atoms A and B.
type Bond struct {
	A, B  int
	Order BondOrder
}

// Other returns the endpoint opposite to atom.
func (b Bond) Other(atom int) int {
	if b.A == atom {
		return b.B
	}
	return b.A
}

type adjacency struct {
	atom int
	bond int
}

// Molecule is an undirected atom/bond graph.
type Molecule struct {
	Atoms []Atom
	Bonds []Bond
	adj   [][]adjacency
}

// New returns an empty Molecule.
func New() *Molecule { return &Molecule{} }

// AddAtom appends a and returns its index.
func (m *Molecule) AddAtom(a Atom) int {
	m.Atoms = append(m.Atoms, a)
	m.adj = append(m.adj, nil)
	return len(m.Atoms) - 1
}

// AddBond joins a and b and returns the bond index.
func (m *Molecule) AddBond(a, b int, order BondOrder) (int, error) {
	if a < 0 || b < 0 || a >= len(m.Atoms) || b >= len(m.Atoms) {
		return -1, errors.Newf(errors.ErrCodeAtomIndexOutOfRange, "bond %d-%d outside molecule of %d atoms", a, b, len(m.Atoms))
	}
	if a == b {
		return -1, errors.Newf(errors.ErrCodeMoleculeParsingFailed, "atom %d bonded to itself", a)
	}
	if _, ok := m.BondBetween(a, b); ok {
		return -1, errors.Newf(errors.ErrCodeMoleculeParsingFailed, "duplicate bond %d-%d", a, b)
	}
	idx := len(m.Bonds)
	m.Bonds = append(m.Bonds, Bond{A: a, B: b, Order: order})
	m.adj[a] = append(m.adj[a], adjacency{atom: b, bond: idx})
	m.adj[b] = append(m.adj[b], adjacency{atom: a, bond: idx})
	return idx, nil
}

// NumAtoms returns the atom count.
func (m *Molecule) NumAtoms() int { return len(m.Atoms) }

// NumBonds returns the bond count.
func (m *Molecule) NumBonds() int { return len(m.Bonds) }

// Degree returns the number of bonds at atom.
func (m *Molecule) Degree(atom int) int { return len(m.adj[atom]) }

// Neighbours returns the atoms bonded to atom.
func (m *Molecule) Neighbours(atom int) []int {
	out := make([]int, len(m.adj[atom]))
	for i, a := range m.adj[atom] {
		out[i] = a.atom
	}
	return out
}

// BondBetween returns the index of the bond joining a and b.
func (m *Molecule) BondBetween(a, b int) (int, bool) {
	if a < 0 || a >= len(m.adj) {
		return -1, false
	}
	for _, e := range m.adj[a] {
		if e.atom == b {
			return e.bond, true
		}
	}
	return -1, false
}

// HeavyAtomCount counts atoms that are neither hydrogens nor attachments.
func (m *Molecule) HeavyAtomCount() int {
	n := 0
	for _, a := range m.Atoms {
		if !a.IsHydrogen() && !a.Attachment {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (m *Molecule) Clone() *Molecule {
	c := &Molecule{
		Atoms: append([]Atom(nil), m.Atoms...),
		Bonds: append([]Bond(nil), m.Bonds...),
		adj:   make([][]adjacency, len(m.adj)),
	}
	for i, a := range m.adj {
		c.adj[i] = append([]adjacency(nil), a...)
	}
	return c
}

// Subset returns the molecule induced by the atoms for which keep returns
// true, with the old-to-new index map (-1 for dropped atoms).
func (m *Molecule) Subset(keep func(atom int) bool) (*Molecule, []int) {
	remap := make([]int, len(m.Atoms))
	out := New()
	for i, a := range m.Atoms {
		if keep(i) {
			remap[i] = out.AddAtom(a)
		} else {
			remap[i] = -1
		}
	}
	for _, b := range m.Bonds {
		if remap[b.A] >= 0 && remap[b.B] >= 0 {
			// Cannot fail: endpoints exist and the source had no duplicates.
			_, _ = out.AddBond(remap[b.A], remap[b.B], b.Order)
		}
	}
	return out, remap
}

// Components returns the connected components as atom index lists, ordered
// by their lowest atom index.
func (m *Molecule) Components() [][]int {
	seen := make([]bool, len(m.Atoms))
	var comps [][]int
	for start := range m.Atoms {
		if seen[start] {
			continue
		}
		comp := []int{start}
		seen[start] = true
		for q := 0; q < len(comp); q++ {
			for _, e := range m.adj[comp[q]] {
				if !seen[e.atom] {
					seen[e.atom] = true
					comp = append(comp, e.atom)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

// LargestComponent returns the component with the most heavy atoms, ties
// going to the earliest.  A single-component molecule is returned as is.
func (m *Molecule) LargestComponent() *Molecule {
	sub, _ := m.LargestComponentMap()
	return sub
}

// LargestComponentMap is LargestComponent plus the old-to-new atom index map
// (-1 for dropped atoms).  The map is nil when m is returned unchanged.
func (m *Molecule) LargestComponentMap() (*Molecule, []int) {
	comps := m.Components()
	if len(comps) <= 1 {
		return m, nil
	}
	best, bestHeavy := 0, -1
	for i, c := range comps {
		heavy := 0
		for _, a := range c {
			if !m.Atoms[a].IsHydrogen() {
				heavy++
			}
		}
		if heavy > bestHeavy {
			best, bestHeavy = i, heavy
		}
	}
	in := make(map[int]bool, len(comps[best]))
	for _, a := range comps[best] {
		in[a] = true
	}
	return m.Subset(func(i int) bool { return in[i] })
}

//Personal.AI order the ending
