package molecule

import (
	"github.com/turtacn/MolFrag/internal/domain/fragmentation"
	"github.com/turtacn/MolFrag/pkg/errors"
)

// Toolkit implements fragmentation.Toolkit over *Molecule.
type Toolkit struct{}

var _ fragmentation.Toolkit[*Molecule] = Toolkit{}

// Clone returns a deep copy of m.
func (Toolkit) Clone(m *Molecule) *Molecule { return m.Clone() }

// ReplaceWithAttachment turns atom into an unlabelled "*" keeping its bonds.
func (Toolkit) ReplaceWithAttachment(m *Molecule, atom int) error {
	if atom < 0 || atom >= len(m.Atoms) {
		return errors.Newf(errors.ErrCodeAtomIndexOutOfRange, "atom %d outside molecule of %d atoms", atom, len(m.Atoms))
	}
	m.Atoms[atom] = Atom{Element: "*", Attachment: true}
	// Aromatic bonds to a placeholder are written as single bonds.
	for _, e := range m.adj[atom] {
		if m.Bonds[e.bond].Order == Aromatic {
			m.Bonds[e.bond].Order = Single
		}
	}
	return nil
}

// Retain keeps only the atoms in keep.
func (Toolkit) Retain(m *Molecule, keep fragmentation.Bitset) (*Molecule, []int) {
	return m.Subset(keep.Test)
}

// RemoveExplicitHydrogens drops hydrogen atoms bonded to a single heavy atom,
// moving the count onto bracket neighbours.  Isotopic or charged hydrogens
// stay.
func (Toolkit) RemoveExplicitHydrogens(m *Molecule) (*Molecule, []int) {
	drop := make([]bool, len(m.Atoms))
	heavyNeighbour := make([]int, len(m.Atoms))
	for i, a := range m.Atoms {
		if !a.IsHydrogen() || a.Isotope != 0 || a.Charge != 0 || a.HCount != 0 || len(m.adj[i]) != 1 {
			continue
		}
		nb := m.adj[i][0].atom
		if m.Atoms[nb].IsHydrogen() || m.Atoms[nb].Attachment {
			continue
		}
		drop[i] = true
		heavyNeighbour[i] = nb
	}
	src := m
	if anyTrue(drop) {
		src = m.Clone()
		for i, d := range drop {
			if d && src.Atoms[heavyNeighbour[i]].Bracket {
				src.Atoms[heavyNeighbour[i]].HCount++
			}
		}
	}
	return src.Subset(func(i int) bool { return !drop[i] })
}

func anyTrue(bs []bool) bool {
	for _, b := range bs {
		if b {
			return true
		}
	}
	return false
}

// AssignStereo is a no-op: the backend does not model stereochemistry.
func (Toolkit) AssignStereo(*Molecule) error { return nil }

// CanonicalRanks returns the canonical atom ranks of m.
func (Toolkit) CanonicalRanks(m *Molecule) []int { return m.CanonicalRanks() }

// Encode returns the canonical SMILES of m.
func (Toolkit) Encode(m *Molecule) (string, error) {
	if m == nil || len(m.Atoms) == 0 {
		return "", errors.New(errors.ErrCodeMoleculeEncodingFailed, "cannot encode an empty molecule")
	}
	return m.WriteSMILES(), nil
}

// LabelAttachment sets the index of the attachment point at atom.
func (Toolkit) LabelAttachment(m *Molecule, atom, index int) error {
	if atom < 0 || atom >= len(m.Atoms) {
		return errors.Newf(errors.ErrCodeAtomIndexOutOfRange, "atom %d outside molecule of %d atoms", atom, len(m.Atoms))
	}
	if !m.Atoms[atom].Attachment {
		return errors.Newf(errors.ErrCodeFragmentationFailed, "atom %d is not an attachment point", atom)
	}
	m.Atoms[atom].Label = index
	return nil
}

// Graph is the fragmentation.MoleculeGraph view of a Molecule combined with
// the bonds a matcher selected.
type Graph struct {
	mol      *Molecule
	matching []fragmentation.BondIdentifier
}

var _ fragmentation.MoleculeGraph = (*Graph)(nil)

// NewGraph builds the engine view of m using matcher.
func NewGraph(m *Molecule, matcher BondMatcher) *Graph {
	return &Graph{mol: m, matching: matcher.Match(m)}
}

// Molecule returns the wrapped molecule.
func (g *Graph) Molecule() *Molecule { return g.mol }

func (g *Graph) AtomCount() int { return g.mol.NumAtoms() }

func (g *Graph) Neighbours(atom int) []int { return g.mol.Neighbours(atom) }

// IsHeavy excludes hydrogens and attachment points.
func (g *Graph) IsHeavy(atom int) bool {
	a := g.mol.Atoms[atom]
	return !a.IsHydrogen() && !a.Attachment
}

func (g *Graph) MatchingBonds() []fragmentation.BondIdentifier { return g.matching }

// Bond returns the identifier of bond index i, walked from A to B.
func (g *Graph) Bond(i int) (fragmentation.BondIdentifier, error) {
	if i < 0 || i >= len(g.mol.Bonds) {
		return fragmentation.BondIdentifier{}, errors.Newf(errors.ErrCodeFragmentationFailed, "bond %d is not part of the molecule", i)
	}
	b := g.mol.Bonds[i]
	return fragmentation.BondIdentifier{Start: b.A, End: b.B, Index: i}, nil
}

//Personal.AI order the ending
