package fragmentation

// MoleculeGraph is the read-only adjacency view of the source molecule.
type MoleculeGraph interface {
	// AtomCount returns the number of atoms, explicit hydrogens included.
	AtomCount() int

	// Neighbours returns the atoms bonded to atom.
	Neighbours(atom int) []int

	// IsHeavy reports whether atom is not a hydrogen.
	IsHeavy(atom int) bool

	// MatchingBonds returns the bonds selected by the caller's substructure
	// matcher, each with Start < End.
	MatchingBonds() []BondIdentifier
}

// Toolkit is the set of chemistry callbacks the engine needs from a backend.
// Implementations must not mutate the molecule passed to Clone, Retain,
// RemoveExplicitHydrogens, CanonicalRanks or Encode.
type Toolkit[M any] interface {
	// Clone returns a deep copy of m.
	Clone(m M) M

	// ReplaceWithAttachment turns atom into an unlabelled attachment point,
	// keeping its bonds.
	ReplaceWithAttachment(m M, atom int) error

	// Retain returns a new molecule holding only the atoms in keep, plus the
	// old-to-new index map (-1 for dropped atoms).
	Retain(m M, keep Bitset) (M, []int)

	// RemoveExplicitHydrogens drops explicit hydrogen atoms (never attachment
	// points) and returns the old-to-new index map.
	RemoveExplicitHydrogens(m M) (M, []int)

	// AssignStereo recomputes stereochemistry and double-bond geometry.
	// Failures are tolerated by the engine.
	AssignStereo(m M) error

	// CanonicalRanks returns a tie-broken canonical rank for every atom.
	CanonicalRanks(m M) []int

	// Encode returns the canonical string form of m.
	Encode(m M) (string, error)

	// LabelAttachment tags the attachment atom with its index.
	LabelAttachment(m M, atom, index int) error
}

//Personal.AI order the ending
