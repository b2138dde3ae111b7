package fragmentation

import (
	"github.com/turtacn/MolFrag/pkg/errors"
)

type partitionResult struct {
	atoms Bitset
	valid bool
}

// leafKey identifies one side of one bond: the bonded atom pair and the atom
// the leaf walk starts from.
type leafKey struct {
	bond   edge
	origin int
}

// Partitioner classifies atoms into core and leaf regions by breadth-first
// walks that never cross a cut bond.  Results are memoized per set of cut
// atom pairs and per bond side.
type Partitioner struct {
	graph MoleculeGraph
	atoms int
	stats *Stats

	valueMemo map[string]partitionResult
	leafMemo  map[leafKey]Bitset
}

// NewPartitioner returns a Partitioner over graph.  stats may be nil.
func NewPartitioner(graph MoleculeGraph, stats *Stats) *Partitioner {
	if stats == nil {
		stats = &Stats{}
	}
	return &Partitioner{
		graph:     graph,
		atoms:     graph.AtomCount(),
		stats:     stats,
		valueMemo: make(map[string]partitionResult),
		leafMemo:  make(map[leafKey]Bitset),
	}
}

// walk visits every atom reachable from origin without crossing a blocked
// edge.
func (p *Partitioner) walk(origin int, blocked map[edge]struct{}) Bitset {
	seen := NewBitset(p.atoms)
	seen.Set(origin)
	queue := []int{origin}
	for len(queue) > 0 {
		atom := queue[0]
		queue = queue[1:]
		for _, nb := range p.graph.Neighbours(atom) {
			if seen.Test(nb) {
				continue
			}
			if _, cut := blocked[edgeOf(atom, nb)]; cut {
				continue
			}
			seen.Set(nb)
			queue = append(queue, nb)
		}
	}
	return seen
}

// touched counts the cut bonds with exactly one endpoint inside region.  ok is
// false when some cut bond has both endpoints inside, meaning the bond lies
// in a ring that the other cuts do not open.
func touched(region Bitset, c Combination) (n int, ok bool) {
	for _, b := range c.bonds {
		in1, in2 := region.Test(b.Start), region.Test(b.End)
		switch {
		case in1 && in2:
			return 0, false
		case in1 || in2:
			n++
		}
	}
	return n, true
}

func blockedEdges(c Combination) map[edge]struct{} {
	blocked := make(map[edge]struct{}, c.Len())
	for _, b := range c.bonds {
		blocked[edgeOf(b.Start, b.End)] = struct{}{}
	}
	return blocked
}

// ValuePartition returns the core atoms of combination c.  The boolean is
// false when c is not a valid fragmentation: either the core walk does not
// reach every cut bond exactly once, or some leaf region touches more than
// one cut bond.
func (p *Partitioner) ValuePartition(c Combination) (Bitset, bool) {
	if c.Len() == 0 {
		return Bitset{}, false
	}
	key := c.memoKey()
	if r, ok := p.valueMemo[key]; ok {
		p.stats.PartitionCacheHits++
		return r.atoms, r.valid
	}
	p.stats.PartitionsComputed++
	atoms, valid := p.computeValue(c)
	p.valueMemo[key] = partitionResult{atoms: atoms, valid: valid}
	return atoms, valid
}

func (p *Partitioner) computeValue(c Combination) (Bitset, bool) {
	n := c.Len()
	blocked := blockedEdges(c)

	first := c.At(0)
	core := p.walk(first.Start, blocked)
	count, ok := touched(core, c)
	if !ok {
		return Bitset{}, false
	}
	if count == 1 && n > 1 {
		// Started inside a leaf: restart from the far end of the only bond
		// the walk reached, which is first.
		core = p.walk(first.End, blocked)
		if count, ok = touched(core, c); !ok {
			return Bitset{}, false
		}
	}
	if count != n {
		return Bitset{}, false
	}

	// Every leaf region must hang off exactly one cut bond.
	covered := core.Clone()
	for _, b := range c.bonds {
		leafEnd := b.End
		if !core.Test(b.Start) {
			leafEnd = b.Start
		}
		if covered.Test(leafEnd) {
			return Bitset{}, false
		}
		leaf := p.walk(leafEnd, blocked)
		if m, ok := touched(leaf, c); !ok || m != 1 {
			return Bitset{}, false
		}
		covered = covered.Union(leaf)
	}
	return core, true
}

// LeafAtoms returns the atoms on one side of bond: the Start side when
// fromStart is true, the End side otherwise.  It fails when the bond lies in a
// ring, because the walk then reaches the opposite endpoint.
func (p *Partitioner) LeafAtoms(bond BondIdentifier, fromStart bool) (Bitset, error) {
	origin, far := bond.Start, bond.End
	if !fromStart {
		origin, far = far, origin
	}
	key := leafKey{bond: edgeOf(bond.Start, bond.End), origin: origin}
	if atoms, ok := p.leafMemo[key]; ok {
		p.stats.PartitionCacheHits++
		return atoms, nil
	}
	p.stats.PartitionsComputed++
	atoms := p.walk(origin, map[edge]struct{}{edgeOf(bond.Start, bond.End): {}})
	if atoms.Test(far) {
		return Bitset{}, errors.Newf(errors.ErrCodeFragmentationFailed,
			"bond %s does not separate the molecule", bond)
	}
	p.leafMemo[key] = atoms
	return atoms, nil
}

// reset drops every memoized partition.
func (p *Partitioner) reset() {
	p.valueMemo = make(map[string]partitionResult)
	p.leafMemo = make(map[leafKey]Bitset)
}

//Personal.AI order the ending
