package molecule

import (
	"sort"

	"github.com/turtacn/MolFrag/internal/domain/fragmentation"
	"github.com/turtacn/MolFrag/pkg/errors"
)

// Bond pattern names accepted by ParseBondPattern.
const (
	PatternAcyclicSingle       = "acyclic-single"
	PatternAcyclicSingleCarbon = "acyclic-single-carbon"
	PatternAllSingle           = "all-single"
)

// BondMatcher selects the bonds of a molecule that may be cut.
type BondMatcher interface {
	Name() string
	Match(m *Molecule) []fragmentation.BondIdentifier
}

type predicateMatcher struct {
	name string
	pred func(m *Molecule, bond int, ring []bool) bool
}

func (p predicateMatcher) Name() string { return p.name }

func (p predicateMatcher) Match(m *Molecule) []fragmentation.BondIdentifier {
	ring := m.RingBonds()
	var out []fragmentation.BondIdentifier
	for i, b := range m.Bonds {
		if !p.pred(m, i, ring) {
			continue
		}
		start, end := b.A, b.B
		if start > end {
			start, end = end, start
		}
		out = append(out, fragmentation.BondIdentifier{Start: start, End: end, Index: i})
	}
	sort.Slice(out, func(x, y int) bool { return out[x].Compare(out[y]) < 0 })
	return out
}

// cuttableEnds rejects bonds touching hydrogens or attachment points.
func cuttableEnds(m *Molecule, b Bond) bool {
	for _, a := range []Atom{m.Atoms[b.A], m.Atoms[b.B]} {
		if a.IsHydrogen() || a.Attachment {
			return false
		}
	}
	return true
}

// hasHeteroMultipleBond reports whether atom is double or triple bonded to a
// non-carbon atom.
func hasHeteroMultipleBond(m *Molecule, atom int) bool {
	for _, e := range m.adj[atom] {
		o := m.Bonds[e.bond].Order
		if (o == Double || o == Triple) && m.Atoms[e.atom].Element != "C" {
			return true
		}
	}
	return false
}

var matchers = map[string]BondMatcher{
	PatternAcyclicSingle: predicateMatcher{
		name: PatternAcyclicSingle,
		pred: func(m *Molecule, i int, ring []bool) bool {
			b := m.Bonds[i]
			return b.Order == Single && !ring[i] && cuttableEnds(m, b)
		},
	},
	// One end must be an uncharged carbon that is not part of a carbonyl-like
	// multiple bond to a heteroatom.
	PatternAcyclicSingleCarbon: predicateMatcher{
		name: PatternAcyclicSingleCarbon,
		pred: func(m *Molecule, i int, ring []bool) bool {
			b := m.Bonds[i]
			if b.Order != Single || ring[i] || !cuttableEnds(m, b) {
				return false
			}
			for _, atom := range []int{b.A, b.B} {
				a := m.Atoms[atom]
				if a.Element == "C" && a.Charge == 0 && !hasHeteroMultipleBond(m, atom) {
					return true
				}
			}
			return false
		},
	},
	PatternAllSingle: predicateMatcher{
		name: PatternAllSingle,
		pred: func(m *Molecule, i int, _ []bool) bool {
			b := m.Bonds[i]
			return b.Order == Single && cuttableEnds(m, b)
		},
	},
}

// ParseBondPattern returns the matcher registered under name.
func ParseBondPattern(name string) (BondMatcher, error) {
	if name == "" {
		name = PatternAcyclicSingle
	}
	m, ok := matchers[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeBondPatternUnsupported, "unknown bond pattern %q", name)
	}
	return m, nil
}

// BondPatterns lists the registered pattern names.
func BondPatterns() []string {
	names := make([]string, 0, len(matchers))
	for n := range matchers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RingBonds marks every bond that lies on a cycle, found as the complement of
// the bridges (Tarjan low-link).
func (m *Molecule) RingBonds() []bool {
	n := len(m.Atoms)
	disc := make([]int, n)
	low := make([]int, n)
	for i := range disc {
		disc[i] = -1
	}
	ring := make([]bool, len(m.Bonds))
	for i := range ring {
		ring[i] = true
	}
	timer := 0
	var visit func(u, viaBond int)
	visit = func(u, viaBond int) {
		disc[u], low[u] = timer, timer
		timer++
		for _, e := range m.adj[u] {
			if e.bond == viaBond {
				continue
			}
			if disc[e.atom] < 0 {
				visit(e.atom, e.bond)
				if low[e.atom] < low[u] {
					low[u] = low[e.atom]
				}
				if low[e.atom] > disc[u] {
					ring[e.bond] = false
				}
			} else if disc[e.atom] < low[u] {
				low[u] = disc[e.atom]
			}
		}
	}
	for u := 0; u < n; u++ {
		if disc[u] < 0 {
			visit(u, -1)
		}
	}
	return ring
}

//Personal.AI order the ending
