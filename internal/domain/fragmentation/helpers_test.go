package fragmentation

// fakeGraph is an adjacency-list MoleculeGraph.  Bond i joins bonds[i][0]
// and bonds[i][1]; every atom is heavy unless listed in light.
type fakeGraph struct {
	n        int
	bonds    [][2]int
	adj      [][]int
	light    map[int]bool
	matching []BondIdentifier
}

func newFakeGraph(n int, bonds [][2]int, matching ...int) *fakeGraph {
	g := &fakeGraph{n: n, bonds: bonds, adj: make([][]int, n), light: map[int]bool{}}
	for _, b := range bonds {
		g.adj[b[0]] = append(g.adj[b[0]], b[1])
		g.adj[b[1]] = append(g.adj[b[1]], b[0])
	}
	if len(matching) == 0 {
		for i := range bonds {
			matching = append(matching, i)
		}
	}
	for _, i := range matching {
		g.matching = append(g.matching, g.bond(i))
	}
	return g
}

func (g *fakeGraph) bond(i int) BondIdentifier {
	a, b := g.bonds[i][0], g.bonds[i][1]
	if a > b {
		a, b = b, a
	}
	return BondIdentifier{Start: a, End: b, Index: i}
}

func (g *fakeGraph) combo(indices ...int) Combination {
	bonds := make([]BondIdentifier, len(indices))
	for i, idx := range indices {
		bonds[i] = g.bond(idx)
	}
	return NewCombination(bonds...)
}

func (g *fakeGraph) AtomCount() int                  { return g.n }
func (g *fakeGraph) Neighbours(atom int) []int       { return g.adj[atom] }
func (g *fakeGraph) IsHeavy(atom int) bool           { return !g.light[atom] }
func (g *fakeGraph) MatchingBonds() []BondIdentifier { return g.matching }

// chain returns the path 0-1-...-(n-1).
func chain(n int) *fakeGraph {
	var bonds [][2]int
	for i := 0; i+1 < n; i++ {
		bonds = append(bonds, [2]int{i, i + 1})
	}
	return newFakeGraph(n, bonds)
}

// star returns a centre atom 0 with arms of two atoms each.  Arm i holds
// atoms 2i+1 (bonded to the centre by bond 2i) and 2i+2 (bonded to 2i+1 by
// bond 2i+1).
func star(arms int) *fakeGraph {
	var bonds [][2]int
	for i := 0; i < arms; i++ {
		inner, outer := 2*i+1, 2*i+2
		bonds = append(bonds, [2]int{0, inner}, [2]int{inner, outer})
	}
	return newFakeGraph(2*arms+1, bonds)
}

// ringWithTails returns a six-membered ring (atoms 0-5, bonds 0-5) carrying
// one-atom tails on atoms 0, 2 and 4 (atoms 6, 7, 8; bonds 6, 7, 8).
func ringWithTails() *fakeGraph {
	bonds := [][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 0},
		{0, 6}, {2, 7}, {4, 8},
	}
	return newFakeGraph(9, bonds)
}

// subsets calls fn for every k-subset of items.
func subsets(items []int, k int, fn func([]int)) {
	var rec func(start int, cur []int)
	rec = func(start int, cur []int) {
		if len(cur) == k {
			fn(append([]int(nil), cur...))
			return
		}
		for i := start; i < len(items); i++ {
			rec(i+1, append(cur, items[i]))
		}
	}
	rec(0, nil)
}

//Personal.AI order the ending
