package molecule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// atomInvariant is the graph-independent key used to seed canonical ranking.
func (m *Molecule) atomInvariant(i int) string {
	a := m.Atoms[i]
	orders := make([]int, 0, len(m.adj[i]))
	for _, e := range m.adj[i] {
		orders = append(orders, int(m.Bonds[e.bond].Order))
	}
	sort.Ints(orders)
	return fmt.Sprintf("%s|%t|%d|%d|%d|%t|%d|%d|%v",
		a.Element, a.Aromatic, a.Charge, a.Isotope, a.HCount, a.Attachment, a.Label, len(m.adj[i]), orders)
}

// rankBy assigns dense ranks 0..k-1 to atoms ordered by key and returns the
// number of distinct ranks.
func rankBy(n int, key func(i int) string) ([]int, int) {
	idx := make([]int, n)
	keys := make([]string, n)
	for i := range idx {
		idx[i] = i
		keys[i] = key(i)
	}
	sort.SliceStable(idx, func(x, y int) bool { return keys[idx[x]] < keys[idx[y]] })
	ranks := make([]int, n)
	r := -1
	for pos, i := range idx {
		if pos == 0 || keys[i] != keys[idx[pos-1]] {
			r++
		}
		ranks[i] = r
	}
	return ranks, r + 1
}

// refine splits rank classes by the sorted (rank, bond order) pairs of each
// atom's neighbours until the partition is stable.
func (m *Molecule) refine(ranks []int, classes int) ([]int, int) {
	n := len(m.Atoms)
	for {
		next, count := rankBy(n, func(i int) string {
			pairs := make([]string, 0, len(m.adj[i]))
			for _, e := range m.adj[i] {
				pairs = append(pairs, fmt.Sprintf("%06d:%d", ranks[e.atom], m.Bonds[e.bond].Order))
			}
			sort.Strings(pairs)
			return fmt.Sprintf("%06d;%s", ranks[i], strings.Join(pairs, ","))
		})
		if count == classes {
			return next, count
		}
		ranks, classes = next, count
	}
}

// CanonicalRanks returns a rank per atom that depends only on the molecular
// graph, with every tie broken.  Symmetry-equivalent atoms are told apart
// arbitrarily, which leaves the written SMILES unchanged.
func (m *Molecule) CanonicalRanks() []int {
	n := len(m.Atoms)
	if n == 0 {
		return nil
	}
	ranks, classes := rankBy(n, m.atomInvariant)
	ranks, classes = m.refine(ranks, classes)
	for classes < n {
		// Break the lowest tied class by promoting its first member.
		counts := make([]int, classes)
		for _, r := range ranks {
			counts[r]++
		}
		tied := -1
		for r, c := range counts {
			if c > 1 {
				tied = r
				break
			}
		}
		doubled := make([]int, n)
		promoted := false
		for i, r := range ranks {
			doubled[i] = 2 * r
			if r == tied && !promoted {
				doubled[i]--
				promoted = true
			}
		}
		ranks, classes = rankBy(n, func(i int) string { return fmt.Sprintf("%08d", doubled[i]+1) })
		ranks, classes = m.refine(ranks, classes)
	}
	return ranks
}

// WriteSMILES returns the canonical SMILES of m.  Attachment points are
// written as "*" when unlabelled and "[n*]" when labelled.
func (m *Molecule) WriteSMILES() string {
	if len(m.Atoms) == 0 {
		return ""
	}
	w := &smilesWriter{mol: m, ranks: m.CanonicalRanks()}
	return w.write()
}

type ringBond struct {
	bond    int
	partner int
}

type smilesWriter struct {
	mol   *Molecule
	ranks []int

	visited   []bool
	parent    []int
	children  [][]int
	opens     [][]ringBond
	closes    [][]ringBond
	treeBond  []bool
	ringBond  []bool
	ringDigit map[int]int
}

func (w *smilesWriter) byRank(atoms []int) {
	sort.Slice(atoms, func(x, y int) bool { return w.ranks[atoms[x]] < w.ranks[atoms[y]] })
}

func (w *smilesWriter) write() string {
	m := w.mol
	n := len(m.Atoms)
	w.visited = make([]bool, n)
	w.parent = make([]int, n)
	w.children = make([][]int, n)
	w.opens = make([][]ringBond, n)
	w.closes = make([][]ringBond, n)
	w.treeBond = make([]bool, len(m.Bonds))
	w.ringBond = make([]bool, len(m.Bonds))

	starts := make([]int, n)
	for i := range starts {
		starts[i] = i
	}
	w.byRank(starts)

	var parts []string
	for _, s := range starts {
		if w.visited[s] {
			continue
		}
		w.parent[s] = -1
		w.span(s)
		w.ringDigit = make(map[int]int)
		var sb strings.Builder
		w.emit(&sb, s)
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, ".")
}

// span builds the DFS tree from atom, recording ring closures.
func (w *smilesWriter) span(atom int) {
	w.visited[atom] = true
	nbrs := w.mol.Neighbours(atom)
	w.byRank(nbrs)
	for _, nb := range nbrs {
		bond, _ := w.mol.BondBetween(atom, nb)
		if nb == w.parent[atom] && w.treeBond[bond] {
			continue
		}
		if w.visited[nb] {
			if !w.treeBond[bond] && !w.ringBond[bond] {
				w.ringBond[bond] = true
				w.opens[nb] = append(w.opens[nb], ringBond{bond: bond, partner: atom})
				w.closes[atom] = append(w.closes[atom], ringBond{bond: bond, partner: nb})
			}
			continue
		}
		w.treeBond[bond] = true
		w.parent[nb] = atom
		w.children[atom] = append(w.children[atom], nb)
		w.span(nb)
	}
}

func (w *smilesWriter) freeDigit() int {
	used := make(map[int]bool, len(w.ringDigit))
	for _, d := range w.ringDigit {
		used[d] = true
	}
	for d := 1; ; d++ {
		if !used[d] {
			return d
		}
	}
}

func writeDigit(sb *strings.Builder, d int) {
	if d > 9 {
		sb.WriteString("%" + strconv.Itoa(d))
		return
	}
	sb.WriteString(strconv.Itoa(d))
}

func (w *smilesWriter) emit(sb *strings.Builder, atom int) {
	sb.WriteString(w.atomSymbol(atom))

	// Closures first so their digits are released before new ones open.
	for _, r := range w.closes[atom] {
		d := w.ringDigit[r.bond]
		delete(w.ringDigit, r.bond)
		sb.WriteString(w.bondSymbol(r.bond))
		writeDigit(sb, d)
	}
	opens := append([]ringBond(nil), w.opens[atom]...)
	sort.Slice(opens, func(x, y int) bool { return w.ranks[opens[x].partner] < w.ranks[opens[y].partner] })
	for _, r := range opens {
		d := w.freeDigit()
		w.ringDigit[r.bond] = d
		writeDigit(sb, d)
	}

	kids := w.children[atom]
	for i, kid := range kids {
		bond, _ := w.mol.BondBetween(atom, kid)
		last := i == len(kids)-1
		if !last {
			sb.WriteByte('(')
		}
		sb.WriteString(w.bondSymbol(bond))
		w.emit(sb, kid)
		if !last {
			sb.WriteByte(')')
		}
	}
}

func (w *smilesWriter) bondSymbol(bond int) string {
	b := w.mol.Bonds[bond]
	switch b.Order {
	case Double:
		return "="
	case Triple:
		return "#"
	case Aromatic:
		if w.mol.Atoms[b.A].Aromatic && w.mol.Atoms[b.B].Aromatic {
			return ""
		}
		return ":"
	default:
		if w.mol.Atoms[b.A].Aromatic && w.mol.Atoms[b.B].Aromatic {
			return "-"
		}
		return ""
	}
}

func (w *smilesWriter) atomSymbol(atom int) string {
	a := w.mol.Atoms[atom]
	if a.Attachment {
		if a.Label > 0 {
			return "[" + strconv.Itoa(a.Label) + "*]"
		}
		return "*"
	}
	sym := a.Element
	if a.Aromatic {
		sym = strings.ToLower(sym)
	}
	plain := a.Charge == 0 && a.Isotope == 0 && a.HCount == 0 && !a.Bracket
	if plain && (organic[a.Element] && !a.Aromatic || a.Aromatic && aromaticOrganic[sym]) {
		return sym
	}

	var sb strings.Builder
	sb.WriteByte('[')
	if a.Isotope > 0 {
		sb.WriteString(strconv.Itoa(a.Isotope))
	}
	sb.WriteString(sym)
	switch {
	case a.HCount == 1:
		sb.WriteByte('H')
	case a.HCount > 1:
		sb.WriteString("H" + strconv.Itoa(a.HCount))
	}
	switch {
	case a.Charge == 1:
		sb.WriteByte('+')
	case a.Charge == -1:
		sb.WriteByte('-')
	case a.Charge > 1:
		sb.WriteString("+" + strconv.Itoa(a.Charge))
	case a.Charge < -1:
		sb.WriteString(strconv.Itoa(a.Charge))
	}
	sb.WriteByte(']')
	return sb.String()
}

//Personal.AI order the ending
