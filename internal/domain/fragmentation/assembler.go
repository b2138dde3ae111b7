package fragmentation

import (
	"sort"

	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolFrag/pkg/errors"
)

// slot pairs one cut with its leaf and the attachment atom it left on the
// value.
type slot[M any] struct {
	bond        BondIdentifier
	leaf        leafEntry[M]
	valueAttach int
	index       int
}

// assembler turns validated partitions into labelled FragmentSets.
type assembler[M any] struct {
	graph      MoleculeGraph
	source     M
	tk         Toolkit[M]
	part       *Partitioner
	leaves     *LeafCache[leafKey, leafEntry[M]]
	opts       *options
	stats      *Stats
	heavyTotal int
}

func (a *assembler[M]) isHeavy(atom int) bool { return a.graph.IsHeavy(atom) }

// passesFilters applies the heavy-atom filters.  Tiny molecules cut once are
// always accepted.
func (a *assembler[M]) passesFilters(cuts, valueHeavy int) bool {
	if cuts == 1 && a.heavyTotal <= 2 {
		return true
	}
	if limit := a.opts.maxValueHeavyAtoms; limit > 0 && valueHeavy > limit {
		return false
	}
	if floor := a.opts.minKeyValueRatio; floor > 0 && valueHeavy > 0 {
		keyHeavy := a.heavyTotal - valueHeavy
		if float64(keyHeavy)/float64(valueHeavy) < floor {
			return false
		}
	}
	return true
}

// assemble builds the FragmentSet of c whose value atoms are core.  It returns
// (nil, nil) when the filters reject the fragmentation.
func (a *assembler[M]) assemble(c Combination, core Bitset) (*FragmentSet[M], error) {
	valueHeavy := core.CountWhere(a.isHeavy)
	if !a.passesFilters(c.Len(), valueHeavy) {
		a.stats.FilteredOut++
		return nil, nil
	}

	slots := make([]slot[M], c.Len())
	keep := core.Clone()
	for i, b := range c.bonds {
		coreEnd, leafEnd := b.Start, b.End
		if !core.Test(coreEnd) {
			coreEnd, leafEnd = leafEnd, coreEnd
		}
		leaf, err := a.leaf(b, leafEnd, coreEnd)
		if err != nil {
			return nil, err
		}
		slots[i] = slot[M]{bond: b, leaf: leaf, valueAttach: leafEnd}
		keep.Set(leafEnd)
	}

	value := a.tk.Clone(a.source)
	for _, s := range slots {
		if err := a.tk.ReplaceWithAttachment(value, s.valueAttach); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFragmentationFailed, "failed to place attachment point")
		}
	}
	value, remap := a.tk.Retain(value, keep)
	for i := range slots {
		slots[i].valueAttach = remap[slots[i].valueAttach]
	}
	return a.finish(value, valueHeavy, slots, false)
}

// assembleInsertion cuts bond and keeps both sides as keys, with the bare
// placeholder bond as value.
func (a *assembler[M]) assembleInsertion(bond BondIdentifier) (*FragmentSet[M], error) {
	if !a.passesFilters(1, 0) {
		a.stats.FilteredOut++
		return nil, nil
	}
	startLeaf, err := a.leaf(bond, bond.Start, bond.End)
	if err != nil {
		return nil, err
	}
	endLeaf, err := a.leaf(bond, bond.End, bond.Start)
	if err != nil {
		return nil, err
	}

	value := a.tk.Clone(a.source)
	for _, atom := range []int{bond.Start, bond.End} {
		if err := a.tk.ReplaceWithAttachment(value, atom); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFragmentationFailed, "failed to place attachment point")
		}
	}
	value, remap := a.tk.Retain(value, BitsetOf(a.graph.AtomCount(), bond.Start, bond.End))
	slots := []slot[M]{
		{bond: bond, leaf: startLeaf, valueAttach: remap[bond.Start]},
		{bond: bond, leaf: endLeaf, valueAttach: remap[bond.End]},
	}
	return a.finish(value, 0, slots, true)
}

// finish strips hydrogens, assigns stereo, numbers the attachment points
// canonically, labels and encodes every component.
func (a *assembler[M]) finish(value M, valueHeavy int, slots []slot[M], insertion bool) (*FragmentSet[M], error) {
	if a.opts.removeHydrogens {
		var remap []int
		value, remap = a.tk.RemoveExplicitHydrogens(value)
		for i := range slots {
			slots[i].valueAttach = remap[slots[i].valueAttach]
		}
	}
	a.assignStereo(value)

	a.numberAttachments(value, slots)

	for i := range slots {
		if err := a.tk.LabelAttachment(value, slots[i].valueAttach, slots[i].index); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFragmentationFailed, "failed to label value attachment")
		}
		if err := a.tk.LabelAttachment(slots[i].leaf.mol, slots[i].leaf.attach, slots[i].index); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFragmentationFailed, "failed to label key attachment")
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].index < slots[j].index })

	set := &FragmentSet[M]{BondInsertion: insertion}
	valueEnc, err := a.tk.Encode(value)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMoleculeEncodingFailed, "failed to encode value")
	}
	set.Value = Fragment[M]{Mol: value, Encoding: valueEnc, HeavyAtoms: valueHeavy}
	for _, s := range slots {
		enc, err := a.tk.Encode(s.leaf.mol)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMoleculeEncodingFailed, "failed to encode key")
		}
		set.Keys = append(set.Keys, Fragment[M]{
			Mol:         s.leaf.mol,
			Encoding:    enc,
			HeavyAtoms:  s.leaf.heavy,
			Attachments: []int{s.index},
		})
		set.Value.Attachments = append(set.Value.Attachments, s.index)
		if !insertion {
			set.Bonds = append(set.Bonds, s.bond.WithFragIndex(s.index))
		}
	}
	if insertion {
		set.Bonds = []BondIdentifier{slots[0].bond}
	}
	a.stats.FragmentSetsBuilt++
	return set, nil
}

// numberAttachments gives indices 1..n ordered by leaf encoding, then by bond,
// and reorders duplicates by the value's canonical ranking.
func (a *assembler[M]) numberAttachments(value M, slots []slot[M]) {
	order := make([]int, len(slots))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return slots[order[x]].leaf.encoding < slots[order[y]].leaf.encoding
	})
	indices := make([]int, len(slots))
	for pos, i := range order {
		indices[i] = pos + 1
	}

	ranks := a.tk.CanonicalRanks(value)
	groups := make([]string, len(slots))
	attachRanks := make([]int, len(slots))
	for i, s := range slots {
		groups[i] = s.leaf.encoding
		attachRanks[i] = ranks[s.valueAttach]
	}
	indices = canonicalizeDuplicates(groups, attachRanks, indices)
	for i := range slots {
		slots[i].index = indices[i]
	}
}

// canonicalizeDuplicates redistributes the indices held by each group of
// identical leaves so that the lowest index goes to the leaf whose attachment
// ranks earliest on the value.  Applying it twice changes nothing.
func canonicalizeDuplicates(groups []string, ranks, indices []int) []int {
	out := make([]int, len(indices))
	copy(out, indices)

	members := make(map[string][]int)
	for i, g := range groups {
		members[g] = append(members[g], i)
	}
	for _, m := range members {
		if len(m) < 2 {
			continue
		}
		held := make([]int, len(m))
		for j, i := range m {
			held[j] = indices[i]
		}
		sort.Ints(held)
		byRank := append([]int(nil), m...)
		sort.SliceStable(byRank, func(x, y int) bool { return ranks[byRank[x]] < ranks[byRank[y]] })
		for j, i := range byRank {
			out[i] = held[j]
		}
	}
	return out
}

// leaf returns a private copy of the leaf on the leafEnd side of bond,
// building and caching it on first use.
func (a *assembler[M]) leaf(bond BondIdentifier, leafEnd, coreEnd int) (leafEntry[M], error) {
	key := leafKey{bond: edgeOf(bond.Start, bond.End), origin: leafEnd}
	if e, ok := a.leaves.Get(key); ok {
		e.mol = a.tk.Clone(e.mol)
		return e, nil
	}

	oriented := bond
	if oriented.Start != leafEnd {
		oriented = oriented.Reverse()
	}
	atoms, err := a.part.LeafAtoms(oriented, true)
	if err != nil {
		return leafEntry[M]{}, err
	}

	mol := a.tk.Clone(a.source)
	if err := a.tk.ReplaceWithAttachment(mol, coreEnd); err != nil {
		return leafEntry[M]{}, errors.Wrap(err, errors.ErrCodeFragmentationFailed, "failed to place attachment point")
	}
	keep := atoms.Clone()
	keep.Set(coreEnd)
	mol, remap := a.tk.Retain(mol, keep)
	attach := remap[coreEnd]
	if a.opts.removeHydrogens {
		var hmap []int
		mol, hmap = a.tk.RemoveExplicitHydrogens(mol)
		attach = hmap[attach]
	}
	a.assignStereo(mol)

	enc, err := a.tk.Encode(mol)
	if err != nil {
		return leafEntry[M]{}, errors.Wrap(err, errors.ErrCodeMoleculeEncodingFailed, "failed to encode key")
	}
	e := leafEntry[M]{mol: mol, attach: attach, encoding: enc, heavy: atoms.CountWhere(a.isHeavy)}
	a.leaves.Put(key, e)
	a.stats.LeavesGenerated++

	e.mol = a.tk.Clone(mol)
	return e, nil
}

// assignStereo is best effort: failures leave the fragment unchanged.
func (a *assembler[M]) assignStereo(m M) {
	if err := a.tk.AssignStereo(m); err != nil {
		a.stats.StereoFailures++
		a.opts.logger.Warn("stereo assignment failed, keeping fragment as built", logging.Err(err))
	}
}

//Personal.AI order the ending
