package fragmentation

import (
	"context"
	"sync/atomic"

	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolFrag/pkg/errors"
)

// Factory fragments one source molecule.  It owns the partition memo, the
// combination levels and the leaf cache, all released by Close.  Every call
// after Close fails with ErrCodeFactoryClosed.
//
// A Factory is not safe for concurrent use; only the closed flag is atomic.
type Factory[M any] struct {
	graph  MoleculeGraph
	tk     Toolkit[M]
	opts   options
	logger logging.Logger
	stats  Stats

	part   *Partitioner
	combos *comboGenerator
	leaves *LeafCache[leafKey, leafEntry[M]]
	asm    *assembler[M]

	matching    []BondIdentifier
	edgeToIndex map[edge]int
	indexToEdge map[int]edge

	maxCuts      int
	maxCutsKnown bool

	closed atomic.Bool
}

// NewFactory binds a Factory to source, described by graph and manipulated
// through tk.
func NewFactory[M any](graph MoleculeGraph, source M, tk Toolkit[M], opts ...Option) (*Factory[M], error) {
	if graph == nil {
		return nil, errors.New(errors.ErrCodeIllegalArgument, "molecule graph must not be nil")
	}
	if tk == nil {
		return nil, errors.New(errors.ErrCodeIllegalArgument, "toolkit must not be nil")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.tripletThreshold < 1 {
		return nil, errors.Newf(errors.ErrCodeIllegalArgument, "triplet threshold must be ≥ 1, got %d", o.tripletThreshold)
	}

	f := &Factory[M]{
		graph:       graph,
		tk:          tk,
		opts:        o,
		logger:      o.logger.Named("fragmentation"),
		edgeToIndex: make(map[edge]int),
		indexToEdge: make(map[int]edge),
	}

	leaves, err := NewLeafCache[leafKey, leafEntry[M]](o.leafCacheCapacity, &f.stats)
	if err != nil {
		return nil, err
	}
	f.leaves = leaves

	for _, b := range graph.MatchingBonds() {
		if err := f.checkAdjacent(b); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFragmentationFailed, "matcher returned a bond outside the molecule")
		}
		e := edgeOf(b.Start, b.End)
		if _, dup := f.edgeToIndex[e]; dup {
			continue
		}
		f.edgeToIndex[e] = b.Index
		f.indexToEdge[b.Index] = e
		f.matching = append(f.matching, b)
	}
	sortBonds(f.matching)

	heavy := 0
	for i := 0; i < graph.AtomCount(); i++ {
		if graph.IsHeavy(i) {
			heavy++
		}
	}

	f.part = NewPartitioner(graph, &f.stats)
	f.combos = newComboGenerator(f.part, f.matching, o.tripletThreshold, f.logger, &f.stats)
	f.asm = &assembler[M]{
		graph:      graph,
		source:     source,
		tk:         tk,
		part:       f.part,
		leaves:     f.leaves,
		opts:       &f.opts,
		stats:      &f.stats,
		heavyTotal: heavy,
	}
	return f, nil
}

func (f *Factory[M]) checkOpen() error {
	if f.closed.Load() {
		return errors.New(errors.ErrCodeFactoryClosed, "fragmentation factory is closed")
	}
	return nil
}

func (f *Factory[M]) checkAdjacent(b BondIdentifier) error {
	n := f.graph.AtomCount()
	if b.Start == b.End || b.Start < 0 || b.End < 0 || b.Start >= n || b.End >= n {
		return errors.Newf(errors.ErrCodeFragmentationFailed, "bond %s is not part of the molecule", b)
	}
	for _, nb := range f.graph.Neighbours(b.Start) {
		if nb == b.End {
			return nil
		}
	}
	return errors.Newf(errors.ErrCodeFragmentationFailed, "bond %s is not part of the molecule", b)
}

// checkBond verifies that b is a bond of the molecule and that its index
// agrees with the matcher's numbering.
func (f *Factory[M]) checkBond(b BondIdentifier) error {
	if err := f.checkAdjacent(b); err != nil {
		return err
	}
	e := edgeOf(b.Start, b.End)
	if idx, ok := f.edgeToIndex[e]; ok && idx != b.Index {
		return errors.Newf(errors.ErrCodeFragmentationFailed, "bond %s has index %d in the molecule", b, idx)
	}
	if known, ok := f.indexToEdge[b.Index]; ok && known != e {
		return errors.Newf(errors.ErrCodeFragmentationFailed, "bond index %d names atoms %d-%d", b.Index, known.a, known.b)
	}
	return nil
}

// MatchingBonds returns the cuttable candidates reported by the matcher.
func (f *Factory[M]) MatchingBonds() ([]BondIdentifier, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]BondIdentifier, len(f.matching))
	copy(out, f.matching)
	return out, nil
}

// FragmentSingleBond cuts bond once.  The Start side becomes the value and
// the End side the key.
func (f *Factory[M]) FragmentSingleBond(bond BondIdentifier) (*FragmentSet[M], error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if err := f.checkBond(bond); err != nil {
		return nil, err
	}
	set, err := f.singleRaw(bond)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, errors.Newf(errors.ErrCodeFragmentationFailed, "bond %s does not yield a valid fragmentation", bond)
	}
	return set, nil
}

// FragmentBondInsertion cuts bond and keeps both sides as keys; the value is
// the two attachment points joined by the original bond.
func (f *Factory[M]) FragmentBondInsertion(bond BondIdentifier) (*FragmentSet[M], error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if err := f.checkBond(bond); err != nil {
		return nil, err
	}
	set, err := f.insertionRaw(bond)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, errors.Newf(errors.ErrCodeFragmentationFailed, "bond %s does not yield a valid bond insertion", bond)
	}
	return set, nil
}

// FragmentCombination cuts every bond in bonds simultaneously.  An invalid
// or filtered combination is reported as ErrCodeFragmentationFailed.
func (f *Factory[M]) FragmentCombination(bonds ...BondIdentifier) (*FragmentSet[M], error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if len(bonds) == 0 {
		return nil, errors.New(errors.ErrCodeFragmentationFailed, "bond set must not be empty")
	}
	for _, b := range bonds {
		if err := f.checkBond(b); err != nil {
			return nil, err
		}
	}
	c := NewCombination(bonds...)
	if c.Len() != len(bonds) {
		return nil, errors.New(errors.ErrCodeFragmentationFailed, "bond set contains duplicate bonds")
	}
	if c.Len() == 1 {
		return f.FragmentSingleBond(bonds[0])
	}
	set, err := f.combinationRaw(c)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, errors.Newf(errors.ErrCodeFragmentationFailed, "combination %s does not yield a valid fragmentation", c)
	}
	return set, nil
}

// FragmentCombinationRaw is the bulk-enumeration variant of
// FragmentCombination: an invalid or filtered combination yields (nil, nil).
func (f *Factory[M]) FragmentCombinationRaw(c Combination) (*FragmentSet[M], error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if c.Len() == 0 {
		return nil, errors.New(errors.ErrCodeFragmentationFailed, "bond set must not be empty")
	}
	for _, b := range c.bonds {
		if err := f.checkBond(b); err != nil {
			return nil, err
		}
	}
	if c.Len() == 1 {
		return f.singleRaw(c.At(0))
	}
	return f.combinationRaw(c)
}

func (f *Factory[M]) singleRaw(bond BondIdentifier) (*FragmentSet[M], error) {
	if _, ok := f.part.ValuePartition(NewCombination(bond)); !ok {
		f.stats.InvalidCombinations++
		return nil, nil
	}
	core, err := f.part.LeafAtoms(bond, true)
	if err != nil {
		return nil, err
	}
	return f.asm.assemble(NewCombination(bond), core)
}

func (f *Factory[M]) insertionRaw(bond BondIdentifier) (*FragmentSet[M], error) {
	if _, ok := f.part.ValuePartition(NewCombination(bond)); !ok {
		f.stats.InvalidCombinations++
		return nil, nil
	}
	return f.asm.assembleInsertion(bond)
}

func (f *Factory[M]) combinationRaw(c Combination) (*FragmentSet[M], error) {
	core, ok := f.part.ValuePartition(c)
	if !ok {
		f.stats.InvalidCombinations++
		return nil, nil
	}
	return f.asm.assemble(c, core)
}

// EnumerateCombinations returns every valid combination of minCuts..maxCuts
// bonds.
func (f *Factory[M]) EnumerateCombinations(minCuts, maxCuts int) ([]Combination, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if minCuts < 2 {
		return nil, errors.Newf(errors.ErrCodeIllegalArgument, "minimum number of cuts must be ≥ 2, got %d", minCuts)
	}
	if maxCuts < minCuts {
		return nil, errors.Newf(errors.ErrCodeIllegalArgument, "maximum number of cuts %d is below minimum %d", maxCuts, minCuts)
	}
	return f.combos.Generate(minCuts, maxCuts), nil
}

// EnumerateCombinationsN returns every valid combination of exactly n bonds.
func (f *Factory[M]) EnumerateCombinationsN(n int) ([]Combination, error) {
	return f.EnumerateCombinations(n, n)
}

// CuttableBonds returns the bonds that take part in at least one valid
// n-bond combination.
func (f *Factory[M]) CuttableBonds(n int) ([]BondIdentifier, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, errors.Newf(errors.ErrCodeIllegalArgument, "number of cuts must be ≥ 1, got %d", n)
	}
	return f.combos.Cuttable(n), nil
}

// MaximumCuts returns the upper bound on simultaneous cuts: the number of
// one-attachment fragments left after cutting every matching bond.  With
// allowDoubleCutOfSingleBond a lone cuttable bond counts twice.
func (f *Factory[M]) MaximumCuts(allowDoubleCutOfSingleBond bool) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if !f.maxCutsKnown {
		f.maxCuts = f.countMaximumCuts()
		f.maxCutsKnown = true
	}
	if allowDoubleCutOfSingleBond && f.maxCuts == 1 {
		return 2, nil
	}
	return f.maxCuts, nil
}

func (f *Factory[M]) countMaximumCuts() int {
	switch len(f.matching) {
	case 0:
		return 0
	case 1:
		return 1
	}
	all := NewCombination(f.matching...)
	blocked := blockedEdges(all)
	seen := NewBitset(f.graph.AtomCount())
	leaves := 0
	for atom := 0; atom < f.graph.AtomCount(); atom++ {
		if seen.Test(atom) {
			continue
		}
		comp := f.part.walk(atom, blocked)
		seen = seen.Union(comp)
		attachments := 0
		for _, b := range all.bonds {
			if comp.Test(b.Start) {
				attachments++
			}
			if comp.Test(b.End) {
				attachments++
			}
		}
		if attachments == 1 {
			leaves++
		}
	}
	return leaves
}

// BulkOptions selects what FragmentAll enumerates.
type BulkOptions struct {
	MinCuts int
	MaxCuts int
	// BondInsertion adds a bond-insertion set for every single cuttable bond.
	BondInsertion bool
}

// BulkResult holds the sets produced by FragmentAll.  When Cancelled is set
// the sets are the valid prefix computed before the context ended.
type BulkResult[M any] struct {
	Sets      []*FragmentSet[M]
	Cancelled bool
	Stats     Stats
}

// FragmentAll breaks the molecule along every valid combination of
// opts.MinCuts..opts.MaxCuts matching bonds.  Single cuts are emitted in both
// directions.  ctx is checked between fragmentations.
func (f *Factory[M]) FragmentAll(ctx context.Context, opts BulkOptions) (*BulkResult[M], error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if opts.MinCuts < 1 {
		return nil, errors.Newf(errors.ErrCodeIllegalArgument, "minimum number of cuts must be ≥ 1, got %d", opts.MinCuts)
	}
	if opts.MaxCuts < opts.MinCuts {
		return nil, errors.Newf(errors.ErrCodeIllegalArgument, "maximum number of cuts %d is below minimum %d", opts.MaxCuts, opts.MinCuts)
	}

	res := &BulkResult[M]{}
	stop := func() (bool, error) {
		if err := f.checkOpen(); err != nil {
			return true, err
		}
		if ctx.Err() != nil {
			res.Cancelled = true
			return true, nil
		}
		return false, nil
	}
	keep := func(set *FragmentSet[M]) {
		if set != nil {
			res.Sets = append(res.Sets, set)
		}
	}

	if opts.MinCuts == 1 {
		for _, b := range f.combos.Cuttable(1) {
			for _, dir := range []BondIdentifier{b, b.Reverse()} {
				if done, err := stop(); done {
					return f.finishBulk(res, err)
				}
				set, err := f.singleRaw(dir)
				if err != nil {
					return f.finishBulk(res, err)
				}
				keep(set)
			}
			if opts.BondInsertion {
				if done, err := stop(); done {
					return f.finishBulk(res, err)
				}
				set, err := f.insertionRaw(b)
				if err != nil {
					return f.finishBulk(res, err)
				}
				keep(set)
			}
		}
	}

	first := opts.MinCuts
	if first < 2 {
		first = 2
	}
	for n := first; n <= opts.MaxCuts; n++ {
		if done, err := stop(); done {
			return f.finishBulk(res, err)
		}
		level := f.combos.Level(n)
		if len(level) == 0 {
			break
		}
		for _, c := range level {
			if done, err := stop(); done {
				return f.finishBulk(res, err)
			}
			set, err := f.combinationRaw(c)
			if err != nil {
				return f.finishBulk(res, err)
			}
			keep(set)
		}
	}
	return f.finishBulk(res, nil)
}

func (f *Factory[M]) finishBulk(res *BulkResult[M], err error) (*BulkResult[M], error) {
	res.Stats = f.stats
	if res.Cancelled {
		f.logger.Info("fragmentation cancelled, returning partial result",
			logging.Int("sets", len(res.Sets)))
	}
	return res, err
}

// Stats returns a snapshot of the work counters.
func (f *Factory[M]) Stats() Stats { return f.stats }

// Closed reports whether Close has been called.
func (f *Factory[M]) Closed() bool { return f.closed.Load() }

// Close releases every cache.  Calling it again is a no-op.
func (f *Factory[M]) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	f.leaves.Purge()
	f.part.reset()
	f.combos.reset()
	f.logger.Debug("fragmentation factory closed",
		logging.Int64("leaves_generated", f.stats.LeavesGenerated),
		logging.Int64("leaf_cache_hits", f.stats.LeafCacheHits),
		logging.Int64("partitions_computed", f.stats.PartitionsComputed),
		logging.Int64("combinations_tested", f.stats.CombinationsTested),
		logging.Int64("triplets_pruned", f.stats.TripletsPruned))
	return nil
}

//Personal.AI order the ending
