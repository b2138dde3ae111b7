package fragmentation

import (
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
)

// DefaultTripletThreshold is the raw candidate count above which a level's
// invalid triplets are materialised before its candidates are tested.
const DefaultTripletThreshold = 10000

// comboGenerator builds valid n-bond combinations level by level.  Level n is
// derived from the valid combinations of level n-1 extended by the bonds
// cuttable at level n-1.  Candidates containing a known invalid triplet are
// discarded without a graph walk.
type comboGenerator struct {
	part      *Partitioner
	matching  []BondIdentifier
	threshold int
	logger    logging.Logger
	stats     *Stats

	levels   map[int][]Combination
	cuttable map[int][]BondIdentifier
	// invalidTriplets[3] collects every invalid 3-combination seen while
	// validating level 3; higher levels hold eagerly materialised triplets.
	invalidTriplets map[int]map[string]struct{}
	built           int
	exhausted       bool
}

func newComboGenerator(part *Partitioner, matching []BondIdentifier, threshold int, logger logging.Logger, stats *Stats) *comboGenerator {
	if threshold < 1 {
		threshold = DefaultTripletThreshold
	}
	return &comboGenerator{
		part:            part,
		matching:        matching,
		threshold:       threshold,
		logger:          logger,
		stats:           stats,
		levels:          make(map[int][]Combination),
		cuttable:        make(map[int][]BondIdentifier),
		invalidTriplets: make(map[int]map[string]struct{}),
	}
}

// Generate returns the valid combinations of size minCuts..maxCuts, ordered
// by size then canonically.
func (g *comboGenerator) Generate(minCuts, maxCuts int) []Combination {
	g.buildTo(maxCuts)
	var out []Combination
	for n := minCuts; n <= maxCuts; n++ {
		out = append(out, g.levels[n]...)
	}
	return out
}

// Level returns the valid combinations of exactly n bonds.
func (g *comboGenerator) Level(n int) []Combination {
	g.buildTo(n)
	return g.levels[n]
}

// Cuttable returns the bonds taking part in at least one valid n-combination.
func (g *comboGenerator) Cuttable(n int) []BondIdentifier {
	g.buildTo(n)
	out := make([]BondIdentifier, len(g.cuttable[n]))
	copy(out, g.cuttable[n])
	return out
}

// InvalidTriplets returns the invalid triplet keys recorded for level n.
func (g *comboGenerator) InvalidTriplets(n int) map[string]struct{} {
	return g.invalidTriplets[n]
}

func (g *comboGenerator) buildTo(n int) {
	for g.built < n && !g.exhausted {
		next := g.built + 1
		var level []Combination
		if next == 1 {
			level = g.buildSingles()
		} else {
			level = g.buildLevel(next)
		}
		g.levels[next] = level
		g.cuttable[next] = bondsOf(level)
		g.built = next
		if len(level) == 0 {
			g.exhausted = true
		}
	}
}

func (g *comboGenerator) buildSingles() []Combination {
	var level []Combination
	for _, b := range g.matching {
		c := NewCombination(b)
		g.stats.CombinationsTested++
		if _, ok := g.part.ValuePartition(c); ok {
			level = append(level, c)
		} else {
			g.stats.InvalidCombinations++
		}
	}
	sortCombinations(level)
	return level
}

func (g *comboGenerator) buildLevel(n int) []Combination {
	prev := g.levels[n-1]
	frontier := g.cuttable[n-1]

	if n >= 3 && (len(prev)*len(frontier) > g.threshold || n == 4) {
		g.materialiseTriplets(n, frontier)
	}

	seen := make(map[string]struct{})
	var level []Combination
	for _, base := range prev {
		for _, b := range frontier {
			if base.Contains(b) {
				continue
			}
			cand := base.With(b)
			key := cand.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			if n >= 3 && g.hasInvalidTriplet(cand, n) {
				g.stats.TripletsPruned++
				continue
			}
			g.stats.CombinationsTested++
			if _, ok := g.part.ValuePartition(cand); ok {
				level = append(level, cand)
				continue
			}
			g.stats.InvalidCombinations++
			if n == 3 {
				g.recordTriplet(3, cand)
			}
		}
	}
	sortCombinations(level)
	return level
}

func (g *comboGenerator) hasInvalidTriplet(c Combination, n int) bool {
	base, own := g.invalidTriplets[3], g.invalidTriplets[n]
	if len(base) == 0 && len(own) == 0 {
		return false
	}
	found := false
	c.Triplets(func(t Combination) bool {
		key := t.Key()
		if _, bad := base[key]; bad {
			found = true
		} else if _, bad := own[key]; bad {
			found = true
		}
		return !found
	})
	return found
}

func (g *comboGenerator) recordTriplet(n int, t Combination) {
	set, ok := g.invalidTriplets[n]
	if !ok {
		set = make(map[string]struct{})
		g.invalidTriplets[n] = set
	}
	set[t.Key()] = struct{}{}
}

// materialiseTriplets tests every 3-subset of frontier and records the
// invalid ones for level n.
func (g *comboGenerator) materialiseTriplets(n int, frontier []BondIdentifier) {
	g.invalidTriplets[n] = make(map[string]struct{})
	NewCombination(frontier...).Triplets(func(t Combination) bool {
		if _, ok := g.part.ValuePartition(t); !ok {
			g.recordTriplet(n, t)
		}
		return true
	})
	g.logger.Debug("materialised invalid triplets",
		logging.Int("level", n),
		logging.Int("frontier", len(frontier)),
		logging.Int("invalid", len(g.invalidTriplets[n])))
}

func (g *comboGenerator) reset() {
	g.levels = make(map[int][]Combination)
	g.cuttable = make(map[int][]BondIdentifier)
	g.invalidTriplets = make(map[int]map[string]struct{})
	g.built = 0
	g.exhausted = false
}

// bondsOf returns the distinct bonds of cs in canonical order.
func bondsOf(cs []Combination) []BondIdentifier {
	var all []BondIdentifier
	for _, c := range cs {
		all = append(all, c.bonds...)
	}
	return NewCombination(all...).bonds
}

//Personal.AI order the ending
