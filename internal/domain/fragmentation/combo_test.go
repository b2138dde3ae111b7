package fragmentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolFrag/internal/testutil"
)

func newTestGenerator(g *fakeGraph, threshold int) (*comboGenerator, *Stats) {
	stats := &Stats{}
	part := NewPartitioner(g, stats)
	return newComboGenerator(part, g.matching, threshold, logging.NewNopLogger(), stats), stats
}

// bruteForce returns the keys of every valid k-combination of matching bonds.
func bruteForce(g *fakeGraph, k int) []string {
	p := NewPartitioner(g, nil)
	var indices []int
	for _, b := range g.matching {
		indices = append(indices, b.Index)
	}
	var valid []Combination
	subsets(indices, k, func(s []int) {
		c := g.combo(s...)
		if _, ok := p.ValuePartition(c); ok {
			valid = append(valid, c)
		}
	})
	sortCombinations(valid)
	return keysOf(valid)
}

func keysOf(cs []Combination) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.Key())
	}
	return out
}

func TestComboGenerator_MatchesBruteForce(t *testing.T) {
	graphs := map[string]*fakeGraph{
		"chain": chain(8),
		"star":  star(4),
		"ring":  ringWithTails(),
	}
	for name, g := range graphs {
		for _, threshold := range []int{1, DefaultTripletThreshold} {
			gen, _ := newTestGenerator(g, threshold)
			for k := 1; k <= 5; k++ {
				assert.Equal(t, bruteForce(g, k), keysOf(gen.Level(k)), "%s level %d threshold %d", name, k, threshold)
			}
		}
	}
}

func TestComboGenerator_LevelOne(t *testing.T) {
	g := ringWithTails()
	gen, _ := newTestGenerator(g, DefaultTripletThreshold)
	assert.Equal(t, []string{"6", "7", "8"}, keysOf(gen.Level(1)))

	var cuttable []int
	for _, b := range gen.Cuttable(1) {
		cuttable = append(cuttable, b.Index)
	}
	assert.Equal(t, []int{6, 7, 8}, cuttable)
}

func TestComboGenerator_StopsAtEmptyLevel(t *testing.T) {
	g := chain(8)
	gen, _ := newTestGenerator(g, DefaultTripletThreshold)

	assert.Len(t, gen.Level(2), 21)
	assert.Empty(t, gen.Level(3))
	assert.True(t, gen.exhausted)
	assert.Empty(t, gen.Level(5))
	assert.Equal(t, 3, gen.built)
	assert.Len(t, gen.Generate(2, 5), 21)
}

func TestComboGenerator_PruningSoundness(t *testing.T) {
	g := star(5)
	gen, stats := newTestGenerator(g, DefaultTripletThreshold)

	combos := gen.Generate(3, 5)
	require.NotEmpty(t, combos)
	invalid := gen.InvalidTriplets(3)
	require.NotEmpty(t, invalid)

	p := NewPartitioner(g, nil)
	for _, c := range combos {
		c.Triplets(func(tr Combination) bool {
			_, bad := invalid[tr.Key()]
			assert.False(t, bad, "combination %s contains invalid triplet %s", c, tr)
			return true
		})
		_, ok := p.ValuePartition(c)
		assert.True(t, ok, "combination %s", c)
	}
	assert.Positive(t, stats.TripletsPruned)
}

func TestComboGenerator_EagerMaterialisation(t *testing.T) {
	g := star(4)
	logger := testutil.NewMockLogger()
	stats := &Stats{}
	gen := newComboGenerator(NewPartitioner(g, stats), g.matching, 1, logger, stats)

	gen.Level(3)
	msg, ok := logger.Find("debug", "materialised invalid triplets")
	require.True(t, ok)
	level, _ := msg.Field("level")
	assert.Equal(t, 3, level)

	// Every triplet of the level-2 frontier was tested up front.
	frontier := gen.Cuttable(2)
	p := NewPartitioner(g, nil)
	var expected int
	NewCombination(frontier...).Triplets(func(tr Combination) bool {
		if _, ok := p.ValuePartition(tr); !ok {
			expected++
		}
		return true
	})
	assert.Len(t, gen.InvalidTriplets(3), expected)
}

func TestComboGenerator_Reset(t *testing.T) {
	g := star(3)
	gen, _ := newTestGenerator(g, DefaultTripletThreshold)
	gen.Level(3)
	gen.reset()
	assert.Zero(t, gen.built)
	assert.Empty(t, gen.levels)
	assert.Empty(t, gen.InvalidTriplets(3))
	assert.NotEmpty(t, gen.Level(2))
}

//Personal.AI order the ending
