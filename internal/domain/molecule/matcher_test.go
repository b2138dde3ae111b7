package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolFrag/pkg/errors"
)

func bondIndices(t *testing.T, pattern, smiles string) []int {
	t.Helper()
	matcher, err := ParseBondPattern(pattern)
	require.NoError(t, err)
	m, err := ParseSMILES(smiles)
	require.NoError(t, err)
	var out []int
	for _, b := range matcher.Match(m) {
		assert.Less(t, b.Start, b.End)
		out = append(out, b.Index)
	}
	return out
}

func TestRingBonds(t *testing.T) {
	m, err := ParseSMILES("C1CCCCC1CC")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true, true, true, true, false, false}, m.RingBonds())

	spiro, err := ParseSMILES("C1CC12CC2")
	require.NoError(t, err)
	for i, ring := range spiro.RingBonds() {
		assert.True(t, ring, "bond %d", i)
	}

	chain, err := ParseSMILES("CC.CC")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, chain.RingBonds())
}

func TestMatcher_AcyclicSingle(t *testing.T) {
	assert.Equal(t, []int{6, 7}, bondIndices(t, PatternAcyclicSingle, "C1CCCCC1CC"))
	assert.Empty(t, bondIndices(t, PatternAcyclicSingle, "C=C"))
	assert.Empty(t, bondIndices(t, PatternAcyclicSingle, "[H]C([H])([H])[H]"))
	assert.Empty(t, bondIndices(t, PatternAcyclicSingle, "*C"))
}

func TestMatcher_AcyclicSingleCarbon(t *testing.T) {
	// Acetamide: the amide C-N bond has no plain carbon end.
	assert.Equal(t, []int{0}, bondIndices(t, PatternAcyclicSingleCarbon, "CC(=O)N"))
	assert.Empty(t, bondIndices(t, PatternAcyclicSingleCarbon, "NO"))
	assert.Equal(t, []int{0}, bondIndices(t, PatternAcyclicSingleCarbon, "CO"))
}

func TestMatcher_AllSingle(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, bondIndices(t, PatternAllSingle, "C1CCCCC1CC"))
	assert.Empty(t, bondIndices(t, PatternAllSingle, "c1ccccc1"))
}

func TestMatcher_OrderedByBondIdentifier(t *testing.T) {
	m, err := ParseSMILES("CC(C)C")
	require.NoError(t, err)
	matcher, err := ParseBondPattern(PatternAcyclicSingle)
	require.NoError(t, err)

	bonds := matcher.Match(m)
	require.Len(t, bonds, 3)
	for i := 1; i < len(bonds); i++ {
		assert.Negative(t, bonds[i-1].Compare(bonds[i]))
	}
}

func TestParseBondPattern(t *testing.T) {
	for _, name := range BondPatterns() {
		m, err := ParseBondPattern(name)
		require.NoError(t, err)
		assert.Equal(t, name, m.Name())
	}

	def, err := ParseBondPattern("")
	require.NoError(t, err)
	assert.Equal(t, PatternAcyclicSingle, def.Name())

	_, err = ParseBondPattern("[#6]-!@[#6]")
	assert.True(t, errors.IsCode(err, errors.ErrCodeBondPatternUnsupported))
}

func TestBondPatterns(t *testing.T) {
	assert.Equal(t, []string{PatternAcyclicSingle, PatternAcyclicSingleCarbon, PatternAllSingle}, BondPatterns())
}

//Personal.AI order the ending
