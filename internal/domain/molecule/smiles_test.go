package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolFrag/pkg/errors"
)

func TestParseSMILES_Structure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		atoms int
		bonds int
	}{
		{"ethanol", "CCO", 3, 2},
		{"branch", "CC(C)(C)O", 5, 4},
		{"benzene", "c1ccccc1", 6, 6},
		{"percent ring", "C%10CC%10", 3, 3},
		{"two components", "CC.O", 3, 1},
		{"halogens", "ClCBr", 3, 2},
		{"title ignored", "CCO ethanol", 3, 2},
		{"ring bond symbol at close", "C1CCC=1", 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseSMILES(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.atoms, m.NumAtoms())
			assert.Equal(t, tt.bonds, m.NumBonds())
		})
	}
}

func TestParseSMILES_BondOrders(t *testing.T) {
	m, err := ParseSMILES("C=CC#N")
	require.NoError(t, err)
	assert.Equal(t, Double, m.Bonds[0].Order)
	assert.Equal(t, Single, m.Bonds[1].Order)
	assert.Equal(t, Triple, m.Bonds[2].Order)

	arom, err := ParseSMILES("c1ccccc1-c1ccccc1")
	require.NoError(t, err)
	for i, b := range arom.Bonds {
		if i == 6 {
			assert.Equal(t, Single, b.Order, "biaryl bond")
			continue
		}
		assert.Equal(t, Aromatic, b.Order)
	}

	ring, err := ParseSMILES("C1CCC=1")
	require.NoError(t, err)
	assert.Equal(t, Double, ring.Bonds[3].Order)
}

func TestParseSMILES_BracketAtoms(t *testing.T) {
	m, err := ParseSMILES("[13CH3][NH3+]")
	require.NoError(t, err)
	require.Equal(t, 2, m.NumAtoms())

	c := m.Atoms[0]
	assert.Equal(t, "C", c.Element)
	assert.Equal(t, 13, c.Isotope)
	assert.Equal(t, 3, c.HCount)
	assert.True(t, c.Bracket)

	n := m.Atoms[1]
	assert.Equal(t, "N", n.Element)
	assert.Equal(t, 1, n.Charge)

	neg, err := ParseSMILES("[O--]")
	require.NoError(t, err)
	assert.Equal(t, -2, neg.Atoms[0].Charge)

	pos, err := ParseSMILES("[Fe+3]")
	require.NoError(t, err)
	assert.Equal(t, 3, pos.Atoms[0].Charge)

	arom, err := ParseSMILES("[nH]1cccc1")
	require.NoError(t, err)
	assert.True(t, arom.Atoms[0].Aromatic)
	assert.Equal(t, "N", arom.Atoms[0].Element)
	assert.Equal(t, 1, arom.Atoms[0].HCount)

	chiral, err := ParseSMILES("C[C@@H](O)N")
	require.NoError(t, err)
	assert.Equal(t, 1, chiral.Atoms[1].HCount)
}

func TestParseSMILES_AttachmentPoints(t *testing.T) {
	tests := []struct {
		input string
		label int
	}{
		{"*C", 0},
		{"[*]C", 0},
		{"[1*]C", 1},
		{"[*:2]C", 2},
		{"[12*]C", 12},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := ParseSMILES(tt.input)
			require.NoError(t, err)
			a := m.Atoms[0]
			assert.True(t, a.Attachment)
			assert.Equal(t, tt.label, a.Label)
			assert.Zero(t, a.Isotope)
			assert.False(t, a.IsHydrogen())
		})
	}
}

func TestParseSMILES_Errors(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"C(",
		"C)",
		"(C)",
		"C1CC",
		"[C",
		"C==C",
		"C=",
		"=C",
		"C=.C",
		"Xy",
		"[]",
		"C%1",
		"C1CC=1-1",
		"CC(=)C",
		"C11",
		"[C:x]",
		"[C?]",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ParseSMILES(in)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeInvalidSMILES), err.Error())
		})
	}
}

func TestParseSMILES_ErrorDetail(t *testing.T) {
	_, err := ParseSMILES("CC)")
	require.Error(t, err)
	var ae *errors.AppError
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, ae.Detail, "position 2")
}

func TestWriteSMILES_SimpleForms(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"C", "C"},
		{"CC", "CC"},
		{"[NH4+]", "[NH4+]"},
		{"[2H]", "[2H]"},
		{"*", "*"},
		{"[3*]", "[3*]"},
		{"[1*][2*]", "[1*][2*]"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := ParseSMILES(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.WriteSMILES())
		})
	}
}

func TestWriteSMILES_InvariantUnderAtomOrder(t *testing.T) {
	groups := [][]string{
		{"CCO", "OCC", "C(O)C"},
		{"Cc1ccccc1", "c1ccccc1C", "c1cc(C)ccc1"},
		{"CC(=O)O", "OC(C)=O", "O=C(O)C"},
		{"NC1CC1", "C1CC1N", "C1C(N)C1"},
		{"CC(C)(C)Cl", "ClC(C)(C)C", "C(C)(Cl)(C)C"},
		{"OCCN.Cl", "Cl.NCCO"},
		{"[1*]CC[2*]", "[2*]CC[1*]"},
		{"C1CC2CCC1C2", "C2CC1CCC2C1"},
		{"c1ccc2ccccc2c1", "c1cc2ccccc2cc1"},
	}
	for _, g := range groups {
		t.Run(g[0], func(t *testing.T) {
			var want string
			for i, in := range g {
				m, err := ParseSMILES(in)
				require.NoError(t, err)
				got := m.WriteSMILES()
				if i == 0 {
					want = got
					continue
				}
				assert.Equal(t, want, got, "input %s", in)
			}
		})
	}
}

func TestWriteSMILES_RoundTrip(t *testing.T) {
	inputs := []string{
		"CCO",
		"c1ccccc1-c1ccccc1",
		"C1CC%10CC1.C%10",
		"OC(=O)c1ccccc1O",
		"CC(C)(C)[N+](C)(C)C",
		"C1CC2CC1CC2",
		"[1*]c1ccc([2*])cc1",
		"C#CC=C",
		"[13CH3]O",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			m, err := ParseSMILES(in)
			require.NoError(t, err)
			first := m.WriteSMILES()

			again, err := ParseSMILES(first)
			require.NoError(t, err, first)
			assert.Equal(t, m.NumAtoms(), again.NumAtoms())
			assert.Equal(t, m.NumBonds(), again.NumBonds())
			assert.Equal(t, first, again.WriteSMILES())
		})
	}
}

func TestWriteSMILES_Empty(t *testing.T) {
	assert.Equal(t, "", New().WriteSMILES())
}

func TestCanonicalRanks_BreaksEveryTie(t *testing.T) {
	for _, in := range []string{"c1ccccc1", "C1CC1", "CC", "C12C3C4C1C5C2C3C45", "OCCO"} {
		m, err := ParseSMILES(in)
		require.NoError(t, err)
		ranks := m.CanonicalRanks()
		seen := make(map[int]bool)
		for _, r := range ranks {
			assert.GreaterOrEqual(t, r, 0)
			assert.Less(t, r, m.NumAtoms())
			seen[r] = true
		}
		assert.Len(t, seen, m.NumAtoms(), in)
	}
	assert.Nil(t, New().CanonicalRanks())
}

//Personal.AI order the ending
