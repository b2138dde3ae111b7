package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolFrag/pkg/types/fragment"
)

func TestFragmentCmd_Text(t *testing.T) {
	out, _, err := execute(t, "", "fragment", "NCCO", "--bonds", "0")
	require.NoError(t, err)
	assert.Equal(t, "NCCO\t1\t[1*]CCO\t[1*]N\n", out)
}

func TestFragmentCmd_JSON(t *testing.T) {
	out, _, err := execute(t, "", "fragment", "NCCO", "-o", "json")
	require.NoError(t, err)

	var resp fragment.FragmentResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "NCCO", resp.SMILES)
	assert.Len(t, resp.Records, 9)
}

func TestFragmentCmd_Table(t *testing.T) {
	out, _, err := execute(t, "", "fragment", "NCCO", "--bonds", "2,0", "-o", "table")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "MOLECULE"))
	assert.Equal(t, []string{"NCCO", "2", "0,2", "[1*]N.[2*]O", "[1*]CC[2*]"}, strings.Fields(lines[2]))
}

func TestFragmentCmd_Filters(t *testing.T) {
	out, _, err := execute(t, "", "fragment", "NCCO", "--max-cuts", "1", "--max-value-heavy-atoms", "1", "-o", "json")
	require.NoError(t, err)

	var resp fragment.FragmentResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Records)
	for _, r := range resp.Records {
		assert.LessOrEqual(t, r.ValueHeavyAtoms, 1)
	}
}

func TestFragmentCmd_InputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.smi")
	require.NoError(t, os.WriteFile(path, []byte("# compounds\nNCCO amine\n\nCCO ethanol\n"), 0o600))

	out, _, err := execute(t, "", "fragment", "--input", path, "--max-cuts", "1")
	require.NoError(t, err)

	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		id := strings.SplitN(line, "\t", 2)[0]
		assert.Contains(t, []string{"amine", "ethanol"}, id)
	}
	assert.Contains(t, out, "ethanol\t1\t")
	assert.Contains(t, out, "amine\t1\t")
}

func TestFragmentCmd_Stdin(t *testing.T) {
	out, _, err := execute(t, "NCCO\nC(( broken\n", "fragment", "-i", "-", "-o", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 molecules failed")

	var resp fragment.BatchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	require.NotNil(t, resp.Items[1].Error)
	assert.Equal(t, "MOL_001", resp.Items[1].Error.Code)
}

func TestFragmentCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no molecules", []string{"fragment"}, "no molecules"},
		{"missing file", []string{"fragment", "-i", "/nonexistent/in.smi"}, "cannot open input file"},
		{"invalid smiles", []string{"fragment", "C(("}, ""},
		{"bad pattern", []string{"fragment", "CCO", "--bond-pattern", "triple"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadSMILESFile(t *testing.T) {
	entries, err := readSMILESFile(strings.NewReader("CCO  e1 extra\n  # skip\nc1ccccc1\n"))
	require.NoError(t, err)
	assert.Equal(t, []smilesEntry{{SMILES: "CCO", ID: "e1"}, {SMILES: "c1ccccc1"}}, entries)
	assert.Equal(t, "e1", entries[0].label())
	assert.Equal(t, "c1ccccc1", entries[1].label())
}

//Personal.AI order the ending
