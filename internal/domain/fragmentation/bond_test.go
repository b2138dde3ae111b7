package fragmentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolFrag/pkg/errors"
)

func TestNewBondIdentifier(t *testing.T) {
	b, err := NewBondIdentifier(3, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, BondIdentifier{Start: 3, End: 1, Index: 7}, b)

	_, err = NewBondIdentifier(2, 2, 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIllegalArgument))

	_, err = NewBondIdentifier(-1, 2, 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIllegalArgument))
}

func TestBondIdentifier_Direction(t *testing.T) {
	b := BondIdentifier{Start: 1, End: 4, Index: 2}
	r := b.Reverse()

	assert.Equal(t, 4, r.Start)
	assert.Equal(t, 1, r.End)
	assert.True(t, b.Same(r))
	assert.Zero(t, b.Compare(r))
	assert.Equal(t, b, r.Reverse())

	assert.Equal(t, 4, b.Other(1))
	assert.Equal(t, 1, b.Other(4))
	assert.Equal(t, -1, b.Other(9))
}

func TestBondIdentifier_Compare(t *testing.T) {
	tests := []struct {
		a, b BondIdentifier
		want int
	}{
		{BondIdentifier{Start: 0, End: 1, Index: 0}, BondIdentifier{Start: 0, End: 2, Index: 1}, -1},
		{BondIdentifier{Start: 5, End: 1, Index: 4}, BondIdentifier{Start: 2, End: 3, Index: 1}, -1},
		{BondIdentifier{Start: 2, End: 3, Index: 1}, BondIdentifier{Start: 1, End: 5, Index: 4}, 1},
		{BondIdentifier{Start: 1, End: 2, Index: 3, FragIndex: 1}, BondIdentifier{Start: 2, End: 1, Index: 3, FragIndex: 2}, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.Compare(tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestBondIdentifier_String(t *testing.T) {
	b := BondIdentifier{Start: 1, End: 2, Index: 3}
	assert.Equal(t, "1-2#3", b.String())
	assert.Equal(t, "1-2#3[2]", b.WithFragIndex(2).String())
	assert.Zero(t, b.FragIndex)
}

//Personal.AI order the ending
