package fragmentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitset_SetTestClear(t *testing.T) {
	b := NewBitset(130)
	assert.Equal(t, 130, b.Size())
	assert.Zero(t, b.Count())

	for _, i := range []int{0, 63, 64, 129} {
		b.Set(i)
		assert.True(t, b.Test(i))
	}
	assert.Equal(t, 4, b.Count())

	b.Set(-1)
	b.Set(130)
	assert.False(t, b.Test(130))
	assert.False(t, b.Test(-1))
	assert.Equal(t, 4, b.Count())

	b.Clear(63)
	assert.False(t, b.Test(63))
	assert.Equal(t, []int{0, 64, 129}, b.Indices())
}

func TestBitset_SetOperations(t *testing.T) {
	a := BitsetOf(70, 1, 2, 65)
	b := BitsetOf(70, 2, 3)

	u := a.Union(b)
	assert.Equal(t, []int{1, 2, 3, 65}, u.Indices())
	assert.Equal(t, []int{1, 2, 65}, a.Indices(), "union leaves operands alone")

	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(BitsetOf(70, 0, 69)))

	c := a.Complement()
	assert.Equal(t, 67, c.Count())
	assert.False(t, c.Intersects(a))
	assert.True(t, c.Union(a).Equal(NewBitset(70).Complement()))
}

func TestBitset_CloneIsIndependent(t *testing.T) {
	a := BitsetOf(10, 1)
	c := a.Clone()
	c.Set(2)
	assert.False(t, a.Test(2))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(BitsetOf(11, 1)))
}

func TestBitset_CountWhereAndString(t *testing.T) {
	b := BitsetOf(6, 0, 3, 4)
	assert.Equal(t, 2, b.CountWhere(func(i int) bool { return i%2 == 0 }))
	assert.Equal(t, "100110", b.String())
	assert.Equal(t, "", NewBitset(0).String())
	assert.Zero(t, NewBitset(0).Complement().Count())
}

//Personal.AI order the ending
