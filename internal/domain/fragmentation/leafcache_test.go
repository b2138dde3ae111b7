package fragmentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolFrag/pkg/errors"
)

func TestLeafCache_EvictsLeastRecentlyUsed(t *testing.T) {
	stats := &Stats{}
	c, err := NewLeafCache[string, int](2, stats)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Capacity())

	c.Put("a", 1)
	c.Put("b", 2)
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", 3)
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Contains("b"))
	assert.True(t, c.Contains("a"))
	assert.Equal(t, []string{"a", "c"}, c.Keys())
	assert.EqualValues(t, 1, stats.LeafCacheEvictions)
}

func TestLeafCache_NeverExceedsCapacity(t *testing.T) {
	const capacity = 5
	c, err := NewLeafCache[int, int](capacity, nil)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		c.Put(i, i)
		assert.LessOrEqual(t, c.Len(), capacity)
		if i >= capacity {
			// The oldest untouched key goes first.
			assert.False(t, c.Contains(i-capacity))
		}
	}
	assert.Equal(t, []int{45, 46, 47, 48, 49}, c.Keys())
}

func TestLeafCache_ContainsDoesNotTouchRecency(t *testing.T) {
	c, err := NewLeafCache[string, int](2, nil)
	require.NoError(t, err)
	c.Put("a", 1)
	c.Put("b", 2)
	assert.True(t, c.Contains("a"))
	c.Put("c", 3)
	assert.False(t, c.Contains("a"))
}

func TestLeafCache_HitMissCounters(t *testing.T) {
	stats := &Stats{}
	c, err := NewLeafCache[string, int](4, stats)
	require.NoError(t, err)

	c.Put("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = c.Get("z")
	assert.False(t, ok)

	assert.EqualValues(t, 1, stats.LeafCacheHits)
	assert.EqualValues(t, 1, stats.LeafCacheMisses)
}

func TestLeafCache_Purge(t *testing.T) {
	stats := &Stats{}
	c, err := NewLeafCache[string, int](4, stats)
	require.NoError(t, err)
	c.Put("a", 1)
	c.Put("b", 2)

	c.Purge()
	assert.Zero(t, c.Len())
	assert.Zero(t, stats.LeafCacheEvictions)
}

func TestLeafCache_InvalidCapacity(t *testing.T) {
	_, err := NewLeafCache[string, int](0, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIllegalArgument))
}

//Personal.AI order the ending
