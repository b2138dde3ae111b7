package fragmentation

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/turtacn/MolFrag/pkg/errors"
)

// leafEntry is a materialised leaf: the molecule with its single attachment
// point still unlabelled, the attachment atom index and the unlabelled
// canonical encoding used to detect duplicate leaves.
type leafEntry[M any] struct {
	mol      M
	attach   int
	encoding string
	heavy    int
}

// LeafCache is a fixed-capacity least-recently-used map from a bond side to
// its leaf.  Entries are never handed out directly; callers receive clones.
type LeafCache[K comparable, V any] struct {
	lru      *lru.Cache[K, V]
	capacity int
	stats    *Stats
}

// NewLeafCache returns a cache holding at most capacity entries.  stats may be
// nil.
func NewLeafCache[K comparable, V any](capacity int, stats *Stats) (*LeafCache[K, V], error) {
	if capacity < 1 {
		return nil, errors.Newf(errors.ErrCodeIllegalArgument, "leaf cache capacity must be ≥ 1, got %d", capacity)
	}
	if stats == nil {
		stats = &Stats{}
	}
	c, err := lru.NewWithEvict[K, V](capacity, func(K, V) { stats.LeafCacheEvictions++ })
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create leaf cache")
	}
	return &LeafCache[K, V]{lru: c, capacity: capacity, stats: stats}, nil
}

// Get returns the cached value and marks it most recently used.
func (c *LeafCache[K, V]) Get(key K) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.stats.LeafCacheHits++
	} else {
		c.stats.LeafCacheMisses++
	}
	return v, ok
}

// Put inserts or refreshes key, evicting the least recently used entry once
// the capacity is exceeded.
func (c *LeafCache[K, V]) Put(key K, value V) {
	c.lru.Add(key, value)
}

// Contains reports presence without touching recency.
func (c *LeafCache[K, V]) Contains(key K) bool {
	return c.lru.Contains(key)
}

// Len returns the number of cached entries.
func (c *LeafCache[K, V]) Len() int { return c.lru.Len() }

// Capacity returns the configured bound.
func (c *LeafCache[K, V]) Capacity() int { return c.capacity }

// Keys returns the keys from least to most recently used.
func (c *LeafCache[K, V]) Keys() []K { return c.lru.Keys() }

// Purge drops every entry.  Evictions caused by Purge are not counted.
func (c *LeafCache[K, V]) Purge() {
	before := c.stats.LeafCacheEvictions
	c.lru.Purge()
	c.stats.LeafCacheEvictions = before
}

//Personal.AI order the ending
