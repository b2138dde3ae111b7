package fragmentation

// Stats are the work counters of one Factory.  They are owned by the factory
// and reset only when a new factory is built.
type Stats struct {
	LeavesGenerated     int64 `json:"leaves_generated"`
	LeafCacheHits       int64 `json:"leaf_cache_hits"`
	LeafCacheMisses     int64 `json:"leaf_cache_misses"`
	LeafCacheEvictions  int64 `json:"leaf_cache_evictions"`
	PartitionsComputed  int64 `json:"partitions_computed"`
	PartitionCacheHits  int64 `json:"partition_cache_hits"`
	CombinationsTested  int64 `json:"combinations_tested"`
	TripletsPruned      int64 `json:"triplets_pruned"`
	InvalidCombinations int64 `json:"invalid_combinations"`
	FilteredOut         int64 `json:"filtered_out"`
	FragmentSetsBuilt   int64 `json:"fragment_sets_built"`
	StereoFailures      int64 `json:"stereo_failures"`
}

// Add returns the element-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		LeavesGenerated:     s.LeavesGenerated + o.LeavesGenerated,
		LeafCacheHits:       s.LeafCacheHits + o.LeafCacheHits,
		LeafCacheMisses:     s.LeafCacheMisses + o.LeafCacheMisses,
		LeafCacheEvictions:  s.LeafCacheEvictions + o.LeafCacheEvictions,
		PartitionsComputed:  s.PartitionsComputed + o.PartitionsComputed,
		PartitionCacheHits:  s.PartitionCacheHits + o.PartitionCacheHits,
		CombinationsTested:  s.CombinationsTested + o.CombinationsTested,
		TripletsPruned:      s.TripletsPruned + o.TripletsPruned,
		InvalidCombinations: s.InvalidCombinations + o.InvalidCombinations,
		FilteredOut:         s.FilteredOut + o.FilteredOut,
		FragmentSetsBuilt:   s.FragmentSetsBuilt + o.FragmentSetsBuilt,
		StereoFailures:      s.StereoFailures + o.StereoFailures,
	}
}

//Personal.AI order the ending
