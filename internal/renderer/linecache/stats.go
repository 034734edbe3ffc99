package linecache

// Stats holds cache statistics.
type Stats struct {
	Size        int
	Capacity    int
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	IdleFlushes uint64

	// SizeOnly counts size-only requests that bypassed the cache.
	SizeOnly uint64

	Invalidations InvalidationStats
}

// InvalidationStats counts invalidation calls by entry point, plus the
// number of displays actually removed or marked.
type InvalidationStats struct {
	Display uint64
	Cursors uint64
	Line    uint64
	Range   uint64
	YRange  uint64
	All     uint64

	Removed uint64
	Marked  uint64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
