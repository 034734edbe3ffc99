package viewport

import "sort"

const unmeasured = -1

// HeightIndex stores per-line pixel heights and answers prefix-sum queries.
// Lines that were never measured count as the estimate. Prefix sums are
// rebuilt lazily from the first changed line.
type HeightIndex struct {
	heights  []int
	estimate int

	// prefix[i] is the top of line i; prefix[len(heights)] is the total.
	// Entries below valid are up to date.
	prefix []int
	valid  int
}

// NewHeightIndex creates an index of count unmeasured lines.
func NewHeightIndex(count, estimate int) *HeightIndex {
	h := &HeightIndex{estimate: max(estimate, 1)}
	h.Reset(count)
	return h
}

// Reset forgets every measurement and resizes the index to count lines.
func (h *HeightIndex) Reset(count int) {
	count = max(count, 0)
	h.heights = make([]int, count)
	for i := range h.heights {
		h.heights[i] = unmeasured
	}
	h.prefix = make([]int, count+1)
	h.valid = 1
}

// Len returns the number of lines.
func (h *HeightIndex) Len() int {
	return len(h.heights)
}

// Estimate returns the height assumed for unmeasured lines.
func (h *HeightIndex) Estimate() int {
	return h.estimate
}

// SetEstimate changes the height assumed for unmeasured lines.
func (h *HeightIndex) SetEstimate(px int) {
	h.estimate = max(px, 1)
	h.invalidate(0)
}

// Height returns the height of line n.
func (h *HeightIndex) Height(n int) int {
	if n < 0 || n >= len(h.heights) || h.heights[n] == unmeasured {
		return h.estimate
	}
	return h.heights[n]
}

// Measured reports whether line n has a recorded height.
func (h *HeightIndex) Measured(n int) bool {
	return n >= 0 && n < len(h.heights) && h.heights[n] != unmeasured
}

// Set records the measured height of line n and returns the previous
// height. Out-of-range lines are ignored.
func (h *HeightIndex) Set(n, px int) int {
	old := h.Height(n)
	if n < 0 || n >= len(h.heights) || h.heights[n] == px {
		return old
	}
	h.heights[n] = px
	h.invalidate(n)
	return old
}

// Insert adds count unmeasured lines before line n.
func (h *HeightIndex) Insert(n, count int) {
	if count <= 0 {
		return
	}
	n = min(max(n, 0), len(h.heights))
	added := make([]int, count)
	for i := range added {
		added[i] = unmeasured
	}
	h.heights = append(h.heights[:n], append(added, h.heights[n:]...)...)
	h.prefix = append(h.prefix, make([]int, count)...)
	h.invalidate(n)
}

// Remove drops count lines starting at line n.
func (h *HeightIndex) Remove(n, count int) {
	if n < 0 || n >= len(h.heights) || count <= 0 {
		return
	}
	end := min(n+count, len(h.heights))
	h.heights = append(h.heights[:n], h.heights[end:]...)
	h.prefix = h.prefix[:len(h.heights)+1]
	h.invalidate(n)
}

// Top returns the y of the top of line n. n is clamped to [0, Len].
func (h *HeightIndex) Top(n int) int {
	n = min(max(n, 0), len(h.heights))
	h.build(n)
	return h.prefix[n]
}

// Total returns the height of the whole document.
func (h *HeightIndex) Total() int {
	return h.Top(len(h.heights))
}

// LineAtY returns the line covering y, clamped to the first and last lines.
// It returns -1 for an empty index.
func (h *HeightIndex) LineAtY(y int) int {
	if len(h.heights) == 0 {
		return -1
	}
	h.build(len(h.heights))
	n := sort.Search(len(h.heights), func(i int) bool { return h.prefix[i+1] > y })
	return min(n, len(h.heights)-1)
}

func (h *HeightIndex) invalidate(n int) {
	h.valid = min(h.valid, n+1)
}

// build brings prefix[0..n] up to date.
func (h *HeightIndex) build(n int) {
	for ; h.valid <= n; h.valid++ {
		i := h.valid
		h.prefix[i] = h.prefix[i-1] + h.Height(i-1)
	}
}
