// Package viewport tracks the pixel geometry of the view: which slice of the
// document is on screen and where each line starts.
package viewport

import (
	"math"
	"sync"
)

// Viewport is the visible window over the document, in pixels.
type Viewport struct {
	mu sync.RWMutex

	top    int
	width  int
	height int

	// Content height, used to clamp scrolling.
	content int

	// Scroll margins keep a revealed target this far from the edges.
	marginTop    int
	marginBottom int

	target       int
	animating    bool
	smoothScroll bool
}

// NewViewport creates a viewport of the given pixel size, clamped to at
// least 1x1.
func NewViewport(width, height int) *Viewport {
	return &Viewport{
		width:        max(width, 1),
		height:       max(height, 1),
		smoothScroll: true,
	}
}

// Width returns the viewport width.
func (v *Viewport) Width() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width
}

// Height returns the viewport height.
func (v *Viewport) Height() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.height
}

// Top returns the document y shown at the top edge.
func (v *Viewport) Top() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.top
}

// Bottom returns the document y just below the bottom edge.
func (v *Viewport) Bottom() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.top + v.height
}

// Resize updates the viewport size, clamped to at least 1x1.
func (v *Viewport) Resize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.width = max(width, 1)
	v.height = max(height, 1)
	v.top = v.clamp(v.top)
	v.target = v.clamp(v.target)
}

// SetContentHeight sets the document height used to clamp scrolling.
func (v *Viewport) SetContentHeight(h int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.content = max(h, 0)
	v.top = v.clamp(v.top)
	v.target = v.clamp(v.target)
}

// SetMargins sets the scroll margins in pixels.
func (v *Viewport) SetMargins(top, bottom int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.marginTop = max(top, 0)
	v.marginBottom = max(bottom, 0)
}

// Margins returns the scroll margins.
func (v *Viewport) Margins() (top, bottom int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.marginTop, v.marginBottom
}

// SetSmoothScroll enables or disables animated scrolling.
func (v *Viewport) SetSmoothScroll(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.smoothScroll = enabled
}

// Visible reports whether the band [y, y+h) intersects the viewport. A zero
// height band counts as one pixel.
func (v *Viewport) Visible(y, h int) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return y < v.top+v.height && y+max(h, 1) > v.top
}

// ScrollTo scrolls so y is at the top edge.
func (v *Viewport) ScrollTo(y int, smooth bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.moveTo(v.clamp(y), smooth)
}

// ScrollBy scrolls by dy pixels.
func (v *Viewport) ScrollBy(dy int, smooth bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	base := v.top
	if v.animating {
		base = v.target
	}
	v.moveTo(v.clamp(base+dy), smooth)
}

// ScrollToReveal scrolls minimally so the band [y, y+h) plus the margins is
// on screen. It returns true if scrolling was needed.
func (v *Viewport) ScrollToReveal(y, h int, smooth bool) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	h = max(h, 1)
	target := v.top
	switch {
	case y-v.marginTop < v.top:
		target = y - v.marginTop
	case y+h+v.marginBottom > v.top+v.height:
		target = y + h + v.marginBottom - v.height
		if target > y {
			// Taller than the viewport: show the start.
			target = y
		}
	default:
		return false
	}
	target = v.clamp(target)
	if target == v.top {
		return false
	}
	v.moveTo(target, smooth)
	return true
}

// CenterOn scrolls so y is in the middle of the viewport.
func (v *Viewport) CenterOn(y int, smooth bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.moveTo(v.clamp(y-v.height/2), smooth)
}

// PageUp scrolls up by one page, keeping a tenth of it as overlap.
func (v *Viewport) PageUp(smooth bool) {
	v.ScrollBy(-v.pageSize(), smooth)
}

// PageDown scrolls down by one page, keeping a tenth of it as overlap.
func (v *Viewport) PageDown(smooth bool) {
	v.ScrollBy(v.pageSize(), smooth)
}

func (v *Viewport) pageSize() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return max(v.height-v.height/10, 1)
}

// ScrollPercent returns how far through the document the top edge is, from
// 0 to 1.
func (v *Viewport) ScrollPercent() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	maxTop := v.maxTop()
	if maxTop == 0 {
		return 0
	}
	return float64(v.top) / float64(maxTop)
}

// IsAnimating returns true if a scroll animation is in progress.
func (v *Viewport) IsAnimating() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.animating
}

// Update advances the scroll animation by dt seconds and reports whether the
// viewport moved.
func (v *Viewport) Update(dt float64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.animating {
		return false
	}

	diff := float64(v.target - v.top)
	if math.Abs(diff) < 0.5 {
		v.top = v.target
		v.animating = false
		return false
	}

	// Exponential approach, at least one pixel per step so it converges.
	step := diff * (1.0 - math.Pow(0.1, dt*10))
	if math.Abs(step) < 1 {
		step = math.Copysign(1, diff)
	}
	if math.Abs(step) >= math.Abs(diff) {
		v.top = v.target
	} else {
		v.top += int(step)
	}
	if v.top == v.target {
		v.animating = false
	}
	return true
}

// StopAnimation stops any scroll animation where it is.
func (v *Viewport) StopAnimation() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.animating = false
	v.target = v.top
}

func (v *Viewport) moveTo(y int, smooth bool) {
	if smooth && v.smoothScroll && y != v.top {
		v.target = y
		v.animating = true
		return
	}
	v.top = y
	v.target = y
	v.animating = false
}

func (v *Viewport) maxTop() int {
	return max(v.content-v.height, 0)
}

func (v *Viewport) clamp(y int) int {
	return min(max(y, 0), v.maxTop())
}
