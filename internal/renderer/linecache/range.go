package linecache

import "github.com/dshills/textview/internal/document"

// InvalidateRange invalidates the displays of the lines between begin and
// end inclusive. The positions may be given in either order.
//
// The sequence can be out of order after edits, so binary search only finds
// anchors. A missing begin anchor starts the walk at the first entry, a
// missing end anchor ends it at the last, and everything between is visited.
func (c *DisplayCache) InvalidateRange(begin, end document.Position, cursorsOnly bool) {
	c.stats.Invalidations.Range++
	if c.seq.len() == 0 {
		return
	}
	begin, end = document.Order(begin, end)

	if begin.Line == end.Line {
		if d, ok := c.byLine[c.doc.Line(begin.Line)]; ok {
			c.invalidate(d, cursorsOnly)
			c.checkIndices("invalidate range")
		}
		return
	}

	lo, ok := c.seq.findByLine(begin.Line, c.doc.LineNumber)
	if !ok {
		lo = 0
	}
	hi, ok := c.seq.findByLine(end.Line, c.doc.LineNumber)
	if !ok {
		hi = c.seq.len() - 1
	}

	var span []*LineDisplay
	for i := lo; i < c.seq.len(); i++ {
		span = append(span, c.seq.items[i])
		if i == hi {
			break
		}
	}
	c.invalidateSpan(span, cursorsOnly)
	c.checkIndices("invalidate range")
}

// InvalidateYRange invalidates the displays overlapping the pixel window
// [y, y+height). A non-positive height still covers the line at y.
//
// The walk starts at the display containing y, or where the search for it
// stopped, and ends at the first display that starts at or beyond the
// window or reaches its end.
func (c *DisplayCache) InvalidateYRange(y, height int, cursorsOnly bool) {
	c.stats.Invalidations.YRange++
	if c.seq.len() == 0 {
		return
	}
	if c.geom == nil {
		c.invalidateSpan(append([]*LineDisplay(nil), c.seq.items...), cursorsOnly)
		c.checkIndices("invalidate y range")
		return
	}

	top := func(d *LineDisplay) int { return c.geom.LineTop(d.Line) }
	end := y + max(height, 1)

	i, _ := c.seq.findByY(y, top)
	var span []*LineDisplay
	for ; i < c.seq.len(); i++ {
		d := c.seq.items[i]
		t := top(d)
		if t >= end {
			break
		}
		if t+d.Height > y {
			span = append(span, d)
		}
		if t+d.Height >= end {
			break
		}
	}
	c.invalidateSpan(span, cursorsOnly)
	c.checkIndices("invalidate y range")
}

func (c *DisplayCache) invalidateSpan(span []*LineDisplay, cursorsOnly bool) {
	if cursorsOnly {
		for _, d := range span {
			c.markCursors(d)
		}
		return
	}
	c.removeAll(span)
}
