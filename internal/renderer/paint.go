package renderer

import (
	"slices"

	"github.com/dshills/textview/internal/document"
	"github.com/dshills/textview/internal/renderer/backend"
	"github.com/dshills/textview/internal/renderer/core"
	"github.com/dshills/textview/internal/renderer/layout"
	"github.com/dshills/textview/internal/renderer/linecache"
)

// cellRow is one backend row of a display. offsets[i] is the byte offset in
// the line of cells[i], or -1 for padding.
type cellRow struct {
	cells   []core.Cell
	offsets []int
}

// cellRows converts a display payload to backend rows. Cell layouts map
// directly; shaped lines are placed on the cell grid by glyph position.
func cellRows(d *linecache.LineDisplay, cellWidth int) []cellRow {
	switch c := d.Content.(type) {
	case *layout.LineLayout:
		return layoutRows(c)
	case *layout.ShapedLine:
		return []cellRow{shapedRow(c, d.Line.Text(), cellWidth)}
	}
	return nil
}

func layoutRows(lay *layout.LineLayout) []cellRow {
	rows := make([]cellRow, lay.RowCount)
	for r := range rows {
		start := lay.RowStartColumn(r)
		cells := lay.CellsForRow(r)
		offsets := make([]int, len(cells))
		for i := range cells {
			offsets[i] = lay.ByteOffset(start + i)
		}
		rows[r] = cellRow{cells: cells, offsets: offsets}
	}
	return rows
}

func shapedRow(s *layout.ShapedLine, text string, cellWidth int) cellRow {
	// Cluster ends come from the sorted set of cluster starts.
	var starts []int
	for _, run := range s.Runs {
		for _, g := range run.Glyphs {
			starts = append(starts, g.Offset)
		}
	}
	slices.Sort(starts)
	starts = slices.Compact(starts)
	clusterEnd := func(off int) int {
		i, _ := slices.BinarySearch(starts, off)
		if i+1 < len(starts) {
			return starts[i+1]
		}
		return len(text)
	}

	n := s.Advance.Ceil()/cellWidth + 1
	row := cellRow{cells: make([]core.Cell, n), offsets: make([]int, n)}
	for i := range row.cells {
		row.cells[i] = core.EmptyCell()
		row.offsets[i] = -1
	}

	for _, run := range s.Runs {
		prev := -1
		for _, g := range run.Glyphs {
			if g.Offset == prev {
				continue
			}
			prev = g.Offset
			end := clusterEnd(g.Offset)
			if g.Offset >= end || g.Offset >= len(text) {
				continue
			}
			col := min(max(g.X.Round()/cellWidth, 0), n-1)
			for i, c := range core.CellsFromString(text[g.Offset:end], run.Style) {
				if col+i >= n {
					break
				}
				row.cells[col+i] = c
				row.offsets[col+i] = g.Offset
			}
		}
	}
	return row
}

// linePainter paints one display. y is the display's top relative to the
// viewport, in pixels.
type linePainter struct {
	view       *View
	b          backend.Backend
	d          *linecache.LineDisplay
	n          int
	y          int
	cursorLine bool
	sel        selection
}

func (p *linePainter) paint() {
	cw, ch := p.view.opts.CellWidth, p.view.opts.CellHeight
	cols, rows := p.view.cols(), p.view.rows()
	x0 := p.d.Margins.Left / cw
	tint := p.cursorLine && !p.view.opts.LineHighlight.IsDefault()

	if tint {
		// The tint covers the line's margins too.
		first := floorDiv(p.y, ch)
		last := floorDiv(p.y+p.d.Height-1, ch)
		bg := core.EmptyCell()
		bg.Style = bg.Style.WithBackground(p.view.opts.LineHighlight)
		for r := max(first, 0); r <= min(last, rows-1); r++ {
			p.b.Fill(core.Rect{Y: r, Width: cols, Height: 1}, bg)
		}
	}

	lo, hi, selected := p.sel.columns(p.n)
	for r, row := range cellRows(p.d, cw) {
		screenRow := floorDiv(p.y+p.d.Margins.Top+r*ch, ch)
		if screenRow < 0 || screenRow >= rows {
			continue
		}
		cells := slices.Clone(row.cells)
		for i := range cells {
			st := cells[i].Style
			if tint && st.Background.IsDefault() {
				st.Background = p.view.opts.LineHighlight
			}
			if off := row.offsets[i]; selected && off >= lo && (hi < 0 || off < hi) {
				st.Background = p.view.opts.Selection
			}
			cells[i].Style = st
		}
		if len(cells) > cols-x0 {
			cells = cells[:max(cols-x0, 0)]
		}
		p.b.DrawRow(p.d, r, x0, screenRow, cells)
	}

	if !p.cursorLine {
		return
	}
	if c, ok := p.d.Cursor(document.MarkInsert); ok {
		x, y := c.X/cw, floorDiv(p.y+c.Y, ch)
		if x >= 0 && x < cols && y >= 0 && y < rows {
			p.b.ShowCursor(x, y)
		}
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && (a < 0) != (b < 0) {
		q--
	}
	return q
}
