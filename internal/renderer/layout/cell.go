package layout

import (
	"github.com/mattn/go-runewidth"

	"github.com/dshills/textview/internal/document"
	"github.com/dshills/textview/internal/renderer/core"
	"github.com/dshills/textview/internal/renderer/linecache"
)

// CellOptions configures a CellEngine.
type CellOptions struct {
	TabWidth int

	// WrapWidth is the soft wrap width in pixels. Zero disables wrapping.
	WrapWidth  int
	WrapAtWord bool

	// CellWidth and CellHeight are the pixel size of one grid cell. A
	// terminal uses 1x1.
	CellWidth  int
	CellHeight int

	// EastAsianWidth treats ambiguous-width runes as wide.
	EastAsianWidth bool

	DefaultStyle core.Style
}

// DefaultCellOptions returns options for a terminal grid.
func DefaultCellOptions() CellOptions {
	return CellOptions{
		TabWidth:     DefaultTabWidth,
		WrapAtWord:   true,
		CellWidth:    1,
		CellHeight:   1,
		DefaultStyle: core.DefaultStyle(),
	}
}

// CellEngine lays lines out on a fixed cell grid.
type CellEngine struct {
	Base
	ll         lineLayouter
	cellWidth  int
	cellHeight int
}

// NewCellEngine creates a cell layout engine for doc.
func NewCellEngine(doc *document.Document, opts CellOptions) *CellEngine {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = opts.EastAsianWidth
	e := &CellEngine{
		Base:       newBase(doc, opts.DefaultStyle),
		cellWidth:  max(opts.CellWidth, 1),
		cellHeight: max(opts.CellHeight, 1),
		ll: lineLayouter{
			tabs:       NewTabExpander(opts.TabWidth),
			cond:       cond,
			wrapAtWord: opts.WrapAtWord,
		},
	}
	e.SetWrapWidth(opts.WrapWidth)
	return e
}

// TabWidth returns the tab width in columns.
func (e *CellEngine) TabWidth() int {
	return e.ll.tabs.TabWidth()
}

// SetWrapWidth sets the soft wrap width in pixels. Zero or less disables
// wrapping. Callers must invalidate cached displays afterwards.
func (e *CellEngine) SetWrapWidth(px int) {
	if px <= 0 {
		e.ll.wrapWidth = 0
		return
	}
	e.ll.wrapWidth = max(px/e.cellWidth, 1)
}

// WrapWidth returns the wrap width in columns, zero when not wrapping.
func (e *CellEngine) WrapWidth() int {
	return e.ll.wrapWidth
}

// LineHeight returns the pixel height of one row.
func (e *CellEngine) LineHeight() int {
	return e.cellHeight
}

// CellSize returns the pixel size of one cell.
func (e *CellEngine) CellSize() (int, int) {
	return e.cellWidth, e.cellHeight
}

// CreateDisplay lays out line. Size-only displays carry metrics and no
// content.
func (e *CellEngine) CreateDisplay(line *document.Line, sizeOnly bool) *linecache.LineDisplay {
	d := linecache.NewLineDisplay(line, sizeOnly)
	lay := e.ll.layout(line.Text(), e.defaultStyle, sizeOnly)

	sp := e.lineSpacing(line)
	d.Margins = linecache.Margins{
		Left:   sp.left * e.cellWidth,
		Right:  sp.right * e.cellWidth,
		Top:    sp.above * e.cellHeight,
		Bottom: sp.below * e.cellHeight,
	}
	d.Width = lay.MaxRowWidth()*e.cellWidth + d.Margins.Left + d.Margins.Right
	d.Height = lay.RowCount*e.cellHeight + d.Margins.Top + d.Margins.Bottom
	if sizeOnly {
		return d
	}

	e.applyTags(lay, line)
	d.Content = lay
	e.placeCursors(line, d, lay)
	return d
}

// UpdateDisplayCursors recomputes the cursor positions of d.
func (e *CellEngine) UpdateDisplayCursors(line *document.Line, d *linecache.LineDisplay) {
	lay, ok := d.Content.(*LineLayout)
	if !ok || lay == nil {
		lay = e.ll.layout(line.Text(), e.defaultStyle, true)
	}
	e.placeCursors(line, d, lay)
}

// ByteOffsetAt maps a pixel position inside d to a byte offset in its line.
func (e *CellEngine) ByteOffsetAt(d *linecache.LineDisplay, x, y int) int {
	lay, ok := d.Content.(*LineLayout)
	if !ok || lay == nil {
		lay = e.ll.layout(d.Line.Text(), e.defaultStyle, true)
	}
	row := min(max((y-d.Margins.Top)/e.cellHeight, 0), lay.RowCount-1)
	col := max((x-d.Margins.Left)/e.cellWidth, 0)
	vis := lay.RowStartColumn(row) + col
	if end := lay.RowEndColumn(row); vis >= end && row < lay.RowCount-1 {
		vis = end - 1
	}
	return lay.ByteOffset(vis)
}

func (e *CellEngine) placeCursors(line *document.Line, d *linecache.LineDisplay, lay *LineLayout) {
	marks := e.marksOn(line)
	cursors := make([]linecache.Cursor, 0, len(marks))
	for _, m := range marks {
		vis := lay.VisualColumn(m.col)
		row := lay.VisualRow(vis)
		cursors = append(cursors, linecache.Cursor{
			Name:   m.name,
			X:      d.Margins.Left + (vis-lay.RowStartColumn(row))*e.cellWidth,
			Y:      d.Margins.Top + row*e.cellHeight,
			Height: e.cellHeight,
		})
	}
	d.Cursors = cursors
	d.CursorsInvalid = false
}

// applyTags merges tag styles into the cells, lowest priority first.
func (e *CellEngine) applyTags(lay *LineLayout, line *document.Line) {
	for _, span := range spansByPriority(line) {
		style := e.TagStyle(span.Tag.Props)
		start := min(lay.VisualColumn(span.Start), len(lay.Cells))
		end := min(lay.VisualColumn(span.End), len(lay.Cells))
		for i := start; i < end; i++ {
			lay.Cells[i].Style = lay.Cells[i].Style.Merge(style)
		}
	}
}
