package layout

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/dshills/textview/internal/renderer/core"
)

// maxWordLookback bounds how far back a soft wrap looks for a space.
const maxWordLookback = 20

// LineLayout is the cell layout of one document line. It is the Content of
// displays built by CellEngine.
type LineLayout struct {
	// Cells holds the visual cells after tab expansion. Wide clusters are
	// followed by a continuation cell. Nil for size-only layouts.
	Cells []core.Cell

	// VisualCols maps a visual column to the byte offset of the cluster
	// covering it.
	VisualCols []int

	// BufferCols maps a byte offset to its visual column. It has one entry
	// per byte of text plus one for the end of the line.
	BufferCols []int

	// WrapPoints are the visual columns where soft-wrapped rows begin.
	WrapPoints []int
	RowCount   int

	// Width is the unwrapped visual width in columns.
	Width   int
	HasTabs bool
	HasWide bool
}

// Release drops the cell storage.
func (l *LineLayout) Release() {
	l.Cells = nil
	l.VisualCols = nil
}

// VisualColumn converts a byte offset to a visual column. Offsets past the
// end extrapolate one column per byte.
func (l *LineLayout) VisualColumn(off int) int {
	if off <= 0 || len(l.BufferCols) == 0 {
		return max(off, 0)
	}
	if off >= len(l.BufferCols) {
		return l.BufferCols[len(l.BufferCols)-1] + off - len(l.BufferCols) + 1
	}
	return l.BufferCols[off]
}

// ByteOffset converts a visual column to the byte offset of the cluster
// under it. Columns past the end map to the end of the line.
func (l *LineLayout) ByteOffset(visCol int) int {
	if visCol <= 0 {
		return 0
	}
	if visCol >= len(l.VisualCols) {
		return max(len(l.BufferCols)-1, 0)
	}
	return l.VisualCols[visCol]
}

// VisualRow returns the wrapped row a visual column falls on.
func (l *LineLayout) VisualRow(visCol int) int {
	row := 0
	for _, wp := range l.WrapPoints {
		if visCol < wp {
			break
		}
		row++
	}
	return row
}

// ColumnInRow returns the column offset within a wrapped row.
func (l *LineLayout) ColumnInRow(visCol int) int {
	return visCol - l.RowStartColumn(l.VisualRow(visCol))
}

// RowStartColumn returns the visual column where a wrapped row starts.
func (l *LineLayout) RowStartColumn(row int) int {
	if row <= 0 || len(l.WrapPoints) == 0 {
		return 0
	}
	return l.WrapPoints[min(row, len(l.WrapPoints))-1]
}

// RowEndColumn returns the visual column where a wrapped row ends,
// exclusive.
func (l *LineLayout) RowEndColumn(row int) int {
	if row >= len(l.WrapPoints) {
		return l.Width
	}
	return l.WrapPoints[row]
}

// MaxRowWidth returns the width of the widest row.
func (l *LineLayout) MaxRowWidth() int {
	w := 0
	for row := 0; row < l.RowCount; row++ {
		w = max(w, l.RowEndColumn(row)-l.RowStartColumn(row))
	}
	return w
}

// CellsForRow returns the cells of one wrapped row.
func (l *LineLayout) CellsForRow(row int) []core.Cell {
	start := l.RowStartColumn(row)
	end := min(l.RowEndColumn(row), len(l.Cells))
	if start >= end {
		return nil
	}
	return l.Cells[start:end]
}

// IsEmpty returns true if the layout has no visible columns.
func (l *LineLayout) IsEmpty() bool {
	return l.Width == 0
}

// lineLayouter holds the knobs that shape a cell layout.
type lineLayouter struct {
	tabs       *TabExpander
	cond       *runewidth.Condition
	wrapWidth  int
	wrapAtWord bool
}

// clusterWidth measures a grapheme cluster. Single runes go through the
// East Asian width condition; longer clusters use the segmenter's width.
func (ll *lineLayouter) clusterWidth(cluster string, segWidth int) int {
	r, n := utf8.DecodeRuneInString(cluster)
	if n == len(cluster) {
		if r < 0x20 || r == 0x7f {
			return 0
		}
		return ll.cond.RuneWidth(r)
	}
	return segWidth
}

// layout lays text out in columns. When sizeOnly is set no cells are built.
func (ll *lineLayouter) layout(text string, style core.Style, sizeOnly bool) *LineLayout {
	lay := &LineLayout{
		VisualCols: make([]int, 0, len(text)),
		BufferCols: make([]int, len(text)+1),
		RowCount:   1,
	}
	if !sizeOnly {
		lay.Cells = make([]core.Cell, 0, len(text))
	}

	visCol, rowStart, lastBreak := 0, 0, 0
	state := -1
	for off := 0; off < len(text); {
		cluster, _, segWidth, st := uniseg.FirstGraphemeClusterInString(text[off:], state)
		state = st
		n := len(cluster)
		for i := 0; i < n; i++ {
			lay.BufferCols[off+i] = visCol
		}

		tab := cluster == "\t"
		var w int
		if tab {
			lay.HasTabs = true
			w = ll.tabs.TabStopOffset(visCol)
		} else {
			w = ll.clusterWidth(cluster, segWidth)
		}
		if w == 0 {
			off += n
			continue
		}

		if ll.wrapWidth > 0 && visCol > rowStart && visCol-rowStart+w > ll.wrapWidth {
			point := visCol
			if ll.wrapAtWord && lastBreak > rowStart && visCol-lastBreak < maxWordLookback {
				point = lastBreak
			}
			lay.WrapPoints = append(lay.WrapPoints, point)
			lay.RowCount++
			rowStart = point
		}

		for i := 0; i < w; i++ {
			lay.VisualCols = append(lay.VisualCols, off)
		}
		if !sizeOnly {
			lay.Cells = appendCluster(lay.Cells, cluster, tab, w, style)
		}
		if !tab && w > 1 {
			lay.HasWide = true
		}

		visCol += w
		if tab || cluster == " " {
			lastBreak = visCol
		}
		off += n
	}
	lay.BufferCols[len(text)] = visCol
	lay.Width = visCol
	return lay
}

func appendCluster(cells []core.Cell, cluster string, tab bool, w int, style core.Style) []core.Cell {
	if tab {
		for i := 0; i < w; i++ {
			cells = append(cells, core.Cell{Rune: ' ', Width: 1, Style: style})
		}
		return cells
	}
	runes := []rune(cluster)
	cell := core.Cell{Rune: runes[0], Width: w, Style: style}
	if len(runes) > 1 {
		cell.Combining = runes[1:]
	}
	cells = append(cells, cell)
	for i := 1; i < w; i++ {
		cells = append(cells, core.ContinuationCell(style))
	}
	return cells
}
