package layout

import (
	"slices"
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/dshills/textview/internal/renderer/core"
)

func newLayouter(tabWidth, wrapWidth int, atWord bool) *lineLayouter {
	return &lineLayouter{
		tabs:       NewTabExpander(tabWidth),
		cond:       runewidth.NewCondition(),
		wrapWidth:  wrapWidth,
		wrapAtWord: atWord,
	}
}

func TestLayoutSimpleString(t *testing.T) {
	lay := newLayouter(4, 0, false).layout("hello", core.DefaultStyle(), false)
	if lay.Width != 5 || len(lay.Cells) != 5 || lay.RowCount != 1 {
		t.Fatalf("width=%d cells=%d rows=%d, want 5 5 1", lay.Width, len(lay.Cells), lay.RowCount)
	}
	if core.StringFromCells(lay.Cells) != "hello" {
		t.Errorf("cells = %q", core.StringFromCells(lay.Cells))
	}
	if lay.BufferCols[5] != 5 {
		t.Errorf("end of line maps to %d, want 5", lay.BufferCols[5])
	}
}

func TestLayoutEmptyString(t *testing.T) {
	lay := newLayouter(4, 0, false).layout("", core.DefaultStyle(), false)
	if !lay.IsEmpty() || lay.RowCount != 1 || len(lay.BufferCols) != 1 {
		t.Errorf("empty layout: width=%d rows=%d bufferCols=%d", lay.Width, lay.RowCount, len(lay.BufferCols))
	}
	if lay.ByteOffset(3) != 0 {
		t.Errorf("ByteOffset(3) = %d, want 0", lay.ByteOffset(3))
	}
}

func TestLayoutTabExpansion(t *testing.T) {
	ll := newLayouter(4, 0, false)

	lay := ll.layout("\tx", core.DefaultStyle(), false)
	if !lay.HasTabs || lay.Width != 5 {
		t.Fatalf("HasTabs=%v width=%d, want true 5", lay.HasTabs, lay.Width)
	}
	if got := lay.VisualColumn(1); got != 4 {
		t.Errorf("VisualColumn(1) = %d, want 4", got)
	}
	if got := lay.ByteOffset(2); got != 0 {
		t.Errorf("ByteOffset inside tab = %d, want 0", got)
	}
	if got := lay.ByteOffset(4); got != 1 {
		t.Errorf("ByteOffset(4) = %d, want 1", got)
	}

	lay = ll.layout("ab\tc", core.DefaultStyle(), false)
	if lay.Width != 5 || lay.VisualColumn(3) != 4 {
		t.Errorf("width=%d VisualColumn(3)=%d, want 5 4", lay.Width, lay.VisualColumn(3))
	}
	for i, c := range lay.Cells[2:4] {
		if c.Rune != ' ' {
			t.Errorf("tab cell %d = %q, want space", i, c.Rune)
		}
	}
}

func TestLayoutWideCharacters(t *testing.T) {
	lay := newLayouter(4, 0, false).layout("a世b", core.DefaultStyle(), false)
	if !lay.HasWide || lay.Width != 4 || len(lay.Cells) != 4 {
		t.Fatalf("HasWide=%v width=%d cells=%d", lay.HasWide, lay.Width, len(lay.Cells))
	}
	if !lay.Cells[2].IsContinuation() {
		t.Error("cell after wide char should be a continuation")
	}
	if want := []int{0, 1, 1, 1, 3, 4}; !slices.Equal(lay.BufferCols, want) {
		t.Errorf("BufferCols = %v, want %v", lay.BufferCols, want)
	}
	if lay.ByteOffset(2) != 1 || lay.ByteOffset(3) != 4 {
		t.Errorf("ByteOffset(2)=%d ByteOffset(3)=%d, want 1 4", lay.ByteOffset(2), lay.ByteOffset(3))
	}
}

func TestLayoutGraphemeClusters(t *testing.T) {
	lay := newLayouter(4, 0, false).layout("e\u0301x", core.DefaultStyle(), false)
	if lay.Width != 2 || len(lay.Cells) != 2 {
		t.Fatalf("width=%d cells=%d, want 2 2", lay.Width, len(lay.Cells))
	}
	if !slices.Equal(lay.Cells[0].Combining, []rune{'\u0301'}) {
		t.Errorf("combining = %q", lay.Cells[0].Combining)
	}
	if want := []int{0, 0, 0, 1, 2}; !slices.Equal(lay.BufferCols, want) {
		t.Errorf("BufferCols = %v, want %v", lay.BufferCols, want)
	}
}

func TestLayoutControlCharacters(t *testing.T) {
	lay := newLayouter(4, 0, false).layout("a\x01b", core.DefaultStyle(), false)
	if lay.Width != 2 || core.StringFromCells(lay.Cells) != "ab" {
		t.Errorf("width=%d cells=%q, want 2 \"ab\"", lay.Width, core.StringFromCells(lay.Cells))
	}
}

func TestLayoutWrapping(t *testing.T) {
	lay := newLayouter(4, 4, false).layout("abcdefghij", core.DefaultStyle(), false)
	if !slices.Equal(lay.WrapPoints, []int{4, 8}) || lay.RowCount != 3 {
		t.Fatalf("WrapPoints=%v rows=%d", lay.WrapPoints, lay.RowCount)
	}
	if got := core.StringFromCells(lay.CellsForRow(2)); got != "ij" {
		t.Errorf("row 2 = %q, want \"ij\"", got)
	}
	if lay.MaxRowWidth() != 4 {
		t.Errorf("MaxRowWidth = %d, want 4", lay.MaxRowWidth())
	}
}

func TestLayoutWordWrapping(t *testing.T) {
	lay := newLayouter(4, 8, true).layout("hello world foo", core.DefaultStyle(), false)
	if !slices.Equal(lay.WrapPoints, []int{6, 12}) {
		t.Fatalf("WrapPoints = %v, want [6 12]", lay.WrapPoints)
	}
	if got := core.StringFromCells(lay.CellsForRow(1)); got != "world " {
		t.Errorf("row 1 = %q", got)
	}
	if lay.MaxRowWidth() != 6 {
		t.Errorf("MaxRowWidth = %d, want 6", lay.MaxRowWidth())
	}

	tests := []struct{ col, row, inRow int }{
		{5, 0, 5},
		{6, 1, 0},
		{13, 2, 1},
		{14, 2, 2},
	}
	for _, tt := range tests {
		if got := lay.VisualRow(tt.col); got != tt.row {
			t.Errorf("VisualRow(%d) = %d, want %d", tt.col, got, tt.row)
		}
		if got := lay.ColumnInRow(tt.col); got != tt.inRow {
			t.Errorf("ColumnInRow(%d) = %d, want %d", tt.col, got, tt.inRow)
		}
	}
}

func TestLayoutWrapKeepsWideCharsWhole(t *testing.T) {
	lay := newLayouter(4, 3, true).layout("ab世", core.DefaultStyle(), false)
	if !slices.Equal(lay.WrapPoints, []int{2}) {
		t.Fatalf("WrapPoints = %v, want [2]", lay.WrapPoints)
	}
	if got := core.StringFromCells(lay.CellsForRow(1)); got != "世" {
		t.Errorf("row 1 = %q", got)
	}
}

func TestLayoutColumnExtrapolation(t *testing.T) {
	lay := newLayouter(4, 0, false).layout("ab", core.DefaultStyle(), false)
	if got := lay.VisualColumn(4); got != 4 {
		t.Errorf("VisualColumn(4) = %d, want 4", got)
	}
	if got := lay.VisualColumn(-1); got != 0 {
		t.Errorf("VisualColumn(-1) = %d, want 0", got)
	}
	if got := lay.ByteOffset(10); got != 2 {
		t.Errorf("ByteOffset(10) = %d, want 2", got)
	}
}

func TestLayoutSizeOnlySkipsCells(t *testing.T) {
	ll := newLayouter(4, 0, false)
	full := ll.layout("a\tb世", core.DefaultStyle(), false)
	size := ll.layout("a\tb世", core.DefaultStyle(), true)
	if size.Cells != nil {
		t.Error("size-only layout should not build cells")
	}
	if size.Width != full.Width || size.RowCount != full.RowCount {
		t.Errorf("size-only metrics %d/%d differ from full %d/%d", size.Width, size.RowCount, full.Width, full.RowCount)
	}
}

func TestLineLayoutRelease(t *testing.T) {
	lay := newLayouter(4, 0, false).layout("abc", core.DefaultStyle(), false)
	lay.Release()
	if lay.Cells != nil || lay.VisualCols != nil {
		t.Error("Release should drop cell storage")
	}
}

func TestLayoutEastAsianAmbiguous(t *testing.T) {
	ll := newLayouter(4, 0, false)
	ll.cond.EastAsianWidth = true
	if lay := ll.layout("±", core.DefaultStyle(), true); lay.Width != 2 {
		t.Errorf("ambiguous width with EastAsianWidth = %d, want 2", lay.Width)
	}
	ll.cond.EastAsianWidth = false
	if lay := ll.layout("±", core.DefaultStyle(), true); lay.Width != 1 {
		t.Errorf("ambiguous width without EastAsianWidth = %d, want 1", lay.Width)
	}
}
