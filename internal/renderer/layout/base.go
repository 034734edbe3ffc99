// Package layout provides the layout engines that build line displays for
// the display cache.
//
// CellEngine lays text out on a terminal cell grid with tab expansion, wide
// characters, grapheme clusters and optional soft wrap. ShapingEngine shapes
// text into positioned glyphs with HarfBuzz for pixel rendering. Both share
// Base, which orders displays by document position and resolves tag
// properties.
package layout

import (
	"cmp"
	"sort"

	"github.com/dshills/textview/internal/document"
	"github.com/dshills/textview/internal/renderer/core"
	"github.com/dshills/textview/internal/renderer/linecache"
)

// Base holds what both engines need from the document.
type Base struct {
	doc          *document.Document
	defaultStyle core.Style
	styles       map[document.TagProps]core.Style
}

func newBase(doc *document.Document, defaultStyle core.Style) Base {
	return Base{
		doc:          doc,
		defaultStyle: defaultStyle,
		styles:       make(map[document.TagProps]core.Style),
	}
}

// Document returns the document the engine lays out.
func (b *Base) Document() *document.Document {
	return b.doc
}

// Compare orders displays by the current line number of their lines.
func (b *Base) Compare(x, y *linecache.LineDisplay) int {
	return cmp.Compare(b.doc.LineNumber(x.Line), b.doc.LineNumber(y.Line))
}

// TagStyle converts tag properties to a cell style. Unparseable colors are
// treated as unset.
func (b *Base) TagStyle(props document.TagProps) core.Style {
	if s, ok := b.styles[props]; ok {
		return s
	}
	s := core.DefaultStyle()
	if c, err := core.ColorFromHex(props.Foreground); err == nil {
		s.Foreground = c
	}
	if c, err := core.ColorFromHex(props.Background); err == nil {
		s.Background = c
	}
	if props.Bold {
		s.Attributes |= core.AttrBold
	}
	if props.Italic {
		s.Attributes |= core.AttrItalic
	}
	if props.Underline {
		s.Attributes |= core.AttrUnderline
	}
	if props.Strikethrough {
		s.Attributes |= core.AttrStrikethrough
	}
	if props.Invisible {
		s.Attributes |= core.AttrHidden
	}
	b.styles[props] = s
	return s
}

// spacing is the margin and padding a line's tags ask for, in engine units.
type spacing struct {
	left, right  int
	above, below int
}

func (b *Base) lineSpacing(line *document.Line) spacing {
	var sp spacing
	for _, s := range line.Spans() {
		p := s.Tag.Props
		sp.left = max(sp.left, p.LeftMargin)
		sp.right = max(sp.right, p.RightMargin)
		sp.above = max(sp.above, p.PixelsAbove)
		sp.below = max(sp.below, p.PixelsBelow)
	}
	return sp
}

// spansByPriority returns the line's spans with the highest priority last.
func spansByPriority(line *document.Line) []document.TagSpan {
	spans := append([]document.TagSpan(nil), line.Spans()...)
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Tag.Priority() < spans[j].Tag.Priority()
	})
	return spans
}

type markAt struct {
	name string
	col  int
}

// marksOn returns the insert and selection_bound marks that fall on line.
// An empty selection yields only the insert mark.
func (b *Base) marksOn(line *document.Line) []markAt {
	n := b.doc.LineNumber(line)
	if n < 0 {
		return nil
	}
	insert := b.doc.Cursor()
	bound, err := b.doc.Mark(document.MarkSelectionBound)
	if err != nil {
		bound = insert
	}
	var marks []markAt
	if insert.Line == n {
		marks = append(marks, markAt{name: document.MarkInsert, col: insert.Col})
	}
	if bound != insert && bound.Line == n {
		marks = append(marks, markAt{name: document.MarkSelectionBound, col: bound.Col})
	}
	return marks
}

// Engine is the layout engine contract the view relies on, on top of what
// the display cache needs.
type Engine interface {
	linecache.LayoutEngine

	// ByteOffsetAt maps a pixel position inside d to a byte offset.
	ByteOffsetAt(d *linecache.LineDisplay, x, y int) int

	// LineHeight is the height of an unspaced line, used to estimate lines
	// that were never measured.
	LineHeight() int

	SetWrapWidth(px int)
}

var (
	_ Engine = (*CellEngine)(nil)
	_ Engine = (*ShapingEngine)(nil)
)
