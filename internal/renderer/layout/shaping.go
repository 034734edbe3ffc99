package layout

import (
	"bytes"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"

	"github.com/dshills/textview/internal/document"
	"github.com/dshills/textview/internal/renderer/core"
	"github.com/dshills/textview/internal/renderer/linecache"
)

// DefaultFontSize is the pixel size used when none is configured.
const DefaultFontSize = 14

// Variant selects a face from the font family.
type Variant int

const (
	Regular Variant = iota
	Bold
	Italic
	BoldItalic
	numVariants
)

// Glyph is one positioned glyph.
type Glyph struct {
	ID font.GID
	// X is the pen position of the glyph relative to the line start,
	// including any shaping offset.
	X fixed.Int26_6
	Y fixed.Int26_6
	// Offset is the byte offset of the glyph's cluster in the line.
	Offset int
}

// GlyphRun is a sequence of glyphs shaped with one face and style.
type GlyphRun struct {
	Glyphs  []Glyph
	X       fixed.Int26_6
	Advance fixed.Int26_6
	Variant Variant
	Style   core.Style
}

type clusterStop struct {
	offset int
	x      fixed.Int26_6
}

// ShapedLine is the Content of displays built by ShapingEngine.
type ShapedLine struct {
	Runs    []GlyphRun
	Advance fixed.Int26_6
	Ascent  fixed.Int26_6
	Descent fixed.Int26_6
	RTL     bool

	stops []clusterStop
}

// Release drops the glyph storage.
func (s *ShapedLine) Release() {
	s.Runs = nil
	s.stops = nil
}

// XForOffset returns the caret position of a byte offset.
func (s *ShapedLine) XForOffset(off int) fixed.Int26_6 {
	i := sort.Search(len(s.stops), func(i int) bool { return s.stops[i].offset > off })
	if i == 0 {
		if s.RTL {
			return s.Advance
		}
		return 0
	}
	return s.stops[i-1].x
}

// OffsetForX returns the cluster boundary nearest to x.
func (s *ShapedLine) OffsetForX(x fixed.Int26_6) int {
	best, bestDist := 0, fixed.Int26_6(-1)
	for _, st := range s.stops {
		d := st.x - x
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = st.offset, d
		}
	}
	return best
}

// ShapingOptions configures a ShapingEngine.
type ShapingOptions struct {
	// Size is the font size in pixels.
	Size         float64
	Language     string
	DefaultStyle core.Style

	// Fonts overrides the embedded Go fonts, indexed by Variant. Nil
	// entries keep the default.
	Fonts [numVariants][]byte
}

// DefaultShapingOptions returns options using the Go fonts at
// DefaultFontSize.
func DefaultShapingOptions() ShapingOptions {
	return ShapingOptions{
		Size:         DefaultFontSize,
		Language:     "en",
		DefaultStyle: core.DefaultStyle(),
	}
}

// ShapingEngine shapes lines into glyph runs with HarfBuzz. Lines are not
// wrapped.
type ShapingEngine struct {
	Base
	shaper     shaping.HarfbuzzShaper
	faces      [numVariants]*font.Face
	size       fixed.Int26_6
	lang       language.Language
	lineHeight int
	ascent     fixed.Int26_6
	descent    fixed.Int26_6
}

// NewShapingEngine parses the fonts and creates a shaping engine for doc.
func NewShapingEngine(doc *document.Document, opts ShapingOptions) (*ShapingEngine, error) {
	if opts.Size <= 0 {
		opts.Size = DefaultFontSize
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	defaults := [numVariants][]byte{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF}
	e := &ShapingEngine{
		Base: newBase(doc, opts.DefaultStyle),
		size: fixed.Int26_6(opts.Size * 64),
		lang: language.NewLanguage(opts.Language),
	}
	for v := range defaults {
		data := opts.Fonts[v]
		if data == nil {
			data = defaults[v]
		}
		face, err := font.ParseTTF(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse font variant %d: %w", v, err)
		}
		e.faces[v] = face
	}

	probe := []rune(" ")
	out := e.shaper.Shape(shaping.Input{
		Text:      probe,
		RunEnd:    len(probe),
		Direction: di.DirectionLTR,
		Face:      e.faces[Regular],
		Size:      e.size,
		Script:    language.Latin,
		Language:  e.lang,
	})
	e.ascent, e.descent = out.LineBounds.Ascent, abs26(out.LineBounds.Descent)
	e.lineHeight = (e.ascent + e.descent + out.LineBounds.Gap).Ceil()
	return e, nil
}

// LineHeight returns the pixel height of an unspaced line.
func (e *ShapingEngine) LineHeight() int {
	return e.lineHeight
}

// SetWrapWidth is a no-op; shaped lines are never wrapped.
func (e *ShapingEngine) SetWrapWidth(int) {}

// CreateDisplay shapes line. Size-only displays keep only the metrics.
func (e *ShapingEngine) CreateDisplay(line *document.Line, sizeOnly bool) *linecache.LineDisplay {
	d := linecache.NewLineDisplay(line, sizeOnly)
	shaped := e.shape(line)

	sp := e.lineSpacing(line)
	d.Margins = linecache.Margins{Left: sp.left, Right: sp.right, Top: sp.above, Bottom: sp.below}
	d.Width = shaped.Advance.Ceil() + sp.left + sp.right
	d.Height = e.lineHeight + sp.above + sp.below
	if sizeOnly {
		return d
	}
	d.Content = shaped
	e.placeCursors(line, d, shaped)
	return d
}

// UpdateDisplayCursors recomputes the cursor positions of d.
func (e *ShapingEngine) UpdateDisplayCursors(line *document.Line, d *linecache.LineDisplay) {
	shaped, ok := d.Content.(*ShapedLine)
	if !ok || shaped == nil {
		shaped = e.shape(line)
	}
	e.placeCursors(line, d, shaped)
}

// ByteOffsetAt maps a pixel position inside d to a byte offset in its line.
func (e *ShapingEngine) ByteOffsetAt(d *linecache.LineDisplay, x, _ int) int {
	shaped, ok := d.Content.(*ShapedLine)
	if !ok || shaped == nil {
		shaped = e.shape(d.Line)
	}
	return shaped.OffsetForX(fixed.I(x - d.Margins.Left))
}

func (e *ShapingEngine) placeCursors(line *document.Line, d *linecache.LineDisplay, shaped *ShapedLine) {
	marks := e.marksOn(line)
	cursors := make([]linecache.Cursor, 0, len(marks))
	for _, m := range marks {
		cursors = append(cursors, linecache.Cursor{
			Name:   m.name,
			X:      d.Margins.Left + shaped.XForOffset(m.col).Round(),
			Y:      d.Margins.Top,
			Height: e.lineHeight,
		})
	}
	d.Cursors = cursors
	d.CursorsInvalid = false
}

// styleRun is a byte range with uniform tag styling.
type styleRun struct {
	start, end int
	variant    Variant
	style      core.Style
}

// styleRuns splits text at tag boundaries and resolves each piece's face
// and style.
func (e *ShapingEngine) styleRuns(text string, line *document.Line) []styleRun {
	spans := spansByPriority(line)
	cuts := []int{0, len(text)}
	for _, s := range spans {
		cuts = append(cuts, s.Start, s.End)
	}
	sort.Ints(cuts)

	var runs []styleRun
	for i := 0; i+1 < len(cuts); i++ {
		a, b := cuts[i], min(cuts[i+1], len(text))
		if a >= b {
			continue
		}
		style := e.defaultStyle
		for _, s := range spans {
			if s.Start <= a && s.End >= b {
				style = style.Merge(e.TagStyle(s.Tag.Props))
			}
		}
		runs = append(runs, styleRun{start: a, end: b, variant: variantOf(style), style: style})
	}
	return runs
}

func variantOf(s core.Style) Variant {
	bold := s.Attributes.Has(core.AttrBold)
	italic := s.Attributes.Has(core.AttrItalic)
	switch {
	case bold && italic:
		return BoldItalic
	case bold:
		return Bold
	case italic:
		return Italic
	}
	return Regular
}

// shape lays out the whole line in visual order.
func (e *ShapingEngine) shape(line *document.Line) *ShapedLine {
	text := line.Text()
	runes := []rune(text)
	byteAt := make([]int, 0, len(runes)+1)
	for i := range text {
		byteAt = append(byteAt, i)
	}
	byteAt = append(byteAt, len(text))
	runeAt := func(off int) int {
		return sort.SearchInts(byteAt, off)
	}

	sl := &ShapedLine{RTL: paragraphRTL(text), Ascent: e.ascent, Descent: e.descent}
	dir := di.DirectionLTR
	if sl.RTL {
		dir = di.DirectionRTL
	}

	runs := e.styleRuns(text, line)
	if sl.RTL {
		for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
			runs[i], runs[j] = runs[j], runs[i]
		}
	}

	seen := make(map[int]bool)
	var pen fixed.Int26_6
	for _, r := range runs {
		start, end := runeAt(r.start), runeAt(r.end)
		out := e.shaper.Shape(shaping.Input{
			Text:      runes,
			RunStart:  start,
			RunEnd:    end,
			Direction: dir,
			Face:      e.faces[r.variant],
			Size:      e.size,
			Script:    detectScript(runes[start:end]),
			Language:  e.lang,
		})
		sl.Ascent = max(sl.Ascent, out.LineBounds.Ascent)
		sl.Descent = max(sl.Descent, abs26(out.LineBounds.Descent))

		gr := GlyphRun{X: pen, Variant: r.variant, Style: r.style, Glyphs: make([]Glyph, 0, len(out.Glyphs))}
		for _, g := range out.Glyphs {
			off := byteAt[g.TextIndex()]
			gr.Glyphs = append(gr.Glyphs, Glyph{ID: g.GlyphID, X: pen + g.XOffset, Y: g.YOffset, Offset: off})
			if !seen[off] {
				seen[off] = true
				x := pen
				if sl.RTL {
					x = pen + g.Advance
				}
				sl.stops = append(sl.stops, clusterStop{offset: off, x: x})
			}
			pen += g.Advance
		}
		gr.Advance = pen - gr.X
		sl.Runs = append(sl.Runs, gr)
	}
	sl.Advance = pen

	endX := pen
	if sl.RTL {
		endX = 0
	}
	sl.stops = append(sl.stops, clusterStop{offset: len(text), x: endX})
	sort.SliceStable(sl.stops, func(i, j int) bool { return sl.stops[i].offset < sl.stops[j].offset })
	return sl
}

// paragraphRTL reports whether the first strong character is right to left.
func paragraphRTL(text string) bool {
	for len(text) > 0 {
		p, n := bidi.LookupString(text)
		switch p.Class() {
		case bidi.L:
			return false
		case bidi.R, bidi.AL:
			return true
		}
		if n == 0 {
			_, n = utf8.DecodeRuneInString(text)
		}
		text = text[n:]
	}
	return false
}

func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func abs26(v fixed.Int26_6) fixed.Int26_6 {
	if v < 0 {
		return -v
	}
	return v
}
