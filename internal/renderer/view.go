package renderer

import (
	"log/slog"
	"strings"

	"github.com/dshills/textview/internal/document"
	"github.com/dshills/textview/internal/logging"
	"github.com/dshills/textview/internal/renderer/backend"
	"github.com/dshills/textview/internal/renderer/core"
	"github.com/dshills/textview/internal/renderer/layout"
	"github.com/dshills/textview/internal/renderer/linecache"
	"github.com/dshills/textview/internal/renderer/viewport"
)

// Options configures a View.
type Options struct {
	// Cache configures the display cache.
	Cache linecache.Config

	// CellWidth and CellHeight are the pixel size of one backend cell.
	CellWidth  int
	CellHeight int

	// LineHighlight tints the cursor line. The default color disables it.
	LineHighlight core.Color

	// Selection is the background of selected text.
	Selection core.Color

	// SmoothScroll animates page scrolling. Call Update to advance it.
	SmoothScroll bool

	// NoWrap keeps lines on one row whatever the view width.
	NoWrap bool
}

// DefaultOptions returns options for a terminal with a 1x1 cell engine.
func DefaultOptions() Options {
	return Options{
		Cache:         linecache.DefaultConfig(),
		CellWidth:     1,
		CellHeight:    1,
		LineHighlight: core.ColorDefault,
		Selection:     core.ColorFromIndex(8),
	}
}

// View shows a document through a layout engine. It owns the display cache,
// the line height index and the viewport, and keeps them in step with the
// document through a listener.
//
// A View is not safe for concurrent use. It must live on the goroutine that
// edits the document and runs the cache's scheduler.
type View struct {
	doc     *document.Document
	engine  layout.Engine
	cache   *linecache.DisplayCache
	heights *viewport.HeightIndex
	vp      *viewport.Viewport
	opts    Options
	log     *slog.Logger

	unsubscribe func()
	closed      bool
}

// lineTops is the cache's pixel geometry, backed by the height index.
type lineTops struct {
	doc     *document.Document
	heights *viewport.HeightIndex
}

func (g lineTops) LineTop(line *document.Line) int {
	n := g.doc.LineNumber(line)
	if n < 0 {
		return 0
	}
	return g.heights.Top(n)
}

// New creates a view of doc. Extra cache options, such as a scheduler for
// idle eviction, are passed to the display cache.
func New(doc *document.Document, engine layout.Engine, opts Options, cacheOpts ...linecache.Option) *View {
	opts.CellWidth = max(opts.CellWidth, 1)
	opts.CellHeight = max(opts.CellHeight, 1)

	v := &View{
		doc:     doc,
		engine:  engine,
		heights: viewport.NewHeightIndex(doc.LineCount(), engine.LineHeight()),
		vp:      viewport.NewViewport(opts.CellWidth, opts.CellHeight),
		opts:    opts,
		log:     logging.For("view"),
	}
	v.vp.SetSmoothScroll(opts.SmoothScroll)

	all := append([]linecache.Option{
		linecache.WithGeometry(lineTops{doc: doc, heights: v.heights}),
	}, cacheOpts...)
	v.cache = linecache.New(engine, doc, opts.Cache, all...)
	v.cache.SetCursorLine(doc.CursorLine())

	v.unsubscribe = doc.Subscribe(document.ListenerFuncs{
		Insert:     v.onInsert,
		Delete:     v.onDelete,
		TagChanged: v.onTagChanged,
		MarkSet:    v.onMarkSet,
	})
	v.vp.SetContentHeight(v.heights.Total())
	v.log.Info("view created", "lines", doc.LineCount(), "capacity", opts.Cache.Capacity)
	return v
}

func (v *View) onInsert(pos document.Position, text string) {
	added := strings.Count(text, "\n")
	v.heights.Insert(pos.Line+1, added)
	end := pos
	if added > 0 {
		end = document.Position{Line: pos.Line + added}
	}
	v.cache.InvalidateRange(pos, end, false)
	v.vp.SetContentHeight(v.heights.Total())
}

// onDelete runs before the text is removed, so every line in the range can
// still be resolved.
func (v *View) onDelete(begin, end document.Position) {
	v.cache.InvalidateRange(begin, end, false)
	v.heights.Remove(begin.Line+1, end.Line-begin.Line)
	v.vp.SetContentHeight(v.heights.Total())
}

func (v *View) onTagChanged(begin, end document.Position) {
	v.cache.InvalidateRange(begin, end, false)
}

func (v *View) onMarkSet(name string, old, pos document.Position) {
	switch name {
	case document.MarkInsert:
		v.invalidateCursors(old.Line)
		v.invalidateCursors(pos.Line)
		v.cache.SetCursorLine(v.doc.Line(pos.Line))
	case document.MarkSelectionBound:
		v.invalidateCursors(old.Line)
		v.invalidateCursors(pos.Line)
	}
}

func (v *View) invalidateCursors(n int) {
	if line := v.doc.Line(n); line != nil {
		v.cache.InvalidateCursors(line)
	}
}

// Changed reports that the content at y changed height from oldHeight to
// newHeight. Displays in the old window are dropped.
func (v *View) Changed(y, oldHeight, newHeight int) {
	v.log.Debug("geometry changed", "y", y, "old", oldHeight, "new", newHeight)
	v.cache.InvalidateYRange(y, oldHeight, false)
	v.vp.SetContentHeight(v.heights.Total())
}

// record stores the measured height of line n, whose top is y.
func (v *View) record(n, y int, d *linecache.LineDisplay) {
	measured := v.heights.Measured(n)
	old := v.heights.Set(n, d.Height)
	if measured && old != d.Height {
		v.Changed(y, old, d.Height)
	}
}

// Resize sets the view size in backend cells. The wrap width follows the
// view width.
func (v *View) Resize(cols, rows int) {
	px := cols * v.opts.CellWidth
	if px != v.vp.Width() {
		v.SetWidth(px)
	}
	v.vp.Resize(px, rows*v.opts.CellHeight)
}

// SetWidth changes the wrap width in pixels. Every display and measured
// height is dropped.
func (v *View) SetWidth(px int) {
	if v.opts.NoWrap {
		v.engine.SetWrapWidth(0)
	} else {
		v.engine.SetWrapWidth(px)
	}
	v.cache.InvalidateAll()
	v.heights.Reset(v.doc.LineCount())
	v.vp.SetContentHeight(v.heights.Total())
}

// MeasureAll measures every line without caching content.
func (v *View) MeasureAll() {
	for n := 0; n < v.doc.LineCount(); n++ {
		d := v.cache.Get(v.doc.Line(n), true)
		v.record(n, v.heights.Top(n), d)
		d.Unref()
	}
	v.vp.SetContentHeight(v.heights.Total())
}

// Draw paints the visible lines to b and shows the insert cursor when it is
// on screen.
func (v *View) Draw(b backend.Backend) {
	if v.closed {
		return
	}
	cursorLine := v.doc.CursorLine()
	v.cache.SetCursorLine(cursorLine)
	v.vp.SetContentHeight(v.heights.Total())

	cols, rows := v.cols(), v.rows()
	b.Fill(core.Rect{Width: cols, Height: rows}, core.EmptyCell())
	b.HideCursor()

	top := v.vp.Top()
	bottom := top + v.vp.Height()
	sel := v.selection()
	for n := v.heights.LineAtY(top); n >= 0 && n < v.doc.LineCount(); n++ {
		y := v.heights.Top(n)
		if y >= bottom {
			break
		}
		line := v.doc.Line(n)
		d := v.cache.Get(line, false)
		v.record(n, y, d)
		p := linePainter{
			view:       v,
			b:          b,
			d:          d,
			n:          n,
			y:          y - top,
			cursorLine: line == cursorLine,
			sel:        sel,
		}
		p.paint()
		d.Unref()
	}
	b.Show()
}

// PositionAt returns the document position under the pixel x, y, relative
// to the top left of the view.
func (v *View) PositionAt(x, y int) document.Position {
	docY := v.vp.Top() + max(y, 0)
	n := v.heights.LineAtY(docY)
	if n < 0 {
		return document.Position{}
	}
	d := v.cache.Get(v.doc.Line(n), false)
	defer d.Unref()
	col := v.engine.ByteOffsetAt(d, max(x, 0), docY-v.heights.Top(n))
	return v.doc.Clamp(document.Position{Line: n, Col: col})
}

// CellPositionAt is PositionAt for a backend cell.
func (v *View) CellPositionAt(col, row int) document.Position {
	return v.PositionAt(col*v.opts.CellWidth, row*v.opts.CellHeight)
}

// RevealCursor scrolls so the insert cursor is visible.
func (v *View) RevealCursor() {
	n := v.doc.Cursor().Line
	d := v.cache.Get(v.doc.Line(n), false)
	defer d.Unref()
	v.record(n, v.heights.Top(n), d)
	v.vp.SetContentHeight(v.heights.Total())

	y, h := v.heights.Top(n), d.Height
	if c, ok := d.Cursor(document.MarkInsert); ok {
		y, h = y+c.Y, c.Height
	}
	v.vp.ScrollToReveal(y, h, false)
}

// ScrollRows scrolls by whole backend rows.
func (v *View) ScrollRows(n int) {
	v.vp.ScrollBy(n*v.opts.CellHeight, false)
}

// PageUp scrolls up by about one screen.
func (v *View) PageUp() {
	v.vp.PageUp(v.opts.SmoothScroll)
}

// PageDown scrolls down by about one screen.
func (v *View) PageDown() {
	v.vp.PageDown(v.opts.SmoothScroll)
}

// Update advances scroll animation and reports whether the view moved.
func (v *View) Update(dt float64) bool {
	return v.vp.Update(dt)
}

// Viewport returns the view's viewport.
func (v *View) Viewport() *viewport.Viewport {
	return v.vp
}

// Heights returns the line height index.
func (v *View) Heights() *viewport.HeightIndex {
	return v.heights
}

// Cache returns the display cache.
func (v *View) Cache() *linecache.DisplayCache {
	return v.cache
}

// Stats returns the display cache counters.
func (v *View) Stats() linecache.Stats {
	return v.cache.Stats()
}

// Close stops listening to the document and closes the cache.
func (v *View) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.unsubscribe()
	v.cache.Close()
}

func (v *View) cols() int {
	return v.vp.Width() / v.opts.CellWidth
}

func (v *View) rows() int {
	return v.vp.Height() / v.opts.CellHeight
}

// selection is the selected range, with ok false when it is empty.
type selection struct {
	begin, end document.Position
	ok         bool
}

func (v *View) selection() selection {
	b, e, ok := v.doc.Selection()
	return selection{begin: b, end: e, ok: ok}
}

// columns returns the selected byte range of line n. hi is -1 when the
// selection runs past the end of the line.
func (s selection) columns(n int) (lo, hi int, ok bool) {
	if !s.ok || n < s.begin.Line || n > s.end.Line {
		return 0, 0, false
	}
	hi = -1
	if n == s.begin.Line {
		lo = s.begin.Col
	}
	if n == s.end.Line {
		hi = s.end.Col
	}
	return lo, hi, true
}
