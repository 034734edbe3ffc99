package linecache

import (
	"log/slog"
	"time"

	"github.com/dshills/textview/internal/document"
	"github.com/dshills/textview/internal/event"
	"github.com/dshills/textview/internal/logging"
)

// Defaults for Config.
const (
	DefaultCapacity    = 250
	DefaultIdleTimeout = 20 * time.Second
)

// LayoutEngine builds displays for the cache.
type LayoutEngine interface {
	// CreateDisplay builds a new display for line holding one reference.
	// It must not fail and must set the display's Line to line.
	CreateDisplay(line *document.Line, sizeOnly bool) *LineDisplay

	// UpdateDisplayCursors recomputes d.Cursors in place and clears
	// d.CursorsInvalid. It must not change the metrics or the content.
	UpdateDisplayCursors(line *document.Line, d *LineDisplay)

	// Compare orders two displays by the current document position of their
	// lines.
	Compare(a, b *LineDisplay) int
}

// Document is the cache's view of the document, used to resolve positions
// to lines and back.
type Document interface {
	Line(n int) *document.Line
	LineNumber(line *document.Line) int
}

// Geometry maps lines to their cumulative pixel top.
type Geometry interface {
	LineTop(line *document.Line) int
}

// Config configures the display cache.
type Config struct {
	// Capacity is the maximum number of resident displays.
	Capacity int

	// IdleTimeout is how long the cache may go without activity before it
	// drops every display. Zero disables idle eviction.
	IdleTimeout time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:    DefaultCapacity,
		IdleTimeout: DefaultIdleTimeout,
	}
}

// Option configures optional collaborators of a DisplayCache.
type Option func(*DisplayCache)

// WithScheduler sets the timer source for idle eviction. Timers must fire on
// the goroutine that owns the cache. Without a scheduler, idle eviction is
// off.
func WithScheduler(s event.Scheduler) Option {
	return func(c *DisplayCache) {
		c.sched = s
	}
}

// WithGeometry sets the pixel geometry used by InvalidateYRange.
func WithGeometry(g Geometry) Option {
	return func(c *DisplayCache) {
		c.geom = g
	}
}

// WithLogger sets the cache logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *DisplayCache) {
		if l != nil {
			c.log = l
		}
	}
}

// DisplayCache memoizes line displays. It keeps three indices over the same
// set of displays: a map by line identity, a sequence in document order and
// a most-recently-used list.
//
// A DisplayCache is not safe for concurrent use; it belongs to the goroutine
// that runs the view's event loop.
type DisplayCache struct {
	engine LayoutEngine
	doc    Document
	geom   Geometry
	sched  event.Scheduler
	log    *slog.Logger
	config Config

	byLine map[*document.Line]*LineDisplay
	seq    sequence
	mru    mruList

	cursorLine *document.Line

	timer  event.Timer
	armed  bool
	closed bool

	stats Stats
}

// New creates a display cache. Zero config fields take their defaults; a
// negative IdleTimeout disables idle eviction.
func New(engine LayoutEngine, doc Document, config Config, opts ...Option) *DisplayCache {
	if config.Capacity <= 0 {
		config.Capacity = DefaultCapacity
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}

	c := &DisplayCache{
		engine: engine,
		doc:    doc,
		log:    logging.For("linecache"),
		config: config,
		byLine: make(map[*document.Line]*LineDisplay, config.Capacity),
		mru:    newMRUList(config.Capacity),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a display for line holding one reference for the caller.
//
// A resident display is returned if it satisfies the request: any display
// satisfies a size-only request, only a full one satisfies a full request.
// Otherwise the engine builds a new display. Full displays are inserted into
// the cache, evicting the least recently used entries beyond capacity;
// size-only displays are never cached.
func (c *DisplayCache) Get(line *document.Line, sizeOnly bool) *LineDisplay {
	if c.closed {
		invariant("get", "cache is closed")
	}

	if d, ok := c.byLine[line]; ok {
		if sizeOnly || !d.SizeOnly {
			c.stats.Hits++
			if !sizeOnly && (line == c.cursorLine || d.CursorsInvalid) {
				c.engine.UpdateDisplayCursors(line, d)
			}
			c.mru.moveToFront(d.mru)
			c.DelayEviction()
			c.checkIndices("get")
			return d.Ref()
		}
		// Resident but only sized; the caller needs content.
		c.remove(d)
	}

	c.stats.Misses++
	d := c.engine.CreateDisplay(line, sizeOnly)
	if d == nil || d.Line != line {
		invariant("get", "engine returned a display for another line")
	}
	if sizeOnly {
		c.stats.SizeOnly++
		return d
	}

	if line == c.cursorLine {
		c.engine.UpdateDisplayCursors(line, d)
	}
	c.take(d.Ref())
	c.checkIndices("get")
	return d
}

// take inserts d into all three indices, consuming one reference, and evicts
// from the MRU tail while over capacity.
func (c *DisplayCache) take(d *LineDisplay) {
	c.byLine[d.Line] = d
	d.mru = c.mru.pushFront(d)
	c.seq.insert(d, c.engine.Compare)

	n := 0
	for c.mru.len() > c.config.Capacity {
		c.remove(c.mru.back())
		c.stats.Evictions++
		n++
	}
	if n > 0 {
		c.log.Debug("evicted", "count", n, "entries", len(c.byLine), "evictions", c.stats.Evictions)
	}
	c.armEviction()
}

// InvalidateDisplay drops d from the cache, or with cursorsOnly marks its
// cursors for recomputation and keeps it resident. Displays that are not
// resident in this cache are ignored.
func (c *DisplayCache) InvalidateDisplay(d *LineDisplay, cursorsOnly bool) {
	c.stats.Invalidations.Display++
	if d == nil || !d.resident() || c.byLine[d.Line] != d {
		return
	}
	c.invalidate(d, cursorsOnly)
	c.checkIndices("invalidate display")
}

// InvalidateLine drops the display of line if resident.
func (c *DisplayCache) InvalidateLine(line *document.Line) {
	c.stats.Invalidations.Line++
	if d, ok := c.byLine[line]; ok {
		c.remove(d)
		c.checkIndices("invalidate line")
	}
}

// InvalidateCursors marks the cursors of line's display for recomputation.
// The display stays resident.
func (c *DisplayCache) InvalidateCursors(line *document.Line) {
	c.stats.Invalidations.Cursors++
	if d, ok := c.byLine[line]; ok {
		c.markCursors(d)
	}
}

// InvalidateAll drops every display.
func (c *DisplayCache) InvalidateAll() {
	c.stats.Invalidations.All++
	c.invalidateAll()
}

func (c *DisplayCache) invalidateAll() {
	if c.mru.len() == 0 {
		return
	}
	all := make([]*LineDisplay, 0, c.mru.len())
	c.mru.each(func(d *LineDisplay) bool {
		all = append(all, d)
		return true
	})
	c.removeAll(all)
	if len(c.byLine) != 0 || c.seq.len() != 0 {
		invariant("invalidate all", "%d map and %d sequence entries left", len(c.byLine), c.seq.len())
	}
}

// SetCursorLine records the line holding the insert mark. When it changes,
// the displays of both the old and the new line are dropped so they are
// rebuilt with fresh cursors.
func (c *DisplayCache) SetCursorLine(line *document.Line) {
	if line == c.cursorLine {
		return
	}
	dropped := 0
	if d, ok := c.byLine[c.cursorLine]; ok {
		c.remove(d)
		dropped++
	}
	c.cursorLine = line
	if d, ok := c.byLine[line]; ok {
		c.remove(d)
		dropped++
		// remove forgets the cursor line when it drops its display.
		c.cursorLine = line
	}
	c.log.Debug("cursor line changed", "dropped", dropped, "entries", len(c.byLine))
	c.checkIndices("set cursor line")
}

// CursorLine returns the recorded cursor line, or nil.
func (c *DisplayCache) CursorLine() *document.Line {
	return c.cursorLine
}

// Close drops every display and stops the idle timer. Displays still
// referenced by callers stay valid. Get panics after Close.
func (c *DisplayCache) Close() {
	if c.closed {
		return
	}
	n := len(c.byLine)
	c.invalidateAll()
	c.stopEviction()
	c.cursorLine = nil
	c.closed = true
	c.log.Debug("closed", "entries", n, "hits", c.stats.Hits, "misses", c.stats.Misses)
}

// Len returns the number of resident displays.
func (c *DisplayCache) Len() int {
	return len(c.byLine)
}

// Contains reports whether line has a resident display.
func (c *DisplayCache) Contains(line *document.Line) bool {
	_, ok := c.byLine[line]
	return ok
}

// Stats returns cache statistics.
func (c *DisplayCache) Stats() Stats {
	s := c.stats
	s.Size = len(c.byLine)
	s.Capacity = c.config.Capacity
	return s
}

// ResetStats zeroes the counters.
func (c *DisplayCache) ResetStats() {
	c.stats = Stats{}
}

func (c *DisplayCache) invalidate(d *LineDisplay, cursorsOnly bool) {
	if cursorsOnly {
		c.markCursors(d)
		return
	}
	c.remove(d)
}

func (c *DisplayCache) markCursors(d *LineDisplay) {
	d.Cursors = nil
	d.CursorsInvalid = true
	d.clearRenderNode()
	c.stats.Invalidations.Marked++
}

// remove drops d from all three indices and releases the cache's reference.
func (c *DisplayCache) remove(d *LineDisplay) {
	c.unindex(d)
	c.seq.remove(d)
	d.Unref()
}

// removeAll is remove for many displays with a single sequence compaction.
func (c *DisplayCache) removeAll(ds []*LineDisplay) {
	for _, d := range ds {
		c.unindex(d)
	}
	c.seq.removeAll(ds)
	for _, d := range ds {
		d.Unref()
	}
}

func (c *DisplayCache) unindex(d *LineDisplay) {
	if d.Line == c.cursorLine {
		c.cursorLine = nil
	}
	delete(c.byLine, d.Line)
	c.mru.remove(d.mru)
	d.mru = nilIndex
	c.stats.Invalidations.Removed++
}
