package linecache

import (
	"fmt"

	"github.com/dshills/textview/internal/document"
)

// Releaser is implemented by payloads whose storage is freed when the last
// reference to their display goes away.
type Releaser interface {
	Release()
}

// Cursor is the pixel position of a named mark inside a display.
type Cursor struct {
	Name   string
	X, Y   int
	Height int
}

// Margins are the spacing around a line's content, in pixels.
type Margins struct {
	Left, Right int
	Top, Bottom int
}

// LineDisplay is the computed layout of one line at one point in time.
//
// Displays are reference counted. Every display handed out by the cache or an
// engine carries one reference owned by the receiver, who must call Unref
// when done. A display stays readable after the cache drops it, as long as
// the caller still holds a reference.
type LineDisplay struct {
	// Line is the document line this display was built from.
	Line *document.Line

	// Content is the engine payload: cells for the terminal engine, glyph
	// runs for the shaping engine. Nil for size-only displays that dropped
	// their payload.
	Content Releaser

	// Width and Height are in pixels. Height includes Margins.Top and
	// Margins.Bottom.
	Width  int
	Height int

	Margins Margins

	// Cursors holds the insert and selection_bound positions that fall on
	// this line, in that order.
	Cursors []Cursor

	// SizeOnly is set when only the metrics were computed.
	SizeOnly bool

	// CursorsInvalid is set when Cursors must be recomputed before use.
	CursorsInvalid bool

	renderNode Releaser
	refs       int
	released   bool

	// Index handles, valid while the display is cache resident.
	mru int32
	seq int
}

// NewLineDisplay returns a display for line holding one reference.
func NewLineDisplay(line *document.Line, sizeOnly bool) *LineDisplay {
	return &LineDisplay{
		Line:     line,
		SizeOnly: sizeOnly,
		refs:     1,
		mru:      nilIndex,
		seq:      -1,
	}
}

// Ref adds a reference and returns d.
func (d *LineDisplay) Ref() *LineDisplay {
	if d.released {
		panic(&InvariantError{Op: "ref", Msg: "display already released"})
	}
	d.refs++
	return d
}

// Unref drops a reference. The last one releases the content payload and the
// render node.
func (d *LineDisplay) Unref() {
	if d.refs <= 0 {
		panic(&InvariantError{Op: "unref", Msg: fmt.Sprintf("reference count %d", d.refs)})
	}
	d.refs--
	if d.refs > 0 {
		return
	}
	if d.resident() {
		panic(&InvariantError{Op: "unref", Msg: "last reference dropped while cache resident"})
	}
	d.released = true
	if d.Content != nil {
		d.Content.Release()
		d.Content = nil
	}
	d.clearRenderNode()
}

// Refs returns the current reference count.
func (d *LineDisplay) Refs() int {
	return d.refs
}

// Released reports whether the last reference was dropped.
func (d *LineDisplay) Released() bool {
	return d.released
}

// SetRenderNode stores a backend paint cache for the display, releasing the
// previous one.
func (d *LineDisplay) SetRenderNode(n Releaser) {
	d.clearRenderNode()
	d.renderNode = n
}

// RenderNode returns the backend paint cache, or nil.
func (d *LineDisplay) RenderNode() Releaser {
	return d.renderNode
}

func (d *LineDisplay) clearRenderNode() {
	if d.renderNode != nil {
		d.renderNode.Release()
		d.renderNode = nil
	}
}

// Cursor returns the named cursor.
func (d *LineDisplay) Cursor(name string) (Cursor, bool) {
	for _, c := range d.Cursors {
		if c.Name == name {
			return c, true
		}
	}
	return Cursor{}, false
}

func (d *LineDisplay) resident() bool {
	return d.seq >= 0
}
