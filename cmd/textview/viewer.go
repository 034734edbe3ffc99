package main

import (
	"log/slog"
	"time"

	"github.com/rivo/uniseg"

	"github.com/dshills/textview/internal/document"
	"github.com/dshills/textview/internal/event"
	"github.com/dshills/textview/internal/renderer"
	"github.com/dshills/textview/internal/renderer/backend"
)

// frameInterval paces smooth scroll animation.
const frameInterval = 16 * time.Millisecond

// wheelRows is how far one wheel notch scrolls.
const wheelRows = 3

// viewer connects a backend's input to a document and its view. Every
// method runs on the loop goroutine.
type viewer struct {
	doc     *document.Document
	view    *renderer.View
	backend backend.Backend
	sched   event.Scheduler
	log     *slog.Logger

	// goal is the display column Up and Down try to keep.
	goal    int
	hasGoal bool

	frame     event.Timer
	lastFrame time.Time
	now       func() time.Time
	stats     bool
}

// handle applies one input event and reports whether the viewer should
// quit.
func (v *viewer) handle(ev backend.Event) bool {
	switch ev.Type {
	case backend.EventKey:
		if ev.Key == backend.KeyCtrlQ {
			return true
		}
		v.key(ev)
	case backend.EventMouse:
		v.mouse(ev)
	case backend.EventResize:
		v.view.Resize(ev.Width, ev.Height)
	}
	v.redraw()
	return false
}

func (v *viewer) key(ev backend.Event) {
	extend := ev.Mod.Has(backend.ModShift)
	cur := v.doc.Cursor()

	switch ev.Key {
	case backend.KeyLeft:
		v.moveTo(v.prevBoundary(cur), extend)
	case backend.KeyRight:
		v.moveTo(v.nextBoundary(cur), extend)
	case backend.KeyUp:
		v.vertical(cur, -1, extend)
		return
	case backend.KeyDown:
		v.vertical(cur, 1, extend)
		return
	case backend.KeyHome:
		v.moveTo(document.Position{Line: cur.Line}, extend)
	case backend.KeyEnd:
		v.moveTo(document.Position{Line: cur.Line, Col: len(v.doc.LineText(cur.Line))}, extend)
	case backend.KeyPageUp:
		v.view.PageUp()
		v.animate()
		return
	case backend.KeyPageDown:
		v.view.PageDown()
		v.animate()
		return
	case backend.KeyRune:
		v.insert(string(ev.Rune))
	case backend.KeyEnter:
		v.insert("\n")
	case backend.KeyTab:
		v.insert("\t")
	case backend.KeyBackspace:
		if !v.deleteSelection() {
			v.deleteRange(v.prevBoundary(cur), cur)
		}
	case backend.KeyDelete:
		if !v.deleteSelection() {
			v.deleteRange(cur, v.nextBoundary(cur))
		}
	default:
		v.log.Debug("key ignored", "key", ev.Key, "mod", int(ev.Mod))
		return
	}
	v.hasGoal = false
	v.view.RevealCursor()
}

func (v *viewer) mouse(ev backend.Event) {
	switch ev.MouseButton {
	case backend.MouseLeft:
		v.moveTo(v.view.CellPositionAt(ev.MouseX, ev.MouseY), ev.Mod.Has(backend.ModShift))
		v.hasGoal = false
	case backend.MouseWheelUp:
		v.view.ScrollRows(-wheelRows)
	case backend.MouseWheelDown:
		v.view.ScrollRows(wheelRows)
	}
}

// moveTo places the insert mark at pos. Without extend the selection bound
// follows, collapsing the selection.
func (v *viewer) moveTo(pos document.Position, extend bool) {
	pos = v.doc.Clamp(pos)
	if err := v.doc.SetMark(document.MarkInsert, pos); err != nil {
		v.log.Warn("move cursor", "pos", pos, "error", err)
		return
	}
	if !extend {
		_ = v.doc.SetMark(document.MarkSelectionBound, pos)
	}
}

// vertical moves the cursor dy lines, keeping the goal column.
func (v *viewer) vertical(cur document.Position, dy int, extend bool) {
	n := cur.Line + dy
	if n < 0 || n >= v.doc.LineCount() {
		return
	}
	if !v.hasGoal {
		v.goal = uniseg.StringWidth(v.doc.LineText(cur.Line)[:cur.Col])
		v.hasGoal = true
	}
	v.moveTo(document.Position{Line: n, Col: columnAtWidth(v.doc.LineText(n), v.goal)}, extend)
	v.view.RevealCursor()
}

// columnAtWidth returns the byte offset of the last grapheme boundary whose
// display width does not pass width.
func columnAtWidth(text string, width int) int {
	col, w := 0, 0
	state := -1
	rest := text
	for len(rest) > 0 {
		cluster, next, cw, st := uniseg.FirstGraphemeClusterInString(rest, state)
		if w+cw > width {
			break
		}
		w += cw
		col += len(cluster)
		rest, state = next, st
	}
	return col
}

// prevBoundary returns the grapheme boundary before pos, joining onto the
// previous line at column 0.
func (v *viewer) prevBoundary(pos document.Position) document.Position {
	if pos.Col == 0 {
		if pos.Line == 0 {
			return pos
		}
		return document.Position{Line: pos.Line - 1, Col: len(v.doc.LineText(pos.Line - 1))}
	}
	text := v.doc.LineText(pos.Line)[:pos.Col]
	prev := 0
	state := -1
	for off := 0; off < len(text); {
		cluster, _, _, st := uniseg.FirstGraphemeClusterInString(text[off:], state)
		prev = off
		off += len(cluster)
		state = st
	}
	return document.Position{Line: pos.Line, Col: prev}
}

// nextBoundary returns the grapheme boundary after pos, moving to the next
// line at the end of a line.
func (v *viewer) nextBoundary(pos document.Position) document.Position {
	text := v.doc.LineText(pos.Line)
	if pos.Col >= len(text) {
		if pos.Line+1 >= v.doc.LineCount() {
			return pos
		}
		return document.Position{Line: pos.Line + 1}
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(text[pos.Col:], -1)
	return document.Position{Line: pos.Line, Col: pos.Col + len(cluster)}
}

// insert replaces the selection with text and moves the cursor after it.
func (v *viewer) insert(text string) {
	v.deleteSelection()
	end, err := v.doc.Insert(v.doc.Cursor(), text)
	if err != nil {
		v.log.Warn("insert", "error", err)
		return
	}
	v.moveTo(end, false)
}

// deleteSelection removes the selected text and reports whether there was
// any.
func (v *viewer) deleteSelection() bool {
	begin, end, ok := v.doc.Selection()
	if !ok {
		return false
	}
	v.deleteRange(begin, end)
	return true
}

func (v *viewer) deleteRange(begin, end document.Position) {
	if begin == end {
		return
	}
	if err := v.doc.Delete(begin, end); err != nil {
		v.log.Warn("delete", "begin", begin, "end", end, "error", err)
		return
	}
	v.moveTo(begin, false)
}

// animate drives smooth scrolling until the viewport settles.
func (v *viewer) animate() {
	if v.sched == nil {
		return
	}
	v.lastFrame = v.now()
	if v.frame == nil {
		v.frame = v.sched.AfterFunc(frameInterval, v.tick)
		return
	}
	v.frame.Reset(frameInterval)
}

func (v *viewer) tick() {
	now := v.now()
	dt := now.Sub(v.lastFrame).Seconds()
	v.lastFrame = now
	if v.view.Update(dt) {
		v.redraw()
		v.frame.Reset(frameInterval)
	}
}

func (v *viewer) redraw() {
	v.view.Draw(v.backend)
	if v.stats {
		s := v.view.Stats()
		v.log.Info("cache stats",
			"size", s.Size,
			"hits", s.Hits,
			"misses", s.Misses,
			"evictions", s.Evictions,
			"idle_flushes", s.IdleFlushes,
		)
	}
}
