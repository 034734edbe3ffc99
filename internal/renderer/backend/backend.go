// Package backend provides the paint surfaces the view draws on.
//
// Terminal paints through tcell. NullBackend keeps cells in memory and is
// what the view and command tests draw on.
package backend

import (
	"github.com/dshills/textview/internal/renderer/core"
	"github.com/dshills/textview/internal/renderer/linecache"
)

// Backend is a grid of cells addressed from the top-left corner.
type Backend interface {
	// Init prepares the surface. Nothing else may be called before it.
	Init() error

	// Shutdown gives the terminal back in the state Init found it.
	Shutdown()

	// Size is measured in cells.
	Size() (width, height int)

	// SetCell writes one cell. Writes off the grid are dropped.
	SetCell(x, y int, cell core.Cell)

	// GetCell reads one cell. Off the grid it returns an empty cell.
	GetCell(x, y int) core.Cell

	// DrawRow writes row of display d with its first cell at (x, y).
	// Implementations may keep per-display paint state in d's render node;
	// it is released with d.
	DrawRow(d *linecache.LineDisplay, row, x, y int, cells []core.Cell)

	// Fill writes cell into every position of rect that is on the grid.
	Fill(rect core.Rect, cell core.Cell)

	Clear()

	// Show makes everything written since the last Show visible.
	Show()

	ShowCursor(x, y int)
	HideCursor()

	// PollEvent blocks until input arrives.
	PollEvent() Event

	// PostEvent injects an event into the input queue.
	PostEvent(event Event)
}

// EventType tells which fields of an Event are set.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventMouse
	EventResize
	// EventInterrupt wakes a blocked PollEvent.
	EventInterrupt
)

// Event is one unit of input.
type Event struct {
	Type EventType

	// EventKey. Rune is set when Key is KeyRune.
	Key  Key
	Rune rune
	Mod  ModMask

	// EventMouse, in cells.
	MouseX, MouseY int
	MouseButton    MouseButton

	// EventResize, in cells.
	Width, Height int
}

// Key names a key the viewer reacts to. Everything else arrives as KeyNone.
type Key int

const (
	KeyNone Key = iota
	KeyRune
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyCtrlQ
)

var keyNames = [...]string{
	KeyNone:      "None",
	KeyRune:      "Rune",
	KeyEscape:    "Escape",
	KeyEnter:     "Enter",
	KeyTab:       "Tab",
	KeyBackspace: "Backspace",
	KeyDelete:    "Delete",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyCtrlQ:     "Ctrl+Q",
}

func (k Key) String() string {
	if k < 0 || int(k) >= len(keyNames) {
		return "Key(?)"
	}
	return keyNames[k]
}

// ModMask is a set of held modifiers.
type ModMask int

const (
	ModNone  ModMask = 0
	ModShift ModMask = 1 << iota
	ModCtrl
	ModAlt
)

// Has reports whether mod is held.
func (m ModMask) Has(mod ModMask) bool {
	return m&mod != 0
}

// MouseButton is the button or wheel direction of a mouse event.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseWheelUp
	MouseWheelDown
)
