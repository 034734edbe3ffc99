// Package renderer shows a tagged document on a cell backend.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│         View (document listener)        │
//	├─────────────────────────────────────────┤
//	│ DisplayCache │ HeightIndex │ Viewport   │
//	├─────────────────────────────────────────┤
//	│ CellEngine / ShapingEngine │ highlight  │
//	├─────────────────────────────────────────┤
//	│  Backend: Terminal (tcell) │ Null       │
//	└─────────────────────────────────────────┘
//
// The view maps document notifications to cache invalidations: edits and
// tag changes drop the displays of the lines they touch, mark moves only
// mark cursors stale. Draw fetches one display per visible line, records
// its measured height and releases it after painting.
//
// Usage:
//
//	doc := document.New(text)
//	engine := layout.NewCellEngine(doc, layout.DefaultCellOptions())
//	v := renderer.New(doc, engine, renderer.DefaultOptions())
//	defer v.Close()
//	v.Resize(80, 24)
//	v.Draw(term)
package renderer
