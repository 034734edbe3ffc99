// Package document provides the line-indexed, tag-annotated text store that
// the text view renders.
//
// The package provides:
//
//   - Stable line identities: a *Line keeps its identity across edits elsewhere
//     in the document, so it can key caches. Its line number is looked up from
//     the document, never stored on the line.
//   - Tag spans: named tags with display properties applied to byte ranges.
//   - Marks: named positions ("insert", "selection_bound") that move with edits.
//   - Synchronous change notification through the Listener interface.
//
// Basic usage:
//
//	doc := document.New("hello\nworld")
//	unsubscribe := doc.Subscribe(listener)
//	defer unsubscribe()
//
//	doc.Insert(document.Position{Line: 1, Col: 5}, "!")
//	doc.Tags().Define("keyword", document.TagProps{Bold: true})
//	doc.ApplyTag("keyword", document.Position{Line: 0}, document.Position{Line: 0, Col: 5})
//
// Thread Safety:
//
// A Document is not safe for concurrent use. It belongs to the view's event
// loop goroutine, and listeners run on that goroutine during the mutating
// call.
package document
