// Package linecache memoizes per-line display objects for the text view.
//
// A DisplayCache keeps three indices over the same set of LineDisplay values:
//
//   - a map from *document.Line to its display
//   - a sequence in document order, used by range invalidation
//   - a most-recently-used list, used to evict beyond capacity
//
// The sequence is ordered when each display is inserted and is not re-sorted
// when the document changes. Range invalidation uses binary search to find
// anchors and then walks linearly, so a locally disordered sequence costs
// precision of the anchors, never correctness of the walk.
//
// Basic usage:
//
//	cache := linecache.New(engine, doc, linecache.DefaultConfig(),
//		linecache.WithScheduler(loop),
//		linecache.WithGeometry(heights))
//	defer cache.Close()
//
//	d := cache.Get(line, false)
//	paint(d)
//	d.Unref()
//
// Edits are mapped to InvalidateRange, InvalidateYRange and friends by the
// view that owns the cache. After IdleTimeout without activity the cache
// drops every display.
//
// Thread Safety:
//
// Nothing in this package is safe for concurrent use. The cache, its displays
// and the idle timer callback all run on the view's event loop goroutine.
package linecache
