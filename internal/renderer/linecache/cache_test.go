package linecache

import (
	"bytes"
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dshills/textview/internal/document"
	"github.com/dshills/textview/internal/event"
)

func TestMain(m *testing.M) {
	verifyIndices = true
	os.Exit(m.Run())
}

type fakeContent struct {
	released *int
}

func (f *fakeContent) Release() { *f.released++ }

// fakeEngine counts the work the cache asks for.
type fakeEngine struct {
	doc           *document.Document
	height        int
	created       int
	cursorUpdates int
	releases      int
}

func (e *fakeEngine) CreateDisplay(line *document.Line, sizeOnly bool) *LineDisplay {
	e.created++
	d := NewLineDisplay(line, sizeOnly)
	d.Width = 8 * line.Len()
	d.Height = e.height
	if !sizeOnly {
		d.Content = &fakeContent{released: &e.releases}
	}
	return d
}

func (e *fakeEngine) UpdateDisplayCursors(line *document.Line, d *LineDisplay) {
	e.cursorUpdates++
	d.Cursors = []Cursor{{Name: document.MarkInsert, Height: e.height}}
	d.CursorsInvalid = false
}

func (e *fakeEngine) Compare(a, b *LineDisplay) int {
	return cmp.Compare(e.doc.LineNumber(a.Line), e.doc.LineNumber(b.Line))
}

type fakeGeometry struct {
	doc    *document.Document
	height int
}

func (g fakeGeometry) LineTop(line *document.Line) int {
	return g.doc.LineNumber(line) * g.height
}

func newTestDoc(n int) *document.Document {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	return document.New(strings.Join(lines, "\n"))
}

func newTestCache(lines int, config Config, opts ...Option) (*DisplayCache, *fakeEngine, *document.Document) {
	doc := newTestDoc(lines)
	engine := &fakeEngine{doc: doc, height: 10}
	return New(engine, doc, config, opts...), engine, doc
}

// touch gets a full display and drops the caller's reference.
func touch(c *DisplayCache, line *document.Line) *LineDisplay {
	d := c.Get(line, false)
	d.Unref()
	return d
}

func touchAll(c *DisplayCache, doc *document.Document) {
	for i := 0; i < doc.LineCount(); i++ {
		touch(c, doc.Line(i))
	}
}

func resident(c *DisplayCache, doc *document.Document) []int {
	var out []int
	for i := 0; i < doc.LineCount(); i++ {
		if c.Contains(doc.Line(i)) {
			out = append(out, i)
		}
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustPanicInvariant(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if _, ok := r.(*InvariantError); !ok {
			t.Errorf("panic = %v, want *InvariantError", r)
		}
	}()
	f()
}

func TestGetIdentityHit(t *testing.T) {
	c, engine, doc := newTestCache(3, DefaultConfig())
	line := doc.Line(1)

	first := c.Get(line, false)
	second := c.Get(line, false)
	if first != second {
		t.Error("second Get should return the same display")
	}
	if engine.created != 1 {
		t.Errorf("created = %d, want 1", engine.created)
	}
	if first.Refs() != 3 {
		t.Errorf("Refs = %d, want 3 (cache + two callers)", first.Refs())
	}
	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
	first.Unref()
	second.Unref()
}

func TestInvalidateLineIsExact(t *testing.T) {
	c, engine, doc := newTestCache(10, DefaultConfig())
	touchAll(c, doc)

	c.InvalidateLine(doc.Line(3))
	want := []int{0, 1, 2, 4, 5, 6, 7, 8, 9}
	if got := resident(c, doc); !equalInts(got, want) {
		t.Errorf("resident = %v, want %v", got, want)
	}

	created := engine.created
	touch(c, doc.Line(5))
	if engine.created != created {
		t.Error("other lines should still hit")
	}
	touch(c, doc.Line(3))
	if engine.created != created+1 {
		t.Error("invalidated line should miss")
	}
}

func TestInvalidateLineAbsentIsNoop(t *testing.T) {
	c, _, doc := newTestCache(3, DefaultConfig())
	touch(c, doc.Line(0))
	c.InvalidateLine(doc.Line(2))
	c.InvalidateLine(nil)
	c.InvalidateCursors(doc.Line(2))
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestInvalidateRangeCoverage(t *testing.T) {
	tests := []struct {
		name       string
		begin, end int
	}{
		{"forward", 3, 6},
		{"reversed", 6, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, doc := newTestCache(10, DefaultConfig())
			touchAll(c, doc)

			c.InvalidateRange(document.Position{Line: tt.begin}, document.Position{Line: tt.end, Col: 2}, false)

			want := []int{0, 1, 2, 7, 8, 9}
			if got := resident(c, doc); !equalInts(got, want) {
				t.Errorf("resident = %v, want %v", got, want)
			}
		})
	}
}

func TestInvalidateRangeSameLine(t *testing.T) {
	c, _, doc := newTestCache(5, DefaultConfig())
	touchAll(c, doc)
	c.InvalidateRange(document.Position{Line: 2, Col: 4}, document.Position{Line: 2, Col: 1}, false)
	if got := resident(c, doc); !equalInts(got, []int{0, 1, 3, 4}) {
		t.Errorf("resident = %v", got)
	}
}

func TestInvalidateRangeMissingAnchors(t *testing.T) {
	c, _, doc := newTestCache(10, DefaultConfig())
	for _, n := range []int{2, 4, 6, 8} {
		touch(c, doc.Line(n))
	}

	// The end anchor is missing: the walk runs to the last entry.
	c.InvalidateRange(document.Position{Line: 4}, document.Position{Line: 7}, false)
	if got := resident(c, doc); !equalInts(got, []int{2}) {
		t.Errorf("resident = %v, want [2]", got)
	}

	for _, n := range []int{4, 6, 8} {
		touch(c, doc.Line(n))
	}
	// The begin anchor is missing: the walk starts at the first entry.
	c.InvalidateRange(document.Position{Line: 3}, document.Position{Line: 6}, false)
	if got := resident(c, doc); !equalInts(got, []int{8}) {
		t.Errorf("resident = %v, want [8]", got)
	}
}

func TestInvalidateRangeCursorsOnly(t *testing.T) {
	c, _, doc := newTestCache(5, DefaultConfig())
	touchAll(c, doc)
	c.InvalidateRange(document.Position{Line: 1}, document.Position{Line: 3}, true)
	if c.Len() != 5 {
		t.Fatalf("Len = %d, want 5", c.Len())
	}
	for n := 0; n < 5; n++ {
		d := c.Get(doc.Line(n), true)
		want := n >= 1 && n <= 3
		if d.CursorsInvalid != want {
			t.Errorf("line %d CursorsInvalid = %v, want %v", n, d.CursorsInvalid, want)
		}
		d.Unref()
	}
}

func TestInvalidateRangeToleratesDetachedEntries(t *testing.T) {
	c, _, doc := newTestCache(6, DefaultConfig())
	touchAll(c, doc)

	// Join lines 1 and 2 behind the cache's back. Line 2 is detached but its
	// display stays in the sequence with line number -1, breaking the order.
	removed := doc.Line(2)
	if err := doc.Delete(document.Position{Line: 1}, document.Position{Line: 2}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	two, three := doc.Line(2), doc.Line(3)

	c.InvalidateRange(document.Position{Line: 2}, document.Position{Line: 3}, false)
	if c.Contains(two) || c.Contains(three) {
		t.Error("lines 2 and 3 should be invalidated")
	}
	if !c.Contains(doc.Line(0)) || !c.Contains(doc.Line(1)) || !c.Contains(doc.Line(4)) {
		t.Error("lines outside the range should stay")
	}

	c.InvalidateLine(removed)
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestInvalidateYRange(t *testing.T) {
	doc := newTestDoc(10)
	engine := &fakeEngine{doc: doc, height: 10}
	c := New(engine, doc, DefaultConfig(), WithGeometry(fakeGeometry{doc: doc, height: 10}))
	touchAll(c, doc)

	c.InvalidateYRange(25, 20, false)
	if got := resident(c, doc); !equalInts(got, []int{0, 1, 5, 6, 7, 8, 9}) {
		t.Errorf("resident = %v", got)
	}
}

func TestInvalidateYRangeAnchorMissing(t *testing.T) {
	doc := newTestDoc(10)
	engine := &fakeEngine{doc: doc, height: 10}
	c := New(engine, doc, DefaultConfig(), WithGeometry(fakeGeometry{doc: doc, height: 10}))
	for _, n := range []int{0, 1, 5, 6} {
		touch(c, doc.Line(n))
	}

	// y=25 falls on uncached line 2; the walk starts at line 5.
	c.InvalidateYRange(25, 30, false)
	if got := resident(c, doc); !equalInts(got, []int{0, 1, 6}) {
		t.Errorf("resident = %v, want [0 1 6]", got)
	}
}

func TestInvalidateYRangeZeroHeight(t *testing.T) {
	doc := newTestDoc(4)
	engine := &fakeEngine{doc: doc, height: 10}
	c := New(engine, doc, DefaultConfig(), WithGeometry(fakeGeometry{doc: doc, height: 10}))
	touchAll(c, doc)

	c.InvalidateYRange(10, 0, false)
	if got := resident(c, doc); !equalInts(got, []int{0, 2, 3}) {
		t.Errorf("resident = %v, want [0 2 3]", got)
	}
}

func TestInvalidateYRangeWithoutGeometry(t *testing.T) {
	c, _, doc := newTestCache(4, DefaultConfig())
	touchAll(c, doc)
	c.InvalidateYRange(0, 5, true)
	if c.Len() != 4 {
		t.Fatalf("cursors-only should keep entries, Len = %d", c.Len())
	}
	c.InvalidateYRange(0, 5, false)
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestEvictionCap(t *testing.T) {
	c, _, doc := newTestCache(300, DefaultConfig())
	touchAll(c, doc)

	if c.Len() != DefaultCapacity {
		t.Fatalf("Len = %d, want %d", c.Len(), DefaultCapacity)
	}
	for i := 0; i < 300; i++ {
		if got, want := c.Contains(doc.Line(i)), i >= 50; got != want {
			t.Errorf("Contains(line %d) = %v, want %v", i, got, want)
		}
	}
	if got := c.Stats().Evictions; got != 50 {
		t.Errorf("Evictions = %d, want 50", got)
	}
}

func TestEvictionFollowsRecency(t *testing.T) {
	c, _, doc := newTestCache(300, DefaultConfig())
	for i := 0; i < 250; i++ {
		touch(c, doc.Line(i))
	}
	// Refresh the first 50 so lines 50..99 become the oldest.
	for i := 0; i < 50; i++ {
		touch(c, doc.Line(i))
	}
	for i := 250; i < 300; i++ {
		touch(c, doc.Line(i))
	}
	for i := 0; i < 300; i++ {
		want := i < 50 || i >= 100
		if got := c.Contains(doc.Line(i)); got != want {
			t.Errorf("Contains(line %d) = %v, want %v", i, got, want)
		}
	}
}

func TestCapacityScenario(t *testing.T) {
	c, _, doc := newTestCache(4, Config{Capacity: 3})
	a, b, cc, d := doc.Line(0), doc.Line(1), doc.Line(2), doc.Line(3)

	touch(c, a)
	touch(c, b)
	touch(c, cc)
	if got := c.mruOrder(); !equalLines(got, cc, b, a) {
		t.Fatalf("mru = %v, want C B A", lineNames(doc, got))
	}

	touch(c, a)
	if got := c.mruOrder(); !equalLines(got, a, cc, b) {
		t.Fatalf("mru = %v, want A C B", lineNames(doc, got))
	}

	touch(c, d)
	if c.Contains(b) {
		t.Error("B should be evicted")
	}
	if !c.Contains(a) || !c.Contains(cc) || !c.Contains(d) {
		t.Error("A, C and D should be resident")
	}
	if got := c.mruOrder(); !equalLines(got, d, a, cc) {
		t.Errorf("mru = %v, want D A C", lineNames(doc, got))
	}
}

func TestInvalidateCursorsKeepsEntry(t *testing.T) {
	c, engine, doc := newTestCache(3, DefaultConfig())
	line := doc.Line(1)
	d := touch(c, line)

	c.InvalidateCursors(line)
	if !c.Contains(line) {
		t.Fatal("cursor invalidation should not evict")
	}
	if !d.CursorsInvalid || d.Cursors != nil {
		t.Error("cursors should be dropped and marked invalid")
	}

	created, updates := engine.created, engine.cursorUpdates
	again := touch(c, line)
	if again != d || engine.created != created {
		t.Error("next Get should hit")
	}
	if engine.cursorUpdates != updates+1 {
		t.Errorf("cursorUpdates = %d, want %d", engine.cursorUpdates, updates+1)
	}
	if d.CursorsInvalid {
		t.Error("cursors should be recomputed")
	}
}

func TestInvalidateCursorsReleasesRenderNode(t *testing.T) {
	c, engine, doc := newTestCache(1, DefaultConfig())
	d := touch(c, doc.Line(0))
	d.SetRenderNode(&fakeContent{released: &engine.releases})
	c.InvalidateDisplay(d, true)
	if d.RenderNode() != nil || engine.releases != 1 {
		t.Error("cursor invalidation should release the render node")
	}
}

func TestSizeOnlyNeverCached(t *testing.T) {
	c, engine, doc := newTestCache(2, DefaultConfig())
	line := doc.Line(0)

	for i := 0; i < 2; i++ {
		d := c.Get(line, true)
		if !d.SizeOnly || d.Refs() != 1 {
			t.Errorf("size-only display: SizeOnly=%v Refs=%d", d.SizeOnly, d.Refs())
		}
		d.Unref()
		if !d.Released() {
			t.Error("uncached display should be released by its only reference")
		}
	}
	if engine.created != 2 {
		t.Errorf("created = %d, want 2", engine.created)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if got := c.Stats().SizeOnly; got != 2 {
		t.Errorf("SizeOnly = %d, want 2", got)
	}
}

func TestSizeOnlyRequestUsesFullEntry(t *testing.T) {
	c, engine, doc := newTestCache(2, DefaultConfig())
	line := doc.Line(0)
	full := touch(c, line)
	sized := c.Get(line, true)
	defer sized.Unref()
	if sized != full || engine.created != 1 {
		t.Error("size-only request should be served by the resident full display")
	}
	if engine.cursorUpdates != 0 {
		t.Error("size-only hits should not refresh cursors")
	}
}

func TestSetCursorLine(t *testing.T) {
	c, engine, doc := newTestCache(3, DefaultConfig())
	a, b := doc.Line(0), doc.Line(1)
	touch(c, a)
	touch(c, b)

	c.SetCursorLine(a)
	if c.Contains(a) {
		t.Error("new cursor line display should be dropped")
	}
	if c.CursorLine() != a {
		t.Fatal("cursor line should be recorded")
	}
	if !c.Contains(b) {
		t.Error("other lines should stay")
	}

	updates := engine.cursorUpdates
	touch(c, a)
	if engine.cursorUpdates != updates+1 {
		t.Error("cursor line should get fresh cursors on creation")
	}
	touch(c, a)
	if engine.cursorUpdates != updates+2 {
		t.Error("cursor line should refresh cursors on every full hit")
	}

	c.SetCursorLine(b)
	if c.Contains(a) || c.Contains(b) {
		t.Error("old and new cursor lines should be dropped")
	}
	if c.CursorLine() != b {
		t.Error("cursor line should be b")
	}

	touch(c, b)
	c.SetCursorLine(b)
	if !c.Contains(b) {
		t.Error("setting the same cursor line should not invalidate")
	}
}

func TestInvalidateCursorLineForgetsIt(t *testing.T) {
	c, _, doc := newTestCache(2, DefaultConfig())
	a := doc.Line(0)
	c.SetCursorLine(a)
	touch(c, a)
	c.InvalidateLine(a)
	if c.CursorLine() != nil {
		t.Error("dropping the cursor line display should clear the cursor line")
	}
}

func TestReferenceOutlivesInvalidation(t *testing.T) {
	c, engine, doc := newTestCache(2, DefaultConfig())
	d := c.Get(doc.Line(0), false)
	c.InvalidateLine(doc.Line(0))

	if d.Released() || d.Refs() != 1 || d.Content == nil {
		t.Fatalf("held display should stay valid: released=%v refs=%d", d.Released(), d.Refs())
	}
	d.Unref()
	if !d.Released() || engine.releases != 1 {
		t.Error("last reference should release the content")
	}
}

func TestUnrefBelowZeroPanics(t *testing.T) {
	d := NewLineDisplay(nil, false)
	d.Unref()
	mustPanicInvariant(t, func() { d.Unref() })
	mustPanicInvariant(t, func() { d.Ref() })
}

func TestInvalidateAll(t *testing.T) {
	c, engine, doc := newTestCache(5, DefaultConfig())
	touchAll(c, doc)
	c.InvalidateAll()
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if engine.releases != 5 {
		t.Errorf("releases = %d, want 5", engine.releases)
	}
	c.InvalidateAll()
}

func TestIdleEviction(t *testing.T) {
	sched := event.NewManualScheduler()
	c, _, doc := newTestCache(5, DefaultConfig(), WithScheduler(sched))
	touchAll(c, doc)

	sched.Advance(DefaultIdleTimeout - time.Second)
	if c.Len() != 5 {
		t.Fatalf("Len = %d before the deadline, want 5", c.Len())
	}
	sched.Advance(time.Second)
	if c.Len() != 0 {
		t.Errorf("Len = %d after the deadline, want 0", c.Len())
	}
	if got := c.Stats().IdleFlushes; got != 1 {
		t.Errorf("IdleFlushes = %d, want 1", got)
	}
}

func TestIdleDeadlineSlidesOnActivity(t *testing.T) {
	sched := event.NewManualScheduler()
	c, _, doc := newTestCache(2, DefaultConfig(), WithScheduler(sched))
	touch(c, doc.Line(0))

	sched.Advance(15 * time.Second)
	touch(c, doc.Line(0))
	sched.Advance(15 * time.Second)
	if c.Len() != 1 {
		t.Fatal("a hit should slide the idle deadline")
	}

	c.DelayEviction()
	sched.Advance(15 * time.Second)
	if c.Len() != 1 {
		t.Fatal("DelayEviction should slide the idle deadline")
	}
	sched.Advance(5 * time.Second)
	if c.Len() != 0 {
		t.Error("cache should flush once idle")
	}

	// The timer re-arms on the next insertion.
	touch(c, doc.Line(1))
	sched.Advance(DefaultIdleTimeout)
	if c.Len() != 0 {
		t.Error("cache should flush again after re-arming")
	}
}

func TestDelayEvictionWhileDisarmed(t *testing.T) {
	sched := event.NewManualScheduler()
	c, _, _ := newTestCache(1, DefaultConfig(), WithScheduler(sched))
	c.DelayEviction()
	if sched.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", sched.Pending())
	}
}

func TestClose(t *testing.T) {
	sched := event.NewManualScheduler()
	c, _, doc := newTestCache(3, DefaultConfig(), WithScheduler(sched))
	held := c.Get(doc.Line(0), false)
	touch(c, doc.Line(1))

	c.Close()
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if sched.Pending() != 0 {
		t.Error("Close should stop the idle timer")
	}
	if held.Released() {
		t.Error("held display should survive Close")
	}
	held.Unref()

	mustPanicInvariant(t, func() { c.Get(doc.Line(0), false) })
	c.Close()
}

func TestStatsReset(t *testing.T) {
	c, _, doc := newTestCache(2, Config{Capacity: 1})
	touch(c, doc.Line(0))
	touch(c, doc.Line(0))
	touch(c, doc.Line(1))
	c.InvalidateRange(document.Position{}, document.Position{Line: 1}, false)

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 2 || s.Evictions != 1 || s.Capacity != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.Invalidations.Range != 1 || s.Invalidations.Removed != 2 {
		t.Errorf("invalidations = %+v", s.Invalidations)
	}
	if got := s.HitRate(); got < 0.33 || got > 0.34 {
		t.Errorf("HitRate = %f, want 1/3", got)
	}

	c.ResetStats()
	if s := c.Stats(); s.Hits != 0 || s.Size != 0 {
		t.Errorf("after reset stats = %+v", s)
	}
}

func TestEngineContractViolation(t *testing.T) {
	c, _, doc := newTestCache(2, DefaultConfig())
	c.engine = wrongLineEngine{c.engine, doc.Line(1)}
	mustPanicInvariant(t, func() { c.Get(doc.Line(0), false) })
}

type wrongLineEngine struct {
	LayoutEngine
	line *document.Line
}

func (e wrongLineEngine) CreateDisplay(_ *document.Line, sizeOnly bool) *LineDisplay {
	return NewLineDisplay(e.line, sizeOnly)
}

func (c *DisplayCache) mruOrder() []*document.Line {
	var out []*document.Line
	c.mru.each(func(d *LineDisplay) bool {
		out = append(out, d.Line)
		return true
	})
	return out
}

func equalLines(got []*document.Line, want ...*document.Line) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func lineNames(doc *document.Document, lines []*document.Line) []int {
	out := make([]int, len(lines))
	for i, l := range lines {
		out[i] = doc.LineNumber(l)
	}
	return out
}

func TestDebugLogs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c, _, doc := newTestCache(3, Config{Capacity: 2, IdleTimeout: time.Hour}, WithLogger(log))

	touch(c, doc.Line(0))
	touch(c, doc.Line(1))
	if strings.Contains(buf.String(), "evicted") {
		t.Fatalf("eviction logged below capacity: %s", buf.String())
	}
	touch(c, doc.Line(2))
	if out := buf.String(); !strings.Contains(out, "msg=evicted count=1 entries=2 evictions=1") {
		t.Errorf("missing eviction log: %s", out)
	}

	buf.Reset()
	c.SetCursorLine(doc.Line(2))
	if out := buf.String(); !strings.Contains(out, `msg="cursor line changed" dropped=1 entries=1`) {
		t.Errorf("missing cursor line log: %s", out)
	}
	buf.Reset()
	c.SetCursorLine(doc.Line(2))
	if buf.Len() != 0 {
		t.Errorf("unchanged cursor line logged: %s", buf.String())
	}
}
