package linecache

import (
	"testing"

	"github.com/dshills/textview/internal/document"
)

func displaysFor(doc *document.Document, lines ...int) []*LineDisplay {
	out := make([]*LineDisplay, len(lines))
	for i, n := range lines {
		out[i] = NewLineDisplay(doc.Line(n), false)
	}
	return out
}

func TestMRUListReusesSlots(t *testing.T) {
	doc := newTestDoc(4)
	ds := displaysFor(doc, 0, 1, 2)
	l := newMRUList(2)

	a := l.pushFront(ds[0])
	b := l.pushFront(ds[1])
	if l.front() != ds[1] || l.back() != ds[0] {
		t.Fatal("pushFront should put the newest at the head")
	}

	l.moveToFront(a)
	if l.front() != ds[0] || l.back() != ds[1] {
		t.Fatal("moveToFront should promote")
	}

	l.remove(b)
	c := l.pushFront(ds[2])
	if c != b {
		t.Errorf("slot = %d, want reused slot %d", c, b)
	}
	if l.len() != 2 || len(l.nodes) != 2 {
		t.Errorf("len = %d, slab = %d, want 2 and 2", l.len(), len(l.nodes))
	}

	l.remove(a)
	l.remove(c)
	if l.front() != nil || l.back() != nil || l.len() != 0 {
		t.Error("list should be empty")
	}
}

func TestSequenceInsertOrdersByCompare(t *testing.T) {
	doc := newTestDoc(6)
	engine := &fakeEngine{doc: doc}
	var s sequence
	for _, d := range displaysFor(doc, 4, 1, 5, 0, 3) {
		s.insert(d, engine.Compare)
	}
	want := []int{0, 1, 3, 4, 5}
	for i, d := range s.items {
		if got := doc.LineNumber(d.Line); got != want[i] {
			t.Errorf("items[%d] = line %d, want %d", i, got, want[i])
		}
		if d.seq != i {
			t.Errorf("items[%d].seq = %d", i, d.seq)
		}
	}
}

func TestSequenceRemoveAll(t *testing.T) {
	doc := newTestDoc(6)
	engine := &fakeEngine{doc: doc}
	var s sequence
	ds := displaysFor(doc, 0, 1, 2, 3, 4, 5)
	for _, d := range ds {
		s.insert(d, engine.Compare)
	}

	s.removeAll([]*LineDisplay{ds[4], ds[1], ds[2]})
	if s.len() != 3 {
		t.Fatalf("len = %d, want 3", s.len())
	}
	for i, want := range []*LineDisplay{ds[0], ds[3], ds[5]} {
		if s.items[i] != want || want.seq != i {
			t.Errorf("items[%d] wrong after removeAll", i)
		}
	}
	if ds[1].seq != -1 {
		t.Error("removed display should lose its handle")
	}
}

func TestSequenceFindByLine(t *testing.T) {
	doc := newTestDoc(10)
	engine := &fakeEngine{doc: doc}
	var s sequence
	for _, d := range displaysFor(doc, 1, 3, 5, 7, 9) {
		s.insert(d, engine.Compare)
	}

	tests := []struct {
		line  int
		index int
		found bool
	}{
		{1, 0, true},
		{5, 2, true},
		{9, 4, true},
		{4, -1, false},
		{0, -1, false},
	}
	for _, tt := range tests {
		i, ok := s.findByLine(tt.line, doc.LineNumber)
		if i != tt.index || ok != tt.found {
			t.Errorf("findByLine(%d) = %d, %v, want %d, %v", tt.line, i, ok, tt.index, tt.found)
		}
	}

	var empty sequence
	if _, ok := empty.findByLine(0, doc.LineNumber); ok {
		t.Error("empty sequence should find nothing")
	}
}

func TestSequenceFindByY(t *testing.T) {
	doc := newTestDoc(10)
	engine := &fakeEngine{doc: doc}
	var s sequence
	for _, d := range displaysFor(doc, 0, 2, 4, 6) {
		d.Height = 10
		s.insert(d, engine.Compare)
	}
	top := func(d *LineDisplay) int { return doc.LineNumber(d.Line) * 10 }

	tests := []struct {
		y     int
		index int
		found bool
	}{
		{0, 0, true},
		{45, 2, true},
		{15, 1, false},
		{500, 3, false},
		{-5, 0, false},
	}
	for _, tt := range tests {
		i, ok := s.findByY(tt.y, top)
		if i != tt.index || ok != tt.found {
			t.Errorf("findByY(%d) = %d, %v, want %d, %v", tt.y, i, ok, tt.index, tt.found)
		}
	}
}
