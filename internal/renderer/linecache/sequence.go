package linecache

import (
	"sort"

	"github.com/dshills/textview/internal/document"
)

// sequence holds resident displays in document order as of their insertion.
// Edits can leave it locally out of order; it is never re-sorted. Every
// display's seq handle is its index in items.
type sequence struct {
	items []*LineDisplay
}

func (s *sequence) len() int {
	return len(s.items)
}

// insert places d at the position given by cmp and returns its index.
func (s *sequence) insert(d *LineDisplay, cmp func(a, b *LineDisplay) int) int {
	i := sort.Search(len(s.items), func(i int) bool {
		return cmp(s.items[i], d) > 0
	})
	s.items = append(s.items, nil)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = d
	s.renumber(i)
	return i
}

// remove drops d from the sequence.
func (s *sequence) remove(d *LineDisplay) {
	i := d.seq
	copy(s.items[i:], s.items[i+1:])
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	d.seq = -1
	s.renumber(i)
}

// removeAll drops every display in ds with one compaction pass.
func (s *sequence) removeAll(ds []*LineDisplay) {
	if len(ds) == 0 {
		return
	}
	first := len(s.items)
	for _, d := range ds {
		first = min(first, d.seq)
		d.seq = -1
	}
	kept := s.items[:first]
	for _, d := range s.items[first:] {
		if d.seq >= 0 {
			kept = append(kept, d)
		}
	}
	clear(s.items[len(kept):])
	s.items = kept
	s.renumber(first)
}

func (s *sequence) renumber(from int) {
	for i := from; i < len(s.items); i++ {
		s.items[i].seq = i
	}
}

// findByLine binary searches for the display of line number target. It
// reports false when the search narrows to nothing without an exact match,
// which can also happen when the sequence is locally out of order.
func (s *sequence) findByLine(target int, lineNumber func(*document.Line) int) (int, bool) {
	left, right := 0, len(s.items)-1
	for left <= right {
		mid := left + (right-left)/2
		n := lineNumber(s.items[mid].Line)
		switch {
		case n == target:
			return mid, true
		case n < target:
			left = mid + 1
		default:
			right = mid - 1
		}
	}
	return -1, false
}

// findByY binary searches for the display whose [top, top+Height) contains
// y. When none does it returns the index where the search stopped, clamped to
// the last element, so the caller can start a forward walk there. It returns
// -1 only for an empty sequence.
func (s *sequence) findByY(y int, top func(*LineDisplay) int) (int, bool) {
	if len(s.items) == 0 {
		return -1, false
	}
	left, right := 0, len(s.items)-1
	for left <= right {
		mid := left + (right-left)/2
		d := s.items[mid]
		t := top(d)
		switch {
		case y >= t && y < t+d.Height:
			return mid, true
		case y < t:
			right = mid - 1
		default:
			left = mid + 1
		}
	}
	return min(left, len(s.items)-1), false
}
