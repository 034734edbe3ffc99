package document

import "fmt"

// Position is a location in the document. Col is a byte offset within the
// line's text.
type Position struct {
	Line int
	Col  int
}

// String returns a human-readable representation.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Compare returns -1, 0 or 1 depending on whether p is before, equal to or
// after other.
func (p Position) Compare(other Position) int {
	if p.Line < other.Line {
		return -1
	}
	if p.Line > other.Line {
		return 1
	}
	if p.Col < other.Col {
		return -1
	}
	if p.Col > other.Col {
		return 1
	}
	return 0
}

// Before returns true if p comes before other.
func (p Position) Before(other Position) bool {
	return p.Compare(other) < 0
}

// After returns true if p comes after other.
func (p Position) After(other Position) bool {
	return p.Compare(other) > 0
}

// Order returns a and b sorted so that the first is not after the second.
func Order(a, b Position) (Position, Position) {
	if a.After(b) {
		return b, a
	}
	return a, b
}
