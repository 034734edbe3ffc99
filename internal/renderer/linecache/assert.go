package linecache

import "fmt"

// InvariantError reports a broken cache invariant. It signals a defect in the
// cache or its caller and is raised with panic; it is not meant to be
// recovered.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("linecache: %s: %s", e.Op, e.Msg)
}

// verifyIndices enables a full consistency check after every mutating
// operation. Tests turn it on.
var verifyIndices = false

func invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Msg: fmt.Sprintf(format, args...)})
}

// checkIndices asserts that the map, the sequence and the MRU list hold
// exactly the same displays and that every handle points at its slot.
func (c *DisplayCache) checkIndices(op string) {
	if !verifyIndices {
		return
	}
	n := len(c.byLine)
	if c.seq.len() != n || c.mru.len() != n {
		invariant(op, "index sizes differ: map %d, sequence %d, mru %d", n, c.seq.len(), c.mru.len())
	}
	for i, d := range c.seq.items {
		if d.seq != i {
			invariant(op, "sequence handle %d at index %d", d.seq, i)
		}
		if c.byLine[d.Line] != d {
			invariant(op, "sequence entry %d missing from map", i)
		}
		if c.mru.at(d.mru) != d {
			invariant(op, "sequence entry %d has stale mru slot %d", i, d.mru)
		}
		if d.refs < 1 || d.released {
			invariant(op, "resident display with %d refs", d.refs)
		}
	}
	walked := 0
	c.mru.each(func(d *LineDisplay) bool {
		walked++
		if !d.resident() {
			invariant(op, "mru entry not in sequence")
		}
		return true
	})
	if walked != n {
		invariant(op, "mru walk found %d entries, want %d", walked, n)
	}
}
