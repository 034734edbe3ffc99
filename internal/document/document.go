package document

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Well-known mark names.
const (
	MarkInsert         = "insert"
	MarkSelectionBound = "selection_bound"
)

// Line is one line of document text without its terminating newline.
// A *Line keeps its identity until the line is deleted.
type Line struct {
	text  string
	spans []TagSpan
	doc   *Document
}

// Text returns the line's text.
func (l *Line) Text() string {
	return l.text
}

// Len returns the length of the line in bytes.
func (l *Line) Len() int {
	return len(l.text)
}

// Spans returns the tag spans on the line, ordered by start then priority.
// The returned slice must not be modified.
func (l *Line) Spans() []TagSpan {
	return l.spans
}

// Attached returns false once the line was removed from its document.
func (l *Line) Attached() bool {
	return l.doc != nil
}

type listenerEntry struct {
	id       uint64
	listener Listener
}

// Document is an editable sequence of lines with tags and marks.
type Document struct {
	lines []*Line

	index      map[*Line]int
	indexValid bool

	tags  *TagTable
	marks map[string]Position

	listeners []listenerEntry
	nextID    uint64
}

// Option configures a Document.
type Option func(*Document)

// WithTagTable shares an existing tag table with the document.
func WithTagTable(t *TagTable) Option {
	return func(d *Document) {
		if t != nil {
			d.tags = t
		}
	}
}

// New creates a document holding text. "\r\n" is normalized to "\n".
func New(text string, opts ...Option) *Document {
	d := &Document{
		index: make(map[*Line]int),
		tags:  NewTagTable(),
		marks: map[string]Position{
			MarkInsert:         {},
			MarkSelectionBound: {},
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, part := range splitLines(text) {
		d.lines = append(d.lines, &Line{text: part, doc: d})
	}
	return d
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// Tags returns the document's tag table.
func (d *Document) Tags() *TagTable {
	return d.tags
}

// LineCount returns the number of lines. A document always has at least one.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Line returns line n, or nil if n is out of range.
func (d *Document) Line(n int) *Line {
	if n < 0 || n >= len(d.lines) {
		return nil
	}
	return d.lines[n]
}

// LineNumber returns the current index of l, or -1 if l is not in the
// document.
func (d *Document) LineNumber(l *Line) int {
	if l == nil || l.doc != d {
		return -1
	}
	if !d.indexValid {
		clear(d.index)
		for i, line := range d.lines {
			d.index[line] = i
		}
		d.indexValid = true
	}
	n, ok := d.index[l]
	if !ok {
		return -1
	}
	return n
}

// Text returns the whole document text.
func (d *Document) Text() string {
	var b strings.Builder
	for i, l := range d.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.text)
	}
	return b.String()
}

// End returns the position after the last character.
func (d *Document) End() Position {
	last := len(d.lines) - 1
	return Position{Line: last, Col: d.lines[last].Len()}
}

// Valid reports whether pos addresses a character boundary in the document.
func (d *Document) Valid(pos Position) bool {
	if pos.Line < 0 || pos.Line >= len(d.lines) {
		return false
	}
	text := d.lines[pos.Line].text
	if pos.Col < 0 || pos.Col > len(text) {
		return false
	}
	return pos.Col == len(text) || utf8.RuneStart(text[pos.Col])
}

// Clamp returns the nearest valid position to pos.
func (d *Document) Clamp(pos Position) Position {
	if pos.Line < 0 {
		return Position{}
	}
	if pos.Line >= len(d.lines) {
		return d.End()
	}
	text := d.lines[pos.Line].text
	col := max(0, min(pos.Col, len(text)))
	for col > 0 && col < len(text) && !utf8.RuneStart(text[col]) {
		col--
	}
	return Position{Line: pos.Line, Col: col}
}

// Subscribe registers l for change notifications and returns a function that
// removes it.
func (d *Document) Subscribe(l Listener) func() {
	d.nextID++
	id := d.nextID
	d.listeners = append(d.listeners, listenerEntry{id: id, listener: l})
	return func() {
		for i, e := range d.listeners {
			if e.id == id {
				d.listeners = append(d.listeners[:i:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

func (d *Document) each(f func(Listener)) {
	// Listeners may unsubscribe while being notified.
	entries := append([]listenerEntry(nil), d.listeners...)
	for _, e := range entries {
		f(e.listener)
	}
}

// Insert inserts text at pos and returns the position after the inserted
// text.
func (d *Document) Insert(pos Position, text string) (Position, error) {
	if !d.Valid(pos) {
		return pos, ErrInvalidPosition
	}
	if text == "" {
		return pos, nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")

	line := d.lines[pos.Line]
	before, after := line.text[:pos.Col], line.text[pos.Col:]

	var end Position
	if len(parts) == 1 {
		n := len(text)
		line.text = before + text + after
		for i := range line.spans {
			s := &line.spans[i]
			if s.Start >= pos.Col {
				s.Start += n
				s.End += n
			} else if s.End > pos.Col {
				s.End += n
			}
		}
		end = Position{Line: pos.Line, Col: pos.Col + n}
	} else {
		last := parts[len(parts)-1]
		head, tail := splitSpans(line.spans, pos.Col)
		shift := len(last)
		for i := range tail {
			tail[i].Start += shift
			tail[i].End += shift
		}

		line.text = before + parts[0]
		line.spans = head

		added := make([]*Line, 0, len(parts)-1)
		for _, p := range parts[1 : len(parts)-1] {
			added = append(added, &Line{text: p, doc: d})
		}
		added = append(added, &Line{text: last + after, spans: tail, doc: d})

		at := pos.Line + 1
		d.lines = append(d.lines[:at], append(added, d.lines[at:]...)...)
		d.indexValid = false
		end = Position{Line: pos.Line + len(parts) - 1, Col: len(last)}
	}

	nl := end.Line - pos.Line
	for name, m := range d.marks {
		switch {
		case m.Line == pos.Line && m.Col >= pos.Col:
			d.marks[name] = Position{Line: end.Line, Col: end.Col + m.Col - pos.Col}
		case m.Line > pos.Line:
			d.marks[name] = Position{Line: m.Line + nl, Col: m.Col}
		}
	}

	d.each(func(l Listener) { l.OnInsert(pos, text) })
	return end, nil
}

// splitSpans divides spans at col into the part before and the part after,
// rebasing the latter to start at zero.
func splitSpans(spans []TagSpan, col int) (head, tail []TagSpan) {
	for _, s := range spans {
		if s.Start < col {
			head = append(head, TagSpan{Tag: s.Tag, Start: s.Start, End: min(s.End, col)})
		}
		if s.End > col {
			tail = append(tail, TagSpan{Tag: s.Tag, Start: max(s.Start, col) - col, End: s.End - col})
		}
	}
	return head, tail
}

// Delete removes the text between begin and end. The positions may be given
// in either order. Listeners are notified before the text is removed.
func (d *Document) Delete(begin, end Position) error {
	if !d.Valid(begin) || !d.Valid(end) {
		return ErrInvalidPosition
	}
	begin, end = Order(begin, end)
	if begin == end {
		return nil
	}

	d.each(func(l Listener) { l.OnDelete(begin, end) })

	first := d.lines[begin.Line]
	last := d.lines[end.Line]

	head, _ := splitSpans(first.spans, begin.Col)
	_, tail := splitSpans(last.spans, end.Col)
	for i := range tail {
		tail[i].Start += begin.Col
		tail[i].End += begin.Col
	}
	spans := head
	for _, s := range tail {
		spans = addSpan(spans, s.Tag, s.Start, s.End)
	}

	first.text = first.text[:begin.Col] + last.text[end.Col:]
	first.spans = spans

	removed := end.Line - begin.Line
	if removed > 0 {
		for _, l := range d.lines[begin.Line+1 : end.Line+1] {
			l.doc = nil
			l.spans = nil
		}
		d.lines = append(d.lines[:begin.Line+1], d.lines[end.Line+1:]...)
		d.indexValid = false
	}

	for name, m := range d.marks {
		switch {
		case m.Before(begin):
		case !m.After(end):
			d.marks[name] = begin
		case m.Line == end.Line:
			d.marks[name] = Position{Line: begin.Line, Col: begin.Col + m.Col - end.Col}
		default:
			d.marks[name] = Position{Line: m.Line - removed, Col: m.Col}
		}
	}
	return nil
}

// ApplyTag applies the named tag to the range between begin and end.
func (d *Document) ApplyTag(name string, begin, end Position) error {
	tag := d.tags.Lookup(name)
	if tag == nil {
		return ErrUnknownTag
	}
	if !d.Valid(begin) || !d.Valid(end) {
		return ErrInvalidPosition
	}
	begin, end = Order(begin, end)
	if begin == end {
		return nil
	}
	d.applyTag(tag, begin, end)
	d.each(func(l Listener) { l.OnTagChanged(begin, end) })
	return nil
}

func (d *Document) applyTag(tag *Tag, begin, end Position) {
	for n := begin.Line; n <= end.Line; n++ {
		line := d.lines[n]
		start, stop := lineSegment(line, n, begin, end)
		line.spans = addSpan(line.spans, tag, start, stop)
	}
}

// RemoveTag removes the named tag from the range between begin and end.
func (d *Document) RemoveTag(name string, begin, end Position) error {
	tag := d.tags.Lookup(name)
	if tag == nil {
		return ErrUnknownTag
	}
	return d.removeTags(matchTag(tag), begin, end)
}

// RemoveAllTags removes every tag from the range between begin and end.
func (d *Document) RemoveAllTags(begin, end Position) error {
	return d.removeTags(matchAll, begin, end)
}

// RemoveTagsWithPrefix removes tags whose names start with prefix from the
// range between begin and end.
func (d *Document) RemoveTagsWithPrefix(prefix string, begin, end Position) error {
	return d.removeTags(matchPrefix(prefix), begin, end)
}

func (d *Document) removeTags(match func(*Tag) bool, begin, end Position) error {
	if !d.Valid(begin) || !d.Valid(end) {
		return ErrInvalidPosition
	}
	begin, end = Order(begin, end)
	if d.cutTags(match, begin, end) {
		d.each(func(l Listener) { l.OnTagChanged(begin, end) })
	}
	return nil
}

func (d *Document) cutTags(match func(*Tag) bool, begin, end Position) bool {
	changed := false
	for n := begin.Line; n <= end.Line; n++ {
		line := d.lines[n]
		start, stop := lineSegment(line, n, begin, end)
		var c bool
		line.spans, c = cutSpans(line.spans, match, start, stop)
		changed = changed || c
	}
	return changed
}

// ReplaceTags removes tags named with prefix between begin and end and then
// applies ranges, notifying listeners once for the whole range. Ranges that
// fall outside begin and end are clipped. Listeners hear nothing when the
// resulting spans equal the old ones.
func (d *Document) ReplaceTags(prefix string, begin, end Position, ranges []TagRange) error {
	if !d.Valid(begin) || !d.Valid(end) {
		return ErrInvalidPosition
	}
	begin, end = Order(begin, end)
	resolved := make([]*Tag, len(ranges))
	for i, r := range ranges {
		if resolved[i] = d.tags.Lookup(r.Name); resolved[i] == nil {
			return ErrUnknownTag
		}
		if !d.Valid(r.Begin) || !d.Valid(r.End) {
			return ErrInvalidPosition
		}
	}

	before := make([][]TagSpan, end.Line-begin.Line+1)
	for n := begin.Line; n <= end.Line; n++ {
		before[n-begin.Line] = slices.Clone(d.lines[n].spans)
	}

	d.cutTags(matchPrefix(prefix), begin, end)
	for i, r := range ranges {
		b, e := Order(r.Begin, r.End)
		if b.Before(begin) {
			b = begin
		}
		if e.After(end) {
			e = end
		}
		if !b.Before(e) {
			continue
		}
		d.applyTag(resolved[i], b, e)
	}

	for n := begin.Line; n <= end.Line; n++ {
		if !slices.Equal(before[n-begin.Line], d.lines[n].spans) {
			d.each(func(l Listener) { l.OnTagChanged(begin, end) })
			return nil
		}
	}
	return nil
}

// TagsChanged tells listeners that the tags between begin and end look
// different, for changes that leave the spans alone such as a tag whose
// properties were redefined.
func (d *Document) TagsChanged(begin, end Position) error {
	if !d.Valid(begin) || !d.Valid(end) {
		return ErrInvalidPosition
	}
	begin, end = Order(begin, end)
	d.each(func(l Listener) { l.OnTagChanged(begin, end) })
	return nil
}

// lineSegment returns the byte range of line n covered by [begin, end).
func lineSegment(line *Line, n int, begin, end Position) (int, int) {
	start, stop := 0, line.Len()
	if n == begin.Line {
		start = begin.Col
	}
	if n == end.Line {
		stop = end.Col
	}
	return start, stop
}

// SetMark moves the named mark to pos, creating it if needed.
func (d *Document) SetMark(name string, pos Position) error {
	if !d.Valid(pos) {
		return ErrInvalidPosition
	}
	old := d.marks[name]
	d.marks[name] = pos
	d.each(func(l Listener) { l.OnMarkSet(name, old, pos) })
	return nil
}

// Mark returns the position of the named mark.
func (d *Document) Mark(name string) (Position, error) {
	pos, ok := d.marks[name]
	if !ok {
		return Position{}, ErrUnknownMark
	}
	return pos, nil
}

// Cursor returns the position of the insert mark.
func (d *Document) Cursor() Position {
	return d.marks[MarkInsert]
}

// CursorLine returns the line holding the insert mark.
func (d *Document) CursorLine() *Line {
	return d.lines[d.marks[MarkInsert].Line]
}

// Selection returns the ordered selection bounds and whether the selection
// is non-empty.
func (d *Document) Selection() (Position, Position, bool) {
	b, e := Order(d.marks[MarkInsert], d.marks[MarkSelectionBound])
	return b, e, b != e
}

// LineText returns the text of line n, or "" if n is out of range.
func (d *Document) LineText(n int) string {
	if l := d.Line(n); l != nil {
		return l.text
	}
	return ""
}
