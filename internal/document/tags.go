package document

import (
	"sort"
	"strings"
)

// TagProps are the display properties a tag contributes. Colors are
// "#rrggbb" strings; empty means inherit.
type TagProps struct {
	Foreground    string
	Background    string
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool

	// Margins and spacing in pixels (cells for the terminal engine).
	LeftMargin  int
	RightMargin int
	PixelsAbove int
	PixelsBelow int

	// Invisible hides the tagged text.
	Invisible bool
}

// Tag is a named set of display properties. Tags defined later take
// priority over tags defined earlier when both cover the same text.
type Tag struct {
	Name     string
	Props    TagProps
	priority int
}

// Priority returns the tag's priority. Higher wins.
func (t *Tag) Priority() int {
	return t.priority
}

// TagTable holds the tags a document can apply.
type TagTable struct {
	tags map[string]*Tag
	next int
}

// NewTagTable creates an empty tag table.
func NewTagTable() *TagTable {
	return &TagTable{tags: make(map[string]*Tag)}
}

// Define adds a tag or replaces the properties of an existing one.
// Redefining keeps the tag's priority.
func (t *TagTable) Define(name string, props TagProps) *Tag {
	if tag, ok := t.tags[name]; ok {
		tag.Props = props
		return tag
	}
	tag := &Tag{Name: name, Props: props, priority: t.next}
	t.next++
	t.tags[name] = tag
	return tag
}

// Lookup returns the named tag, or nil.
func (t *TagTable) Lookup(name string) *Tag {
	return t.tags[name]
}

// Names returns the tag names in priority order.
func (t *TagTable) Names() []string {
	tags := make([]*Tag, 0, len(t.tags))
	for _, tag := range t.tags {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].priority < tags[j].priority })
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return names
}

// Len returns the number of defined tags.
func (t *TagTable) Len() int {
	return len(t.tags)
}

// TagSpan is a tag applied to the byte range [Start, End) of one line.
type TagSpan struct {
	Tag   *Tag
	Start int
	End   int
}

// TagRange is a tag applied to a document range, used for batch retagging.
type TagRange struct {
	Name  string
	Begin Position
	End   Position
}

// HasPrefix reports whether the span's tag name starts with prefix.
func (s TagSpan) HasPrefix(prefix string) bool {
	return strings.HasPrefix(s.Tag.Name, prefix)
}

// addSpan merges [start, end) for tag into spans, joining overlapping or
// adjacent spans of the same tag.
func addSpan(spans []TagSpan, tag *Tag, start, end int) []TagSpan {
	if start >= end {
		return spans
	}
	out := spans[:0:0]
	for _, s := range spans {
		if s.Tag == tag && s.Start <= end && s.End >= start {
			start = min(start, s.Start)
			end = max(end, s.End)
			continue
		}
		out = append(out, s)
	}
	out = append(out, TagSpan{Tag: tag, Start: start, End: end})
	sortSpans(out)
	return out
}

// cutSpans removes [start, end) from spans whose tag matches, splitting spans
// that straddle the range.
func cutSpans(spans []TagSpan, match func(*Tag) bool, start, end int) ([]TagSpan, bool) {
	if start >= end {
		return spans, false
	}
	changed := false
	out := spans[:0:0]
	for _, s := range spans {
		if !match(s.Tag) || s.End <= start || s.Start >= end {
			out = append(out, s)
			continue
		}
		changed = true
		if s.Start < start {
			out = append(out, TagSpan{Tag: s.Tag, Start: s.Start, End: start})
		}
		if s.End > end {
			out = append(out, TagSpan{Tag: s.Tag, Start: end, End: s.End})
		}
	}
	sortSpans(out)
	return out, changed
}

func sortSpans(spans []TagSpan) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].Tag.priority < spans[j].Tag.priority
	})
}

func matchAll(*Tag) bool { return true }

func matchTag(tag *Tag) func(*Tag) bool {
	return func(t *Tag) bool { return t == tag }
}

func matchPrefix(prefix string) func(*Tag) bool {
	return func(t *Tag) bool { return strings.HasPrefix(t.Name, prefix) }
}
