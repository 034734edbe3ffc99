// Package highlight turns chroma tokens into document tags.
//
// Every token type that renders differently from plain text becomes a tag
// named "syntax:<TokenType>" in the document's tag table. Retagging goes
// through Document.ReplaceTags, so listeners see a single tag change for the
// lines that were refreshed, or none when their tags came out the same.
package highlight

import (
	"log/slog"
	"strings"

	"github.com/alecthomas/chroma/v2"

	"github.com/dshills/textview/internal/document"
	"github.com/dshills/textview/internal/logging"
)

// TagPrefix starts the name of every tag the highlighter owns.
const TagPrefix = "syntax:"

// Options configures a Highlighter.
type Options struct {
	// Language is a chroma lexer name. Empty means detect from Filename and
	// the document text.
	Language string
	Filename string

	// Theme is a chroma style name.
	Theme string
}

// Highlighter keeps the syntax tags of one document up to date.
type Highlighter struct {
	doc      *document.Document
	lexer    chroma.Lexer
	language string
	theme    *Theme
	log      *slog.Logger

	// Lines touched by edits since the last flush, inclusive.
	dirtyLo, dirtyHi int
	dirty            bool
	scheduled        bool

	// Set when tokenizing changed the props of an existing syntax tag.
	redefined bool
}

// New creates a highlighter for doc. It does not tag anything until
// HighlightAll or Refresh is called.
func New(doc *document.Document, opts Options) *Highlighter {
	lang := opts.Language
	if lang == "" {
		lang = DetectLanguage(opts.Filename, []byte(doc.Text()))
	}
	h := &Highlighter{
		doc:   doc,
		lexer: lexerFor(lang),
		theme: NewTheme(opts.Theme),
		log:   logging.For("highlight"),
	}
	h.language = h.lexer.Config().Name
	if lang != "" && h.lexer.Config().Name == "plaintext" {
		h.log.Warn("no lexer for language", "language", lang)
	}
	return h
}

// Language returns the name of the lexer in use.
func (h *Highlighter) Language() string {
	return h.language
}

// Theme returns the active theme.
func (h *Highlighter) Theme() *Theme {
	return h.theme
}

// HighlightAll retags the whole document.
func (h *Highlighter) HighlightAll() error {
	return h.Refresh(0, h.doc.LineCount()-1)
}

// Refresh retags lines first through last. Tagging continues past last
// while the following lines' tags change, so an edit that opens or closes a
// multi-line construct retags everything it affects.
func (h *Highlighter) Refresh(first, last int) error {
	n := h.doc.LineCount()
	first = min(max(first, 0), n-1)
	last = min(max(last, first), n-1)

	h.redefined = false
	perLine, err := h.tokenize()
	if err != nil {
		return err
	}
	for last+1 < n && !h.matches(last+1, perLine[last+1]) {
		last++
	}

	var ranges []document.TagRange
	for i := first; i <= last; i++ {
		ranges = append(ranges, perLine[i]...)
	}
	begin := document.Position{Line: first}
	end := document.Position{Line: last, Col: h.doc.Line(last).Len()}
	h.log.Debug("refresh", "first", first, "last", last, "ranges", len(ranges))
	if err := h.doc.ReplaceTags(TagPrefix, begin, end, ranges); err != nil {
		return err
	}
	if h.redefined {
		// Restyled tags may sit on lines outside the refreshed range.
		h.log.Debug("syntax tags restyled")
		return h.doc.TagsChanged(document.Position{}, h.doc.End())
	}
	return nil
}

// tokenize lexes the whole document and returns the tag ranges of each line.
func (h *Highlighter) tokenize() ([][]document.TagRange, error) {
	perLine := make([][]document.TagRange, h.doc.LineCount())
	it, err := h.lexer.Tokenise(nil, h.doc.Text())
	if err != nil {
		return nil, err
	}

	pos := document.Position{}
	for tok := it(); tok != chroma.EOF; tok = it() {
		name, styled := h.tagFor(tok.Type)
		pieces := strings.Split(tok.Value, "\n")
		for i, piece := range pieces {
			if i > 0 {
				pos = document.Position{Line: pos.Line + 1}
			}
			if pos.Line >= len(perLine) {
				break
			}
			if styled && piece != "" {
				perLine[pos.Line] = appendRange(perLine[pos.Line], name, pos, len(piece))
			}
			pos.Col += len(piece)
		}
	}
	return perLine, nil
}

func appendRange(ranges []document.TagRange, name string, at document.Position, n int) []document.TagRange {
	end := document.Position{Line: at.Line, Col: at.Col + n}
	if k := len(ranges) - 1; k >= 0 && ranges[k].Name == name && ranges[k].End == at {
		ranges[k].End = end
		return ranges
	}
	return append(ranges, document.TagRange{Name: name, Begin: at, End: end})
}

// tagFor returns the tag for a token type, defining it on first use and
// restyling it when the theme disagrees with its props.
func (h *Highlighter) tagFor(tt chroma.TokenType) (string, bool) {
	props, ok := h.theme.TagProps(tt)
	if !ok {
		return "", false
	}
	name := TagPrefix + tt.String()
	tags := h.doc.Tags()
	switch t := tags.Lookup(name); {
	case t == nil:
		tags.Define(name, props)
	case t.Props != props:
		tags.Define(name, props)
		h.redefined = true
	}
	return name, true
}

// matches reports whether line n already carries exactly the given syntax
// ranges.
func (h *Highlighter) matches(n int, want []document.TagRange) bool {
	var have []document.TagSpan
	for _, s := range h.doc.Line(n).Spans() {
		if s.HasPrefix(TagPrefix) {
			have = append(have, s)
		}
	}
	if len(have) != len(want) {
		return false
	}
	for i, s := range have {
		w := want[i]
		if s.Tag.Name != w.Name || s.Start != w.Begin.Col || s.End != w.End.Col {
			return false
		}
	}
	return true
}

// Watch keeps the tags current as the document changes. Edits are
// collected and one Refresh is posted through post for each batch. The
// returned function stops watching.
func (h *Highlighter) Watch(post func(func()) error) func() {
	return h.doc.Subscribe(document.ListenerFuncs{
		Insert: func(pos document.Position, text string) {
			added := strings.Count(text, "\n")
			h.shift(pos.Line, added)
			h.touch(pos.Line, pos.Line+added, post)
		},
		Delete: func(begin, end document.Position) {
			h.collapse(begin.Line, end.Line)
			h.touch(begin.Line, begin.Line, post)
		},
	})
}

func (h *Highlighter) touch(lo, hi int, post func(func()) error) {
	if h.dirty {
		h.dirtyLo = min(h.dirtyLo, lo)
		h.dirtyHi = max(h.dirtyHi, hi)
	} else {
		h.dirtyLo, h.dirtyHi, h.dirty = lo, hi, true
	}
	if h.scheduled {
		return
	}
	if err := post(h.flush); err != nil {
		h.log.Warn("schedule refresh", "err", err)
		return
	}
	h.scheduled = true
}

func (h *Highlighter) flush() {
	h.scheduled = false
	if !h.dirty {
		return
	}
	h.dirty = false
	if err := h.Refresh(h.dirtyLo, h.dirtyHi); err != nil {
		h.log.Warn("refresh", "err", err)
	}
}

// shift moves the pending range for lines inserted after line at.
func (h *Highlighter) shift(at, added int) {
	if !h.dirty || added == 0 {
		return
	}
	if h.dirtyLo > at {
		h.dirtyLo += added
	}
	if h.dirtyHi > at {
		h.dirtyHi += added
	}
}

// collapse moves the pending range for lines begin+1 through end being
// removed.
func (h *Highlighter) collapse(begin, end int) {
	if !h.dirty || end == begin {
		return
	}
	fix := func(n int) int {
		switch {
		case n > end:
			return n - (end - begin)
		case n > begin:
			return begin
		}
		return n
	}
	h.dirtyLo, h.dirtyHi = fix(h.dirtyLo), fix(h.dirtyHi)
}
