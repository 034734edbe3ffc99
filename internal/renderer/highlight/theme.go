package highlight

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/dshills/textview/internal/document"
	"github.com/dshills/textview/internal/renderer/core"
)

// DefaultThemeName is the chroma style used when none is configured.
const DefaultThemeName = "monokai"

// Theme defines colors and styles for syntax highlighting, backed by a
// chroma style.
type Theme struct {
	// Name is the chroma style name.
	Name string

	// Background is the editor background color.
	Background core.Color

	// Foreground is the default text color.
	Foreground core.Color

	// LineHighlight tints the line holding the cursor.
	LineHighlight core.Color

	// Selection is the selection background.
	Selection core.Color

	style *chroma.Style
}

// NewTheme loads the named chroma style. Unknown names fall back to chroma's
// default style.
func NewTheme(name string) *Theme {
	if name == "" {
		name = DefaultThemeName
	}
	style := styles.Get(name)
	t := &Theme{Name: style.Name, style: style}

	bg := style.Get(chroma.Background)
	t.Background = colorOf(bg.Background)
	t.Foreground = colorOf(style.Get(chroma.Text).Colour)
	if t.Foreground.IsDefault() {
		t.Foreground = colorOf(bg.Colour)
	}

	t.LineHighlight = colorOf(style.Get(chroma.LineHighlight).Background)
	if t.LineHighlight.IsDefault() && !t.Background.IsDefault() {
		t.LineHighlight = t.Background.Blend(t.Foreground, 0.08)
	}
	if !t.Background.IsDefault() {
		t.Selection = t.Background.Blend(t.Foreground, 0.25)
	} else {
		t.Selection = core.ColorFromIndex(8)
	}
	return t
}

// TagProps returns the tag properties for a token type. It returns false
// when the token would render as plain text.
func (t *Theme) TagProps(tt chroma.TokenType) (document.TagProps, bool) {
	entry := t.style.Get(tt)
	base := t.style.Get(chroma.Text)

	props := document.TagProps{
		Bold:      entry.Bold == chroma.Yes,
		Italic:    entry.Italic == chroma.Yes,
		Underline: entry.Underline == chroma.Yes,
	}
	if entry.Colour.IsSet() && entry.Colour != base.Colour {
		props.Foreground = entry.Colour.String()
	}
	if entry.Background.IsSet() && entry.Background != t.style.Get(chroma.Background).Background {
		props.Background = entry.Background.String()
	}
	plain := props == document.TagProps{}
	return props, !plain
}

func colorOf(c chroma.Colour) core.Color {
	if !c.IsSet() {
		return core.ColorDefault
	}
	return core.ColorFromRGB(c.Red(), c.Green(), c.Blue())
}
