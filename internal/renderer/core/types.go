// Package core holds the value types shared by the layout engines, the view
// and the backends: colors, styles, cells and rectangles.
package core

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Attribute is a set of text decorations.
type Attribute uint16

const (
	AttrNone Attribute = 0
	AttrBold Attribute = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	// AttrReverse swaps foreground and background.
	AttrReverse
	AttrStrikethrough
	// AttrHidden paints the cell as blank. Invisible tags set it.
	AttrHidden
)

// Has reports whether attr is in the set.
func (a Attribute) Has(attr Attribute) bool {
	return a&attr != 0
}

// With adds attr.
func (a Attribute) With(attr Attribute) Attribute {
	return a | attr
}

// Without removes attr.
func (a Attribute) Without(attr Attribute) Attribute {
	return a &^ attr
}

// Color is an RGB color, a palette entry or the terminal default.
type Color struct {
	R, G, B uint8
	// Indexed colors keep the palette index in R.
	Indexed bool
	Default bool
}

// ColorDefault leaves the choice to the terminal.
var ColorDefault = Color{Default: true}

var (
	ColorBlack = Color{}
	ColorWhite = Color{R: 255, G: 255, B: 255}
)

// ColorFromRGB returns a true color.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// ColorFromIndex returns palette entry index.
func ColorFromIndex(index uint8) Color {
	return Color{R: index, Indexed: true}
}

// ColorFromHex parses "#rgb" or "#rrggbb". The empty string yields
// ColorDefault.
func ColorFromHex(hex string) (Color, error) {
	if hex == "" {
		return ColorDefault, nil
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return fromColorful(c), nil
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// IsDefault reports whether c is ColorDefault.
func (c Color) IsDefault() bool {
	return c.Default
}

// Equals compares colors by kind, then by the fields that kind uses.
func (c Color) Equals(other Color) bool {
	if c.Default || other.Default {
		return c.Default == other.Default
	}
	if c.Indexed != other.Indexed {
		return false
	}
	if c.Indexed {
		return c.R == other.R
	}
	return c.R == other.R && c.G == other.G && c.B == other.B
}

func (c Color) String() string {
	if c.IsDefault() {
		return "default"
	}
	if c.Indexed {
		return fmt.Sprintf("idx(%d)", c.R)
	}
	return c.colorful().Hex()
}

// Blend mixes c toward other by amount (0..1) in CIE L*a*b* space.
// Indexed and default colors do not blend; the nearer endpoint wins.
func (c Color) Blend(other Color, amount float64) Color {
	if c.Indexed || other.Indexed || c.Default || other.Default {
		if amount < 0.5 {
			return c
		}
		return other
	}
	return fromColorful(c.colorful().BlendLab(other.colorful(), amount))
}

// Style is how a cell is painted.
type Style struct {
	Foreground Color
	Background Color
	Attributes Attribute
}

// DefaultStyle uses the terminal's colors and no attributes.
func DefaultStyle() Style {
	return Style{
		Foreground: ColorDefault,
		Background: ColorDefault,
	}
}

func (s Style) WithForeground(fg Color) Style {
	s.Foreground = fg
	return s
}

func (s Style) WithBackground(bg Color) Style {
	s.Background = bg
	return s
}

// WithAttributes adds attrs to the style's set.
func (s Style) WithAttributes(attrs Attribute) Style {
	s.Attributes |= attrs
	return s
}

// Merge layers other on top of s. Non-default colors in other win;
// attributes accumulate.
func (s Style) Merge(other Style) Style {
	result := s
	if !other.Foreground.IsDefault() {
		result.Foreground = other.Foreground
	}
	if !other.Background.IsDefault() {
		result.Background = other.Background
	}
	result.Attributes |= other.Attributes
	return result
}

func (s Style) Equals(other Style) bool {
	return s.Foreground.Equals(other.Foreground) &&
		s.Background.Equals(other.Background) &&
		s.Attributes == other.Attributes
}

// IsDefault reports whether s equals DefaultStyle().
func (s Style) IsDefault() bool {
	return s.Foreground.IsDefault() &&
		s.Background.IsDefault() &&
		s.Attributes == AttrNone
}

// Cell is one grid position.
type Cell struct {
	// Rune is the first rune of the grapheme cluster shown in the cell.
	Rune rune

	// Combining holds the remaining runes of the cluster.
	Combining []rune

	// Width is the display width of this cell. Zero marks the trailing half
	// of a wide cluster.
	Width int

	Style Style
}

// EmptyCell is a blank in the default style.
func EmptyCell() Cell {
	return Cell{Rune: ' ', Width: 1, Style: DefaultStyle()}
}

// ContinuationCell fills the second column of a wide cluster.
func ContinuationCell(style Style) Cell {
	return Cell{Style: style}
}

// IsContinuation reports whether c was made by ContinuationCell.
func (c Cell) IsContinuation() bool {
	return c.Width == 0 && c.Rune == 0
}

func (c Cell) Equals(other Cell) bool {
	if c.Rune != other.Rune || c.Width != other.Width || len(c.Combining) != len(other.Combining) {
		return false
	}
	for i := range c.Combining {
		if c.Combining[i] != other.Combining[i] {
			return false
		}
	}
	return c.Style.Equals(other.Style)
}

// RuneWidth returns the display width of a rune. Control characters have
// width zero.
func RuneWidth(r rune) int {
	return runewidth.RuneWidth(r)
}

// StringWidth returns the display width of s measured by grapheme cluster.
func StringWidth(s string) int {
	return uniseg.StringWidth(s)
}

// CellsFromString converts s to cells, one per grapheme cluster plus a
// continuation cell after each wide cluster.
func CellsFromString(s string, style Style) []Cell {
	cells := make([]Cell, 0, len(s))
	state := -1
	for len(s) > 0 {
		var cluster string
		var width int
		cluster, s, width, state = uniseg.FirstGraphemeClusterInString(s, state)
		runes := []rune(cluster)
		cell := Cell{Rune: runes[0], Width: max(width, 1), Style: style}
		if len(runes) > 1 {
			cell.Combining = runes[1:]
		}
		cells = append(cells, cell)
		for i := 1; i < width; i++ {
			cells = append(cells, ContinuationCell(style))
		}
	}
	return cells
}

// StringFromCells converts cells back to a string, skipping continuations.
func StringFromCells(cells []Cell) string {
	var runes []rune
	for _, c := range cells {
		if c.IsContinuation() {
			continue
		}
		runes = append(runes, c.Rune)
		runes = append(runes, c.Combining...)
	}
	return string(runes)
}

// Rect is an axis-aligned rectangle in pixels or cells.
type Rect struct {
	X, Y          int
	Width, Height int
}

// IsEmpty reports whether r has no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether (x, y) is inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Intersects reports whether r and other overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.Width && other.X < r.X+r.Width &&
		r.Y < other.Y+other.Height && other.Y < r.Y+r.Height
}
