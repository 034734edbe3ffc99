package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/textview/internal/config/loader"
	"github.com/dshills/textview/internal/document"
	"github.com/dshills/textview/internal/logging"
	"github.com/dshills/textview/internal/renderer/core"
	"github.com/dshills/textview/internal/renderer/highlight"
	"github.com/dshills/textview/internal/renderer/layout"
	"github.com/dshills/textview/internal/renderer/linecache"
)

// Layout engine names.
const (
	EngineCell    = "cell"
	EngineShaping = "shaping"
)

// Config is the complete viewer configuration.
type Config struct {
	Cache     CacheConfig     `toml:"cache"`
	Layout    LayoutConfig    `toml:"layout"`
	Highlight HighlightConfig `toml:"highlight"`
	Tags      []TagDef        `toml:"tags"`
}

// CacheConfig configures the display cache.
type CacheConfig struct {
	Capacity    int      `toml:"capacity"`
	IdleTimeout Duration `toml:"idle_timeout"`
}

// LayoutConfig selects and tunes the layout engine.
type LayoutConfig struct {
	Engine     string `toml:"engine"`
	TabWidth   int    `toml:"tab_width"`
	Wrap       bool   `toml:"wrap"`
	WrapAtWord bool   `toml:"wrap_at_word"`

	// Cell engine grid size in pixels per cell.
	CellWidth  int `toml:"cell_width"`
	CellHeight int `toml:"cell_height"`

	EastAsianWidth bool `toml:"east_asian_width"`

	// FontSize is the shaping engine's font size in pixels.
	FontSize float64 `toml:"font_size"`
}

// HighlightConfig configures syntax highlighting.
type HighlightConfig struct {
	Enabled bool   `toml:"enabled"`
	Style   string `toml:"style"`
	// Language forces a lexer. Empty means detect.
	Language string `toml:"language"`
}

// Duration is a time.Duration written as a string like "20s".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Capacity:    linecache.DefaultCapacity,
			IdleTimeout: Duration(linecache.DefaultIdleTimeout),
		},
		Layout: LayoutConfig{
			Engine:     EngineCell,
			TabWidth:   layout.DefaultTabWidth,
			Wrap:       true,
			WrapAtWord: true,
			CellWidth:  1,
			CellHeight: 1,
			FontSize:   layout.DefaultFontSize,
		},
		Highlight: HighlightConfig{
			Enabled: true,
			Style:   highlight.DefaultThemeName,
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path or a
// missing file yields the defaults.
func Load(fsys loader.FileSystem, path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, ok, err := loader.ReadOptional(fsys, path)
	if err != nil || !ok {
		return cfg, err
	}
	if err := loader.DecodeTOML(path, data, &cfg); err != nil {
		return Default(), err
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config %s: %w", path, err)
	}
	logging.For("config").Info("config loaded", "path", path, "engine", cfg.Layout.Engine, "tags", len(cfg.Tags))
	return cfg, nil
}

// Validate checks every setting and returns all problems joined.
func (c Config) Validate() error {
	var errs []error
	bad := func(path string, value any, format string, args ...any) {
		errs = append(errs, &ValidationError{Path: path, Value: value, Message: fmt.Sprintf(format, args...)})
	}

	if c.Cache.Capacity < 1 {
		bad("cache.capacity", c.Cache.Capacity, "must be at least 1")
	}
	if c.Cache.IdleTimeout < 0 {
		bad("cache.idle_timeout", time.Duration(c.Cache.IdleTimeout), "must not be negative")
	}

	switch c.Layout.Engine {
	case EngineCell, EngineShaping:
	default:
		bad("layout.engine", c.Layout.Engine, "must be %q or %q", EngineCell, EngineShaping)
	}
	if c.Layout.TabWidth < 1 || c.Layout.TabWidth > 32 {
		bad("layout.tab_width", c.Layout.TabWidth, "must be between 1 and 32")
	}
	if c.Layout.CellWidth < 1 {
		bad("layout.cell_width", c.Layout.CellWidth, "must be at least 1")
	}
	if c.Layout.CellHeight < 1 {
		bad("layout.cell_height", c.Layout.CellHeight, "must be at least 1")
	}
	if c.Layout.FontSize <= 0 {
		bad("layout.font_size", c.Layout.FontSize, "must be positive")
	}

	seen := make(map[string]bool, len(c.Tags))
	for i, t := range c.Tags {
		path := fmt.Sprintf("tags[%d]", i)
		if err := t.validate(path); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[t.Name] {
			bad(path+".name", t.Name, "duplicate tag")
		}
		seen[t.Name] = true
	}
	return errors.Join(errs...)
}

// CacheOptions returns the display cache configuration.
func (c Config) CacheOptions() linecache.Config {
	return linecache.Config{
		Capacity:    c.Cache.Capacity,
		IdleTimeout: time.Duration(c.Cache.IdleTimeout),
	}
}

// CellOptions returns the cell engine options. The wrap width is set by
// the view from its size.
func (c Config) CellOptions() layout.CellOptions {
	opts := layout.DefaultCellOptions()
	opts.TabWidth = c.Layout.TabWidth
	opts.WrapAtWord = c.Layout.WrapAtWord
	opts.CellWidth = c.Layout.CellWidth
	opts.CellHeight = c.Layout.CellHeight
	opts.EastAsianWidth = c.Layout.EastAsianWidth
	return opts
}

// ShapingOptions returns the shaping engine options.
func (c Config) ShapingOptions() layout.ShapingOptions {
	opts := layout.DefaultShapingOptions()
	opts.Size = c.Layout.FontSize
	return opts
}

// TagDef defines a document tag.
type TagDef struct {
	Name          string `toml:"name"`
	Foreground    string `toml:"foreground"`
	Background    string `toml:"background"`
	Bold          bool   `toml:"bold"`
	Italic        bool   `toml:"italic"`
	Underline     bool   `toml:"underline"`
	Strikethrough bool   `toml:"strikethrough"`
	Invisible     bool   `toml:"invisible"`
	LeftMargin    int    `toml:"left_margin"`
	RightMargin   int    `toml:"right_margin"`
	PixelsAbove   int    `toml:"pixels_above"`
	PixelsBelow   int    `toml:"pixels_below"`
}

// Props returns the tag's display properties.
func (t TagDef) Props() document.TagProps {
	return document.TagProps{
		Foreground:    t.Foreground,
		Background:    t.Background,
		Bold:          t.Bold,
		Italic:        t.Italic,
		Underline:     t.Underline,
		Strikethrough: t.Strikethrough,
		Invisible:     t.Invisible,
		LeftMargin:    t.LeftMargin,
		RightMargin:   t.RightMargin,
		PixelsAbove:   t.PixelsAbove,
		PixelsBelow:   t.PixelsBelow,
	}
}

func (t TagDef) validate(path string) error {
	var errs []error
	bad := func(field string, value any, msg string) {
		errs = append(errs, &ValidationError{Path: path + "." + field, Value: value, Message: msg})
	}
	switch {
	case t.Name == "":
		bad("name", t.Name, "must not be empty")
	case strings.HasPrefix(t.Name, highlight.TagPrefix):
		bad("name", t.Name, "prefix "+highlight.TagPrefix+" is reserved for syntax tags")
	}
	for field, c := range map[string]string{"foreground": t.Foreground, "background": t.Background} {
		if c == "" {
			continue
		}
		if _, err := core.ColorFromHex(c); err != nil {
			bad(field, c, "not a #rrggbb color")
		}
	}
	for field, v := range map[string]int{
		"left_margin":  t.LeftMargin,
		"right_margin": t.RightMargin,
		"pixels_above": t.PixelsAbove,
		"pixels_below": t.PixelsBelow,
	} {
		if v < 0 {
			bad(field, v, "must not be negative")
		}
	}
	return errors.Join(errs...)
}

// DefineTags adds the configured tags to table in order, so later tags take
// priority.
func DefineTags(table *document.TagTable, defs []TagDef) {
	for _, d := range defs {
		table.Define(d.Name, d.Props())
	}
}
