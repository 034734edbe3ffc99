// Package main is the entry point for the textview terminal viewer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dshills/textview/internal/config"
	"github.com/dshills/textview/internal/document"
	"github.com/dshills/textview/internal/event"
	"github.com/dshills/textview/internal/logging"
	"github.com/dshills/textview/internal/renderer"
	"github.com/dshills/textview/internal/renderer/backend"
	"github.com/dshills/textview/internal/renderer/highlight"
	"github.com/dshills/textview/internal/renderer/layout"
	"github.com/dshills/textview/internal/renderer/linecache"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	ConfigPath string
	TagsPath   string
	Engine     string
	LogFile    string
	LogLevel   string
	Stats      bool
	Smooth     bool
	NoWrap     bool
	File       string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	closeLog, err := setupLogging(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	cfg, err := config.Load(nil, opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.Engine != "" {
		cfg.Layout.Engine = opts.Engine
	}
	if opts.NoWrap {
		cfg.Layout.Wrap = false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.TagsPath != "" {
		defs, err := config.LoadTagScript(ctx, nil, opts.TagsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		cfg.Tags = append(cfg.Tags, defs...)
	}

	text, err := readDocument(opts.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	doc := document.New(text)
	config.DefineTags(doc.Tags(), cfg.Tags)

	term, err := backend.NewTerminal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := term.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize terminal: %v\n", err)
		return 1
	}
	defer term.Shutdown()

	loop := event.NewLoop()
	v, cleanup, err := newViewer(doc, cfg, opts, term, loop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	go func() {
		for {
			ev := term.PollEvent()
			if ev.Type == backend.EventInterrupt {
				return
			}
			if ev.Type == backend.EventNone {
				continue
			}
			err := loop.Post(func() {
				if v.handle(ev) {
					loop.Stop()
				}
			})
			if err != nil {
				return
			}
		}
	}()

	_ = loop.Post(v.redraw)
	err = loop.Run(ctx)
	term.PostEvent(backend.Event{Type: backend.EventInterrupt})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// newViewer builds the highlighter, layout engine and view for doc. The
// returned function releases them.
func newViewer(doc *document.Document, cfg config.Config, opts options, b backend.Backend, loop *event.Loop) (*viewer, func(), error) {
	log := logging.For("textview")

	theme := highlight.NewTheme(cfg.Highlight.Style)
	unwatch := func() {}
	if cfg.Highlight.Enabled {
		h := highlight.New(doc, highlight.Options{
			Language: cfg.Highlight.Language,
			Filename: opts.File,
			Theme:    cfg.Highlight.Style,
		})
		if err := h.HighlightAll(); err != nil {
			log.Warn("highlight failed", "language", h.Language(), "error", err)
		}
		unwatch = h.Watch(loop.Post)
		theme = h.Theme()
	}

	viewOpts := renderer.DefaultOptions()
	viewOpts.Cache = cfg.CacheOptions()
	viewOpts.LineHighlight = theme.LineHighlight
	viewOpts.Selection = theme.Selection
	viewOpts.SmoothScroll = opts.Smooth
	viewOpts.NoWrap = !cfg.Layout.Wrap

	var engine layout.Engine
	switch cfg.Layout.Engine {
	case config.EngineShaping:
		so := cfg.ShapingOptions()
		so.DefaultStyle = so.DefaultStyle.WithForeground(theme.Foreground).WithBackground(theme.Background)
		se, err := layout.NewShapingEngine(doc, so)
		if err != nil {
			unwatch()
			return nil, nil, fmt.Errorf("shaping engine: %w", err)
		}
		// One terminal cell stands for a fixed slice of the shaped line.
		viewOpts.CellWidth = max(1, int(so.Size/2))
		viewOpts.CellHeight = se.LineHeight()
		engine = se
	default:
		co := cfg.CellOptions()
		co.DefaultStyle = co.DefaultStyle.WithForeground(theme.Foreground).WithBackground(theme.Background)
		viewOpts.CellWidth = co.CellWidth
		viewOpts.CellHeight = co.CellHeight
		engine = layout.NewCellEngine(doc, co)
	}

	view := renderer.New(doc, engine, viewOpts, linecache.WithScheduler(loop))
	w, h := b.Size()
	view.Resize(w, h)

	log.Info("viewer ready",
		"file", opts.File,
		"engine", cfg.Layout.Engine,
		"lines", doc.LineCount(),
		"tags", doc.Tags().Len(),
	)

	v := &viewer{
		doc:     doc,
		view:    view,
		backend: b,
		sched:   loop,
		now:     time.Now,
		log:     log,
		stats:   opts.Stats,
	}
	return v, func() {
		unwatch()
		view.Close()
	}, nil
}

func readDocument(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// setupLogging sends logs to opts.LogFile. Without a file, logging stays
// off so it cannot corrupt the terminal.
func setupLogging(opts options) (func(), error) {
	if opts.LogFile == "" {
		return func() {}, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", opts.LogLevel)
	}
	f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
	return func() {
		logging.SetLogger(nil)
		_ = f.Close()
	}, nil
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to TOML configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to TOML configuration file (shorthand)")
	flag.StringVar(&opts.TagsPath, "tags", "", "Lua script defining extra tags")
	flag.StringVar(&opts.Engine, "engine", "", "Layout engine (cell, shaping)")
	flag.StringVar(&opts.LogFile, "log", "", "Write logs to this file")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.Stats, "stats", false, "Log display cache statistics after each redraw")
	flag.BoolVar(&opts.Smooth, "smooth", false, "Animate page scrolling")
	flag.BoolVar(&opts.NoWrap, "nowrap", false, "Disable soft wrapping")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "textview - cached line display for tagged text\n\n")
		fmt.Fprintf(os.Stderr, "Usage: textview [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys: arrows move, shift extends the selection, PgUp/PgDn scroll, Ctrl-Q quits.\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("textview %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if flag.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "Error: at most one file may be given\n")
		os.Exit(1)
	}
	opts.File = flag.Arg(0)
	return opts
}
