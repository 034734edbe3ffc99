// Package config provides the configuration of the text viewer.
//
// # Sources
//
// Configuration is layered, with later sources overriding earlier ones:
//
//	┌─────────────────────────────┐
//	│  3. Tag script (Lua)        │  ← -tags script.lua, appends [[tags]]
//	├─────────────────────────────┤
//	│  2. Config file (TOML)      │  ← -config file.toml
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │  ← Default()
//	└─────────────────────────────┘
//
// A missing config file is not an error. A file that does not parse, or
// that names a key no setting has, fails with a *ParseError carrying the
// line and column.
//
// # Example
//
//	[cache]
//	capacity = 250
//	idle_timeout = "20s"
//
//	[layout]
//	engine = "cell"
//	tab_width = 8
//	wrap = true
//
//	[highlight]
//	style = "monokai"
//
//	[[tags]]
//	name = "todo"
//	foreground = "#ffcc00"
//	bold = true
//
// # Sub-packages
//
//   - loader: file system abstraction and strict TOML decoding
package config
