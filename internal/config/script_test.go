package config

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/dshills/textview/internal/config/loader"
)

func scriptFS(src string) loader.FileSystem {
	fsys := loader.NewMemFS()
	fsys.AddFile("/tags.lua", src)
	return fsys
}

func TestLoadTagScript(t *testing.T) {
	fsys := scriptFS(`
tag{name = "todo", foreground = "#ffcc00", bold = true}
for i = 1, 2 do
  tag{name = "level" .. i, left_margin = i * 2}
end
`)

	defs, err := LoadTagScript(context.Background(), fsys, "/tags.lua")
	if err != nil {
		t.Fatalf("LoadTagScript: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("got %d tags, want 3", len(defs))
	}
	if defs[0].Name != "todo" || defs[0].Foreground != "#ffcc00" || !defs[0].Bold {
		t.Errorf("defs[0] = %+v", defs[0])
	}
	if defs[2].Name != "level2" || defs[2].LeftMargin != 4 {
		t.Errorf("defs[2] = %+v", defs[2])
	}
}

func TestLoadTagScriptMissing(t *testing.T) {
	_, err := LoadTagScript(context.Background(), loader.NewMemFS(), "/none.lua")
	var serr *ScriptError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want *ScriptError", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestLoadTagScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", "tag{name = ", ""},
		{"unknown field", `tag{name = "a", colour = "#000000"}`, "unknown field"},
		{"wrong type", `tag{name = "a", bold = "yes"}`, "bold must be a boolean"},
		{"fractional", `tag{name = "a", left_margin = 1.5}`, "left_margin must be an integer"},
		{"not a table", `tag("a")`, ""},
		{"runtime", `error("boom")`, "boom"},
		{"invalid tag", `tag{name = "syntax:x"}`, "reserved"},
		{"bad color", `tag{name = "a", background = "red"}`, "#rrggbb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTagScript(context.Background(), scriptFS(tt.src), "/tags.lua")
			if err == nil {
				t.Fatal("expected error")
			}
			var serr *ScriptError
			if !errors.As(err, &serr) || serr.Path != "/tags.lua" {
				t.Errorf("err = %T %v, want *ScriptError for /tags.lua", err, err)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestTagScriptSandbox(t *testing.T) {
	for _, name := range []string{"io", "os", "require", "dofile", "loadstring", "load"} {
		t.Run(name, func(t *testing.T) {
			src := `if ` + name + ` ~= nil then error("` + name + ` available") end`
			if _, err := LoadTagScript(context.Background(), scriptFS(src), "/tags.lua"); err != nil {
				t.Errorf("%s reachable from script: %v", name, err)
			}
		})
	}

	// The safe libraries stay usable.
	src := `tag{name = string.upper("x") .. math.floor(2.7), italic = #table.concat({"a"}) == 1}`
	defs, err := LoadTagScript(context.Background(), scriptFS(src), "/tags.lua")
	if err != nil {
		t.Fatalf("LoadTagScript: %v", err)
	}
	if defs[0].Name != "X2" || !defs[0].Italic {
		t.Errorf("defs[0] = %+v", defs[0])
	}
}

func TestTagScriptCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadTagScript(ctx, scriptFS(`while true do end`), "/tags.lua")
	if err == nil {
		t.Fatal("infinite script returned no error")
	}
}
