package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/textview/internal/config/loader"
	"github.com/dshills/textview/internal/logging"
)

// DefaultScriptTimeout bounds how long a tag script may run.
const DefaultScriptTimeout = 2 * time.Second

// LoadTagScript runs the Lua script at path and returns the tags it
// declares. The script calls tag{...} once per tag:
//
//	tag{name = "todo", foreground = "#ffcc00", bold = true}
//	tag{name = "quote", left_margin = 2, italic = true}
//
// Scripts run with only the base, table, string and math libraries, and
// are stopped when ctx is done or DefaultScriptTimeout passes.
func LoadTagScript(ctx context.Context, fsys loader.FileSystem, path string) ([]TagDef, error) {
	if fsys == nil {
		fsys = loader.DefaultFS()
	}
	src, err := fsys.ReadFile(path)
	if err != nil {
		return nil, &ScriptError{Path: path, Err: err}
	}
	defs, err := runTagScript(ctx, path, string(src))
	if err != nil {
		return nil, &ScriptError{Path: path, Err: err}
	}
	for i, d := range defs {
		if err := d.validate(fmt.Sprintf("tag %d", i+1)); err != nil {
			return nil, &ScriptError{Path: path, Err: err}
		}
	}
	logging.For("config").Info("tag script loaded", "path", path, "tags", len(defs))
	return defs, nil
}

func runTagScript(ctx context.Context, name, src string) (defs []TagDef, err error) {
	L := newSandbox()
	defer L.Close()

	ctx, cancel := context.WithTimeout(ctx, DefaultScriptTimeout)
	defer cancel()
	L.SetContext(ctx)

	L.SetGlobal("tag", L.NewFunction(func(L *lua.LState) int {
		t := L.CheckTable(1)
		def, err := tagFromTable(t)
		if err != nil {
			L.ArgError(1, err.Error())
			return 0
		}
		defs = append(defs, def)
		return 0
	}))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	fn, err := L.Load(strings.NewReader(src), name)
	if err != nil {
		return nil, err
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return nil, err
	}
	return defs, nil
}

// newSandbox returns a state with only the safe standard libraries and
// without the functions that load code from files or strings.
func newSandbox() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// tagFromTable reads a tag{...} argument. Unknown fields are errors.
func tagFromTable(t *lua.LTable) (TagDef, error) {
	var def TagDef
	var err error
	t.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		key, ok := k.(lua.LString)
		if !ok {
			err = fmt.Errorf("field keys must be strings, got %s", k.Type())
			return
		}
		err = setTagField(&def, string(key), v)
	})
	return def, err
}

func setTagField(def *TagDef, key string, v lua.LValue) error {
	str := func(dst *string) error {
		s, ok := v.(lua.LString)
		if !ok {
			return fmt.Errorf("%s must be a string, got %s", key, v.Type())
		}
		*dst = string(s)
		return nil
	}
	boolean := func(dst *bool) error {
		b, ok := v.(lua.LBool)
		if !ok {
			return fmt.Errorf("%s must be a boolean, got %s", key, v.Type())
		}
		*dst = bool(b)
		return nil
	}
	integer := func(dst *int) error {
		n, ok := v.(lua.LNumber)
		if !ok || float64(n) != float64(int(n)) {
			return fmt.Errorf("%s must be an integer, got %s", key, v.String())
		}
		*dst = int(n)
		return nil
	}

	switch key {
	case "name":
		return str(&def.Name)
	case "foreground":
		return str(&def.Foreground)
	case "background":
		return str(&def.Background)
	case "bold":
		return boolean(&def.Bold)
	case "italic":
		return boolean(&def.Italic)
	case "underline":
		return boolean(&def.Underline)
	case "strikethrough":
		return boolean(&def.Strikethrough)
	case "invisible":
		return boolean(&def.Invisible)
	case "left_margin":
		return integer(&def.LeftMargin)
	case "right_margin":
		return integer(&def.RightMargin)
	case "pixels_above":
		return integer(&def.PixelsAbove)
	case "pixels_below":
		return integer(&def.PixelsBelow)
	}
	return fmt.Errorf("unknown field %q", key)
}
