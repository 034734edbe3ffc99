package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

type sample struct {
	Cache struct {
		Capacity int `toml:"capacity"`
	} `toml:"cache"`
	Name string `toml:"name"`
}

func TestDecodeTOML(t *testing.T) {
	var s sample
	err := DecodeTOML("test.toml", []byte("name = \"x\"\n[cache]\ncapacity = 12\n"), &s)
	if err != nil {
		t.Fatalf("DecodeTOML: %v", err)
	}
	if s.Name != "x" || s.Cache.Capacity != 12 {
		t.Errorf("decoded %+v", s)
	}
}

func TestDecodeTOMLSyntaxError(t *testing.T) {
	var s sample
	err := DecodeTOML("bad.toml", []byte("name = \"x\"\n[cache\n"), &s)

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %T %v, want *ParseError", err, err)
	}
	if perr.Path != "bad.toml" {
		t.Errorf("Path = %q", perr.Path)
	}
	if perr.Line != 2 {
		t.Errorf("Line = %d, want 2", perr.Line)
	}
	if !strings.Contains(perr.Error(), "bad.toml at line 2") {
		t.Errorf("Error() = %q", perr.Error())
	}
}

func TestDecodeTOMLUnknownKey(t *testing.T) {
	var s sample
	err := DecodeTOML("extra.toml", []byte("[cache]\ncapacity = 1\nsize = 2\n"), &s)

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if perr.Message != "unknown key cache.size" {
		t.Errorf("Message = %q", perr.Message)
	}
	if perr.Line != 3 {
		t.Errorf("Line = %d, want 3", perr.Line)
	}
}

func TestParseErrorFormat(t *testing.T) {
	tests := []struct {
		err  ParseError
		want string
	}{
		{ParseError{Path: "a", Message: "m"}, "parse error in a: m"},
		{ParseError{Path: "a", Line: 3, Message: "m"}, "parse error in a at line 3: m"},
		{ParseError{Path: "a", Line: 3, Column: 4, Message: "m"}, "parse error in a at line 3, column 4: m"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestReadOptional(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/here.toml", "x = 1")

	data, ok, err := ReadOptional(memfs, "/here.toml")
	if err != nil || !ok || string(data) != "x = 1" {
		t.Errorf("ReadOptional(present) = %q, %v, %v", data, ok, err)
	}

	data, ok, err = ReadOptional(memfs, "/missing.toml")
	if err != nil || ok || data != nil {
		t.Errorf("ReadOptional(missing) = %q, %v, %v", data, ok, err)
	}
}

type failFS struct{ MemFS }

func (failFS) ReadFile(string) ([]byte, error) { return nil, fs.ErrPermission }

func TestReadOptionalError(t *testing.T) {
	_, _, err := ReadOptional(&failFS{}, "/x")
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("err = %v, want permission error", err)
	}
}
