// Package loader reads configuration files for the text view.
//
// Files are read through a FileSystem so tests can substitute an in-memory
// one. A missing file is not an error: ReadOptional reports it as absent and
// the caller keeps its defaults.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileSystem is where configuration and tag scripts are read from. Paths
// are OS paths, not fs.FS slash paths.
type FileSystem interface {
	fs.FS
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

// OSFS reads from disk.
type OSFS struct{}

func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// DefaultFS is used when a caller passes a nil FileSystem.
func DefaultFS() FileSystem {
	return OSFS{}
}

// ReadOptional reads path from fsys. It returns ok false, and no error,
// when the file does not exist.
func ReadOptional(fsys FileSystem, path string) (data []byte, ok bool, err error) {
	if fsys == nil {
		fsys = DefaultFS()
	}
	data, err = fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, true, nil
}
