package buflog

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

// FileSystem is the set of file primitives the engine needs. The default is
// OSFileSystem; tests substitute an in-memory implementation.
type FileSystem interface {
	Exists(path string) bool
	Remove(path string) error
	DirExists(path string) bool
	MkdirAll(path string) error
	OpenAppend(path string) (io.WriteCloser, error) // create if missing, never truncates
	Create(path string) (io.WriteCloser, error)     // create or truncate
}

const (
	_FILE_MODE = 0o644
	_DIR_MODE  = 0o755
)

// OSFileSystem implements FileSystem with package os.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func (OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

func (OSFileSystem) DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (OSFileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, _DIR_MODE)
}

func (OSFileSystem) OpenAppend(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, _FILE_MODE)
}

func (OSFileSystem) Create(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, _FILE_MODE)
}
