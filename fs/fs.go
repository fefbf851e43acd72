// Package fs defines the filesystem abstraction used by the release pipeline.
// Implementations live in sub-packages (fs/billy) so that state, snapshot and
// deployment code can run against the OS or an in-memory tree.
package fs

import (
	"os"
	"path/filepath"
)

// Filesystem is the set of operations the pipeline performs on files:
// walking and reading the project for snapshots, whole-file writes for the
// state cache, and globbing, copying and renaming for deployment slots.
type Filesystem interface {
	Exists(path string) (bool, error)
	Glob(pattern string) ([]string, error)
	MkdirAll(path string, perm os.FileMode) error
	Open(name string) (File, error)
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	ReadFile(path string) ([]byte, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
	Walk(root string, walkFn filepath.WalkFunc) error
	WriteFile(filename string, data []byte, perm os.FileMode) error
}
