// Package billy backs fs.Filesystem with go-billy: memfs for tests, osfs
// rooted at the project directory, and an unrooted OS filesystem for
// deployment slots and caches outside the project.
package billy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	parentfs "github.com/Staticpast/WeatherVoting/fs"
)

// FS adapts a billy.Filesystem. Errors name the operation and path.
type FS struct {
	raw billy.Filesystem
}

var _ parentfs.Filesystem = (*FS)(nil)

// NewFS wraps an existing billy filesystem, such as a repository worktree.
func NewFS(raw billy.Filesystem) *FS {
	return &FS{raw: raw}
}

// NewInMemoryFS returns an empty in-memory filesystem.
func NewInMemoryFS() *FS {
	return NewFS(memfs.New())
}

// NewOSFS returns an OS filesystem rooted at dir.
func NewOSFS(dir string) *FS {
	return NewFS(osfs.New(dir))
}

// Raw exposes the billy filesystem for go-git storage and worktrees.
//
//nolint:ireturn // go-git consumes the billy interface.
func (b *FS) Raw() billy.Filesystem {
	return b.raw
}

func annotate(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("billy: %s %q: %w", op, path, err)
}

func (b *FS) handle(op, name string, f billy.File, err error) (parentfs.File, error) {
	if err != nil {
		return nil, annotate(op, name, err)
	}
	return &file{File: f, owner: b.raw}, nil
}

// Open opens name for reading.
//
//nolint:ireturn // handles are returned as the parent fs.File.
func (b *FS) Open(name string) (parentfs.File, error) {
	f, err := b.raw.Open(name)
	return b.handle("open", name, f, err)
}

// OpenFile opens name with the given flags, creating it with perm if asked.
//
//nolint:ireturn // handles are returned as the parent fs.File.
func (b *FS) OpenFile(name string, flag int, perm os.FileMode) (parentfs.File, error) {
	f, err := b.raw.OpenFile(name, flag, perm)
	return b.handle("open", name, f, err)
}

// Exists reports whether path names a file or directory. A missing parent
// counts as absent rather than an error.
func (b *FS) Exists(path string) (bool, error) {
	_, err := b.raw.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, annotate("stat", path, err)
}

// Glob returns the sorted matches of pattern.
func (b *FS) Glob(pattern string) ([]string, error) {
	matches, err := util.Glob(b.raw, pattern)
	if err != nil {
		return nil, annotate("glob", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// MkdirAll creates path and any missing parents.
func (b *FS) MkdirAll(path string, perm os.FileMode) error {
	return annotate("mkdir", path, b.raw.MkdirAll(path, perm))
}

// ReadFile returns the whole content of path.
func (b *FS) ReadFile(path string) ([]byte, error) {
	data, err := util.ReadFile(b.raw, path)
	return data, annotate("read", path, err)
}

// WriteFile replaces the content of path. Billy creates missing parents.
func (b *FS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return annotate("write", path, util.WriteFile(b.raw, path, data, perm))
}

// Remove deletes a file or empty directory.
func (b *FS) Remove(name string) error {
	return annotate("remove", name, b.raw.Remove(name))
}

// Rename moves oldpath to newpath, replacing newpath if it exists.
func (b *FS) Rename(oldpath, newpath string) error {
	if err := b.raw.Rename(oldpath, newpath); err != nil {
		return fmt.Errorf("billy: rename %q to %q: %w", oldpath, newpath, err)
	}
	return nil
}

// Stat describes name.
func (b *FS) Stat(name string) (os.FileInfo, error) {
	info, err := b.raw.Stat(name)
	return info, annotate("stat", name, err)
}

// Walk visits root and everything below it in lexical order.
func (b *FS) Walk(root string, fn filepath.WalkFunc) error {
	return annotate("walk", root, util.Walk(b.raw, root, fn))
}
