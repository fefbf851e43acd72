package billy

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/go-git/go-billy/v5"
)

// file is an open billy handle. Stat goes back to the owning filesystem,
// since billy files carry only a name.
type file struct {
	billy.File
	owner billy.Basic
}

func (f *file) Read(p []byte) (int, error) {
	n, err := f.File.Read(p)
	return n, f.fail("read", err)
}

func (f *file) Write(p []byte) (int, error) {
	n, err := f.File.Write(p)
	return n, f.fail("write", err)
}

func (f *file) Seek(offset int64, whence int) (int64, error) {
	pos, err := f.File.Seek(offset, whence)
	return pos, f.fail("seek", err)
}

func (f *file) Close() error {
	return f.fail("close", f.File.Close())
}

func (f *file) Stat() (fs.FileInfo, error) {
	info, err := f.owner.Stat(f.Name())
	return info, f.fail("stat", err)
}

// fail annotates err with the file name. io.EOF passes through untouched so
// readers can compare it directly.
func (f *file) fail(op string, err error) error {
	if err == nil || errors.Is(err, io.EOF) {
		return err
	}
	return fmt.Errorf("billy: %s %q: %w", op, f.Name(), err)
}
