package billy

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// unrootedOS resolves paths the way the process does: absolute paths as
// given, relative ones against the working directory. Plugin slots and the
// state cache usually live outside the project tree.
type unrootedOS struct {
	osfs.ChrootOS
}

//nolint:ireturn // signature fixed by billy.Chroot.
func (unrootedOS) Chroot(path string) (billy.Filesystem, error) {
	return osfs.New(path), nil
}

func (unrootedOS) Root() string {
	return "/"
}

// NewBaseOSFS returns an OS filesystem that is not confined to a directory.
func NewBaseOSFS() *FS {
	return NewFS(&unrootedOS{})
}
