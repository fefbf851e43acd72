package fs

import (
	"io"
	"io/fs"
)

// File is an open handle on a project, slot or cache file. Release assets
// are sniffed for their content type and rewound before upload, so handles
// must seek.
type File interface {
	io.ReadWriteSeeker
	io.Closer
	Stat() (fs.FileInfo, error)
}
