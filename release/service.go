// Package release reconciles version tags with records on a remote release
// service. For a tag the reconciler creates a release when none exists,
// leaves an existing one alone, or recreates it when forced.
package release

import (
	"context"

	"github.com/Staticpast/WeatherVoting/fs"
)

// Record is a published release.
type Record struct {
	ID     int64
	Tag    string
	Name   string
	Body   string
	Target string
	URL    string
	Assets []string
}

// Asset is a file attached to a new release. Path is relative to FS.
type Asset struct {
	Name string
	Path string
	FS   fs.Filesystem
}

// Draft describes a release to create.
type Draft struct {
	Tag    string
	Name   string
	Body   string
	Target string
	Assets []Asset
}

// Service is the remote release store. Find returns nil, nil when no release
// exists for the tag. Delete reports whether a release was removed.
type Service interface {
	Authenticate(ctx context.Context) error
	Find(ctx context.Context, tag string) (*Record, error)
	Create(ctx context.Context, d Draft) (*Record, error)
	Delete(ctx context.Context, tag string) (bool, error)
}

// Exists reports whether svc holds a release for tag.
func Exists(ctx context.Context, svc Service, tag string) (bool, error) {
	rec, err := svc.Find(ctx, tag)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}
