// Package state holds the pipeline's two persisted caches: the last built
// version and the last recorded content digest. The caches are loaded once at
// pipeline start into a State value and written back at explicit checkpoints.
package state

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/adrg/xdg"

	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/fs"
)

const (
	// AppDir is the directory under the XDG state home holding per-project caches.
	AppDir = "weathervoting-release"

	versionFile = "last-version"
	digestFile  = "last-digest"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// State is the in-memory copy of the caches. Empty fields mean "no baseline".
type State struct {
	LastVersion string
	LastDigest  string
}

// Store reads and writes State under Dir.
type Store struct {
	fs  fs.Filesystem
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(fsys fs.Filesystem, dir string) *Store {
	return &Store{fs: fsys, dir: dir}
}

// DefaultDir returns $XDG_STATE_HOME/weathervoting-release/<project>.
func DefaultDir(project string) string {
	name := unsafeChars.ReplaceAllString(project, "_")
	if name == "" {
		name = "default"
	}
	return filepath.Join(xdg.StateHome, AppDir, name)
}

// Dir returns the directory the caches live in.
func (s *Store) Dir() string {
	return s.dir
}

// Load reads both caches. Missing files yield empty fields.
func (s *Store) Load() (State, error) {
	v, err := s.read(versionFile)
	if err != nil {
		return State{}, err
	}
	d, err := s.read(digestFile)
	if err != nil {
		return State{}, err
	}
	return State{LastVersion: v, LastDigest: d}, nil
}

// Save writes both caches. Empty fields are skipped so a partial checkpoint
// never erases an existing baseline.
func (s *Store) Save(st State) error {
	if st.LastVersion != "" {
		if err := s.write(versionFile, st.LastVersion); err != nil {
			return err
		}
	}
	if st.LastDigest != "" {
		if err := s.write(digestFile, st.LastDigest); err != nil {
			return err
		}
	}
	return nil
}

// Reset removes both caches.
func (s *Store) Reset() error {
	for _, name := range []string{versionFile, digestFile} {
		path := filepath.Join(s.dir, name)
		ok, err := s.fs.Exists(path)
		if err != nil {
			return perrors.Wrapf(err, perrors.CodeInternal, "state", "stat %s", path)
		}
		if !ok {
			continue
		}
		if err := s.fs.Remove(path); err != nil {
			return perrors.Wrapf(err, perrors.CodeInternal, "state", "remove %s", path)
		}
	}
	return nil
}

func (s *Store) read(name string) (string, error) {
	path := filepath.Join(s.dir, name)
	data, err := s.fs.ReadFile(path)
	if err != nil {
		ok, existsErr := s.fs.Exists(path)
		if existsErr == nil && !ok {
			return "", nil
		}
		return "", perrors.Wrapf(err, perrors.CodeInternal, "state", "read %s", path)
	}
	return strings.TrimSpace(string(data)), nil
}

// write replaces the file through a temp file and rename.
func (s *Store) write(name, value string) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return perrors.Wrapf(err, perrors.CodeInternal, "state", "create %s", s.dir)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := s.fs.WriteFile(tmp, []byte(value+"\n"), 0o644); err != nil {
		return perrors.Wrapf(err, perrors.CodeInternal, "state", "write %s", tmp)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return perrors.Wrapf(err, perrors.CodeInternal, "state", "replace %s", path)
	}
	return nil
}

