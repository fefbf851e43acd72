// Package snapshot computes content-addressed fingerprints of the tracked
// project files and compares them with the persisted baseline.
package snapshot

import (
	_ "crypto/sha256" // registers the digest algorithm
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"

	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/fs"
)

// DefaultExtensions are the tracked source and resource file extensions.
var DefaultExtensions = []string{".java", ".yml", ".yaml", ".properties", ".xml"}

// Options selects the tracked file set.
type Options struct {
	// Root is the project directory. Tracked paths are recorded relative to it.
	Root string

	// Roots are directories under Root to walk. Missing roots are skipped.
	Roots []string

	// Files are individual files under Root that are always tracked when present.
	Files []string

	// Extensions filters files found under Roots. Empty means DefaultExtensions.
	Extensions []string
}

// ProjectSnapshot is the content identity of the tracked files.
type ProjectSnapshot struct {
	// Paths are the tracked files, slash-separated, relative to Root, sorted.
	Paths []string

	// Digest is the SHA-256 digest over the concatenated contents in Paths order.
	Digest digest.Digest
}

// Hex returns the digest's hex encoding, the persisted form.
func (s ProjectSnapshot) Hex() string {
	if s.Digest == "" {
		return ""
	}
	return s.Digest.Encoded()
}

// Take enumerates the tracked files and digests their contents.
// The result does not depend on filesystem enumeration order.
func Take(fsys fs.Filesystem, opts Options) (ProjectSnapshot, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	seen := make(map[string]struct{})
	add := func(rel string) {
		seen[filepath.ToSlash(rel)] = struct{}{}
	}

	for _, f := range opts.Files {
		ok, err := fsys.Exists(filepath.Join(opts.Root, f))
		if err != nil {
			return ProjectSnapshot{}, perrors.Wrapf(err, perrors.CodeInternal, "snapshot", "stat %s", f)
		}
		if ok {
			add(filepath.Clean(f))
		}
	}

	for _, r := range opts.Roots {
		dir := filepath.Join(opts.Root, r)
		ok, err := fsys.Exists(dir)
		if err != nil {
			return ProjectSnapshot{}, perrors.Wrapf(err, perrors.CodeInternal, "snapshot", "stat %s", r)
		}
		if !ok {
			continue
		}

		err = fsys.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if info.IsDir() || !tracked(path, exts) {
				return nil
			}
			rel, relErr := filepath.Rel(opts.Root, path)
			if relErr != nil {
				return fmt.Errorf("relativize %s: %w", path, relErr)
			}
			add(rel)
			return nil
		})
		if err != nil {
			return ProjectSnapshot{}, perrors.Wrapf(err, perrors.CodeInternal, "snapshot", "walk %s", r)
		}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	digester := digest.Canonical.Digester()
	for _, p := range paths {
		if err := copyInto(fsys, filepath.Join(opts.Root, filepath.FromSlash(p)), digester.Hash()); err != nil {
			return ProjectSnapshot{}, perrors.Wrapf(err, perrors.CodeInternal, "snapshot", "hash %s", p)
		}
	}

	return ProjectSnapshot{Paths: paths, Digest: digester.Digest()}, nil
}

// HasChanged reports whether current differs from the persisted hex digest.
// An empty baseline always counts as changed.
func HasChanged(current ProjectSnapshot, persisted string) bool {
	persisted = strings.TrimSpace(persisted)
	if persisted == "" {
		return true
	}
	return current.Hex() != persisted
}

func tracked(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

func copyInto(fsys fs.Filesystem, path string, w io.Writer) error {
	f, err := fsys.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = io.Copy(w, f)
	return err
}
