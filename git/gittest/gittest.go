// Package gittest provides in-memory repositories and remotes for tests of
// code built on the git package. Remotes are served in-process through
// go-git's transport server under the "mem" URL scheme, so pushes and remote
// listings work without a git binary or network.
package gittest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/stretchr/testify/require"

	fsb "github.com/Staticpast/WeatherVoting/fs/billy"
	"github.com/Staticpast/WeatherVoting/git"
	"github.com/Staticpast/WeatherVoting/git/internal/fsbridge"
)

// Scheme is the URL scheme served by the in-process transport.
const Scheme = "mem"

var (
	installOnce sync.Once
	mu          sync.Mutex
	remotes     = map[string]storer.Storer{}
	seq         int
)

type loader struct{}

func (loader) Load(ep *transport.Endpoint) (storer.Storer, error) {
	mu.Lock()
	defer mu.Unlock()

	s, ok := remotes[ep.Host]
	if !ok {
		return nil, transport.ErrRepositoryNotFound
	}
	return s, nil
}

// Tagger is the identity tests sign tags and commits with.
var Tagger = git.Signature{Name: "Release Test", Email: "release@test.local"}

// Remote is a bare repository reachable at URL.
type Remote struct {
	URL     string
	storage *filesystem.Storage
}

// NewRemote creates an empty bare repository and registers it with the
// in-process transport.
func NewRemote(t testing.TB) *Remote {
	t.Helper()

	installOnce.Do(func() {
		client.InstallProtocol(Scheme, server.NewClient(loader{}))
	})

	storage := fsbridge.NewStorage(memfs.New(), 0)
	_, err := gogit.Init(storage, nil)
	require.NoError(t, err, "init bare remote")

	mu.Lock()
	seq++
	host := fmt.Sprintf("remote-%d", seq)
	remotes[host] = storage
	mu.Unlock()

	t.Cleanup(func() {
		mu.Lock()
		delete(remotes, host)
		mu.Unlock()
	})

	return &Remote{URL: Scheme + "://" + host, storage: storage}
}

// Tags returns the tag names stored in the remote, sorted.
func (r *Remote) Tags(t testing.TB) []string {
	t.Helper()

	iter, err := r.storage.IterReferences()
	require.NoError(t, err)

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Name().IsTag() {
			tags = append(tags, ref.Name().Short())
		}
		return nil
	})
	require.NoError(t, err)

	sort.Strings(tags)
	return tags
}

// HasTag reports whether the remote stores the named tag.
func (r *Remote) HasTag(t testing.TB, name string) bool {
	t.Helper()

	_, err := r.storage.Reference(plumbing.NewTagReferenceName(name))
	return err == nil
}

// NewRepo creates a non-bare in-memory repository containing files in one
// initial commit.
func NewRepo(t testing.TB, files map[string]string) (*git.Repo, *fsb.FS) {
	t.Helper()

	ctx := context.Background()
	fsys := fsb.NewInMemoryFS()
	tagger := Tagger

	repo, err := git.Init(ctx, &git.Options{FS: fsys, Tagger: &tagger})
	require.NoError(t, err, "init repository")

	if len(files) == 0 {
		files = map[string]string{"README.md": "# test\n"}
	}
	Commit(t, repo, fsys, "initial commit", files)

	return repo, fsys
}

// Commit writes files, stages them and commits with msg. Returns the hash.
func Commit(t testing.TB, repo *git.Repo, fsys *fsb.FS, msg string, files map[string]string) string {
	t.Helper()

	ctx := context.Background()
	paths := make([]string, 0, len(files))
	for path, content := range files {
		require.NoError(t, fsys.WriteFile(path, []byte(content), 0o644))
		paths = append(paths, path)
	}
	sort.Strings(paths)

	require.NoError(t, repo.Add(ctx, paths...))
	hash, err := repo.Commit(ctx, msg, Tagger, git.CommitOpts{})
	require.NoError(t, err)
	return hash
}
