package git

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobilly "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/Staticpast/WeatherVoting/fs"
	"github.com/Staticpast/WeatherVoting/git/internal/fsbridge"
)

const (
	// DefaultStorerCacheSize is the default size for the LRU object cache.
	DefaultStorerCacheSize = 1000

	// DefaultWorkdir is the default worktree directory name.
	DefaultWorkdir = "."

	// DefaultRemoteName is the default remote name used for operations.
	DefaultRemoteName = "origin"
)

// fallbackTagger signs tags when neither Options.Tagger nor the user's git
// configuration provide an identity.
var fallbackTagger = Signature{Name: "release", Email: "release@localhost"}

// Options configures repository discovery/creation.
type Options struct {
	// FS is the REQUIRED filesystem root (OS or in-memory).
	// All repository state lives within this filesystem.
	FS fs.Filesystem

	// Workdir is the path within FS for the worktree root.
	// Defaults to "." (current directory in FS).
	Workdir string

	// Bare indicates a repository without a worktree.
	Bare bool

	// StorerCacheSize sets the LRU objects cache entries.
	// Defaults to DefaultStorerCacheSize.
	StorerCacheSize int

	// Auth resolves per-URL credentials for remote operations.
	// If nil, remotes are contacted anonymously.
	Auth AuthProvider

	// Tagger signs annotated tags. If nil, the user.name and user.email of
	// the global git configuration are used.
	Tagger *Signature
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.FS == nil {
		return WrapError(ErrInvalidRef, "FS is required")
	}

	if o.StorerCacheSize < 0 {
		return WrapError(ErrInvalidRef, "StorerCacheSize cannot be negative")
	}

	if o.Tagger != nil && (o.Tagger.Name == "" || o.Tagger.Email == "") {
		return WrapError(ErrInvalidRef, "Tagger requires name and email")
	}

	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.Workdir == "" {
		o.Workdir = DefaultWorkdir
	}

	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}
}

// AuthProvider resolves authentication methods for git operations.
type AuthProvider interface {
	// Method returns the transport.AuthMethod for the given remote URL.
	// Returns nil if no authentication is needed/available for this URL.
	Method(remoteURL string) (transport.AuthMethod, error)
}

// Signature represents an author/committer signature for commits and tags.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// CommitOpts configures commit creation behavior.
type CommitOpts struct {
	// AllowEmpty allows creating commits with no staged changes.
	AllowEmpty bool
}

// Repo represents a git repository and provides high-level operations.
type Repo struct {
	repo     *git.Repository
	worktree *git.Worktree
	fs       fs.Filesystem
	options  Options
}

// Init creates a new git repository at the configured workdir.
func Init(ctx context.Context, opts *Options) (*Repo, error) {
	storage, worktreeFS, err := prepare(opts)
	if err != nil {
		return nil, err
	}

	repo, err := git.Init(storage, worktreeFS)
	if err != nil {
		return nil, WrapError(err, "failed to initialize repository")
	}

	return newRepo(repo, opts)
}

// Open opens an existing git repository at the configured workdir.
// Returns ErrNotRepository if none exists there.
func Open(ctx context.Context, opts *Options) (*Repo, error) {
	storage, worktreeFS, err := prepare(opts)
	if err != nil {
		return nil, err
	}

	repo, err := git.Open(storage, worktreeFS)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, WrapErrorf(ErrNotRepository, "open %q", opts.Workdir)
		}
		return nil, WrapError(err, "failed to open repository")
	}

	return newRepo(repo, opts)
}

// prepare validates opts and builds the object storage and worktree filesystem.
//
//nolint:ireturn // billy.Filesystem is what go-git consumes
func prepare(opts *Options) (*filesystem.Storage, gobilly.Filesystem, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, WrapError(err, "invalid options")
	}

	opts.applyDefaults()

	billyFS, err := fsbridge.ToBillyFilesystem(opts.FS)
	if err != nil {
		return nil, nil, fmt.Errorf("filesystem conversion failed: %w", err)
	}

	scopedFS, err := billyFS.Chroot(opts.Workdir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to chroot to workdir %q: %w", opts.Workdir, err)
	}

	if opts.Bare {
		return fsbridge.NewStorage(scopedFS, opts.StorerCacheSize), nil, nil
	}

	dotGitFS, err := scopedFS.Chroot(".git")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access .git directory: %w", err)
	}

	return fsbridge.NewStorage(dotGitFS, opts.StorerCacheSize), scopedFS, nil
}

func newRepo(repo *git.Repository, opts *Options) (*Repo, error) {
	r := &Repo{
		repo:    repo,
		fs:      opts.FS,
		options: *opts,
	}

	if !opts.Bare {
		worktree, err := repo.Worktree()
		if err != nil {
			return nil, WrapError(err, "failed to get worktree")
		}
		r.worktree = worktree
	}

	return r, nil
}

// Head returns the full hash of the commit HEAD points to.
// Returns ErrResolveFailed for a repository without commits.
func (r *Repo) Head(ctx context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", WrapError(ErrResolveFailed, "HEAD has no commits")
		}
		return "", WrapError(err, "failed to resolve HEAD")
	}
	return head.Hash().String(), nil
}

// CurrentBranch returns the short name of the checked-out branch.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", WrapError(ErrResolveFailed, "failed to resolve HEAD")
	}
	if !head.Name().IsBranch() {
		return "", WrapError(ErrResolveFailed, "HEAD is detached")
	}
	return head.Name().Short(), nil
}

// AddRemote registers a remote with a single URL.
func (r *Repo) AddRemote(ctx context.Context, name, url string) error {
	if name == "" || url == "" {
		return WrapError(ErrInvalidRef, "remote name and URL are required")
	}

	_, err := r.repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}})
	if err != nil {
		return WrapErrorf(err, "failed to add remote %q", name)
	}
	return nil
}

// RemoteURL returns the first URL configured for remote.
// An empty remote name means DefaultRemoteName.
func (r *Repo) RemoteURL(ctx context.Context, remote string) (string, error) {
	if remote == "" {
		remote = DefaultRemoteName
	}

	rem, err := r.repo.Remote(remote)
	if err != nil {
		return "", WrapErrorf(ErrResolveFailed, "remote %q not found", remote)
	}

	urls := rem.Config().URLs
	if len(urls) == 0 {
		return "", WrapErrorf(ErrResolveFailed, "remote %q has no URL", remote)
	}
	return urls[0], nil
}

// Identity returns the signature used for tags and, absent an explicit
// author, for commits made on behalf of the release.
func (r *Repo) Identity() Signature {
	return r.tagger()
}

// tagger returns the identity used to sign annotated tags.
func (r *Repo) tagger() Signature {
	if r.options.Tagger != nil {
		sig := *r.options.Tagger
		if sig.When.IsZero() {
			sig.When = time.Now()
		}
		return sig
	}

	sig := fallbackTagger
	if cfg, err := r.repo.ConfigScoped(config.GlobalScope); err == nil {
		if cfg.User.Name != "" && cfg.User.Email != "" {
			sig.Name, sig.Email = cfg.User.Name, cfg.User.Email
		}
	}
	sig.When = time.Now()
	return sig
}
