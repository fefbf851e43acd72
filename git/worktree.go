package git

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/Staticpast/WeatherVoting/git/internal/fsbridge"
)

// Add stages files in the worktree for the next commit.
// Glob patterns are expanded; paths that do not exist are silently ignored
// (matching git add behavior for pathspecs that match nothing).
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	if r.worktree == nil {
		return WrapError(ErrInvalidRef, "cannot add files in bare repository")
	}

	if len(paths) == 0 {
		return nil
	}

	billyFS, err := fsbridge.ToBillyFilesystem(r.fs)
	if err != nil {
		return WrapError(err, "failed to convert filesystem for glob operations")
	}

	workdirFS, err := billyFS.Chroot(r.options.Workdir)
	if err != nil {
		return WrapErrorf(err, "failed to chroot to workdir %q", r.options.Workdir)
	}

	var pathsToAdd []string
	for _, path := range paths {
		if path == "" {
			continue
		}

		if strings.ContainsAny(path, "*?[") {
			matches, globErr := util.Glob(workdirFS, path)
			if globErr != nil {
				return WrapErrorf(globErr, "invalid glob pattern %q", path)
			}
			pathsToAdd = append(pathsToAdd, matches...)
			continue
		}

		if _, statErr := workdirFS.Stat(path); statErr == nil {
			pathsToAdd = append(pathsToAdd, path)
		}
	}

	for _, path := range pathsToAdd {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.worktree.Add(path); err != nil {
			return WrapErrorf(err, "failed to add path %q", path)
		}
	}

	return nil
}

// IsClean reports whether the worktree has no staged, modified or untracked files.
func (r *Repo) IsClean(ctx context.Context) (bool, error) {
	if r.worktree == nil {
		return false, WrapError(ErrInvalidRef, "bare repository has no worktree")
	}

	status, err := r.worktree.Status()
	if err != nil {
		return false, WrapError(err, "failed to get worktree status")
	}
	return status.IsClean(), nil
}

// Commit creates a new commit with the specified message and author/committer.
// It returns the SHA of the new commit, or ErrEmptyCommit when nothing is
// staged and opts.AllowEmpty is false.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) Commit(ctx context.Context, msg string, who Signature, opts CommitOpts) (string, error) {
	if r.worktree == nil {
		return "", WrapError(ErrInvalidRef, "cannot commit in bare repository")
	}

	if msg == "" {
		return "", WrapError(ErrInvalidRef, "commit message cannot be empty")
	}

	if who.Name == "" || who.Email == "" {
		return "", WrapError(ErrInvalidRef, "committer name and email are required")
	}

	status, err := r.worktree.Status()
	if err != nil {
		return "", WrapError(err, "failed to get worktree status")
	}

	staged := 0
	for _, fileStatus := range status {
		if fileStatus.Staging != git.Untracked && fileStatus.Staging != git.Unmodified {
			staged++
		}
	}

	if staged == 0 && !opts.AllowEmpty {
		return "", WrapError(ErrEmptyCommit, "no changes staged for commit")
	}

	when := who.When
	if when.IsZero() {
		when = time.Now()
	}
	sig := &object.Signature{Name: who.Name, Email: who.Email, When: when}

	hash, err := r.worktree.Commit(msg, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: opts.AllowEmpty,
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return "", ErrEmptyCommit
		}
		return "", WrapError(err, "failed to create commit")
	}

	return hash.String(), nil
}
