// Package tagger records a release in version control: it commits the
// version bump, creates the annotated version tag and publishes it.
package tagger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/git"
	"github.com/Staticpast/WeatherVoting/version"
)

// CommitMessage is the format of the version bump commit.
const CommitMessage = "chore(release): bump version to %s"

// Repository is the subset of *git.Repo the tagger needs.
type Repository interface {
	Add(ctx context.Context, paths ...string) error
	Commit(ctx context.Context, msg string, who git.Signature, opts git.CommitOpts) (string, error)
	CreateTag(ctx context.Context, name, target, message string, annotated bool) error
	TagExists(ctx context.Context, name string) (bool, error)
	DeleteTag(ctx context.Context, name string) error
	Tags(ctx context.Context, filters ...git.TagFilter) ([]string, error)
	Push(ctx context.Context, remote string, force bool) error
	PushTag(ctx context.Context, remote, tag string) error
	RemoteTags(ctx context.Context, remote string) ([]string, error)
}

var _ Repository = (*git.Repo)(nil)

// Tagger commits, tags and pushes releases of one project.
type Tagger struct {
	repo    Repository
	project string
	remote  string
	author  git.Signature
	logger  *zap.Logger
}

// Option configures a Tagger.
type Option func(*Tagger)

// WithRemote sets the remote tags are pushed to. Defaults to origin.
func WithRemote(name string) Option {
	return func(t *Tagger) {
		if name != "" {
			t.remote = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tagger) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Tagger. author signs the version bump commit.
func New(repo Repository, project string, author git.Signature, opts ...Option) *Tagger {
	t := &Tagger{
		repo:    repo,
		project: project,
		remote:  git.DefaultRemoteName,
		author:  author,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CommitVersionBump stages files and commits them as the bump to v.
// It reports whether a commit was created; nothing staged is not an error.
func (t *Tagger) CommitVersionBump(ctx context.Context, v version.State, files ...string) (bool, error) {
	if err := t.repo.Add(ctx, files...); err != nil {
		return false, perrors.Wrap(err, perrors.CodeGitOperation, "commit", "stage version files")
	}

	hash, err := t.repo.Commit(ctx, fmt.Sprintf(CommitMessage, v), t.author, git.CommitOpts{})
	if errors.Is(err, git.ErrEmptyCommit) {
		t.logger.Info("version files unchanged, nothing to commit", zap.String("version", v.String()))
		return false, nil
	}
	if err != nil {
		return false, perrors.Wrap(err, perrors.CodeGitOperation, "commit", "commit version bump")
	}

	t.logger.Info("committed version bump", zap.String("version", v.String()), zap.String("commit", hash))
	return true, nil
}

// Tag creates the annotated tag v<version> at HEAD. An existing tag is a
// recoverable TagAlreadyExists outcome; the existing tag is left untouched.
func (t *Tagger) Tag(ctx context.Context, v version.State) perrors.Outcome {
	tag := v.Tag()

	exists, err := t.repo.TagExists(ctx, tag)
	if err != nil {
		return perrors.OutcomeOf(perrors.Wrap(err, perrors.CodeGitOperation, "tag", "look up "+tag))
	}
	if exists {
		return t.existing(tag)
	}

	err = t.repo.CreateTag(ctx, tag, "HEAD", fmt.Sprintf("%s %s", t.project, tag), true)
	switch {
	case errors.Is(err, git.ErrTagExists):
		return t.existing(tag)
	case err != nil:
		return perrors.OutcomeOf(perrors.Wrap(err, perrors.CodeGitOperation, "tag", "create "+tag))
	}

	t.logger.Info("created tag", zap.String("tag", tag))
	return perrors.Succeeded()
}

func (t *Tagger) existing(tag string) perrors.Outcome {
	t.logger.Warn("tag already exists, skipping", zap.String("tag", tag))
	return perrors.OutcomeOf(perrors.Newf(perrors.CodeTagAlreadyExists, "tag", "tag %s already exists", tag))
}

// Push publishes tag to the remote. Failure is a recoverable TagPushFailed
// outcome: the local tag stays and the pipeline continues.
func (t *Tagger) Push(ctx context.Context, tag string) perrors.Outcome {
	err := t.repo.PushTag(ctx, t.remote, tag)
	if err == nil || errors.Is(err, git.ErrAlreadyUpToDate) {
		t.logger.Info("pushed tag", zap.String("tag", tag), zap.String("remote", t.remote))
		return perrors.Succeeded()
	}

	t.logger.Warn("tag push failed", zap.String("tag", tag), zap.Error(err))
	return perrors.OutcomeOf(perrors.Wrapf(err, perrors.CodeTagPushFailed, "push", "push %s to %s", tag, t.remote))
}

// PushBranch publishes the current branch so the bump commit the tag points
// at is reachable on the remote. Failure is recoverable like Push.
func (t *Tagger) PushBranch(ctx context.Context) perrors.Outcome {
	err := t.repo.Push(ctx, t.remote, false)
	if err == nil || errors.Is(err, git.ErrAlreadyUpToDate) {
		return perrors.Succeeded()
	}

	t.logger.Warn("branch push failed", zap.Error(err))
	return perrors.OutcomeOf(perrors.Wrapf(err, perrors.CodeTagPushFailed, "push", "push branch to %s", t.remote))
}

// PruneUnpublished deletes local version tags that the remote does not have,
// the state an interrupted run leaves behind. With dryRun set it only
// reports them.
func (t *Tagger) PruneUnpublished(ctx context.Context, dryRun bool) ([]string, error) {
	local, err := t.repo.Tags(ctx, git.TagPrefixFilter(version.TagPrefix))
	if err != nil {
		return nil, perrors.Wrap(err, perrors.CodeGitOperation, "prune", "list local tags")
	}

	remote, err := t.repo.RemoteTags(ctx, t.remote)
	if err != nil {
		return nil, perrors.Wrapf(err, perrors.CodeGitOperation, "prune", "list tags on %s", t.remote)
	}

	published := make(map[string]struct{}, len(remote))
	for _, tag := range remote {
		published[tag] = struct{}{}
	}

	var pruned []string
	for _, tag := range local {
		if _, ok := version.FromTag(tag); !ok {
			continue
		}
		if _, ok := published[tag]; ok {
			continue
		}

		if !dryRun {
			if err := t.repo.DeleteTag(ctx, tag); err != nil {
				return pruned, perrors.Wrap(err, perrors.CodeGitOperation, "prune", "delete "+tag)
			}
		}
		pruned = append(pruned, tag)
		t.logger.Info("pruned unpublished tag", zap.String("tag", tag), zap.Bool("dry_run", dryRun))
	}

	return pruned, nil
}
