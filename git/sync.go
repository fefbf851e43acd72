package git

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Push pushes the current branch to the specified remote.
// Returns ErrNotFastForward if the remote has diverged and force is false,
// and ErrAlreadyUpToDate if there is nothing to push.
//
// Context timeout/cancellation is honored during the push operation.
func (r *Repo) Push(ctx context.Context, remote string, force bool) error {
	branch, err := r.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	ref := plumbing.NewBranchReferenceName(branch)
	spec := config.RefSpec(fmt.Sprintf("%s:%s", ref, ref))
	if force {
		spec = "+" + spec
	}

	return r.push(ctx, remote, spec, force)
}

// PushTag pushes a single tag to the remote.
// Returns ErrAlreadyUpToDate if the remote already has the same tag.
//
// Context timeout/cancellation is honored during the push operation.
func (r *Repo) PushTag(ctx context.Context, remote, tag string) error {
	exists, err := r.TagExists(ctx, tag)
	if err != nil {
		return err
	}
	if !exists {
		return WrapErrorf(ErrTagMissing, "tag %q", tag)
	}

	ref := plumbing.NewTagReferenceName(tag)
	return r.push(ctx, remote, config.RefSpec(fmt.Sprintf("%s:%s", ref, ref)), false)
}

// DeleteRemoteTag removes a tag from the remote.
//
// Context timeout/cancellation is honored during the push operation.
func (r *Repo) DeleteRemoteTag(ctx context.Context, remote, tag string) error {
	if tag == "" {
		return WrapError(ErrInvalidRef, "tag name cannot be empty")
	}

	return r.push(ctx, remote, config.RefSpec(":"+plumbing.NewTagReferenceName(tag).String()), false)
}

// RemoteTags lists the tag names advertised by the remote, sorted
// alphabetically. An empty remote repository yields no tags.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) RemoteTags(ctx context.Context, remote string) ([]string, error) {
	if remote == "" {
		remote = DefaultRemoteName
	}

	rem, err := r.repo.Remote(remote)
	if err != nil {
		return nil, WrapErrorf(ErrResolveFailed, "remote %q not found", remote)
	}

	auth, err := r.authFor(rem)
	if err != nil {
		return nil, err
	}

	refs, err := rem.ListContext(ctx, &git.ListOptions{Auth: auth})
	if err != nil {
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return nil, nil
		}
		return nil, classifyRemoteError(err, "failed to list remote references")
	}

	var tags []string
	for _, ref := range refs {
		// Skip peeled entries ("v1.0.0^{}") advertised for annotated tags.
		if ref.Name().IsTag() && !strings.HasSuffix(ref.Name().String(), "^{}") {
			tags = append(tags, ref.Name().Short())
		}
	}

	sort.Strings(tags)
	return tags, nil
}

func (r *Repo) push(ctx context.Context, remote string, spec config.RefSpec, force bool) error {
	if remote == "" {
		remote = DefaultRemoteName
	}

	rem, err := r.repo.Remote(remote)
	if err != nil {
		return WrapErrorf(ErrResolveFailed, "remote %q not found", remote)
	}

	auth, err := r.authFor(rem)
	if err != nil {
		return err
	}

	err = r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{spec},
		Force:      force,
		Auth:       auth,
	})
	if err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return ErrAlreadyUpToDate
		}
		return classifyRemoteError(err, "failed to push to remote")
	}

	return nil
}

// authFor resolves credentials for the remote's first URL.
//
//nolint:ireturn // go-git consumes transport.AuthMethod
func (r *Repo) authFor(rem *git.Remote) (transport.AuthMethod, error) {
	if r.options.Auth == nil {
		return nil, nil
	}

	urls := rem.Config().URLs
	if len(urls) == 0 {
		return nil, WrapErrorf(ErrResolveFailed, "remote %q has no URL", rem.Config().Name)
	}

	method, err := r.options.Auth.Method(urls[0])
	if err != nil {
		return nil, WrapError(ErrAuthRequired, err.Error())
	}
	return method, nil
}

func classifyRemoteError(err error, msg string) error {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired):
		return WrapError(ErrAuthRequired, msg)
	case errors.Is(err, transport.ErrAuthorizationFailed):
		return WrapError(ErrAuthFailed, msg)
	case errors.Is(err, git.ErrNonFastForwardUpdate):
		return WrapError(ErrNotFastForward, msg)
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return WrapError(ErrResolveFailed, msg)
	default:
		return WrapError(err, msg)
	}
}
