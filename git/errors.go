package git

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped) by Repo operations. Check them with errors.Is.

// ErrAlreadyUpToDate is returned when a push changes nothing on the remote.
var ErrAlreadyUpToDate = errors.New("already up to date")

// ErrAuthRequired is returned when the remote needs credentials that the
// configured AuthProvider could not supply.
var ErrAuthRequired = errors.New("authentication required")

// ErrAuthFailed is returned when the remote rejected the supplied credentials.
var ErrAuthFailed = errors.New("authentication failed")

// ErrTagExists is returned when creating a tag whose name is already taken.
var ErrTagExists = errors.New("tag already exists")

// ErrTagMissing is returned when operating on a tag that does not exist.
var ErrTagMissing = errors.New("tag does not exist")

// ErrNotFastForward is returned when the remote rejects a non fast-forward update.
var ErrNotFastForward = errors.New("not a fast-forward")

// ErrInvalidRef is returned for malformed arguments such as empty tag names.
var ErrInvalidRef = errors.New("invalid reference")

// ErrResolveFailed is returned when a revision or remote cannot be resolved.
var ErrResolveFailed = errors.New("cannot resolve revision")

// ErrEmptyCommit is returned by Commit when nothing is staged.
var ErrEmptyCommit = errors.New("nothing to commit")

// ErrNotRepository is returned by Open when no repository exists at the workdir.
var ErrNotRepository = errors.New("not a git repository")

// WrapError wraps err with msg, preserving errors.Is matching.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf is WrapError with a format string.
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
