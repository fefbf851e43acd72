package git

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Commit is a summary of one commit used for release notes.
type Commit struct {
	Hash    string
	Subject string
	Message string
	Author  string
	When    time.Time
}

// ShortHash returns the first seven characters of the hash.
func (c Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// CommitsBetween returns the commits reachable from to but not from from,
// newest first. An empty from yields the whole history of to.
//
// Context timeout/cancellation is honored during the walk.
func (r *Repo) CommitsBetween(ctx context.Context, from, to string) ([]Commit, error) {
	if to == "" {
		return nil, WrapError(ErrInvalidRef, "target revision cannot be empty")
	}

	toHash, err := r.repo.ResolveRevision(plumbing.Revision(to))
	if err != nil {
		return nil, WrapErrorf(ErrResolveFailed, "failed to resolve %q", to)
	}

	exclude := map[plumbing.Hash]struct{}{}
	if from != "" {
		fromHash, resolveErr := r.repo.ResolveRevision(plumbing.Revision(from))
		if resolveErr != nil {
			return nil, WrapErrorf(ErrResolveFailed, "failed to resolve %q", from)
		}
		err = r.walk(ctx, *fromHash, func(c *object.Commit) error {
			exclude[c.Hash] = struct{}{}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	var commits []Commit
	err = r.walk(ctx, *toHash, func(c *object.Commit) error {
		if _, seen := exclude[c.Hash]; seen {
			return nil
		}
		commits = append(commits, summarize(c))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return commits, nil
}

// walk visits every commit reachable from start, newest first.
func (r *Repo) walk(ctx context.Context, start plumbing.Hash, fn func(*object.Commit) error) error {
	iter, err := r.repo.Log(&git.LogOptions{From: start})
	if err != nil {
		return WrapError(err, "failed to read history")
	}
	defer iter.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return WrapError(err, "failed to iterate commits")
		}
		if err := fn(c); err != nil {
			return err
		}
	}
}

func summarize(c *object.Commit) Commit {
	msg := strings.TrimSpace(c.Message)
	subject, _, _ := strings.Cut(msg, "\n")
	return Commit{
		Hash:    c.Hash.String(),
		Subject: strings.TrimSpace(subject),
		Message: msg,
		Author:  c.Author.Name,
		When:    c.Author.When,
	}
}
