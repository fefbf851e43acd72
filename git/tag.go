package git

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TagFilter is a predicate function for filtering tags.
// A tag is kept only if every filter returns true.
type TagFilter func(name string, ref *plumbing.Reference) bool

// CreateTag creates a new tag at the specified target revision.
// With annotated set and a non-empty message an annotated tag signed by the
// configured tagger is created; otherwise a lightweight tag.
// Returns ErrTagExists if the name is taken.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) CreateTag(ctx context.Context, name, target, message string, annotated bool) error {
	if name == "" {
		return WrapError(ErrInvalidRef, "tag name cannot be empty")
	}

	if target == "" {
		return WrapError(ErrInvalidRef, "target revision cannot be empty")
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(target))
	if err != nil {
		return WrapErrorf(ErrResolveFailed, "failed to resolve %q", target)
	}

	exists, err := r.TagExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return WrapErrorf(ErrTagExists, "tag %q", name)
	}

	if annotated && message != "" {
		who := r.tagger()
		_, err = r.repo.CreateTag(name, *hash, &git.CreateTagOptions{
			Tagger: &object.Signature{
				Name:  who.Name,
				Email: who.Email,
				When:  who.When,
			},
			Message: message,
		})
		if err != nil {
			return WrapError(err, "failed to create annotated tag")
		}
		return nil
	}

	tagRef := plumbing.NewHashReference(plumbing.NewTagReferenceName(name), *hash)
	if err := r.repo.Storer.SetReference(tagRef); err != nil {
		return WrapError(err, "failed to create lightweight tag")
	}

	return nil
}

// TagExists reports whether a local tag with the given name exists.
func (r *Repo) TagExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, WrapError(ErrInvalidRef, "tag name cannot be empty")
	}

	_, err := r.repo.Reference(plumbing.NewTagReferenceName(name), true)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	return false, WrapErrorf(err, "failed to look up tag %q", name)
}

// TagTarget returns the hash of the commit a tag points to, peeling
// annotated tag objects. Returns ErrTagMissing if the tag does not exist.
func (r *Repo) TagTarget(ctx context.Context, name string) (string, error) {
	ref, err := r.repo.Reference(plumbing.NewTagReferenceName(name), true)
	if err != nil {
		return "", WrapErrorf(ErrTagMissing, "tag %q", name)
	}

	tagObj, err := r.repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		commit, commitErr := tagObj.Commit()
		if commitErr != nil {
			return "", WrapErrorf(commitErr, "tag %q does not point to a commit", name)
		}
		return commit.Hash.String(), nil
	case errors.Is(err, plumbing.ErrObjectNotFound):
		// Lightweight tag: the reference already names the commit.
		return ref.Hash().String(), nil
	default:
		return "", WrapErrorf(err, "failed to read tag %q", name)
	}
}

// DeleteTag deletes the specified local tag.
// Returns ErrTagMissing if the tag does not exist.
func (r *Repo) DeleteTag(ctx context.Context, name string) error {
	exists, err := r.TagExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return WrapErrorf(ErrTagMissing, "tag %q", name)
	}

	if err := r.repo.DeleteTag(name); err != nil {
		return WrapErrorf(err, "failed to delete tag %q", name)
	}

	return nil
}

// Tags returns the local tags that pass all the provided filters, sorted
// alphabetically.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) Tags(ctx context.Context, filters ...TagFilter) ([]string, error) {
	refs, err := r.repo.Tags()
	if err != nil {
		return nil, WrapError(err, "failed to get tags")
	}

	var tags []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := ref.Name().Short()
		if shouldIncludeTag(name, ref, filters) {
			tags = append(tags, name)
		}
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to iterate tags")
	}

	sort.Strings(tags)
	return tags, nil
}

func shouldIncludeTag(name string, ref *plumbing.Reference, filters []TagFilter) bool {
	for _, filter := range filters {
		if filter != nil && !filter(name, ref) {
			return false
		}
	}
	return true
}

// TagPatternFilter matches tags against a shell glob such as "v1.*".
// An empty or malformed pattern matches nothing but the empty pattern, which
// matches everything.
func TagPatternFilter(pattern string) TagFilter {
	return func(name string, _ *plumbing.Reference) bool {
		if pattern == "" {
			return true
		}
		ok, err := path.Match(pattern, name)
		return err == nil && ok
	}
}

// TagPrefixFilter matches tags with the given prefix, e.g. "v".
func TagPrefixFilter(prefix string) TagFilter {
	return func(name string, _ *plumbing.Reference) bool {
		return strings.HasPrefix(name, prefix)
	}
}

// TagExcludeFilter excludes tags matching the glob pattern.
func TagExcludeFilter(pattern string) TagFilter {
	include := TagPatternFilter(pattern)
	return func(name string, ref *plumbing.Reference) bool {
		return !include(name, ref)
	}
}
