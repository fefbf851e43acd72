package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Staticpast/WeatherVoting/git"
	"github.com/Staticpast/WeatherVoting/git/gittest"
)

func TestCommitsBetween(t *testing.T) {
	ctx := context.Background()
	repo, fsys := gittest.NewRepo(t, nil)
	require.NoError(t, repo.CreateTag(ctx, "v1.0.0", "HEAD", "WeatherVoting v1.0.0", true))

	gittest.Commit(t, repo, fsys, "feat(vote): add weather vote timeout", map[string]string{"a.txt": "a"})
	gittest.Commit(t, repo, fsys, "fix: handle empty ballot\n\nCloses #12", map[string]string{"b.txt": "b"})

	commits, err := repo.CommitsBetween(ctx, "v1.0.0", "HEAD")
	require.NoError(t, err)
	require.Len(t, commits, 2)

	assert.Equal(t, "fix: handle empty ballot", commits[0].Subject)
	assert.Equal(t, "fix: handle empty ballot\n\nCloses #12", commits[0].Message)
	assert.Equal(t, "feat(vote): add weather vote timeout", commits[1].Subject)
	assert.Equal(t, gittest.Tagger.Name, commits[1].Author)
	assert.Len(t, commits[0].ShortHash(), 7)

	all, err := repo.CommitsBetween(ctx, "", "HEAD")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCommitsBetweenInvalid(t *testing.T) {
	ctx := context.Background()
	repo, _ := gittest.NewRepo(t, nil)

	_, err := repo.CommitsBetween(ctx, "", "")
	assert.ErrorIs(t, err, git.ErrInvalidRef)

	_, err = repo.CommitsBetween(ctx, "v0.0.1", "HEAD")
	assert.ErrorIs(t, err, git.ErrResolveFailed)
}
