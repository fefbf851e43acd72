package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fsb "github.com/Staticpast/WeatherVoting/fs/billy"
	"github.com/Staticpast/WeatherVoting/git"
	"github.com/Staticpast/WeatherVoting/git/gittest"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    git.Options
		wantErr bool
	}{
		{"valid", git.Options{FS: fsb.NewInMemoryFS()}, false},
		{"missing fs", git.Options{}, true},
		{"negative cache", git.Options{FS: fsb.NewInMemoryFS(), StorerCacheSize: -1}, true},
		{"incomplete tagger", git.Options{FS: fsb.NewInMemoryFS(), Tagger: &git.Signature{Name: "x"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, git.ErrInvalidRef)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOpenExisting(t *testing.T) {
	ctx := context.Background()
	_, fsys := gittest.NewRepo(t, nil)

	repo, err := git.Open(ctx, &git.Options{FS: fsys})
	require.NoError(t, err)

	head, err := repo.Head(ctx)
	require.NoError(t, err)
	assert.Len(t, head, 40)

	branch, err := repo.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestOpenMissingRepository(t *testing.T) {
	_, err := git.Open(context.Background(), &git.Options{FS: fsb.NewInMemoryFS()})
	assert.ErrorIs(t, err, git.ErrNotRepository)
}

func TestHeadWithoutCommits(t *testing.T) {
	ctx := context.Background()
	repo, err := git.Init(ctx, &git.Options{FS: fsb.NewInMemoryFS()})
	require.NoError(t, err)

	_, err = repo.Head(ctx)
	assert.ErrorIs(t, err, git.ErrResolveFailed)
}

func TestRemoteURL(t *testing.T) {
	ctx := context.Background()
	repo, _ := gittest.NewRepo(t, nil)

	_, err := repo.RemoteURL(ctx, "")
	assert.ErrorIs(t, err, git.ErrResolveFailed)

	require.NoError(t, repo.AddRemote(ctx, git.DefaultRemoteName, "https://github.com/Staticpast/WeatherVoting.git"))

	url, err := repo.RemoteURL(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/Staticpast/WeatherVoting.git", url)

	assert.ErrorIs(t, repo.AddRemote(ctx, "", ""), git.ErrInvalidRef)
}
