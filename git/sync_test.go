package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Staticpast/WeatherVoting/git"
	"github.com/Staticpast/WeatherVoting/git/gittest"
)

func TestPushTagAndListRemote(t *testing.T) {
	ctx := context.Background()
	remote := gittest.NewRemote(t)
	repo, _ := gittest.NewRepo(t, nil)
	require.NoError(t, repo.AddRemote(ctx, git.DefaultRemoteName, remote.URL))

	tags, err := repo.RemoteTags(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, tags)

	require.NoError(t, repo.Push(ctx, "", false))
	require.NoError(t, repo.CreateTag(ctx, "v1.3.0", "HEAD", "WeatherVoting v1.3.0", true))
	require.NoError(t, repo.PushTag(ctx, "", "v1.3.0"))

	assert.True(t, remote.HasTag(t, "v1.3.0"))

	tags, err = repo.RemoteTags(ctx, git.DefaultRemoteName)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.3.0"}, tags)

	assert.ErrorIs(t, repo.PushTag(ctx, "", "v1.3.0"), git.ErrAlreadyUpToDate)
}

func TestDeleteRemoteTag(t *testing.T) {
	ctx := context.Background()
	remote := gittest.NewRemote(t)
	repo, _ := gittest.NewRepo(t, nil)
	require.NoError(t, repo.AddRemote(ctx, git.DefaultRemoteName, remote.URL))

	require.NoError(t, repo.CreateTag(ctx, "v1.0.0", "HEAD", "", false))
	require.NoError(t, repo.PushTag(ctx, "", "v1.0.0"))
	require.True(t, remote.HasTag(t, "v1.0.0"))

	require.NoError(t, repo.DeleteRemoteTag(ctx, "", "v1.0.0"))
	assert.False(t, remote.HasTag(t, "v1.0.0"))
}

func TestPushErrors(t *testing.T) {
	ctx := context.Background()
	repo, _ := gittest.NewRepo(t, nil)

	assert.ErrorIs(t, repo.Push(ctx, "", false), git.ErrResolveFailed)
	assert.ErrorIs(t, repo.PushTag(ctx, "", "v9.9.9"), git.ErrTagMissing)

	_, err := repo.RemoteTags(ctx, "upstream")
	assert.ErrorIs(t, err, git.ErrResolveFailed)

	require.NoError(t, repo.AddRemote(ctx, "gone", gittest.Scheme+"://unregistered"))
	_, err = repo.RemoteTags(ctx, "gone")
	assert.Error(t, err)
}
