package deploy_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Staticpast/WeatherVoting/build"
	"github.com/Staticpast/WeatherVoting/deploy"
	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/fs"
	fsb "github.com/Staticpast/WeatherVoting/fs/billy"
	"github.com/Staticpast/WeatherVoting/version"
)

var slot = deploy.Slot{Dir: "/srv/minecraft/plugins", Glob: "WeatherVoting-*", Ext: "jar"}

func artifact(t *testing.T, src *fsb.FS, v string) *build.Artifact {
	t.Helper()
	a := &build.Artifact{
		Name:    "WeatherVoting",
		Version: version.MustParse(v),
		Path:    "target/WeatherVoting-" + v + ".jar",
	}
	require.NoError(t, src.WriteFile(a.Path, []byte("jar "+v), 0o644))
	return a
}

func slotFiles(t *testing.T, dst *fsb.FS) []string {
	t.Helper()
	matches, err := dst.Glob(filepath.Join(slot.Dir, slot.Pattern()))
	require.NoError(t, err)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	return names
}

func TestSlotPattern(t *testing.T) {
	assert.Equal(t, "WeatherVoting-*.jar", slot.Pattern())
}

func TestDeployVersionlessFinalName(t *testing.T) {
	src, dst := fsb.NewInMemoryFS(), fsb.NewInMemoryFS()
	fixed := deploy.Slot{Dir: slot.Dir, Glob: "WeatherVoting", Ext: "jar"}
	require.NoError(t, dst.WriteFile(filepath.Join(fixed.Dir, "WeatherVoting.jar"), []byte("old"), 0o644))
	require.NoError(t, dst.WriteFile(filepath.Join(fixed.Dir, "WeatherVotingAddon.jar"), []byte("x"), 0o644))

	a := &build.Artifact{Name: "WeatherVoting", Version: version.MustParse("1.3.0"), Path: "target/WeatherVoting.jar"}
	require.NoError(t, src.WriteFile(a.Path, []byte("jar 1.3.0"), 0o644))

	res, err := deploy.New(src, dst).Deploy(context.Background(), a, fixed)
	require.NoError(t, err)
	assert.Equal(t, []string{"WeatherVoting.jar"}, res.Removed)
	assert.Equal(t, "WeatherVoting.jar", res.Installed)

	addon, err := dst.Exists(filepath.Join(fixed.Dir, "WeatherVotingAddon.jar"))
	require.NoError(t, err)
	assert.True(t, addon)
}

func TestDeployLeavesExactlyOneArtifact(t *testing.T) {
	src, dst := fsb.NewInMemoryFS(), fsb.NewInMemoryFS()
	for _, old := range []string{"WeatherVoting-1.2.2.jar", "WeatherVoting-1.2.3.jar"} {
		require.NoError(t, dst.WriteFile(filepath.Join(slot.Dir, old), []byte("old"), 0o644))
	}
	require.NoError(t, dst.WriteFile(filepath.Join(slot.Dir, "OtherPlugin-1.0.jar"), []byte("x"), 0o644))

	d := deploy.New(src, dst, deploy.WithLogger(zaptest.NewLogger(t)))
	res, err := d.Deploy(context.Background(), artifact(t, src, "1.3.0"), slot)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"WeatherVoting-1.2.2.jar", "WeatherVoting-1.2.3.jar"}, res.Removed)
	assert.Equal(t, "WeatherVoting-1.3.0.jar", res.Installed)
	assert.Equal(t, []string{"WeatherVoting-1.3.0.jar"}, slotFiles(t, dst))

	data, err := dst.ReadFile(filepath.Join(slot.Dir, "WeatherVoting-1.3.0.jar"))
	require.NoError(t, err)
	assert.Equal(t, "jar 1.3.0", string(data))

	other, err := dst.Exists(filepath.Join(slot.Dir, "OtherPlugin-1.0.jar"))
	require.NoError(t, err)
	assert.True(t, other, "unrelated plugins stay")
}

func TestDeployIsIdempotentForSameVersion(t *testing.T) {
	src, dst := fsb.NewInMemoryFS(), fsb.NewInMemoryFS()
	d := deploy.New(src, dst)
	a := artifact(t, src, "1.3.0")

	for i := 0; i < 2; i++ {
		_, err := d.Deploy(context.Background(), a, slot)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"WeatherVoting-1.3.0.jar"}, slotFiles(t, dst))
}

func TestClearStaleCreatesDirectory(t *testing.T) {
	dst := fsb.NewInMemoryFS()
	d := deploy.New(fsb.NewInMemoryFS(), dst)

	removed, err := d.ClearStale(slot)
	require.NoError(t, err)
	assert.Empty(t, removed)

	ok, err := dst.Exists(slot.Dir)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInstallMissingArtifact(t *testing.T) {
	d := deploy.New(fsb.NewInMemoryFS(), fsb.NewInMemoryFS())

	_, err := d.Install(&build.Artifact{Name: "WeatherVoting", Path: "target/WeatherVoting-9.9.9.jar"}, slot)
	assert.Equal(t, perrors.CodeArtifactNotFound, perrors.CodeOf(err))
}

// unreadableFS fails every existence check.
type unreadableFS struct {
	fs.Filesystem
	err error
}

func (u unreadableFS) Exists(string) (bool, error) {
	return false, u.err
}

func TestInstallStatFailure(t *testing.T) {
	cause := errors.New("input/output error")
	d := deploy.New(unreadableFS{Filesystem: fsb.NewInMemoryFS(), err: cause}, fsb.NewInMemoryFS())

	_, err := d.Install(&build.Artifact{Name: "WeatherVoting", Path: "target/WeatherVoting-1.3.0.jar"}, slot)
	require.Error(t, err)
	assert.Equal(t, perrors.CodeDeployFailed, perrors.CodeOf(err))
	assert.ErrorIs(t, err, cause)
}

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestDeployWithS3Mirror(t *testing.T) {
	src, dst := fsb.NewInMemoryFS(), fsb.NewInMemoryFS()
	client := &fakeS3{}
	mirror := deploy.NewS3Mirror(client, "plugin-artifacts", "/weathervoting/", nil)
	d := deploy.New(src, dst, deploy.WithMirror(mirror))

	res, err := d.Deploy(context.Background(), artifact(t, src, "1.3.0"), slot)
	require.NoError(t, err)

	assert.Equal(t, "s3://plugin-artifacts/weathervoting/WeatherVoting-1.3.0.jar", res.Mirrored)
	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "plugin-artifacts", aws.ToString(in.Bucket))
	assert.Equal(t, "weathervoting/WeatherVoting-1.3.0.jar", aws.ToString(in.Key))
	assert.NotEmpty(t, aws.ToString(in.ContentType))
	assert.Equal(t, "1.3.0", in.Metadata["version"])
	assert.Equal(t, "jar 1.3.0", client.bodies[0], "content type sniffing rewinds the body")
}

func TestS3MirrorFailure(t *testing.T) {
	src := fsb.NewInMemoryFS()
	mirror := deploy.NewS3Mirror(&fakeS3{err: errors.New("AccessDenied")}, "bucket", "", nil)

	_, err := mirror.Publish(context.Background(), artifact(t, src, "1.3.0"), src)
	require.Error(t, err)
	assert.Equal(t, perrors.CodeDeployFailed, perrors.CodeOf(err))
	assert.Equal(t, "WeatherVoting-1.3.0.jar", mirror.Key("WeatherVoting-1.3.0.jar"))
}
