package fsbridge

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Staticpast/WeatherVoting/fs"
	"github.com/Staticpast/WeatherVoting/fs/billy"
)

// foreignFS satisfies fs.Filesystem without being backed by go-billy.
type foreignFS struct {
	fs.Filesystem
}

func TestToBillyFilesystem(t *testing.T) {
	raw := memfs.New()
	project := billy.NewFS(raw)
	require.NoError(t, project.WriteFile("pom.xml", []byte("<project/>"), 0o644))

	got, err := ToBillyFilesystem(project)
	require.NoError(t, err)
	assert.Same(t, raw, got)

	data, err := util.ReadFile(got, "pom.xml")
	require.NoError(t, err)
	assert.Equal(t, "<project/>", string(data), "writes through the wrapper are visible to git")
}

func TestToBillyFilesystemRejectsForeign(t *testing.T) {
	got, err := ToBillyFilesystem(foreignFS{})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "fsbridge.foreignFS")
}
