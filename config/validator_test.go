package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/Staticpast/WeatherVoting/errors"
)

func validConfig() *Config {
	return &Config{
		ProjectDir: ".",
		Project:    ProjectConfig{Descriptor: "pom.xml"},
		Snapshot:   SnapshotConfig{Roots: []string{"src"}, Extensions: []string{".java"}},
		Build:      BuildConfig{Program: "mvn", ArtifactExt: "jar"},
		Log:        LogConfig{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:   "nothing tracked",
			mutate: func(c *Config) { c.Snapshot.Roots = nil },
			errMsg: "snapshot tracks nothing",
		},
		{
			name:   "extension without dot",
			mutate: func(c *Config) { c.Snapshot.Extensions = []string{"java"} },
			errMsg: `"java" must start with a dot`,
		},
		{
			name:   "dotted artifact extension",
			mutate: func(c *Config) { c.Build.ArtifactExt = ".jar" },
			errMsg: "build.artifact_ext",
		},
		{
			name:   "prefix without bucket",
			mutate: func(c *Config) { c.Deploy.S3.Prefix = "plugins" },
			errMsg: "deploy.s3.prefix",
		},
		{
			name:   "author name without email",
			mutate: func(c *Config) { c.Git.AuthorName = "Release Bot" },
			errMsg: "must be set together",
		},
		{
			name:   "repository not owner/name",
			mutate: func(c *Config) { c.Release.Repository = "WeatherVoting" },
			errMsg: "is not owner/name",
		},
		{
			name:   "secret key without secret",
			mutate: func(c *Config) { c.Release.TokenSecretKey = "token" },
			errMsg: "release.token_secret_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, perrors.HasCode(err, perrors.CodeInvalidConfig))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Build.Program = ""
	cfg.Log.Level = "verbose"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build.program must not be empty")
	assert.Contains(t, err.Error(), `log.level "verbose"`)
}

func TestValidateDeploy(t *testing.T) {
	cfg := validConfig()
	cfg.Deploy.Dir = "server/plugins"
	require.NoError(t, cfg.ValidateDeploy())

	for _, dir := range []string{"", "  "} {
		cfg.Deploy.Dir = dir
		require.NoError(t, cfg.Validate(), "only deploying modes need a slot directory")

		err := cfg.ValidateDeploy()
		require.Error(t, err)
		assert.True(t, perrors.HasCode(err, perrors.CodeInvalidConfig))
		assert.Contains(t, err.Error(), "deploy.dir must not be empty")
	}
}
