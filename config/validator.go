package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"

	perrors "github.com/Staticpast/WeatherVoting/errors"
)

// Validate checks field formats and combinations. All problems are reported
// in one INVALID_CONFIGURATION error.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.ProjectDir) == "" {
		problems = append(problems, "project_dir must not be empty")
	}
	if c.Project.Descriptor == "" {
		problems = append(problems, "project.descriptor must not be empty")
	}
	if len(c.Snapshot.Roots) == 0 && len(c.Snapshot.Files) == 0 {
		problems = append(problems, "snapshot tracks nothing: set snapshot.roots or snapshot.files")
	}
	for _, ext := range c.Snapshot.Extensions {
		if !strings.HasPrefix(ext, ".") {
			problems = append(problems, fmt.Sprintf("snapshot.extensions: %q must start with a dot", ext))
		}
	}

	if c.Build.Program == "" {
		problems = append(problems, "build.program must not be empty")
	}
	if c.Build.ArtifactExt == "" || strings.HasPrefix(c.Build.ArtifactExt, ".") {
		problems = append(problems, fmt.Sprintf("build.artifact_ext %q must be a bare extension such as \"jar\"", c.Build.ArtifactExt))
	}

	if c.Deploy.S3.Bucket == "" && c.Deploy.S3.Prefix != "" {
		problems = append(problems, "deploy.s3.prefix is set without deploy.s3.bucket")
	}

	if (c.Git.AuthorName == "") != (c.Git.AuthorEmail == "") {
		problems = append(problems, "git.author_name and git.author_email must be set together")
	}

	if r := c.Release.Repository; r != "" {
		if parts := strings.Split(r, "/"); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			problems = append(problems, fmt.Sprintf("release.repository %q is not owner/name", r))
		}
	}
	if c.Release.TokenSecretKey != "" && c.Release.TokenSecret == "" {
		problems = append(problems, "release.token_secret_key is set without release.token_secret")
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level %q is not a valid level", c.Log.Level))
	}

	return failed(problems)
}

// ValidateDeploy checks the settings only deploying modes read. Load does not
// call it since check, build-only and cleanup runs never touch the slot.
func (c *Config) ValidateDeploy() error {
	var problems []string
	if strings.TrimSpace(c.Deploy.Dir) == "" {
		problems = append(problems, "deploy.dir must not be empty")
	}
	return failed(problems)
}

func failed(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return perrors.Newf(
		perrors.CodeInvalidConfig,
		"config",
		"configuration validation failed: %s",
		strings.Join(problems, "; "),
	)
}
