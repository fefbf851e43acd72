package config

import (
	"path/filepath"
)

// Path resolves p against the project directory. Absolute paths are kept.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

// TokenEnv returns the environment variables searched for the GitHub token.
func (c *Config) TokenEnv() []string {
	var vars []string
	for _, v := range c.Release.TokenEnv {
		if v != "" {
			vars = append(vars, v)
		}
	}
	return vars
}

// HasAuthor reports whether an explicit commit and tag identity is configured.
func (c *Config) HasAuthor() bool {
	return c.Git.AuthorName != "" && c.Git.AuthorEmail != ""
}
