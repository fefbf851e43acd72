package pipeline

import (
	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/version"
)

// Mode selects what a run does. The zero value builds and deploys the next
// patch version when the project changed.
type Mode struct {
	Version version.Request

	// Check reports the resolved version and change state without side effects.
	Check bool

	// Force builds even when nothing changed since the last build.
	Force bool

	// BuildOnly skips deployment.
	BuildOnly bool

	// Release tags, pushes and reconciles the remote release.
	Release bool

	// GitOnly tags and pushes without a remote release.
	GitOnly bool

	// ForceRelease recreates an existing remote release. Implies Release.
	ForceRelease bool

	// CleanupTags prunes local tags that have no remote release and exits.
	CleanupTags bool

	// DryRun lists what CleanupTags would prune.
	DryRun bool
}

// Validate rejects contradictory flag combinations.
func (m Mode) Validate() error {
	if m.GitOnly && (m.Release || m.ForceRelease) {
		return perrors.New(perrors.CodeInvalidConfig, "pipeline", "--git-only cannot be combined with --release or --force-release")
	}
	if m.DryRun && !m.CleanupTags {
		return perrors.New(perrors.CodeInvalidConfig, "pipeline", "--dry-run is only valid with --cleanup-tags")
	}
	if m.Check && m.CleanupTags {
		return perrors.New(perrors.CodeInvalidConfig, "pipeline", "--check cannot be combined with --cleanup-tags")
	}
	return nil
}

func (m Mode) publishes() bool {
	return !m.Check && (m.Release || m.GitOnly || m.ForceRelease)
}

func (m Mode) wantsRelease() bool {
	return !m.Check && !m.GitOnly && (m.Release || m.ForceRelease)
}

func (m Mode) needsTagger() bool {
	return m.publishes() || m.CleanupTags
}

func (m Mode) needsDeployer() bool {
	return !m.Check && !m.BuildOnly && !m.CleanupTags
}
