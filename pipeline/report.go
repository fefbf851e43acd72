package pipeline

import (
	"fmt"
	"strings"

	"github.com/Staticpast/WeatherVoting/build"
	"github.com/Staticpast/WeatherVoting/deploy"
	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/release"
	"github.com/Staticpast/WeatherVoting/version"
)

// Stage is the last stage a run completed.
type Stage string

const (
	StageChecked   Stage = "checked"
	StageUnchanged Stage = "unchanged"
	StageBuilt     Stage = "built"
	StageDeployed  Stage = "deployed"
	StageTagged    Stage = "tagged"
	StageReleased  Stage = "released"
	StageCleaned   Stage = "cleaned"
)

// Report summarises a run for the command line.
type Report struct {
	Project  string
	Previous version.State
	Version  version.State
	Changed  bool
	Digest   string
	Stage    Stage

	Artifact  *build.Artifact
	Deploy    *deploy.Result
	Tag       string
	Committed bool
	Release   *release.Result
	Pruned    []string

	// Warnings holds the recoverable and informational outcomes of the run.
	Warnings []error
}

// record keeps a non-fatal failure as a warning. It reports false when the
// outcome is fatal.
func (r *Report) record(out perrors.Outcome) bool {
	if out.Fatal() {
		return false
	}
	if !out.OK() {
		r.Warnings = append(r.Warnings, out.Err)
	}
	return true
}

// Summary returns the human-readable lines printed at the end of a run.
func (r *Report) Summary() []string {
	var lines []string
	switch r.Stage {
	case StageCleaned:
		if len(r.Pruned) == 0 {
			return []string{"no unpublished tags"}
		}
		return []string{"pruned tags: " + strings.Join(r.Pruned, ", ")}
	case StageChecked:
		lines = append(lines,
			fmt.Sprintf("project: %s", r.Project),
			fmt.Sprintf("current version: %s", r.Previous),
			fmt.Sprintf("next version: %s", r.Version),
			fmt.Sprintf("changed: %t", r.Changed),
		)
		return lines
	case StageUnchanged:
		return []string{fmt.Sprintf("%s %s is up to date", r.Project, r.Version)}
	}

	if r.Artifact != nil {
		lines = append(lines, fmt.Sprintf("built %s", r.Artifact.Path))
	}
	if r.Deploy != nil {
		lines = append(lines, fmt.Sprintf("deployed %s", r.Deploy.Installed))
		if len(r.Deploy.Removed) > 0 {
			lines = append(lines, fmt.Sprintf("removed %s", strings.Join(r.Deploy.Removed, ", ")))
		}
		if r.Deploy.Mirrored != "" {
			lines = append(lines, fmt.Sprintf("mirrored to %s", r.Deploy.Mirrored))
		}
	}
	if r.Tag != "" {
		lines = append(lines, fmt.Sprintf("tagged %s", r.Tag))
	}
	if r.Release != nil && r.Release.Record != nil {
		lines = append(lines, fmt.Sprintf("release %s: %s", r.Release.Action, r.Release.Record.URL))
	}
	for _, w := range r.Warnings {
		lines = append(lines, "warning: "+w.Error())
	}
	return lines
}
