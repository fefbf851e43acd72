// Package version parses, validates and advances the project's semantic version.
//
// Versions are strictly three dot-separated non-negative integers. Prerelease
// suffixes, build metadata and a leading "v" are rejected, because the version
// is written verbatim into the descriptor, the artifact name and the tag.
package version

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	perrors "github.com/Staticpast/WeatherVoting/errors"
)

// TagPrefix is prepended to a version to form its tag name.
const TagPrefix = "v"

var strictPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Level selects which component Increment advances.
type Level string

const (
	Patch Level = "patch"
	Minor Level = "minor"
	Major Level = "major"
)

// ParseLevel validates a level name. Matching is case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case Patch, Minor, Major:
		return l, nil
	default:
		return "", perrors.Newf(
			perrors.CodeInvalidVersionLevel,
			"version",
			"invalid version level %q (expected patch, minor or major)",
			s,
		)
	}
}

// State is a validated major.minor.patch version.
type State struct {
	v *semver.Version
}

// Parse validates s and returns its State.
func Parse(s string) (State, error) {
	raw := strings.TrimSpace(s)
	if !strictPattern.MatchString(raw) {
		return State{}, perrors.Newf(
			perrors.CodeVersionFormat,
			"version",
			"%q is not a major.minor.patch version",
			s,
		)
	}
	v, err := semver.StrictNewVersion(raw)
	if err != nil {
		return State{}, perrors.Wrapf(err, perrors.CodeVersionFormat, "version", "parse %q", s)
	}
	return State{v: v}, nil
}

// MustParse is Parse for constants in tests and defaults. It panics on error.
func MustParse(s string) State {
	st, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return st
}

// Override validates an explicitly requested version, bypassing any increment.
func Override(s string) (State, error) {
	st, err := Parse(s)
	if err != nil {
		return State{}, perrors.Wrap(err, perrors.CodeVersionFormat, "version", "invalid version override")
	}
	return st, nil
}

// Increment advances s by level.
func Increment(s State, level Level) (State, error) {
	if s.v == nil {
		return State{}, perrors.New(perrors.CodeVersionFormat, "version", "cannot increment an empty version")
	}

	var next semver.Version
	switch level {
	case Patch:
		next = s.v.IncPatch()
	case Minor:
		next = s.v.IncMinor()
	case Major:
		next = s.v.IncMajor()
	default:
		_, err := ParseLevel(string(level))
		return State{}, err
	}
	return State{v: &next}, nil
}

// Major returns the major component.
func (s State) Major() uint64 { return s.v.Major() }

// Minor returns the minor component.
func (s State) Minor() uint64 { return s.v.Minor() }

// Patch returns the patch component.
func (s State) Patch() uint64 { return s.v.Patch() }

// IsZero reports whether s holds no version.
func (s State) IsZero() bool { return s.v == nil }

// String renders major.minor.patch.
func (s State) String() string {
	if s.v == nil {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d", s.v.Major(), s.v.Minor(), s.v.Patch())
}

// Tag returns the release tag name, "v<major.minor.patch>".
func (s State) Tag() string {
	return TagPrefix + s.String()
}

// Equal reports whether both states hold the same version.
func (s State) Equal(o State) bool {
	if s.v == nil || o.v == nil {
		return s.v == o.v
	}
	return s.v.Equal(o.v)
}

// LessThan orders versions.
func (s State) LessThan(o State) bool {
	if s.v == nil || o.v == nil {
		return s.v == nil && o.v != nil
	}
	return s.v.LessThan(o.v)
}

// Semver exposes the underlying version for constraint checks.
func (s State) Semver() *semver.Version {
	return s.v
}

// FromTag parses a "v1.2.3" tag name. ok is false for tags that are not versions.
func FromTag(tag string) (State, bool) {
	if !strings.HasPrefix(tag, TagPrefix) {
		return State{}, false
	}
	st, err := Parse(strings.TrimPrefix(tag, TagPrefix))
	if err != nil {
		return State{}, false
	}
	return st, true
}
