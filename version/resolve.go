package version

import (
	perrors "github.com/Staticpast/WeatherVoting/errors"
)

// Request captures the caller's version selection flags.
type Request struct {
	// Level is the increment level; empty means Patch.
	Level Level

	// Override is an exact version that bypasses increment.
	Override string

	// NoIncrement keeps the current version.
	NoIncrement bool
}

// Resolve computes the target version from the current one.
// Override wins over NoIncrement, which wins over Level.
func Resolve(current State, req Request) (State, error) {
	if req.Override != "" {
		return Override(req.Override)
	}
	if req.NoIncrement {
		if current.IsZero() {
			return State{}, perrors.New(perrors.CodeVersionFormat, "version", "no current version to keep")
		}
		return current, nil
	}
	level := req.Level
	if level == "" {
		level = Patch
	}
	return Increment(current, level)
}
