package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Staticpast/WeatherVoting/errors"
)

func TestErrorMessage(t *testing.T) {
	cause := fmt.Errorf("exit status 1")
	err := errors.Wrap(cause, errors.CodeBuildFailed, "build", "mvn clean package failed")

	assert.Equal(t, "build: mvn clean package failed: exit status 1", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, errors.Wrap(nil, errors.CodeBuildFailed, "build", "ignored"))
}

func TestCodeMatching(t *testing.T) {
	err := fmt.Errorf("pipeline: %w", errors.New(errors.CodeArtifactNotFound, "deploy", "missing jar"))

	assert.True(t, stderrors.Is(err, errors.Code(errors.CodeArtifactNotFound)))
	assert.False(t, stderrors.Is(err, errors.Code(errors.CodeDeployFailed)))
	assert.Equal(t, errors.CodeArtifactNotFound, errors.CodeOf(err))
	assert.True(t, errors.HasCode(err, errors.CodeArtifactNotFound))
	assert.Equal(t, errors.CodeInternal, errors.CodeOf(fmt.Errorf("plain")))
}

func TestSeverityAndExitCodes(t *testing.T) {
	tests := []struct {
		code     errors.ErrorCode
		severity errors.Severity
		exit     int
	}{
		{errors.CodeMissingDependency, errors.Fatal, 3},
		{errors.CodeVersionFormat, errors.Fatal, 4},
		{errors.CodeInvalidVersionLevel, errors.Fatal, 4},
		{errors.CodeBuildFailed, errors.Fatal, 5},
		{errors.CodeArtifactNotFound, errors.Fatal, 6},
		{errors.CodeDeployFailed, errors.Fatal, 7},
		{errors.CodeGitOperation, errors.Fatal, 8},
		{errors.CodeReleaseAuth, errors.Fatal, 9},
		{errors.CodeTagPushFailed, errors.Recoverable, 0},
		{errors.CodeTagAlreadyExists, errors.Recoverable, 0},
		{errors.CodeReleaseConflict, errors.Informational, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.severity, tt.code.Severity())
			assert.Equal(t, tt.exit, errors.ExitCode(errors.New(tt.code, "op", "msg")))
		})
	}

	assert.Equal(t, 0, errors.ExitCode(nil))
	assert.Equal(t, 1, errors.ExitCode(fmt.Errorf("untyped")))
}

func TestOutcome(t *testing.T) {
	assert.True(t, errors.Succeeded().OK())
	assert.Equal(t, "success", errors.Succeeded().String())

	warn := errors.OutcomeOf(errors.New(errors.CodeTagPushFailed, "push", "remote rejected"))
	assert.True(t, warn.Warning())
	assert.False(t, warn.Fatal())
	assert.Equal(t, "warning", warn.String())

	fatal := errors.OutcomeOf(errors.New(errors.CodeGitOperation, "tag", "cannot write ref"))
	assert.True(t, fatal.Fatal())
	assert.Equal(t, "fatal", fatal.String())
}
