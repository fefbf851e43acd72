// Package errors provides the error taxonomy of the release pipeline.
// It extends Go's standard error handling with structured error codes, a
// severity classification (fatal, recoverable, informational) and the process
// exit code each category maps to.
package errors

// ErrorCode represents a specific error condition in the release pipeline.
// Error codes are string-based for debuggability and readable log output.
type ErrorCode string

const (
	// Environment errors.

	// CodeMissingDependency indicates a required external tool is not installed.
	CodeMissingDependency ErrorCode = "MISSING_DEPENDENCY"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Version errors.

	// CodeVersionFormat indicates a descriptor or override version is malformed.
	CodeVersionFormat ErrorCode = "VERSION_FORMAT"

	// CodeInvalidVersionLevel indicates an unknown increment level was requested.
	CodeInvalidVersionLevel ErrorCode = "INVALID_VERSION_LEVEL"

	// Build and deploy errors.

	// CodeBuildFailed indicates the external build tool reported a failure.
	CodeBuildFailed ErrorCode = "BUILD_FAILED"

	// CodeArtifactNotFound indicates the expected build output is missing.
	CodeArtifactNotFound ErrorCode = "ARTIFACT_NOT_FOUND"

	// CodeDeployFailed indicates the artifact could not be installed.
	CodeDeployFailed ErrorCode = "DEPLOY_FAILED"

	// Version control errors.

	// CodeGitOperation indicates a commit or tag creation failed.
	CodeGitOperation ErrorCode = "GIT_OPERATION_FAILED"

	// CodeTagPushFailed indicates a tag could not be pushed. Recoverable.
	CodeTagPushFailed ErrorCode = "TAG_PUSH_FAILED"

	// CodeTagAlreadyExists indicates the tag is already present locally. Recoverable.
	CodeTagAlreadyExists ErrorCode = "TAG_ALREADY_EXISTS"

	// Release errors.

	// CodeReleaseAuth indicates the remote release service rejected or lacks credentials.
	CodeReleaseAuth ErrorCode = "RELEASE_AUTH_FAILED"

	// CodeReleaseConflict indicates a release exists and recreation was not requested.
	CodeReleaseConflict ErrorCode = "RELEASE_CONFLICT"

	// CodePublishFailed indicates a remote release could not be created or deleted.
	CodePublishFailed ErrorCode = "PUBLISH_FAILED"

	// System errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Severity classifies how the pipeline reacts to an error code.
type Severity int

const (
	// Fatal errors abort the pipeline with a non-zero exit code.
	Fatal Severity = iota

	// Recoverable errors are logged as warnings and the pipeline continues.
	Recoverable

	// Informational codes describe a deliberate early return.
	Informational
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case Fatal:
		return "fatal"
	case Recoverable:
		return "recoverable"
	case Informational:
		return "informational"
	default:
		return "unknown"
	}
}

// Severity returns the severity associated with the code.
func (c ErrorCode) Severity() Severity {
	switch c {
	case CodeTagPushFailed, CodeTagAlreadyExists:
		return Recoverable
	case CodeReleaseConflict:
		return Informational
	default:
		return Fatal
	}
}

// exitCodes maps fatal categories to process exit codes.
var exitCodes = map[ErrorCode]int{
	CodeInternal:            1,
	CodeInvalidConfig:       2,
	CodeMissingDependency:   3,
	CodeVersionFormat:       4,
	CodeInvalidVersionLevel: 4,
	CodeBuildFailed:         5,
	CodeArtifactNotFound:    6,
	CodeDeployFailed:        7,
	CodeGitOperation:        8,
	CodeReleaseAuth:         9,
	CodePublishFailed:       10,
}

// ExitCode returns the process exit code for the code. Non-fatal codes map to 0.
func (c ErrorCode) ExitCode() int {
	if c.Severity() != Fatal {
		return 0
	}
	if code, ok := exitCodes[c]; ok {
		return code
	}
	return 1
}
