// Package build drives the Maven build that produces the plugin jar.
package build

import (
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"

	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/executor"
	"github.com/Staticpast/WeatherVoting/fs"
	"github.com/Staticpast/WeatherVoting/version"
)

const (
	// DefaultProgram is the Maven executable looked up on PATH.
	DefaultProgram = "mvn"

	// DefaultArtifactExt is the extension of the packaged artifact.
	DefaultArtifactExt = "jar"

	// TargetDir is Maven's output directory relative to the project root.
	TargetDir = "target"

	// tailLines is how much build output a failure carries.
	tailLines = 20
)

// Artifact is the file a successful build produced.
type Artifact struct {
	// Name is the file name without extension.
	Name    string
	Version version.State
	// Path is relative to the project filesystem root.
	Path string
}

// File returns the artifact's base name.
func (a *Artifact) File() string {
	return path.Base(a.Path)
}

// Tool applies versions to the project descriptor and builds it.
type Tool interface {
	ApplyVersion(ctx context.Context, v version.State) error
	Build(ctx context.Context, base string, v version.State) (*Artifact, error)
	ArtifactExt() string
}

// Maven runs mvn through an executor.Runner.
type Maven struct {
	runner    executor.Runner
	fs        fs.Filesystem
	dir       string
	program   string
	extraArgs []string
	ext       string
	logger    *zap.Logger
}

var _ Tool = (*Maven)(nil)

// Option configures a Maven.
type Option func(*Maven)

// WithProgram overrides the Maven executable.
func WithProgram(program string) Option {
	return func(m *Maven) {
		if program != "" {
			m.program = program
		}
	}
}

// WithExtraArgs appends arguments to the package invocation.
func WithExtraArgs(args ...string) Option {
	return func(m *Maven) {
		m.extraArgs = append(m.extraArgs, args...)
	}
}

// WithArtifactExt sets the artifact extension (without dot).
func WithArtifactExt(ext string) Option {
	return func(m *Maven) {
		if ext != "" {
			m.ext = ext
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Maven) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMaven creates a Maven tool. dir is the project directory the process
// runs in; fsys must be rooted at the same directory.
func NewMaven(runner executor.Runner, fsys fs.Filesystem, dir string, opts ...Option) *Maven {
	m := &Maven{
		runner:  runner,
		fs:      fsys,
		dir:     dir,
		program: DefaultProgram,
		ext:     DefaultArtifactExt,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Program returns the executable name, for dependency checks.
func (m *Maven) Program() string {
	return m.program
}

// ArtifactExt returns the extension of the packaged artifact.
func (m *Maven) ArtifactExt() string {
	return m.ext
}

// ApplyVersion writes v into the project descriptor via versions:set.
func (m *Maven) ApplyVersion(ctx context.Context, v version.State) error {
	cmd := executor.Command{
		Program: m.program,
		Args: []string{
			"-q",
			"versions:set",
			"-DnewVersion=" + v.String(),
			"-DgenerateBackupPoms=false",
		},
		Dir: m.dir,
	}

	m.logger.Info("applying version", zap.String("version", v.String()))
	if res, err := m.runner.Run(ctx, cmd); err != nil {
		return failure(perrors.CodeBuildFailed, "apply version", res, err)
	}
	return nil
}

// Build runs a clean package and verifies target/<base>.<ext> exists. base is
// the descriptor's final name for v.
func (m *Maven) Build(ctx context.Context, base string, v version.State) (*Artifact, error) {
	args := append([]string{"-B", "clean", "package"}, m.extraArgs...)
	cmd := executor.Command{Program: m.program, Args: args, Dir: m.dir}

	m.logger.Info("building", zap.String("command", cmd.String()))
	if res, err := m.runner.Run(ctx, cmd); err != nil {
		return nil, failure(perrors.CodeBuildFailed, "build", res, err)
	}

	artifact := &Artifact{
		Name:    base,
		Version: v,
		Path:    path.Join(TargetDir, ArtifactFile(base, m.ext)),
	}

	ok, err := m.fs.Exists(artifact.Path)
	if err != nil {
		return nil, perrors.Wrapf(err, perrors.CodeArtifactNotFound, "build", "stat %s", artifact.Path)
	}
	if !ok {
		return nil, perrors.Newf(perrors.CodeArtifactNotFound, "build",
			"build succeeded but %s was not produced", artifact.Path)
	}

	m.logger.Info("artifact built", zap.String("path", artifact.Path))
	return artifact, nil
}

// ArtifactFile renders <base>.<ext>.
func ArtifactFile(base, ext string) string {
	return base + "." + ext
}

func failure(code perrors.ErrorCode, op string, res *executor.Result, err error) error {
	if res == nil {
		return perrors.Wrap(err, code, op, "command failed")
	}
	msg := fmt.Sprintf("exit code %d", res.ExitCode)
	if out := res.Output(); out != "" {
		msg += "\n" + executor.Tail(out, tailLines)
	}
	return perrors.Wrap(err, code, op, msg)
}
