package executor

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	perrors "github.com/Staticpast/WeatherVoting/errors"
)

// Command describes one invocation of an external tool.
type Command struct {
	Program string
	Args    []string
	Dir     string
	Env     map[string]string

	// Interactive attaches the process to the terminal instead of capturing output.
	Interactive bool
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Program
	}
	return c.Program + " " + strings.Join(c.Args, " ")
}

// Runner executes commands. A non-zero exit returns the Result together with an error.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// OSRunner runs commands as child processes.
type OSRunner struct {
	// Output, when set, receives a copy of the command's stdout and stderr.
	Output io.Writer
}

// NewOSRunner creates a runner that copies output to w (may be nil).
func NewOSRunner(w io.Writer) *OSRunner {
	return &OSRunner{Output: w}
}

// Run implements Runner.
func (r *OSRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	opts := []Option{
		WithWorkingDir(cmd.Dir),
		WithEnv(cmd.Env),
	}
	if cmd.Interactive {
		opts = append(opts, WithInteractive())
	}
	if r.Output != nil {
		opts = append(opts, WithStdoutWriter(r.Output), WithStderrWriter(r.Output))
	}

	return New(cmd.Program, cmd.Args...).Execute(ctx, opts...)
}

// LookPath resolves a program on PATH. Tests replace it.
var LookPath = exec.LookPath

// Require fails with a MissingDependency error naming every program that cannot be found.
func Require(programs ...string) error {
	var missing []string
	for _, p := range programs {
		if p == "" {
			continue
		}
		if _, err := LookPath(p); err != nil {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return perrors.Newf(
			perrors.CodeMissingDependency,
			"preflight",
			"required tools not found on PATH: %s",
			strings.Join(missing, ", "),
		)
	}
	return nil
}

// Tail returns at most n trailing lines of s, for error messages.
func Tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return fmt.Sprintf("...\n%s", strings.Join(lines[len(lines)-n:], "\n"))
}
