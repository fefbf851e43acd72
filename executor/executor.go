// Package executor runs the external tools the release pipeline depends on
// (the build tool, an editor) with output capture, environment management and
// context cancellation. Every command is attempted exactly once.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Result holds the output and exit status of a command execution.
type Result struct {
	Stdout   string
	Stderr   string
	Combined string
	ExitCode int
	Err      error
}

// Output returns the combined output when captured, else stdout followed by stderr.
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	if r.Combined != "" {
		return r.Combined
	}
	return r.Stdout + r.Stderr
}

// Executor defines the interface for a prepared command.
type Executor interface {
	// Execute runs the command with the given options.
	Execute(ctx context.Context, opts ...Option) (*Result, error)

	// ExecuteWithInput runs the command with stdin input.
	ExecuteWithInput(ctx context.Context, input string, opts ...Option) (*Result, error)
}

// CommandExecutor implements the Executor interface on top of os/exec.
type CommandExecutor struct {
	program string
	args    []string
	options *Options
}

// Options configures command execution behavior.
type Options struct {
	// Output handling
	CaptureStdout     bool
	CaptureStderr     bool
	CaptureCombined   bool
	RedirectToConsole bool

	// Interactive attaches the process to the terminal's stdin, stdout and stderr.
	// Capture settings are ignored.
	Interactive bool

	// Working directory
	WorkingDir string

	// Environment variables (appended to current env)
	Env map[string]string

	// Custom stdout/stderr writers, e.g. a log sink
	StdoutWriter io.Writer
	StderrWriter io.Writer
}

// Option is a function that modifies Options.
type Option func(*Options)

// DefaultOptions returns default execution options.
func DefaultOptions() *Options {
	return &Options{
		CaptureStdout: true,
		CaptureStderr: true,
		Env:           make(map[string]string),
	}
}

// New creates a new CommandExecutor.
func New(program string, args ...string) *CommandExecutor {
	return &CommandExecutor{
		program: program,
		args:    args,
		options: DefaultOptions(),
	}
}

// Execute implements the Executor interface.
func (c *CommandExecutor) Execute(ctx context.Context, opts ...Option) (*Result, error) {
	return c.ExecuteWithInput(ctx, "", opts...)
}

// ExecuteWithInput implements the Executor interface with stdin support.
func (c *CommandExecutor) ExecuteWithInput(
	ctx context.Context,
	input string,
	opts ...Option,
) (*Result, error) {
	options := c.mergeOptions(opts...)

	cmd := exec.CommandContext(ctx, c.program, c.args...)
	c.setupCommand(cmd, input, options)

	var stdoutBuf, stderrBuf, combinedBuf bytes.Buffer
	if options.Interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		c.setupOutputCapture(cmd, options, &stdoutBuf, &stderrBuf, &combinedBuf)
	}

	err := cmd.Run()
	result := newResult(&stdoutBuf, &stderrBuf, &combinedBuf, err)
	if err != nil {
		return result, fmt.Errorf("command %q failed: %w", c.program, err)
	}
	return result, nil
}

// setupCommand configures the exec.Cmd with working directory, environment, and input
func (c *CommandExecutor) setupCommand(cmd *exec.Cmd, input string, options *Options) {
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
}

// setupOutputCapture configures stdout and stderr writers for the command
func (c *CommandExecutor) setupOutputCapture(
	cmd *exec.Cmd,
	options *Options,
	stdoutBuf, stderrBuf, combinedBuf *bytes.Buffer,
) {
	stdoutWriters := []io.Writer{}
	stderrWriters := []io.Writer{}

	switch {
	case options.CaptureCombined:
		stdoutWriters = append(stdoutWriters, combinedBuf)
		stderrWriters = append(stderrWriters, combinedBuf)
	default:
		if options.CaptureStdout {
			stdoutWriters = append(stdoutWriters, stdoutBuf)
		}
		if options.CaptureStderr {
			stderrWriters = append(stderrWriters, stderrBuf)
		}
	}

	if options.RedirectToConsole {
		stdoutWriters = append(stdoutWriters, os.Stdout)
		stderrWriters = append(stderrWriters, os.Stderr)
	}
	if options.StdoutWriter != nil {
		stdoutWriters = append(stdoutWriters, options.StdoutWriter)
	}
	if options.StderrWriter != nil {
		stderrWriters = append(stderrWriters, options.StderrWriter)
	}

	if len(stdoutWriters) > 0 {
		cmd.Stdout = io.MultiWriter(stdoutWriters...)
	}
	if len(stderrWriters) > 0 {
		cmd.Stderr = io.MultiWriter(stderrWriters...)
	}
}

// newResult creates a Result from the captured buffers and the run error.
func newResult(stdoutBuf, stderrBuf, combinedBuf *bytes.Buffer, err error) *Result {
	result := &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Combined: combinedBuf.String(),
		Err:      err,
	}

	var exitErr *exec.ExitError
	switch {
	case err != nil && errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case err == nil:
		result.ExitCode = 0
	default:
		result.ExitCode = -1
	}

	return result
}

func (c *CommandExecutor) mergeOptions(opts ...Option) *Options {
	merged := *c.options
	merged.Env = make(map[string]string, len(c.options.Env))
	for k, v := range c.options.Env {
		merged.Env[k] = v
	}

	for _, opt := range opts {
		opt(&merged)
	}

	return &merged
}

// Option functions for fluent configuration

// WithCapture configures output capture.
func WithCapture(stdout, stderr, combined bool) Option {
	return func(o *Options) {
		o.CaptureStdout = stdout
		o.CaptureStderr = stderr
		o.CaptureCombined = combined
	}
}

// WithConsoleRedirect enables/disables console output.
func WithConsoleRedirect(redirect bool) Option {
	return func(o *Options) {
		o.RedirectToConsole = redirect
	}
}

// WithWorkingDir sets the working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnv adds environment variables.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		for k, v := range env {
			o.Env[k] = v
		}
	}
}

// WithEnvVar adds a single environment variable.
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

// WithStdoutWriter sets a custom stdout writer.
func WithStdoutWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StdoutWriter = w
	}
}

// WithStderrWriter sets a custom stderr writer.
func WithStderrWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StderrWriter = w
	}
}

// WithInteractive attaches the command to the terminal.
func WithInteractive() Option {
	return func(o *Options) {
		o.Interactive = true
	}
}

// Convenience functions for common patterns

// CaptureAll captures and redirects to console simultaneously.
func CaptureAll() Option {
	return func(o *Options) {
		o.CaptureStdout = true
		o.CaptureStderr = true
		o.RedirectToConsole = true
	}
}

// SilentMode captures output without console redirect.
func SilentMode() Option {
	return func(o *Options) {
		o.CaptureStdout = true
		o.CaptureStderr = true
		o.RedirectToConsole = false
	}
}
