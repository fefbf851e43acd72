// Package exectest provides a scripted executor.Runner for tests.
package exectest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Staticpast/WeatherVoting/executor"
)

// Handler produces the result of a matched command.
type Handler func(cmd executor.Command) (*executor.Result, error)

// Runner records every command and answers from registered handlers keyed by
// a prefix of the command line ("mvn clean").
type Runner struct {
	mu       sync.Mutex
	handlers []route
	Calls    []executor.Command
}

type route struct {
	prefix  string
	handler Handler
}

// New creates an empty Runner. Unmatched commands succeed with no output.
func New() *Runner {
	return &Runner{}
}

// On registers h for commands whose rendered line starts with prefix.
// Later registrations take precedence.
func (r *Runner) On(prefix string, h Handler) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append([]route{{prefix: prefix, handler: h}}, r.handlers...)
	return r
}

// Fail makes commands matching prefix exit with code and stderr output.
func (r *Runner) Fail(prefix string, code int, stderr string) *Runner {
	return r.On(prefix, func(cmd executor.Command) (*executor.Result, error) {
		err := fmt.Errorf("exit status %d", code)
		return &executor.Result{Stderr: stderr, ExitCode: code, Err: err}, err
	})
}

// Run implements executor.Runner.
func (r *Runner) Run(_ context.Context, cmd executor.Command) (*executor.Result, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, cmd)
	handlers := r.handlers
	r.mu.Unlock()

	line := cmd.String()
	for _, h := range handlers {
		if strings.HasPrefix(line, h.prefix) {
			return h.handler(cmd)
		}
	}
	return &executor.Result{}, nil
}

// Lines returns the rendered command lines in call order.
func (r *Runner) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		out = append(out, c.String())
	}
	return out
}
