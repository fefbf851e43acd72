package release

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/executor"
)

// DefaultEditor is used when neither VISUAL nor EDITOR is set.
const DefaultEditor = "vi"

// Reviewer gets a last look at generated notes before they are published.
type Reviewer interface {
	Review(ctx context.Context, tag, body string) (string, error)
}

// PassThrough publishes notes unedited.
type PassThrough struct{}

// Review implements Reviewer.
func (PassThrough) Review(_ context.Context, _, body string) (string, error) {
	return body, nil
}

// Editor opens the notes in the operator's editor. When stdin is not a
// terminal it behaves like PassThrough, so unattended runs never block.
type Editor struct {
	runner     executor.Runner
	command    []string
	isTerminal func() bool
	logger     *zap.Logger
}

// NewEditor creates an Editor running $VISUAL or $EDITOR through runner.
func NewEditor(runner executor.Runner, logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{
		runner:     runner,
		command:    editorCommand(os.Getenv),
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		logger:     logger,
	}
}

func editorCommand(getenv func(string) string) []string {
	for _, key := range []string{"VISUAL", "EDITOR"} {
		if fields := strings.Fields(getenv(key)); len(fields) > 0 {
			return fields
		}
	}
	return []string{DefaultEditor}
}

// Review implements Reviewer. An emptied file aborts the release.
func (e *Editor) Review(ctx context.Context, tag, body string) (string, error) {
	if !e.isTerminal() {
		e.logger.Debug("stdin is not a terminal, skipping notes review")
		return body, nil
	}

	f, err := os.CreateTemp("", "release-notes-"+tag+"-*.md")
	if err != nil {
		return "", perrors.Wrap(err, perrors.CodeInternal, "review", "create notes file")
	}
	path := f.Name()
	defer os.Remove(path)

	_, err = f.WriteString(body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", perrors.Wrap(err, perrors.CodeInternal, "review", "write notes file")
	}

	cmd := executor.Command{
		Program:     e.command[0],
		Args:        append(append([]string{}, e.command[1:]...), path),
		Interactive: true,
	}
	e.logger.Info("opening release notes in editor", zap.String("editor", cmd.Program))
	if _, err := e.runner.Run(ctx, cmd); err != nil {
		return "", perrors.Wrapf(err, perrors.CodePublishFailed, "review", "editor %s failed", cmd.Program)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", perrors.Wrap(err, perrors.CodeInternal, "review", "read edited notes")
	}
	if strings.TrimSpace(string(edited)) == "" {
		return "", perrors.New(perrors.CodePublishFailed, "review", "release notes are empty, aborting release")
	}
	return string(edited), nil
}
