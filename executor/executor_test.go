package executor_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/executor"
	"github.com/Staticpast/WeatherVoting/executor/exectest"
)

func TestBasicExecution(t *testing.T) {
	cmd := executor.New("echo", "hello", "world")
	result, err := cmd.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, result.Stdout, "hello world")
	assert.Equal(t, 0, result.ExitCode)
}

func TestCombinedOutput(t *testing.T) {
	cmd := executor.New("sh", "-c", "echo stdout && echo stderr >&2")
	result, err := cmd.Execute(
		context.Background(),
		executor.WithCapture(false, false, true),
	)
	require.NoError(t, err)

	assert.Contains(t, result.Combined, "stdout")
	assert.Contains(t, result.Combined, "stderr")
	assert.Equal(t, result.Combined, result.Output())
}

func TestNonZeroExit(t *testing.T) {
	cmd := executor.New("sh", "-c", "echo boom >&2; exit 3")
	result, err := cmd.Execute(context.Background())

	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.ExitCode)
	assert.Contains(t, result.Stderr, "boom")
}

func TestWithInput(t *testing.T) {
	cmd := executor.New("cat")
	input := "hello from stdin"

	result, err := cmd.ExecuteWithInput(context.Background(), input, executor.SilentMode())
	require.NoError(t, err)

	assert.Equal(t, input, strings.TrimSpace(result.Stdout))
}

func TestWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	result, err := executor.New("pwd").Execute(context.Background(), executor.WithWorkingDir(dir))
	require.NoError(t, err)

	assert.Contains(t, result.Stdout, dir)
}

func TestEnvironmentVariables(t *testing.T) {
	cmd := executor.New("sh", "-c", "echo $CUSTOM_VAR")
	result, err := cmd.Execute(
		context.Background(),
		executor.WithEnvVar("CUSTOM_VAR", "test_value"),
	)
	require.NoError(t, err)

	assert.Contains(t, result.Stdout, "test_value")
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := executor.New("sleep", "1").Execute(ctx)
	assert.Error(t, err)
}

func TestOSRunnerCopiesOutput(t *testing.T) {
	var sink bytes.Buffer
	runner := executor.NewOSRunner(&sink)

	result, err := runner.Run(context.Background(), executor.Command{
		Program: "sh",
		Args:    []string{"-c", "echo built"},
	})
	require.NoError(t, err)

	assert.Contains(t, result.Stdout, "built")
	assert.Contains(t, sink.String(), "built")
}

func TestRequire(t *testing.T) {
	original := executor.LookPath
	t.Cleanup(func() { executor.LookPath = original })

	executor.LookPath = func(file string) (string, error) {
		if file == "mvn" {
			return "", fmt.Errorf("not found")
		}
		return "/usr/bin/" + file, nil
	}

	assert.NoError(t, executor.Require("git"))

	err := executor.Require("git", "mvn", "")
	require.Error(t, err)
	assert.True(t, perrors.HasCode(err, perrors.CodeMissingDependency))
	assert.Contains(t, err.Error(), "mvn")
}

func TestTail(t *testing.T) {
	assert.Equal(t, "a\nb", executor.Tail("a\nb\n", 5))
	assert.Equal(t, "...\nc\nd", executor.Tail("a\nb\nc\nd\n", 2))
}

func TestScriptedRunner(t *testing.T) {
	runner := exectest.New().
		Fail("mvn clean", 1, "compilation error").
		On("mvn -q", func(cmd executor.Command) (*executor.Result, error) {
			return &executor.Result{Stdout: "ok"}, nil
		})

	res, err := runner.Run(context.Background(), executor.Command{Program: "mvn", Args: []string{"-q", "versions:set"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Stdout)

	res, err = runner.Run(context.Background(), executor.Command{Program: "mvn", Args: []string{"clean", "package"}})
	require.Error(t, err)
	assert.Equal(t, 1, res.ExitCode)

	assert.Equal(t, []string{"mvn -q versions:set", "mvn clean package"}, runner.Lines())
}
