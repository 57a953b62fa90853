package runner_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennisklein/helmtask/internal/runner"
)

// TestHelperProcess is not a real test. It stands in for the client binary
// when re-executed by helperCommand.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("HELMTASK_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}

	switch args[0] {
	case "echo":
		fmt.Println(strings.Join(args[1:], " "))
	case "env":
		fmt.Println(os.Getenv(args[1]))
	case "pwd":
		wd, _ := os.Getwd()
		fmt.Println(wd)
	case "warn":
		fmt.Println("partial output")
		fmt.Fprintln(os.Stderr, "WARNING: kubeconfig is group-readable")
	case "fail":
		fmt.Fprintln(os.Stderr, "Error: release not found")
		fmt.Fprint(os.Stderr, "exit status follows")
		os.Exit(3)
	}

	os.Exit(0)
}

func helperCommand(args ...string) *runner.Command {
	return &runner.Command{
		Path: os.Args[0],
		Args: append([]string{"-test.run=TestHelperProcess", "--"}, args...),
		Env:  []string{"HELMTASK_HELPER_PROCESS=1"},
	}
}

type recordingReporter struct {
	lines []string
}

func (r *recordingReporter) Error(msg string) error {
	r.lines = append(r.lines, msg)
	return nil
}

func TestCommandExec(t *testing.T) {
	t.Run("captures stdout and streams it", func(t *testing.T) {
		var live bytes.Buffer

		cmd := helperCommand("echo", "NAME", "REVISION")
		cmd.Stdout = &live

		res, err := cmd.Exec(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "NAME REVISION\n", res.Stdout)
		assert.Equal(t, "NAME REVISION\n", live.String())
		assert.Equal(t, 0, res.ExitCode)
	})

	t.Run("injects environment", func(t *testing.T) {
		cmd := helperCommand("env", "KUBECONFIG")
		cmd.Env = append(cmd.Env, "KUBECONFIG=/tmp/kubectlTask/1/config")

		res, err := cmd.Exec(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "/tmp/kubectlTask/1/config\n", res.Stdout)
	})

	t.Run("runs in working directory", func(t *testing.T) {
		dir := t.TempDir()

		cmd := helperCommand("pwd")
		cmd.Dir = dir

		res, err := cmd.Exec(context.Background())
		require.NoError(t, err)
		assert.Contains(t, res.Stdout, dir[strings.LastIndexAny(dir, `/\`)+1:])
	})

	t.Run("tolerates stderr unless told otherwise", func(t *testing.T) {
		res, err := helperCommand("warn").Exec(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"WARNING: kubeconfig is group-readable"}, res.Stderr)
	})

	t.Run("fails on stderr output when requested", func(t *testing.T) {
		reporter := &recordingReporter{}

		cmd := helperCommand("warn")
		cmd.FailOnStdErr = true
		cmd.Errors = reporter

		res, err := cmd.Exec(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, runner.ErrStdErrOutput))
		assert.Equal(t, "partial output\n", res.Stdout)
		assert.Equal(t, []string{"WARNING: kubeconfig is group-readable"}, reporter.lines)
	})

	t.Run("reports stderr lines on non-zero exit", func(t *testing.T) {
		reporter := &recordingReporter{}

		cmd := helperCommand("fail")
		cmd.Errors = reporter

		res, err := cmd.Exec(context.Background())
		require.Error(t, err)
		assert.Equal(t, 3, res.ExitCode)
		assert.Equal(t, []string{"Error: release not found", "exit status follows"}, reporter.lines)
	})

	t.Run("fails without a binary", func(t *testing.T) {
		_, err := (&runner.Command{}).Exec(context.Background())
		require.Error(t, err)
	})

	t.Run("fails for a missing binary", func(t *testing.T) {
		_, err := (&runner.Command{Path: "/nonexistent/helm"}).Exec(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "helm failed")
	})
}

func TestCommandString(t *testing.T) {
	cmd := &runner.Command{Path: "/cache/helm", Args: []string{"list", "-A"}}

	assert.Equal(t, "/cache/helm list -A", cmd.String())
}
