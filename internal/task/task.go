// Package task wires the pipeline inputs, the cluster connection and the
// command runner into one task run.
package task

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"

	"github.com/dennisklein/helmtask/internal/cluster"
	"github.com/dennisklein/helmtask/internal/pipeline"
	"github.com/dennisklein/helmtask/internal/runner"
)

// Task runs a single Helm or kubectl command against a cluster.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type Task struct {
	Inputs   *pipeline.Inputs
	Commands *pipeline.Commands
	// Clients maps a tool name to the source of its binary.
	Clients map[string]cluster.Client
	Fs      afero.Fs
	Stdout  io.Writer
	Stderr  io.Writer
	Log     logr.Logger
	// TempDir overrides the parent directory of the per-run kubeconfig.
	TempDir string
}

// Run executes the task and reports the outcome to the agent. The returned
// error mirrors a Failed result.
func (t *Task) Run(ctx context.Context, s Settings) error {
	if err := s.Normalize(); err != nil {
		return t.fail(err)
	}

	client, ok := t.Clients[s.Tool]
	if !ok || client == nil {
		return t.fail(fmt.Errorf("no client registered for %s", s.Tool))
	}

	conn := &cluster.Connection{
		Client:      client,
		VersionSpec: s.VersionSpec(),
		CheckLatest: s.CheckLatest,
		Inputs:      t.Inputs,
		Fs:          t.Fs,
		TempDir:     t.TempDir,
		Log:         t.Log.WithName("cluster"),
	}

	if err := conn.Open(ctx, s.Endpoint); err != nil {
		_ = conn.Close() //nolint:errcheck // the open error is what gets reported
		return t.fail(err)
	}

	res, runErr := t.execute(ctx, conn, s)

	if err := conn.Close(); err != nil {
		_ = t.Commands.Warning(err.Error()) //nolint:errcheck // best effort
	}

	if s.OutputVariable != "" {
		if err := t.Commands.SetVariable(s.OutputVariable, res.Stdout, false); err != nil {
			return fmt.Errorf("failed to publish %s: %w", s.OutputVariable, err)
		}
	}

	if runErr != nil {
		return t.fail(runErr)
	}

	if err := t.Commands.SetResult(pipeline.Succeeded, ""); err != nil {
		return fmt.Errorf("failed to report result: %w", err)
	}

	return nil
}

func (t *Task) execute(ctx context.Context, conn *cluster.Connection, s Settings) (runner.Result, error) {
	var (
		args []string
		err  error
	)

	switch s.Tool {
	case ToolKubectl:
		args, err = runner.KubectlArgs(runner.KubectlOptions{
			Command:              s.Command,
			Arguments:            s.Arguments,
			UseConfigurationFile: s.UseConfigurationFile,
			Configuration:        s.Configuration,
			OutputVariable:       s.OutputVariable,
			OutputFormat:         s.OutputFormat,
			Fs:                   t.Fs,
		})
	default:
		args, err = runner.HelmArgs(s.Command, s.Arguments)
	}

	if err != nil {
		return runner.Result{}, err
	}

	cmd := conn.Command(args...)
	cmd.Dir = s.Cwd
	cmd.Stdout = t.Stdout
	cmd.Stderr = t.Stderr
	cmd.Errors = t.Commands
	cmd.Log = t.Log.WithName("runner")
	// helm reports failures on stderr even when exiting zero
	cmd.FailOnStdErr = s.Tool == ToolHelm

	return cmd.Exec(ctx)
}

func (t *Task) fail(err error) error {
	_ = t.Commands.SetResult(pipeline.Failed, err.Error()) //nolint:errcheck // the error below is what matters

	return err
}
