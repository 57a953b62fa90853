package main

import (
	"errors"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/dennisklein/helmtask/internal/pipeline"
)

var rootCmd = &cobra.Command{
	Use:   "helmtask",
	Short: "Run Helm and kubectl commands as a pipeline task",
	Long: `helmtask runs a single Helm or kubectl command against the cluster of a
Kubernetes service endpoint, acquiring the client binary on demand and
reporting results through pipeline logging commands.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// clientExitError carries the exit status of a passthrough client.
type clientExitError struct {
	code int
	err  error
}

func (e *clientExitError) Error() string { return e.err.Error() }

func (e *clientExitError) Unwrap() error { return e.err }

// exitCode is the process exit status for err: the client's own status for
// passthrough failures, 1 otherwise.
func exitCode(err error) int {
	var exitErr *clientExitError
	if errors.As(err, &exitErr) && exitErr.code > 0 {
		return exitErr.code
	}

	return 1
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase debug output (repeatable)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newHelmCmd())
	rootCmd.AddCommand(newKubectlCmd())
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// newLogger renders debug output as logging commands on the command's output.
func newLogger(cmd *cobra.Command) (logr.Logger, *pipeline.Commands) {
	return loggerTo(cmd, cmd.OutOrStdout())
}

// loggerTo is newLogger writing to w.
func loggerTo(cmd *cobra.Command, w io.Writer) (logr.Logger, *pipeline.Commands) {
	cmds := pipeline.NewCommands(w)

	verbosity, err := cmd.Flags().GetCount("verbose")
	if err != nil {
		verbosity = 0
	}

	// agents enable debug output through system.debug
	if os.Getenv("SYSTEM_DEBUG") == "true" && verbosity == 0 {
		verbosity = 1
	}

	return pipeline.NewLogger(cmds, verbosity), cmds
}

func main() {
	Execute()
}
