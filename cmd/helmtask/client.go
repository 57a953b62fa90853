package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dennisklein/helmtask/internal/runner"
	"github.com/dennisklein/helmtask/internal/tool"
)

// newClientCmd creates a passthrough command that resolves a client binary
// from the cache, downloading it if needed, and runs it with all arguments.
func newClientCmd(name, shortDesc string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: shortDesc,
		Long: fmt.Sprintf(`Resolves %[1]s from the tool cache and runs it, passing through all arguments.
The version spec is read from %[2]s and defaults to "latest".`, name, versionEnv(name)),
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// stdout belongs to the client
			log, _ := loggerTo(cmd, cmd.ErrOrStderr())

			registry := tool.NewRegistry(cmd.ErrOrStderr(), log)

			t := registry.Get(name)
			if t == nil {
				return fmt.Errorf("unknown tool: %s", name)
			}

			spec := os.Getenv(versionEnv(name))
			if spec == "" {
				spec = "latest"
			}

			binPath, _, err := t.Ensure(ctx, spec, false)
			if err != nil {
				return err
			}

			c := &runner.Command{
				Path:   binPath,
				Args:   args,
				Stdin:  cmd.InOrStdin(),
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
				Log:    log.WithName("runner"),
			}

			res, err := c.Exec(ctx)
			if err != nil && res.ExitCode > 0 {
				// the client already explained itself on stderr
				cmd.SilenceErrors = true

				return &clientExitError{code: res.ExitCode, err: err}
			}

			return err
		},
	}
}

// versionEnv names the environment variable holding the version spec of a
// passthrough client, e.g. HELMTASK_HELM_VERSION.
func versionEnv(name string) string {
	return "HELMTASK_" + strings.ToUpper(name) + "_VERSION"
}

func newHelmCmd() *cobra.Command {
	return newClientCmd("helm", "Execute helm (auto-downloads if needed)")
}

func newKubectlCmd() *cobra.Command {
	return newClientCmd("kubectl", "Execute kubectl (auto-downloads if needed)")
}
