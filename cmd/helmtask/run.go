package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dennisklein/helmtask/internal/cluster"
	"github.com/dennisklein/helmtask/internal/pipeline"
	"github.com/dennisklein/helmtask/internal/task"
	"github.com/dennisklein/helmtask/internal/tool"
	"github.com/dennisklein/helmtask/internal/util"
)

// localEndpoint is the endpoint id used when --kubeconfig is given without
// an endpoint.
const localEndpoint = "local"

// inputFlag maps a command line flag onto a task input.
type inputFlag struct {
	flag   string
	input  string
	usage  string
	isBool bool
}

var runInputFlags = []inputFlag{
	{flag: "cwd", input: "cwd", usage: "Working directory of the client"},
	{flag: "tool", input: "tool", usage: "Client to run: helm or kubectl"},
	{flag: "helm-version", input: "helmVersion", usage: "Helm version or range, e.g. 3.14.2, 3.x, latest"},
	{flag: "kubectl-version", input: "kubectlVersion", usage: "kubectl version or range"},
	{flag: "check-latest", input: "checkLatest", usage: "Query upstream even when the cache satisfies the range", isBool: true},
	{flag: "endpoint", input: "kubernetesServiceEndpoint", usage: "Kubernetes service endpoint id"},
	{flag: "command", input: "command", usage: "Client command, e.g. upgrade or apply"},
	{flag: "arguments", input: "arguments", usage: "Arguments appended to the command"},
	{flag: "output-variable", input: "kubectlOutput", usage: "Pipeline variable receiving kubectl output"},
	{flag: "output-format", input: "outputFormat", usage: "kubectl output format used with --output-variable"},
	{flag: "use-configuration-file", input: "useConfigurationFile", usage: "Pass --configuration to kubectl with -f", isBool: true},
	{flag: "configuration", input: "configuration", usage: "kubectl configuration file"},
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the task",
		Long: `Run one Helm or kubectl command against the cluster of a service endpoint.

Inputs are read from the INPUT_* environment variables set by the agent.
Flags override the corresponding input.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runTask,
	}

	for _, f := range runInputFlags {
		if f.isBool {
			cmd.Flags().Bool(f.flag, false, f.usage)
			continue
		}

		cmd.Flags().String(f.flag, "", f.usage)
	}

	cmd.Flags().String("kubeconfig", "", "Read the endpoint kubeconfig from this file instead of the agent")

	return cmd
}

func runTask(cmd *cobra.Command, _ []string) error {
	log, cmds := newLogger(cmd)

	overrides, err := inputOverrides(cmd)
	if err != nil {
		_ = cmds.SetResult(pipeline.Failed, err.Error()) //nolint:errcheck // the returned error is what matters
		return err
	}

	inputs := pipeline.NewInputs(func(key string) (string, bool) {
		if v, ok := overrides[key]; ok {
			return v, true
		}

		return os.LookupEnv(key)
	})

	settings, err := task.LoadSettings(inputs)
	if err != nil {
		_ = cmds.SetResult(pipeline.Failed, err.Error()) //nolint:errcheck // the returned error is what matters
		return err
	}

	registry := tool.NewRegistry(cmd.OutOrStdout(), log.WithName("tool"))

	t := &task.Task{
		Inputs:   inputs,
		Commands: cmds,
		Clients:  clients(registry),
		Fs:       afero.NewOsFs(),
		Stdout:   cmd.OutOrStdout(),
		Stderr:   cmd.ErrOrStderr(),
		Log:      log,
	}

	start := time.Now()
	err = t.Run(cmd.Context(), settings)

	log.Info("task finished", "tool", settings.Tool, "command", settings.Command,
		"elapsed", util.FormatDuration(time.Since(start)), "failed", err != nil)

	return err
}

func clients(registry *tool.Registry) map[string]cluster.Client {
	out := make(map[string]cluster.Client)

	for _, t := range registry.AllTools() {
		out[t.Name] = t
	}

	return out
}

// inputOverrides collects the environment entries set through flags.
func inputOverrides(cmd *cobra.Command) (map[string]string, error) {
	overrides := make(map[string]string)

	for _, f := range runInputFlags {
		flag := cmd.Flags().Lookup(f.flag)
		if flag != nil && flag.Changed {
			overrides[pipeline.InputKey(f.input)] = flag.Value.String()
		}
	}

	path, err := cmd.Flags().GetString("kubeconfig")
	if err != nil {
		return nil, fmt.Errorf("failed to get --kubeconfig flag: %w", err)
	}

	if path == "" {
		return overrides, nil
	}

	path, err = homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand kubeconfig path: %w", err)
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read kubeconfig: %w", err)
	}

	endpointKey := pipeline.InputKey("kubernetesServiceEndpoint")

	endpoint := overrides[endpointKey]
	if endpoint == "" {
		endpoint = os.Getenv(endpointKey)
	}

	if endpoint == "" {
		endpoint = localEndpoint
		overrides[endpointKey] = endpoint
	}

	overrides[pipeline.EndpointAuthKey(endpoint, "kubeconfig")] = string(data)

	return overrides, nil
}
