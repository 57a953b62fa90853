package pipeline_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennisklein/helmtask/internal/pipeline"
)

func TestInputs(t *testing.T) {
	in := pipeline.InputsFromMap(map[string]string{
		"INPUT_COMMAND":              "  ls ",
		"INPUT_USECONFIGURATIONFILE": "True",
		"INPUT_CHECKLATEST":          "yes",
		"AGENT_TEMPDIRECTORY":        "/agent/_temp",
		"ENDPOINT_AUTH_PARAMETER_my-cluster_KUBECONFIG": "apiVersion: v1",
	})

	t.Run("trims input values", func(t *testing.T) {
		v, err := in.Input("command", true)
		require.NoError(t, err)
		assert.Equal(t, "ls", v)
	})

	t.Run("fails on missing required input", func(t *testing.T) {
		_, err := in.Input("helmVersion", true)
		require.Error(t, err)
		assert.True(t, errors.Is(err, pipeline.ErrInputRequired))
		assert.Contains(t, err.Error(), "helmVersion")
	})

	t.Run("returns empty optional input", func(t *testing.T) {
		v, err := in.Input("arguments", false)
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("applies defaults", func(t *testing.T) {
		assert.Equal(t, "json", in.InputDefault("outputFormat", "json"))
		assert.Equal(t, "ls", in.InputDefault("command", "version"))
	})

	t.Run("parses bool inputs", func(t *testing.T) {
		v, err := in.BoolInput("useConfigurationFile", false)
		require.NoError(t, err)
		assert.True(t, v)

		v, err = in.BoolInput("checkLatest", false)
		require.NoError(t, err)
		assert.False(t, v)
	})

	t.Run("maps variable names to environment keys", func(t *testing.T) {
		assert.Equal(t, "/agent/_temp", in.Variable("Agent.TempDirectory"))
		assert.Empty(t, in.Variable("Agent.ToolsDirectory"))
	})

	t.Run("reads endpoint authorization parameters", func(t *testing.T) {
		v, err := in.EndpointAuthParameter("my-cluster", "kubeconfig", false)
		require.NoError(t, err)
		assert.Equal(t, "apiVersion: v1", v)

		_, err = in.EndpointAuthParameter("other", "kubeconfig", false)
		require.ErrorIs(t, err, pipeline.ErrInputRequired)

		v, err = in.EndpointAuthParameter("other", "kubeconfig", true)
		require.NoError(t, err)
		assert.Empty(t, v)
	})
}

func TestEnvKeys(t *testing.T) {
	assert.Equal(t, "INPUT_KUBERNETESSERVICEENDPOINT", pipeline.InputKey("kubernetesServiceEndpoint"))
	assert.Equal(t, "INPUT_HELM_VERSION", pipeline.InputKey("helm version"))
	assert.Equal(t, "ENDPOINT_AUTH_PARAMETER_AKS-DEV_KUBECONFIG", pipeline.EndpointAuthKey("aks-dev", "kubeconfig"))
}

func TestNewLogger(t *testing.T) {
	t.Run("renders entries as debug commands", func(t *testing.T) {
		var buf bytes.Buffer

		log := pipeline.NewLogger(pipeline.NewCommands(&buf), 0)
		log.WithName("cluster").Info("kubeconfig written", "path", "/tmp/config")

		cmd, ok := pipeline.ParseCommand(buf.String())
		require.True(t, ok)
		assert.Equal(t, "debug", cmd.Event)
		assert.Contains(t, cmd.Data, "cluster")
		assert.Contains(t, cmd.Data, "kubeconfig written")
		assert.Contains(t, cmd.Data, "/tmp/config")
	})

	t.Run("drops entries above verbosity", func(t *testing.T) {
		var buf bytes.Buffer

		log := pipeline.NewLogger(pipeline.NewCommands(&buf), 0)
		log.V(1).Info("noisy")

		assert.Empty(t, buf.String())
	})

	t.Run("adapts to leveled logger", func(t *testing.T) {
		var buf bytes.Buffer

		leveled := pipeline.LeveledLogger{Log: pipeline.NewLogger(pipeline.NewCommands(&buf), 1)}
		leveled.Debug("performing request", "url", "https://get.helm.sh")
		leveled.Warn("retrying")
		leveled.Error("request failed")

		out := buf.String()
		assert.Contains(t, out, "performing request")
		assert.Contains(t, out, "retrying")
		assert.Contains(t, out, "request failed")
	})
}
