package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrInputRequired is returned when a required input or endpoint parameter is missing.
var ErrInputRequired = errors.New("input required")

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// Inputs reads task inputs, agent variables and endpoint credentials
// the agent passes through the process environment.
type Inputs struct {
	lookup LookupFunc
}

// NewInputs creates Inputs backed by lookup, defaulting to os.LookupEnv.
func NewInputs(lookup LookupFunc) *Inputs {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	return &Inputs{lookup: lookup}
}

// InputsFromMap creates Inputs over a fixed set of environment variables.
func InputsFromMap(env map[string]string) *Inputs {
	return NewInputs(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
}

// Input returns the trimmed value of the named input.
func (in *Inputs) Input(name string, required bool) (string, error) {
	v, _ := in.lookup(InputKey(name))
	v = strings.TrimSpace(v)

	if v == "" && required {
		return "", fmt.Errorf("%w: %s", ErrInputRequired, name)
	}

	return v, nil
}

// InputDefault returns the named input or def when it is empty.
func (in *Inputs) InputDefault(name, def string) string {
	v, _ := in.Input(name, false) //nolint:errcheck // optional input never errors
	if v == "" {
		return def
	}

	return v
}

// BoolInput returns true only when the input is "true" (case-insensitive).
func (in *Inputs) BoolInput(name string, required bool) (bool, error) {
	v, err := in.Input(name, required)
	if err != nil {
		return false, err
	}

	return strings.EqualFold(v, "true"), nil
}

// Variable returns an agent variable such as Agent.TempDirectory.
func (in *Inputs) Variable(name string) string {
	v, _ := in.lookup(envKey(name))

	return v
}

// EndpointAuthParameter returns an authorization parameter of a service endpoint.
func (in *Inputs) EndpointAuthParameter(id, key string, optional bool) (string, error) {
	v, ok := in.lookup(EndpointAuthKey(id, key))
	if (!ok || v == "") && !optional {
		return "", fmt.Errorf("%w: endpoint %s has no %s authorization parameter", ErrInputRequired, id, key)
	}

	return v, nil
}

// InputKey is the environment variable carrying the named input.
func InputKey(name string) string {
	return "INPUT_" + envKey(name)
}

// EndpointAuthKey is the environment variable carrying an authorization
// parameter of a service endpoint.
func EndpointAuthKey(id, key string) string {
	return "ENDPOINT_AUTH_PARAMETER_" + envKey(id) + "_" + envKey(key)
}

func envKey(name string) string {
	r := strings.NewReplacer(" ", "_", ".", "_")

	return strings.ToUpper(r.Replace(name))
}
