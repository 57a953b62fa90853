package task

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/dennisklein/helmtask/internal/pipeline"
)

// Client binaries the task can drive.
const (
	ToolHelm    = "helm"
	ToolKubectl = "kubectl"
)

// Settings are the task inputs after defaults and validation.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type Settings struct {
	Cwd                  string
	Tool                 string
	HelmVersion          string
	KubectlVersion       string
	CheckLatest          bool
	Endpoint             string
	Command              string
	Arguments            string
	OutputVariable       string
	OutputFormat         string
	UseConfigurationFile bool
	Configuration        string
}

// LoadSettings reads the task inputs.
func LoadSettings(in *pipeline.Inputs) (Settings, error) {
	var (
		s   Settings
		err error
	)

	s.Cwd = in.InputDefault("cwd", "")
	s.Tool = strings.ToLower(in.InputDefault("tool", ToolHelm))
	s.KubectlVersion = in.InputDefault("kubectlVersion", "latest")
	s.Arguments = in.InputDefault("arguments", "")
	s.OutputVariable = in.InputDefault("kubectlOutput", "")
	s.OutputFormat = in.InputDefault("outputFormat", "json")
	s.Configuration = in.InputDefault("configuration", "")

	if s.HelmVersion, err = in.Input("helmVersion", true); err != nil {
		return Settings{}, err
	}

	if s.Endpoint, err = in.Input("kubernetesServiceEndpoint", true); err != nil {
		return Settings{}, err
	}

	if s.Command, err = in.Input("command", true); err != nil {
		return Settings{}, err
	}

	if s.CheckLatest, err = in.BoolInput("checkLatest", false); err != nil {
		return Settings{}, err
	}

	if s.UseConfigurationFile, err = in.BoolInput("useConfigurationFile", false); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// Normalize validates the settings and resolves paths against Cwd.
func (s *Settings) Normalize() error {
	switch s.Tool {
	case ToolHelm, ToolKubectl:
	default:
		return fmt.Errorf("unsupported tool %q: expected %s or %s", s.Tool, ToolHelm, ToolKubectl)
	}

	if s.Command == "" {
		return fmt.Errorf("%w: command", pipeline.ErrInputRequired)
	}

	if s.Cwd != "" {
		cwd, err := homedir.Expand(s.Cwd)
		if err != nil {
			return fmt.Errorf("failed to expand cwd: %w", err)
		}

		s.Cwd = cwd
	}

	if s.Configuration != "" {
		cfg, err := homedir.Expand(s.Configuration)
		if err != nil {
			return fmt.Errorf("failed to expand configuration path: %w", err)
		}

		if !filepath.IsAbs(cfg) && s.Cwd != "" {
			cfg = filepath.Join(s.Cwd, cfg)
		}

		s.Configuration = cfg
	}

	return nil
}

// VersionSpec is the version spec of the selected client.
func (s *Settings) VersionSpec() string {
	if s.Tool == ToolKubectl {
		return s.KubectlVersion
	}

	return s.HelmVersion
}
