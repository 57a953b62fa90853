// Package cluster opens a connection to a Kubernetes cluster for a single
// task run: a resolved client binary plus a kubeconfig materialised from a
// service endpoint.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/dennisklein/helmtask/internal/pipeline"
	"github.com/dennisklein/helmtask/internal/runner"
	"github.com/dennisklein/helmtask/internal/tool"
)

const (
	userDirName    = "kubectlTask"
	kubeconfigName = "config"
	// kubeconfigParam is the endpoint authorization parameter holding the kubeconfig.
	kubeconfigParam = "kubeconfig"
)

// Client resolves the path of a client binary for a version spec.
type Client interface {
	Ensure(ctx context.Context, spec string, checkLatest bool) (binPath, version string, err error)
}

// Connection holds the client binary and kubeconfig of one task run.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type Connection struct {
	Client      Client
	VersionSpec string
	CheckLatest bool
	Inputs      *pipeline.Inputs
	Fs          afero.Fs
	// TempDir is the parent of the per-run user directory; defaults to the
	// agent temp directory or os.TempDir.
	TempDir string
	Log     logr.Logger
	Now     func() time.Time

	clientPath     string
	clientVersion  string
	userDir        string
	kubeconfigFile string
}

// Open resolves the client binary and, when endpoint is set, writes the
// endpoint's kubeconfig into a fresh per-run directory.
func (c *Connection) Open(ctx context.Context, endpoint string) error {
	if c.Client == nil {
		return errors.New("cluster connection has no client")
	}

	c.Log.V(1).Info("resolving client", "spec", c.VersionSpec)

	path, version, err := c.Client.Ensure(ctx, c.VersionSpec, c.CheckLatest)
	if err != nil {
		return fmt.Errorf("failed to acquire client: %w", err)
	}

	c.clientPath, c.clientVersion = path, version
	c.Log.Info("client ready", "path", path, "version", version)

	if endpoint == "" {
		return nil
	}

	return c.writeKubeconfig(endpoint)
}

// Close removes the per-run directory and the kubeconfig inside it.
func (c *Connection) Close() error {
	if c.userDir == "" {
		return nil
	}

	if err := c.getFs().RemoveAll(c.userDir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", c.userDir, err)
	}

	c.userDir, c.kubeconfigFile = "", ""

	return nil
}

// ClientPath is the resolved client binary.
func (c *Connection) ClientPath() string { return c.clientPath }

// ClientVersion is the resolved client version.
func (c *Connection) ClientVersion() string { return c.clientVersion }

// KubeconfigFile is the written kubeconfig, empty without an endpoint.
func (c *Connection) KubeconfigFile() string { return c.kubeconfigFile }

// Command returns a command running the client binary with args and the
// connection's kubeconfig in its environment.
func (c *Connection) Command(args ...string) *runner.Command {
	cmd := &runner.Command{
		Path: c.clientPath,
		Args: args,
	}

	if c.kubeconfigFile != "" {
		cmd.Env = append(cmd.Env, "KUBECONFIG="+c.kubeconfigFile)
	}

	return cmd
}

func (c *Connection) writeKubeconfig(endpoint string) error {
	if c.Inputs == nil {
		return errors.New("cluster connection has no inputs")
	}

	raw, err := c.Inputs.EndpointAuthParameter(endpoint, kubeconfigParam, false)
	if err != nil {
		return err
	}

	cfg, err := clientcmd.Load([]byte(raw))
	if err != nil {
		return fmt.Errorf("endpoint %s holds an invalid kubeconfig: %w", endpoint, err)
	}

	if err := clientcmd.Validate(*cfg); err != nil {
		c.Log.Error(err, "kubeconfig failed validation", "endpoint", endpoint)
	}

	userDir, err := c.newUserDir()
	if err != nil {
		return err
	}

	// Close removes the directory even when the write below fails
	c.userDir = userDir

	file := filepath.Join(userDir, kubeconfigName)
	if err := tool.NewFSHelper(c.getFs()).WriteFile(file, []byte(raw), 0o600); err != nil {
		return fmt.Errorf("failed to write kubeconfig: %w", err)
	}

	c.kubeconfigFile = file
	c.Log.Info("kubeconfig written", "path", file, "context", cfg.CurrentContext)

	return nil
}

// newUserDir creates <temp>/kubectlTask/<unix millis>.
func (c *Connection) newUserDir() (string, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	dir := filepath.Join(c.tempDir(), userDirName, strconv.FormatInt(now().UnixMilli(), 10))
	if err := c.getFs().MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	return dir, nil
}

func (c *Connection) tempDir() string {
	if c.TempDir != "" {
		return c.TempDir
	}

	if c.Inputs != nil {
		if dir := c.Inputs.Variable("Agent.TempDirectory"); dir != "" {
			return dir
		}
	}

	return os.TempDir()
}

func (c *Connection) getFs() afero.Fs {
	if c.Fs == nil {
		return afero.NewOsFs()
	}

	return c.Fs
}
