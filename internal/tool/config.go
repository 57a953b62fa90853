package tool

import (
	"context"
	"io"

	"github.com/go-logr/logr"
)

// Config defines the configuration for creating a Tool.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type Config struct {
	Name         string
	ListVersions func(context.Context) ([]string, error)
	DownloadURL  func(version, goos, goarch string) string
	ChecksumURL  func(version, goos, goarch string) string
	ArchiveRoot  func(goos, goarch string) string
}

// NewToolFromConfig creates a Tool from a configuration.
func NewToolFromConfig(cfg Config, progress io.Writer, log logr.Logger) *Tool {
	return &Tool{
		Name:           cfg.Name,
		ProgressWriter: progress,
		Log:            log.WithName(cfg.Name),
		ListVersions:   cfg.ListVersions,
		DownloadURL:    cfg.DownloadURL,
		ChecksumURL:    cfg.ChecksumURL,
		ArchiveRoot:    cfg.ArchiveRoot,
	}
}

// helmConfig returns the configuration for the Helm client.
func helmConfig(log logr.Logger) Config {
	return Config{
		Name:         "helm",
		ListVersions: newHelmReleases(log).versions,
		DownloadURL:  helmDownloadURL,
		ChecksumURL:  helmChecksumURL,
		ArchiveRoot:  helmArchiveRoot,
	}
}

// kubectlConfig returns the configuration for kubectl.
func kubectlConfig(log logr.Logger) Config {
	return Config{
		Name:         "kubectl",
		ListVersions: newKubectlChannels(log).versions,
		DownloadURL:  kubectlDownloadURL,
		ChecksumURL:  kubectlChecksumURL,
	}
}
