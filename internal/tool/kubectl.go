package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-logr/logr"
)

const (
	kubectlReleaseURL = "https://dl.k8s.io/release"
	// kubectlMinorWindow is how many minors below stable are offered.
	kubectlMinorWindow = 3
)

// NewKubectl creates a Tool configured for kubectl.
func NewKubectl(progress io.Writer, log logr.Logger) *Tool {
	return NewToolFromConfig(kubectlConfig(log), progress, log)
}

// kubectlChannels reads the release channel markers below baseURL:
// stable.txt and the stable-<major>.<minor>.txt of the minors just below it.
type kubectlChannels struct {
	client  *http.Client
	baseURL string
	log     logr.Logger
}

func newKubectlChannels(log logr.Logger) *kubectlChannels {
	return &kubectlChannels{client: newRetryableClient(log), baseURL: kubectlReleaseURL, log: log}
}

// versions returns the stable release followed by the newest patch of each
// older minor in the window. Missing minor channels are skipped.
func (c *kubectlChannels) versions(ctx context.Context) ([]string, error) {
	stable, err := c.channel(ctx, "stable")
	if err != nil {
		return nil, err
	}

	versions := []string{stable}

	v, err := semver.NewVersion(stable)
	if err != nil {
		return nil, fmt.Errorf("invalid stable kubectl version %q: %w", stable, err)
	}

	for minor := int64(v.Minor()) - 1; minor >= 0 && minor >= int64(v.Minor())-kubectlMinorWindow; minor-- {
		name := fmt.Sprintf("stable-%d.%d", v.Major(), minor)

		version, err := c.channel(ctx, name)
		if err != nil {
			c.log.V(1).Info("skipping release channel", "channel", name, "error", err.Error())
			continue
		}

		versions = append(versions, version)
	}

	return versions, nil
}

func (c *kubectlChannels) channel(ctx context.Context, name string) (string, error) {
	data, err := fetchHTTPContent(ctx, c.client, c.baseURL+"/"+name+".txt")
	if err != nil {
		return "", fmt.Errorf("failed to read kubectl %s channel: %w", name, err)
	}

	return strings.TrimSpace(string(data)), nil
}

func kubectlDownloadURL(version, goos, goarch string) string {
	bin := "kubectl"
	if goos == "windows" {
		bin += ".exe"
	}

	return fmt.Sprintf("%s/v%s/bin/%s/%s/%s",
		kubectlReleaseURL, strings.TrimPrefix(version, "v"), goos, goarch, bin)
}

func kubectlChecksumURL(version, goos, goarch string) string {
	return kubectlDownloadURL(version, goos, goarch) + ".sha256"
}
