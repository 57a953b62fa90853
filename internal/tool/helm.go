package tool

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/go-logr/logr"
	"github.com/google/go-github/v58/github"
)

const (
	helmOwner   = "helm"
	helmRepo    = "helm"
	helmBaseURL = "https://get.helm.sh"
	// helmMaxPages bounds release pagination; 100 releases per page.
	helmMaxPages = 5
)

// NewHelm creates a Tool configured for the Helm client.
func NewHelm(progress io.Writer, log logr.Logger) *Tool {
	return NewToolFromConfig(helmConfig(log), progress, log)
}

// helmReleases lists Helm release tags from the GitHub API.
type helmReleases struct {
	client *github.Client
}

func newHelmReleases(log logr.Logger) *helmReleases {
	client := github.NewClient(newRetryableClient(log))
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}

	return &helmReleases{client: client}
}

// withBaseURL points the client at another API endpoint.
func (h *helmReleases) withBaseURL(apiURL string) (*helmReleases, error) {
	u, err := url.Parse(apiURL + "/")
	if err != nil {
		return nil, err
	}

	h.client.BaseURL = u

	return h, nil
}

func (h *helmReleases) versions(ctx context.Context) ([]string, error) {
	opts := &github.ListOptions{PerPage: 100}

	var tags []string

	for page := 0; page < helmMaxPages; page++ {
		releases, resp, err := h.client.Repositories.ListReleases(ctx, helmOwner, helmRepo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list helm releases: %w", err)
		}

		for _, r := range releases {
			if r.GetDraft() {
				continue
			}

			tags = append(tags, r.GetTagName())
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return tags, nil
}

func helmFileName(version, goos, goarch string) string {
	ext := ".tar.gz"
	if goos == "windows" {
		ext = ".zip"
	}

	return fmt.Sprintf("helm-v%s-%s-%s%s", version, goos, goarch, ext)
}

func helmDownloadURL(version, goos, goarch string) string {
	return helmBaseURL + "/" + helmFileName(version, goos, goarch)
}

func helmChecksumURL(version, goos, goarch string) string {
	return helmDownloadURL(version, goos, goarch) + ".sha256sum"
}

// Helm archives extract with a root folder named after the platform.
func helmArchiveRoot(goos, goarch string) string {
	return goos + "-" + goarch
}
