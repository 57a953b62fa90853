//nolint:testpackage // internal functions require same package
package tool

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHelm(t *testing.T) {
	t.Run("creates helm tool with progress writer", func(t *testing.T) {
		var buf bytes.Buffer

		helm := NewHelm(&buf, logr.Discard())

		require.NotNil(t, helm)
		assert.Equal(t, "helm", helm.Name)
		assert.Equal(t, &buf, helm.ProgressWriter)
		assert.NotNil(t, helm.ListVersions)
		assert.NotNil(t, helm.DownloadURL)
		assert.NotNil(t, helm.ChecksumURL)
		assert.NotNil(t, helm.ArchiveRoot)
	})

	t.Run("creates helm tool with nil progress writer", func(t *testing.T) {
		helm := NewHelm(nil, logr.Discard())

		require.NotNil(t, helm)
		assert.Nil(t, helm.ProgressWriter)
	})
}

func TestHelmURLs(t *testing.T) {
	assert.Equal(t,
		"https://get.helm.sh/helm-v3.14.0-linux-amd64.tar.gz",
		helmDownloadURL("3.14.0", "linux", "amd64"))
	assert.Equal(t,
		"https://get.helm.sh/helm-v3.14.0-darwin-arm64.tar.gz.sha256sum",
		helmChecksumURL("3.14.0", "darwin", "arm64"))
	assert.Equal(t,
		"https://get.helm.sh/helm-v3.14.0-windows-amd64.zip",
		helmDownloadURL("3.14.0", "windows", "amd64"))
	assert.Equal(t, "linux-arm64", helmArchiveRoot("linux", "arm64"))
}

func TestHelmReleasesVersions(t *testing.T) {
	t.Run("pages through releases and skips drafts", func(t *testing.T) {
		var server *httptest.Server

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/helm/helm/releases", r.URL.Path)
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))

			w.Header().Set("Content-Type", "application/json")

			switch r.URL.Query().Get("page") {
			case "", "1":
				w.Header().Set("Link", fmt.Sprintf(`<%s/repos/helm/helm/releases?page=2&per_page=100>; rel="next"`, server.URL))
				_, _ = w.Write([]byte(`[{"tag_name":"v3.14.2"},{"tag_name":"v3.15.0","draft":true}]`)) //nolint:errcheck // test helper
			case "2":
				_, _ = w.Write([]byte(`[{"tag_name":"v3.13.3"},{"tag_name":"v2.17.0"}]`)) //nolint:errcheck // test helper
			default:
				t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
			}
		}))
		defer server.Close()

		releases, err := newHelmReleases(logr.Discard()).withBaseURL(server.URL)
		require.NoError(t, err)

		versions, err := releases.versions(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"v3.14.2", "v3.13.3", "v2.17.0"}, versions)
		assert.Equal(t, "3.14.2", EvaluateVersions(versions, "latest"))
	})

	t.Run("handles API errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`)) //nolint:errcheck // test helper
		}))
		defer server.Close()

		releases, err := newHelmReleases(logr.Discard()).withBaseURL(server.URL)
		require.NoError(t, err)

		_, err = releases.versions(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list helm releases")
	})

	t.Run("sends token when configured", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "secret-token")

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`[]`)) //nolint:errcheck // test helper
		}))
		defer server.Close()

		releases, err := newHelmReleases(logr.Discard()).withBaseURL(server.URL)
		require.NoError(t, err)

		versions, err := releases.versions(context.Background())
		require.NoError(t, err)
		assert.Empty(t, versions)
	})
}
