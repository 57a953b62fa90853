//nolint:testpackage // internal functions require same package
package tool

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testCacheRoot = "/cache"

// tarGz builds a gzipped tarball holding files keyed by entry name.
func tarGz(t *testing.T, files map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer

	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	for name, data := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o755,
			Size:     int64(len(data)),
			Typeflag: tar.TypeReg,
		}))

		_, err := tw.Write(data)
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())

	return buf.Bytes()
}

// zipArchive builds a zip archive holding files keyed by entry name.
func zipArchive(t *testing.T, files map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)

		_, err = w.Write(data)
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())

	return buf.Bytes()
}

// upstream serves an artifact with its sha256sum and counts downloads.
type upstream struct {
	server    *httptest.Server
	downloads atomic.Int32
}

func newUpstream(t *testing.T, artifact []byte) *upstream {
	t.Helper()

	u := &upstream{}
	checksum := fmt.Sprintf("%x", sha256.Sum256(artifact))

	mux := http.NewServeMux()
	mux.HandleFunc("/artifact", func(w http.ResponseWriter, r *http.Request) {
		u.downloads.Add(1)
		_, _ = w.Write(artifact) //nolint:errcheck // test helper
	})
	mux.HandleFunc("/artifact.sha256sum", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(checksum + "  artifact\n")) //nolint:errcheck // test helper
	})

	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)

	return u
}

// newTestTool returns a helm-like tool served by u on a memory filesystem.
func newTestTool(fs afero.Fs, u *upstream, versions ...string) *Tool {
	return &Tool{
		Name:   "helm",
		Fs:     fs,
		GOOS:   "linux",
		GOARCH: "amd64",
		ListVersions: func(ctx context.Context) ([]string, error) {
			return versions, nil
		},
		DownloadURL: func(version, goos, goarch string) string {
			return u.server.URL + "/artifact"
		},
		ChecksumURL: func(version, goos, goarch string) string {
			return u.server.URL + "/artifact.sha256sum"
		},
		ArchiveRoot: helmArchiveRoot,
	}
}

// seedCache places a complete cache entry for version.
func seedCache(t *testing.T, fs afero.Fs, name, version string, content []byte) string {
	t.Helper()

	versionDir := filepath.Join(testCacheRoot, name, version)
	binPath := filepath.Join(versionDir, "amd64", name)

	require.NoError(t, fs.MkdirAll(filepath.Dir(binPath), 0o755))
	require.NoError(t, afero.WriteFile(fs, binPath, content, 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(versionDir, "amd64.complete"), nil, 0o644))

	return binPath
}
