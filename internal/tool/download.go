package tool

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

func (t *Tool) download(ctx context.Context, destPath, version string) (err error) {
	fs := t.getFs()
	goos, goarch := t.platform()

	url := t.DownloadURL(version, goos, goarch)

	if err := fs.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var expectedChecksum string

	if t.ChecksumURL != nil {
		expectedChecksum, err = t.fetchChecksum(ctx, t.ChecksumURL(version, goos, goarch))
		if err != nil {
			return fmt.Errorf("failed to fetch checksum: %w", err)
		}
	}

	t.Log.V(1).Info("downloading", "tool", t.Name, "url", url)

	client := t.httpClient()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tmpFile := destPath + ".download"

	out, err := fs.Create(tmpFile)
	if err != nil {
		return err
	}

	defer func() {
		if exists(fs, tmpFile) {
			if removeErr := fs.Remove(tmpFile); removeErr != nil && err == nil {
				err = removeErr
			}
		}
	}()

	hasher := sha256.New()

	var (
		reader io.Reader = resp.Body
		prog   *downloadProgress
	)

	if t.ProgressWriter != nil && resp.ContentLength > 0 {
		prog = newDownloadProgress(resp.Body, resp.ContentLength, t.ProgressWriter, t.Name+" "+version)
		reader = prog
	}

	if _, err := io.Copy(io.MultiWriter(out, hasher), reader); err != nil {
		_ = out.Close() //nolint:errcheck // close on error path

		return err
	}

	if prog != nil {
		prog.done()
	}

	if err := out.Close(); err != nil {
		return err
	}

	actualChecksum := fmt.Sprintf("%x", hasher.Sum(nil))
	if expectedChecksum != "" && !strings.EqualFold(actualChecksum, expectedChecksum) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedChecksum, actualChecksum)
	}

	var root string
	if t.ArchiveRoot != nil {
		root = t.ArchiveRoot(goos, goarch)
	}

	return extractBinary(fs, tmpFile, destPath, root, t.BinaryName())
}

func (t *Tool) fetchChecksum(ctx context.Context, url string) (string, error) {
	data, err := fetchHTTPContent(ctx, t.httpClient(), url)
	if err != nil {
		return "", err
	}

	checksumStr := strings.TrimSpace(string(data))

	// Handle checksums in the format "checksum  filename" (like sha256sum output)
	if parts := strings.Fields(checksumStr); len(parts) > 0 {
		return parts[0], nil
	}

	return checksumStr, nil
}
