package tool

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

const completeSuffix = ".complete"

// CachedVersion represents a cached version of a tool.
type CachedVersion struct {
	Version string
	Path    string
	Size    int64
}

// FindLocal returns the cached binary satisfying spec. For a range the
// highest complete cached match is picked. An empty path means no match.
func (t *Tool) FindLocal(spec string) (binPath, version string, err error) {
	if IsExplicitVersion(spec) {
		version = CleanVersion(spec)

		binPath, err = t.binPath(version)
		if err != nil {
			return "", "", fmt.Errorf("failed to determine cache directory: %w", err)
		}

		if !t.isComplete(version) || !exists(t.getFs(), binPath) {
			return "", "", nil
		}

		return binPath, version, nil
	}

	cached, err := t.CachedVersions()
	if err != nil {
		return "", "", err
	}

	names := make([]string, 0, len(cached))
	for _, v := range cached {
		names = append(names, v.Version)
	}

	version = EvaluateVersions(names, spec)
	if version == "" {
		return "", "", nil
	}

	for _, v := range cached {
		if CleanVersion(v.Version) == version {
			return v.Path, version, nil
		}
	}

	return "", "", nil
}

// CachedVersions returns all complete cached versions of this tool for the
// target architecture, newest first.
func (t *Tool) CachedVersions() ([]CachedVersion, error) {
	fs := t.getFs()

	root, err := CacheDir(fs)
	if err != nil {
		return nil, fmt.Errorf("failed to get cache directory: %w", err)
	}

	toolDir := filepath.Join(root, t.Name)

	if !isDir(fs, toolDir) {
		return nil, nil
	}

	entries, err := afero.ReadDir(fs, toolDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read tool directory: %w", err)
	}

	versions := make([]CachedVersion, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() || !t.isComplete(entry.Name()) {
			continue
		}

		binPath, err := t.binPath(entry.Name())
		if err != nil {
			return nil, err
		}

		info, err := fs.Stat(binPath)
		if err != nil || info.IsDir() {
			continue
		}

		versions = append(versions, CachedVersion{
			Version: entry.Name(),
			Path:    binPath,
			Size:    info.Size(),
		})
	}

	sort.Slice(versions, func(i, j int) bool {
		return versionLess(versions[j].Version, versions[i].Version)
	})

	return versions, nil
}

// LatestVersion returns the latest stable version available upstream.
func (t *Tool) LatestVersion(ctx context.Context) (string, error) {
	return t.queryLatestMatch(ctx, "latest")
}

// CleanVersion removes a specific cached version.
func (t *Tool) CleanVersion(version string) error {
	fs := t.getFs()

	versionDir, err := t.versionDir(version)
	if err != nil {
		return fmt.Errorf("failed to get cache directory: %w", err)
	}

	if !isDir(fs, versionDir) {
		return nil
	}

	if err := fs.RemoveAll(versionDir); err != nil {
		return fmt.Errorf("failed to remove version directory: %w", err)
	}

	return nil
}

// CleanAll removes all cached versions of this tool.
func (t *Tool) CleanAll() error {
	fs := t.getFs()

	root, err := CacheDir(fs)
	if err != nil {
		return fmt.Errorf("failed to get cache directory: %w", err)
	}

	toolDir := filepath.Join(root, t.Name)

	if !isDir(fs, toolDir) {
		return nil
	}

	if err := fs.RemoveAll(toolDir); err != nil {
		return fmt.Errorf("failed to remove tool directory: %w", err)
	}

	return nil
}

// Download pre-downloads the latest version matching spec without running it.
func (t *Tool) Download(ctx context.Context, spec string) (string, error) {
	_, version, err := t.Ensure(ctx, spec, true)

	return version, err
}

func (t *Tool) completeMarker(version string) (string, error) {
	dir, err := t.versionDir(version)
	if err != nil {
		return "", err
	}

	_, goarch := t.platform()

	return filepath.Join(dir, goarch+completeSuffix), nil
}

func (t *Tool) isComplete(version string) bool {
	marker, err := t.completeMarker(version)
	if err != nil {
		return false
	}

	return exists(t.getFs(), marker)
}

func (t *Tool) markComplete(version string) error {
	marker, err := t.completeMarker(version)
	if err != nil {
		return fmt.Errorf("failed to get cache directory: %w", err)
	}

	if err := afero.WriteFile(t.getFs(), marker, nil, 0o644); err != nil {
		return fmt.Errorf("failed to mark %s %s complete: %w", t.Name, version, err)
	}

	return nil
}
