package tool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
)

// ErrVersionNotFound is returned when no upstream release satisfies a version spec.
var ErrVersionNotFound = errors.New("version not found")

// Tool represents a managed CLI client that can be resolved, downloaded and cached.
//
//nolint:govet // fieldalignment: readability preferred over 8-byte optimization
type Tool struct {
	Name           string
	ProgressWriter io.Writer
	Log            logr.Logger
	// ListVersions returns the versions published upstream.
	ListVersions func(context.Context) ([]string, error)
	DownloadURL  func(version, goos, goarch string) string
	ChecksumURL  func(version, goos, goarch string) string
	// ArchiveRoot is the directory inside the archive holding the binary.
	ArchiveRoot func(goos, goarch string) string
	Fs          afero.Fs // Filesystem abstraction for testing (defaults to OsFs)
	GOOS        string
	GOARCH      string
}

// Ensure returns the path of a cached client binary satisfying spec,
// downloading it when necessary. An explicit version is used as-is; a
// range is first matched against the cache unless checkLatest is set, then
// resolved against upstream releases.
func (t *Tool) Ensure(ctx context.Context, spec string, checkLatest bool) (binPath, version string, err error) {
	if IsExplicitVersion(spec) {
		// check latest doesn't make sense when the version is explicit
		checkLatest = false
	}

	if !checkLatest {
		binPath, version, err = t.FindLocal(spec)
		if err != nil {
			return "", "", err
		}

		if binPath != "" {
			t.Log.V(1).Info("using cached client", "tool", t.Name, "version", version, "path", binPath)
			return binPath, version, nil
		}
	}

	if IsExplicitVersion(spec) {
		version = CleanVersion(spec)
	} else {
		version, err = t.queryLatestMatch(ctx, spec)
		if err != nil {
			return "", "", err
		}

		binPath, _, err = t.FindLocal(version)
		if err != nil {
			return "", "", err
		}

		if binPath != "" {
			return binPath, version, nil
		}
	}

	binPath, err = t.acquire(ctx, version)
	if err != nil {
		return "", "", err
	}

	return binPath, version, nil
}

func (t *Tool) queryLatestMatch(ctx context.Context, spec string) (string, error) {
	if t.ListVersions == nil {
		return "", fmt.Errorf("%s has no version source", t.Name)
	}

	versions, err := t.ListVersions(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list %s versions: %w", t.Name, err)
	}

	version := EvaluateVersions(versions, spec)
	if version == "" {
		goos, goarch := t.platform()

		return "", fmt.Errorf("%w: unable to find %s version '%s' for platform %s and architecture %s",
			ErrVersionNotFound, t.Name, spec, goos, goarch)
	}

	t.Log.Info("resolved version", "tool", t.Name, "spec", spec, "version", version)

	return version, nil
}

// acquire downloads version into the cache and marks the entry complete.
func (t *Tool) acquire(ctx context.Context, version string) (string, error) {
	fs := t.getFs()

	binPath, err := t.binPath(version)
	if err != nil {
		return "", fmt.Errorf("failed to determine cache directory: %w", err)
	}

	if err := t.writeProgress("Downloading %s %s...\n", t.Name, version); err != nil {
		return "", fmt.Errorf("failed to write progress: %w", err)
	}

	if err := t.download(ctx, binPath, version); err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}

	if err := fs.Chmod(binPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to make executable: %w", err)
	}

	if err := t.markComplete(version); err != nil {
		return "", err
	}

	if err := t.writeProgress("%s %s downloaded successfully\n", t.Name, version); err != nil {
		return "", fmt.Errorf("failed to write progress: %w", err)
	}

	return binPath, nil
}

// BinaryName is the executable file name on the target platform.
func (t *Tool) BinaryName() string {
	goos, _ := t.platform()
	if goos == "windows" {
		return t.Name + ".exe"
	}

	return t.Name
}

func (t *Tool) platform() (goos, goarch string) {
	goos, goarch = t.GOOS, t.GOARCH
	if goos == "" {
		goos = runtime.GOOS
	}

	if goarch == "" {
		goarch = runtime.GOARCH
	}

	return goos, goarch
}

func (t *Tool) writeProgress(format string, args ...interface{}) error {
	return progressWriter{w: t.ProgressWriter}.printf(format, args...)
}

// getFs returns the filesystem to use, defaulting to OsFs if not set.
func (t *Tool) getFs() afero.Fs {
	if t.Fs == nil {
		return afero.NewOsFs()
	}

	return t.Fs
}

func (t *Tool) versionDir(version string) (string, error) {
	root, err := CacheDir(t.getFs())
	if err != nil {
		return "", err
	}

	return filepath.Join(root, t.Name, version), nil
}

func (t *Tool) binPath(version string) (string, error) {
	dir, err := t.versionDir(version)
	if err != nil {
		return "", err
	}

	_, goarch := t.platform()

	return filepath.Join(dir, goarch, t.BinaryName()), nil
}
