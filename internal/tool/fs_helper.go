package tool

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FSHelper provides filesystem helper methods shared by the tool cache
// and the cluster connection.
type FSHelper struct {
	fs afero.Fs
}

// NewFSHelper creates a new filesystem helper.
func NewFSHelper(fs afero.Fs) *FSHelper {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FSHelper{fs: fs}
}

// Exists checks if a file exists and is not a directory.
func (h *FSHelper) Exists(path string) bool {
	info, err := h.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// IsDir checks if a path exists and is a directory.
func (h *FSHelper) IsDir(path string) bool {
	info, err := h.fs.Stat(path)
	return err == nil && info.IsDir()
}

// WriteFile writes data to path, creating parent directories as needed.
// The data lands in a sibling temp file first and is renamed into place.
func (h *FSHelper) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := h.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(h.fs, tmp, data, perm); err != nil {
		return err
	}

	if err := h.fs.Rename(tmp, path); err != nil {
		_ = h.fs.Remove(tmp) //nolint:errcheck // cleanup on error path
		return err
	}

	return nil
}

// Fs returns the underlying filesystem.
func (h *FSHelper) Fs() afero.Fs {
	return h.fs
}
