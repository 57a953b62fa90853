package tool

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
)

// ToolsDirEnv names the agent-provided tool cache directory.
const ToolsDirEnv = "AGENT_TOOLSDIRECTORY"

// CacheDir returns the root of the tool cache. The agent tool directory
// wins when set; otherwise a helmtask directory below DataDir is used.
func CacheDir(fs afero.Fs) (string, error) {
	if agentTools := os.Getenv(ToolsDirEnv); agentTools != "" {
		return agentTools, nil
	}

	dataDir, err := DataDir(fs)
	if err != nil {
		return "", err
	}

	return filepath.Join(dataDir, "helmtask"), nil
}

// DataDir returns the appropriate data directory following XDG Base Directory spec.
// Priority: XDG_DATA_HOME > ~/.local/share (if exists) > ~/.helmtask (fallback).
func DataDir(fs afero.Fs) (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData, nil
	}

	homeDir, err := homedir.Dir()
	if err != nil {
		return "", err
	}

	helper := NewFSHelper(fs)

	xdgDefault := filepath.Join(homeDir, ".local", "share")
	if helper.IsDir(xdgDefault) {
		return xdgDefault, nil
	}

	return filepath.Join(homeDir, ".helmtask"), nil
}

func exists(fs afero.Fs, path string) bool {
	return NewFSHelper(fs).Exists(path)
}

func isDir(fs afero.Fs, path string) bool {
	return NewFSHelper(fs).IsDir(path)
}
