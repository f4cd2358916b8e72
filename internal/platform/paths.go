// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package platform resolves per-user directories.
package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName names the per-user directories.
const AppName = "snowmedia"

// GetXDGConfigHome returns XDG config directory.
func GetXDGConfigHome() string {
	return GetXDGConfigHomeWithEnv(os.Getenv("XDG_CONFIG_HOME"))
}

// GetXDGConfigHomeWithEnv returns XDG config directory with custom environment override for testing.
func GetXDGConfigHomeWithEnv(xdgConfigHome string) string {
	return xdgDir(xdgConfigHome, ".config")
}

// GetXDGCacheHome returns XDG cache directory.
func GetXDGCacheHome() string {
	return GetXDGCacheHomeWithEnv(os.Getenv("XDG_CACHE_HOME"))
}

// GetXDGCacheHomeWithEnv returns XDG cache directory with custom environment override for testing.
func GetXDGCacheHomeWithEnv(xdgCacheHome string) string {
	return xdgDir(xdgCacheHome, ".cache")
}

// GetXDGStateHome returns XDG state directory.
func GetXDGStateHome() string {
	return GetXDGStateHomeWithEnv(os.Getenv("XDG_STATE_HOME"))
}

// GetXDGStateHomeWithEnv returns XDG state directory with custom environment override for testing.
func GetXDGStateHomeWithEnv(xdgStateHome string) string {
	return xdgDir(xdgStateHome, ".local", "state")
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(GetXDGConfigHome(), AppName, "config.toml")
}

// CacheDir returns the default cache root.
func CacheDir() string {
	return filepath.Join(GetXDGCacheHome(), AppName)
}

// StateDir returns the default directory for durable local state.
func StateDir() string {
	return filepath.Join(GetXDGStateHome(), AppName)
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(path string) string {
	if after, found := strings.CutPrefix(path, "~/"); found {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, after)
		}
	}

	return os.ExpandEnv(path)
}

// FileExists checks if a regular file exists.
func FileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

func xdgDir(override string, fallback ...string) string {
	if override != "" {
		return override
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(append([]string{home}, fallback...)...)
	}

	return filepath.Join(append([]string{os.TempDir()}, fallback...)...)
}
