// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import "context"

// Installer is the native installer capability surface.
// Implemented by the adb-backed device adapter and by the unsupported
// fallback used when no device platform is available.
type Installer interface {
	// IsInstalled reports whether packageName is installed. Lookup failures
	// are reported as false, never as an error, for well-formed input.
	IsInstalled(ctx context.Context, packageName string) (bool, error)

	// InstallAPK starts the platform installer for the APK at location.
	// Success means the installer was invoked, not that installation finished.
	InstallAPK(ctx context.Context, location string) error

	// Launch starts the app's launcher entry point.
	Launch(ctx context.Context, packageName string) error

	// Uninstall opens the platform uninstall confirmation.
	Uninstall(ctx context.Context, packageName string) error

	// OpenAppSettings opens the per-app settings screen.
	OpenAppSettings(ctx context.Context, packageName string) error

	// Native reports whether the installer talks to a real device platform.
	Native() bool
}

// VersionReporter is implemented by installers that can report the
// installed version name of a package.
type VersionReporter interface {
	InstalledVersion(ctx context.Context, packageName string) (string, error)
}

// CommandRunner defines the interface for executing system commands.
type CommandRunner interface {
	// Execute runs a command and discards its output.
	Execute(ctx context.Context, name string, args ...string) error

	// ExecuteWithOutput runs a command and returns combined stdout and stderr.
	ExecuteWithOutput(ctx context.Context, name string, args ...string) (string, error)

	// CommandExists checks if a command is available on the system.
	CommandExists(name string) bool
}

// KeyValueStore is durable string storage. Writes are durable when they return.
type KeyValueStore interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)

	// Set stores a single value.
	Set(key, value string) error

	// SetMany stores several values in one durable commit.
	SetMany(values map[string]string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// ProgressFunc receives integer download percentages in 0..100.
type ProgressFunc func(percent int)
