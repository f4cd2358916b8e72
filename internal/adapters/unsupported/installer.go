// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package unsupported provides the installer used when no device platform
// is reachable. Queries answer "not installed"; mutations fail explicitly.
package unsupported

import (
	"context"
	"fmt"
	"strings"

	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

// Installer is the non-native installer bridge.
type Installer struct{}

// New returns the fallback installer.
func New() Installer { return Installer{} }

// Native reports false.
func (Installer) Native() bool { return false }

// IsInstalled always reports false.
func (Installer) IsInstalled(_ context.Context, packageName string) (bool, error) {
	return false, requireArg("package name", packageName)
}

// InstallAPK fails with ErrPlatformUnsupported.
func (Installer) InstallAPK(_ context.Context, location string) error {
	return unsupported("file path", location)
}

// Launch fails with ErrPlatformUnsupported.
func (Installer) Launch(_ context.Context, packageName string) error {
	return unsupported("package name", packageName)
}

// Uninstall fails with ErrPlatformUnsupported.
func (Installer) Uninstall(_ context.Context, packageName string) error {
	return unsupported("package name", packageName)
}

// OpenAppSettings fails with ErrPlatformUnsupported.
func (Installer) OpenAppSettings(_ context.Context, packageName string) error {
	return unsupported("package name", packageName)
}

func unsupported(name, value string) error {
	if err := requireArg(name, value); err != nil {
		return err
	}

	return domain.ErrPlatformUnsupported
}

func requireArg(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrInvalidArgument, name)
	}

	return nil
}
