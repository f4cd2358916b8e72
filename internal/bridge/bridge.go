// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package bridge selects the installer capability once at startup.
package bridge

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/SnowMediaEnt/snow-media-center/internal/adapters/adb"
	"github.com/SnowMediaEnt/snow-media-center/internal/adapters/unsupported"
	"github.com/SnowMediaEnt/snow-media-center/internal/config"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

// Select returns the native installer when native is true and the
// unsupported fallback otherwise.
func Select(native bool, nativeInstaller domain.Installer) domain.Installer {
	if native && nativeInstaller != nil {
		return nativeInstaller
	}

	return unsupported.New()
}

// IsNative evaluates the platform setting. "auto" probes for a reachable
// device through the adb installer.
func IsNative(ctx context.Context, platform string, device *adb.Installer) bool {
	switch platform {
	case config.PlatformNative:
		return true
	case config.PlatformWeb:
		return false
	default:
		return device != nil && device.Available(ctx)
	}
}

// Resolve combines IsNative and Select and logs the outcome.
func Resolve(ctx context.Context, platform string, device *adb.Installer, logger zerolog.Logger) (domain.Installer, bool) {
	native := IsNative(ctx, platform, device)

	logger.Info().Str("platform", platform).Bool("native", native).Msg("installer selected")

	if device == nil {
		return Select(native, nil), native
	}

	return Select(native, device), native
}
