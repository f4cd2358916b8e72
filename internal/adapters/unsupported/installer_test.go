// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package unsupported

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

func TestInstaller(t *testing.T) {
	t.Parallel()

	var installer domain.Installer = New()

	ctx := context.Background()

	assert.False(t, installer.Native())

	installed, err := installer.IsInstalled(ctx, "com.plexapp.android")
	require.NoError(t, err)
	assert.False(t, installed)

	require.ErrorIs(t, installer.InstallAPK(ctx, "plex.apk"), domain.ErrPlatformUnsupported)
	require.ErrorIs(t, installer.Launch(ctx, "com.plexapp.android"), domain.ErrPlatformUnsupported)
	require.ErrorIs(t, installer.Uninstall(ctx, "com.plexapp.android"), domain.ErrPlatformUnsupported)
	require.ErrorIs(t, installer.OpenAppSettings(ctx, "com.plexapp.android"), domain.ErrPlatformUnsupported)

	_, err = installer.IsInstalled(ctx, "")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	require.ErrorIs(t, installer.Launch(ctx, ""), domain.ErrInvalidArgument)
}
