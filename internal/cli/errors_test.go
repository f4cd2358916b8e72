// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SnowMediaEnt/snow-media-center/internal/catalog"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"exit error keeps its code", domain.NewExitError(ExitConfigError, "bad", nil), ExitConfigError},
		{"http status", &domain.HTTPStatusError{StatusCode: 404}, ExitNetworkError},
		{"timeout beats failure", fmt.Errorf("%w: %w", domain.ErrDownloadTimeout, domain.ErrDownloadFailed), ExitTimeoutError},
		{"cancelled", domain.ErrDownloadCancelled, ExitInterruptError},
		{"context cancelled", context.Canceled, ExitInterruptError},
		{"installer refusal", &domain.InstallError{Code: "INSTALL_FAILED_OLDER_SDK"}, ExitInstallError},
		{"pin limit", domain.ErrPinLimitReached, ExitPinError},
		{"busy", domain.ErrSessionActive, ExitBusyError},
		{"no device", domain.ErrPlatformUnsupported, ExitDependencyError},
		{"bad catalog", catalog.ErrInvalidCatalog, ExitCatalogError},
		{"catalog fetch", fmt.Errorf("%w: 502", catalog.ErrCatalogUnavailable), ExitNetworkError},
		{"unknown", errors.New("boom"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCodeFor(tt.err))
		})
	}
}

func TestAppMarkdown(t *testing.T) {
	t.Parallel()

	app := domain.App{
		ID: "plex", Name: "Plex", Version: "1.2", Size: "25MB", Category: "streaming",
		Description: "Stream your library", DownloadURL: "https://example.com/plex.apk",
	}
	row := domain.AppStatus{
		Installed:        true,
		InstalledVersion: "1.0",
		UpdateAvailable:  true,
		Actions:          domain.ActionsFor(true),
	}

	md := AppMarkdown(app, row)

	assert.Contains(t, md, "# Plex\n\n> Stream your library")
	assert.Contains(t, md, "- **Version:** 1.2 (installed 1.0)")
	assert.Contains(t, md, "- **Category:** Streaming")
	assert.Contains(t, md, "- **Package:** `com.plexapp.android`")
	assert.Contains(t, md, "- **Update available**")
	assert.Contains(t, md, "- **Actions:** Launch, Settings, Uninstall")
	assert.Contains(t, md, "<https://example.com/plex.apk>")
}
