// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SnowMediaEnt/snow-media-center/internal/config"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
	"github.com/SnowMediaEnt/snow-media-center/internal/testutil"
)

type cliFixture struct {
	dir       string
	cfgPath   string
	cacheDir  string
	installer *testutil.MockInstaller
	out       *bytes.Buffer
	errOut    *bytes.Buffer
}

func newCLIFixture(t *testing.T, apkURL string) *cliFixture {
	t.Helper()

	dir := t.TempDir()

	catalogPath := filepath.Join(dir, "apps.json")
	catalogJSON := fmt.Sprintf(`[
  {"name": "Plex", "version": "1.0", "size": "25MB", "apk": %q, "category": "streaming", "featured": true},
  {"name": "Cinema HD", "version": "2.4", "category": "streaming"},
  {"name": "IPVanish", "category": "support"}
]`, apkURL)
	require.NoError(t, os.WriteFile(catalogPath, []byte(catalogJSON), 0o600))

	cacheDir := filepath.Join(dir, "cache")
	cfgPath := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf(`state_dir = %q

[cache]
dir = %q

[catalog]
source = %q
watch = false

[download]
post_install_cleanup = "10ms"
`, filepath.Join(dir, "state"), cacheDir, catalogPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	return &cliFixture{
		dir:       dir,
		cfgPath:   cfgPath,
		cacheDir:  filepath.Join(cacheDir, "apk"),
		installer: &testutil.MockInstaller{NativePlatform: true},
		out:       &bytes.Buffer{},
		errOut:    &bytes.Buffer{},
	}
}

// run executes one command line against a fresh CLI sharing the fixture's
// state directory.
func (fx *cliFixture) run(args ...string) error {
	fx.out.Reset()
	fx.errOut.Reset()

	app := newCLI(fx.out, fx.errOut)
	app.newRuntime = func(ctx context.Context, cfg *config.Config, opts RuntimeOptions) (*Runtime, error) {
		opts.Installer = fx.installer
		opts.LogWriter = io.Discard

		return NewRuntime(ctx, cfg, opts)
	}

	return app.Run(context.Background(), append([]string{"snowmedia", "--config", fx.cfgPath}, args...))
}

func exitCode(t *testing.T, err error) int {
	t.Helper()

	var exitErr *domain.ExitError
	require.ErrorAs(t, err, &exitErr)

	return exitErr.Code
}

func TestApps(t *testing.T) {
	t.Parallel()

	fx := newCLIFixture(t, "https://example.com/plex.apk")

	t.Run("json lists the whole catalog", func(t *testing.T) {
		require.NoError(t, fx.run("--json", "apps"))

		var apps []domain.App
		require.NoError(t, json.Unmarshal(fx.out.Bytes(), &apps))
		require.Len(t, apps, 3)
		assert.Equal(t, "plex", apps[0].ID)
		assert.Equal(t, "cinemahd", apps[1].ID)
	})

	t.Run("category filter", func(t *testing.T) {
		require.NoError(t, fx.run("apps", "--category", "Support"))

		assert.Contains(t, fx.out.String(), "IPVanish")
		assert.NotContains(t, fx.out.String(), "Plex")
		assert.Contains(t, fx.out.String(), "Support")
	})

	t.Run("featured filter in plain mode", func(t *testing.T) {
		require.NoError(t, fx.run("--plain", "apps", "--featured"))
		assert.Equal(t, "plex:Plex\n", fx.out.String())
	})
}

func TestStatus(t *testing.T) {
	t.Parallel()

	fx := newCLIFixture(t, "https://example.com/plex.apk")
	fx.installer.On("IsInstalled", mock.Anything, "com.plexapp.android").Return(true, nil)
	fx.installer.On("InstalledVersion", mock.Anything, "com.plexapp.android").Return("0.9", nil)
	fx.installer.On("IsInstalled", mock.Anything, mock.Anything).Return(false, nil)

	require.NoError(t, fx.run("--json", "status"))

	var rows []domain.AppStatus
	require.NoError(t, json.Unmarshal(fx.out.Bytes(), &rows))
	require.Len(t, rows, 3)

	assert.True(t, rows[0].Installed)
	assert.Equal(t, "0.9", rows[0].InstalledVersion)
	assert.True(t, rows[0].UpdateAvailable)
	assert.Equal(t, []domain.Action{domain.ActionLaunch, domain.ActionSettings, domain.ActionUninstall}, rows[0].Actions)
	assert.False(t, rows[1].Installed)
	assert.Equal(t, []domain.Action{domain.ActionDownload}, rows[1].Actions)

	require.NoError(t, fx.run("--plain", "status", "plex"))
	assert.Equal(t, "plex:installed\n", fx.out.String())
}

func TestPinCommands(t *testing.T) {
	t.Parallel()

	fx := newCLIFixture(t, "https://example.com/plex.apk")

	require.NoError(t, fx.run("pin", "Plex"))
	assert.Contains(t, fx.out.String(), "✓ Pinned Plex (1/5)")

	require.NoError(t, fx.run("pin", "ipvanish"))

	err := fx.run("pin", "plex")
	assert.Equal(t, ExitPinError, exitCode(t, err))

	require.NoError(t, fx.run("--json", "pins"))

	var pins []domain.PinnedApp
	require.NoError(t, json.Unmarshal(fx.out.Bytes(), &pins))
	require.Len(t, pins, 2)
	assert.Equal(t, "com.plexapp.android", pins[0].PackageName)
	assert.Equal(t, "com.ixonn.ipvanish", pins[1].PackageName)

	require.NoError(t, fx.run("unpin", "plex"))

	err = fx.run("unpin", "cinemahd")
	assert.Equal(t, ExitNotFoundError, exitCode(t, err))

	require.NoError(t, fx.run("--plain", "pins"))
	assert.Equal(t, "ipvanish:com.ixonn.ipvanish\n", fx.out.String())
}

func TestInstall(t *testing.T) {
	t.Parallel()

	payload := make([]byte, 64*1024)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.android.package-archive")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)

	fx := newCLIFixture(t, server.URL+"/plex.apk")
	fx.installer.On("InstallAPK", mock.Anything, filepath.Join(fx.cacheDir, "plex-1.0.apk")).Return(nil).Once()
	fx.installer.On("IsInstalled", mock.Anything, "com.plexapp.android").Return(true, nil).Maybe()
	fx.installer.On("InstalledVersion", mock.Anything, "com.plexapp.android").Return("1.0", nil).Maybe()

	require.NoError(t, fx.run("install", "plex"))
	assert.Contains(t, fx.out.String(), "Installer started for Plex")

	apks, err := filepath.Glob(filepath.Join(fx.cacheDir, "*.apk"))
	require.NoError(t, err)
	assert.Empty(t, apks, "cleanup runs before the command exits")

	fx.installer.AssertExpectations(t)
}

func TestDownloadFailureExitCode(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	fx := newCLIFixture(t, server.URL+"/missing.apk")

	err := fx.run("download", "plex")
	assert.Equal(t, ExitNetworkError, exitCode(t, err))
	assert.Contains(t, err.Error(), "Plex: The download failed")
}

func TestAppArgumentErrors(t *testing.T) {
	t.Parallel()

	fx := newCLIFixture(t, "https://example.com/plex.apk")

	err := fx.run("launch", "nope")
	assert.Equal(t, ExitNotFoundError, exitCode(t, err))
	assert.Contains(t, err.Error(), "App not found in the catalog")

	err = fx.run("launch")
	assert.Equal(t, ExitUsageError, exitCode(t, err), "no picker without a terminal")
}

func TestLaunchAndUninstall(t *testing.T) {
	t.Parallel()

	fx := newCLIFixture(t, "https://example.com/plex.apk")
	fx.installer.On("Launch", mock.Anything, "com.plexapp.android").Return(nil).Once()
	fx.installer.On("Uninstall", mock.Anything, "com.plexapp.android").Return(nil).Once()
	fx.installer.On("OpenAppSettings", mock.Anything, "com.plexapp.android").Return(nil).Once()
	fx.installer.On("IsInstalled", mock.Anything, "com.plexapp.android").Return(false, nil).Maybe()

	require.NoError(t, fx.run("launch", "plex"))
	assert.Contains(t, fx.out.String(), "Launched Plex")

	require.NoError(t, fx.run("settings", "plex"))
	require.NoError(t, fx.run("uninstall", "plex"))
	assert.Contains(t, fx.out.String(), "waiting for confirmation")

	fx.installer.AssertExpectations(t)
}

func TestCacheCommands(t *testing.T) {
	t.Parallel()

	fx := newCLIFixture(t, "https://example.com/plex.apk")

	require.NoError(t, fx.run("cache", "ls"))
	assert.Contains(t, fx.out.String(), "Cache is empty")

	require.NoError(t, os.MkdirAll(fx.cacheDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(fx.cacheDir, "plex-1.0.apk"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(fx.cacheDir, "old-0.1.apk"), []byte("b"), 0o600))

	require.NoError(t, fx.run("--json", "cache", "ls"))

	var entries []domain.CacheEntry
	require.NoError(t, json.Unmarshal(fx.out.Bytes(), &entries))
	assert.Len(t, entries, 2)

	require.NoError(t, fx.run("cache", "clean", "--keep", "plex-1.0.apk"))
	assert.Contains(t, fx.out.String(), "Removed 1 cached APK")

	_, err := os.Stat(filepath.Join(fx.cacheDir, "plex-1.0.apk"))
	assert.NoError(t, err)
}

func TestGlobalFlagValidation(t *testing.T) {
	t.Parallel()

	fx := newCLIFixture(t, "https://example.com/plex.apk")

	assert.Equal(t, ExitUsageError, exitCode(t, fx.run("--json", "--plain", "apps")))
	assert.Equal(t, ExitUsageError, exitCode(t, fx.run("--color", "sometimes", "apps")))
	assert.Equal(t, ExitUsageError, exitCode(t, fx.run("--platform", "ios", "apps")))
}

func TestVersion(t *testing.T) {
	t.Parallel()

	fx := newCLIFixture(t, "https://example.com/plex.apk")

	require.NoError(t, fx.run("--json", "version"))

	var v map[string]string
	require.NoError(t, json.Unmarshal(fx.out.Bytes(), &v))
	assert.Equal(t, Version, v["version"])
}
