// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package tui

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SnowMediaEnt/snow-media-center/internal/application"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
	"github.com/SnowMediaEnt/snow-media-center/internal/download"
	"github.com/SnowMediaEnt/snow-media-center/internal/focus"
	"github.com/SnowMediaEnt/snow-media-center/internal/testutil"
	"github.com/SnowMediaEnt/snow-media-center/internal/tui/styles"
)

// idleModal is a modal with a session but no transfer running.
func idleModal(t *testing.T, start time.Time) *DownloadModal {
	t.Helper()

	app := testutil.CreateTestApp("plex", "Plex")

	m := newDownloadModal(context.Background(), styles.New(), nil, app)
	m.now = func() time.Time { return start }
	m.session = domain.NewDownloadSession(app, start)
	m.events = make(chan tea.Msg, 1)
	m.alive = &atomic.Bool{}
	m.phase = domain.PhaseDownloading
	m.started = start
	m.setButtons(ButtonCancel)

	return m
}

func TestDownloadModalProgress(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := idleModal(t, start)

	cmd := m.Update(downloadProgressMsg{
		session:  m.session.ID,
		progress: application.Progress{Percent: 42, Received: 4_000_000, Total: 25_000_000},
	})
	require.NotNil(t, cmd, "progress keeps listening for events")

	m.now = func() time.Time { return start.Add(2 * time.Second) }
	assert.InDelta(t, 2_000_000, m.Speed(), 1)

	view := m.View()
	assert.Contains(t, view, "Downloading Plex")
	assert.Contains(t, view, " 42%")
	assert.Contains(t, view, "4.0 MB of 25 MB")
	assert.Contains(t, view, "2.0 MB/s")

	assert.Nil(t, m.Update(downloadProgressMsg{session: "stale", progress: application.Progress{Percent: 90}}))
	assert.Equal(t, 42, m.percent)
}

func TestDownloadModalFailure(t *testing.T) {
	t.Parallel()

	m := idleModal(t, time.Now())

	m.Update(downloadFinishedMsg{session: m.session.ID, err: domain.ErrDownloadCancelled})

	assert.Equal(t, domain.PhaseError, m.Phase())
	assert.Equal(t, []string{ButtonRetry, ButtonClose}, m.Buttons())
	assert.Contains(t, m.View(), "Download cancelled")

	outcome, _ := m.HandleInput(focus.InputLeft)
	assert.Equal(t, modalStay, outcome)
	assert.Equal(t, ButtonClose, m.Selected(), "selection wraps")

	outcome, _ = m.HandleInput(focus.InputSelect)
	assert.Equal(t, modalClose, outcome)
	assert.True(t, m.closed)
}

func TestDownloadModalInstallRefused(t *testing.T) {
	t.Parallel()

	m := idleModal(t, time.Now())

	m.Update(downloadFinishedMsg{session: m.session.ID, result: &download.Result{Bytes: 1024, Path: "/tmp/plex.apk"}})
	require.Equal(t, domain.PhaseComplete, m.Phase())
	assert.Equal(t, 100, m.percent)

	// The service rolls a refused handoff back to complete.
	m.session.Phase = domain.PhaseComplete
	m.Update(installFinishedMsg{session: m.session.ID, err: fmt.Errorf("%w: activity manager busy", domain.ErrInstallerLaunchFailed)})

	assert.Equal(t, domain.PhaseComplete, m.Phase())
	assert.Equal(t, []string{ButtonInstallNow, ButtonInstallLater}, m.Buttons())
	assert.Contains(t, m.View(), "refused to start the installer")
}

func TestDownloadModalBackDismisses(t *testing.T) {
	t.Parallel()

	m := idleModal(t, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	m.ctx, m.cancel = ctx, cancel
	m.alive.Store(true)

	outcome, cmd := m.HandleInput(focus.InputBack)

	assert.Equal(t, modalClose, outcome)
	assert.Nil(t, cmd)
	assert.False(t, m.alive.Load())
	require.ErrorIs(t, ctx.Err(), context.Canceled)

	assert.Nil(t, m.Update(downloadFinishedMsg{session: m.session.ID}))
}
