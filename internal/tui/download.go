// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/SnowMediaEnt/snow-media-center/internal/application"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
	"github.com/SnowMediaEnt/snow-media-center/internal/download"
	"github.com/SnowMediaEnt/snow-media-center/internal/focus"
	"github.com/SnowMediaEnt/snow-media-center/internal/tui/styles"
)

// Modal buttons.
const (
	ButtonCancel       = "Cancel"
	ButtonInstallNow   = "Install Now"
	ButtonInstallLater = "Install Later"
	ButtonOpenApp      = "Open App"
	ButtonClose        = "Close"
	ButtonRetry        = "Retry"
)

// eventBuffer holds more than one download's worth of progress reports.
const eventBuffer = 128

type downloadProgressMsg struct {
	session  string
	progress application.Progress
}

type downloadFinishedMsg struct {
	session string
	result  *download.Result
	err     error
}

type installFinishedMsg struct {
	session string
	err     error
}

// modalOutcome tells the store what to do after a modal input.
type modalOutcome int

const (
	modalStay modalOutcome = iota
	modalClose
	modalLaunch
)

// DownloadModal shows one download session from first byte to the
// installed confirmation.
//
//nolint:containedctx // the modal owns the session's cancellation
type DownloadModal struct {
	styles   *styles.Styles
	installs *application.InstallService
	app      domain.App
	parent   context.Context
	now      func() time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	alive   *atomic.Bool
	events  chan tea.Msg
	session *domain.DownloadSession
	result  *download.Result

	// phase mirrors the session for rendering; the session itself belongs
	// to the worker goroutine until it reports back.
	phase    domain.Phase
	percent  int
	received int64
	total    int64
	started  time.Time
	err      error

	bar      progress.Model
	buttons  []string
	selected int
	closed   bool
}

func newDownloadModal(ctx context.Context, st *styles.Styles, installs *application.InstallService, app domain.App) *DownloadModal {
	return &DownloadModal{
		styles:   st,
		installs: installs,
		app:      app,
		parent:   ctx,
		now:      time.Now,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Start begins a fresh session and returns the command that relays its
// events.
func (m *DownloadModal) Start() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}

	ctx, cancel := context.WithCancel(m.parent)
	alive := &atomic.Bool{}
	alive.Store(true)

	events := make(chan tea.Msg, eventBuffer)
	session := m.installs.NewSession(m.app)

	m.ctx, m.cancel, m.alive, m.events, m.session = ctx, cancel, alive, events, session
	m.result = nil
	m.phase = domain.PhaseDownloading
	m.percent, m.received, m.total = 0, 0, 0
	m.started = m.now()
	m.err = nil
	m.closed = false
	m.setButtons(ButtonCancel)

	installs := m.installs

	go func() {
		result, err := installs.Download(ctx, session, alive.Load, func(p application.Progress) {
			select {
			case events <- downloadProgressMsg{session: session.ID, progress: p}:
			default:
			}
		})

		select {
		case events <- downloadFinishedMsg{session: session.ID, result: result, err: err}:
		case <-ctx.Done():
		}
	}()

	return waitForEvent(events)
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// Dismiss stops progress reporting and cancels the transfer.
func (m *DownloadModal) Dismiss() {
	m.closed = true

	if m.alive != nil {
		m.alive.Store(false)
	}

	if m.cancel != nil {
		m.cancel()
	}
}

// Phase returns the phase last reported to the UI.
func (m *DownloadModal) Phase() domain.Phase { return m.phase }

// Buttons returns the visible buttons.
func (m *DownloadModal) Buttons() []string { return append([]string(nil), m.buttons...) }

// Selected returns the focused button.
func (m *DownloadModal) Selected() string {
	if len(m.buttons) == 0 {
		return ""
	}

	return m.buttons[m.selected]
}

// Update consumes session events. Events from an earlier session are dropped.
func (m *DownloadModal) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case downloadProgressMsg:
		if m.closed || msg.session != m.session.ID {
			return nil
		}

		m.percent = msg.progress.Percent
		m.received = msg.progress.Received
		m.total = msg.progress.Total

		return waitForEvent(m.events)

	case downloadFinishedMsg:
		if m.closed || msg.session != m.session.ID {
			return nil
		}

		if msg.err != nil {
			m.phase = domain.PhaseError
			m.err = msg.err
			m.setButtons(ButtonRetry, ButtonClose)

			return nil
		}

		m.result = msg.result
		m.phase = domain.PhaseComplete
		m.percent = 100
		m.received = msg.result.Bytes
		m.setButtons(ButtonInstallNow, ButtonInstallLater)

		return nil

	case installFinishedMsg:
		if m.closed || msg.session != m.session.ID {
			return nil
		}

		m.phase = m.session.Phase

		if msg.err != nil {
			m.err = msg.err
			m.setButtons(ButtonInstallNow, ButtonInstallLater)

			return nil
		}

		m.err = nil
		m.setButtons(ButtonOpenApp, ButtonClose)

		return nil
	}

	return nil
}

// HandleInput applies one remote input to the modal.
func (m *DownloadModal) HandleInput(in focus.Input) (modalOutcome, tea.Cmd) {
	switch in {
	case focus.InputBack:
		m.Dismiss()
		return modalClose, nil
	case focus.InputUp, focus.InputLeft:
		m.move(-1)
	case focus.InputDown, focus.InputRight:
		m.move(1)
	case focus.InputSelect:
		return m.press(m.Selected())
	}

	return modalStay, nil
}

func (m *DownloadModal) press(button string) (modalOutcome, tea.Cmd) {
	switch button {
	case ButtonCancel:
		m.Dismiss()
		return modalClose, nil
	case ButtonInstallNow:
		return modalStay, m.install()
	case ButtonInstallLater, ButtonClose:
		m.Dismiss()
		return modalClose, nil
	case ButtonOpenApp:
		m.Dismiss()
		return modalLaunch, nil
	case ButtonRetry:
		return modalStay, m.Start()
	}

	return modalStay, nil
}

func (m *DownloadModal) install() tea.Cmd {
	ctx, installs, session, result := m.ctx, m.installs, m.session, m.result

	m.phase = domain.PhaseInstalling
	m.err = nil
	m.setButtons()

	return func() tea.Msg {
		return installFinishedMsg{session: session.ID, err: installs.Install(ctx, session, result)}
	}
}

func (m *DownloadModal) setButtons(buttons ...string) {
	m.buttons = buttons
	m.selected = 0
}

func (m *DownloadModal) move(delta int) {
	if len(m.buttons) == 0 {
		return
	}

	m.selected = (m.selected + delta + len(m.buttons)) % len(m.buttons)
}

// Speed returns the average transfer rate so far in bytes per second.
func (m *DownloadModal) Speed() float64 {
	elapsed := m.now().Sub(m.started).Seconds()
	if elapsed <= 0 {
		return 0
	}

	return float64(m.received) / elapsed
}

// SetWidth fits the progress bar to the terminal.
func (m *DownloadModal) SetWidth(width int) {
	m.bar.Width = max(10, min(60, width-16))
}

// View renders the modal box.
func (m *DownloadModal) View() string {
	s := m.styles

	lines := []string{
		s.Title.Render(m.title()),
		s.MutedText.Render(fmt.Sprintf("v%s · %s", m.app.Version, m.app.Size)),
		"",
		m.bar.ViewAs(float64(m.percent) / 100),
		m.readout(),
	}

	if status := m.statusLine(); status != "" {
		lines = append(lines, "", status)
	}

	if len(m.buttons) > 0 {
		buttons := make([]string, 0, len(m.buttons))
		for i, b := range m.buttons {
			buttons = append(buttons, s.RenderButton(b, i == m.selected))
		}

		lines = append(lines, "", lipgloss.JoinHorizontal(lipgloss.Center, buttons...))
	}

	return s.Modal.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *DownloadModal) title() string {
	switch m.phase {
	case domain.PhaseComplete:
		return "Downloaded " + m.app.Name
	case domain.PhaseInstalling:
		return "Installing " + m.app.Name
	case domain.PhaseInstalled:
		return m.app.Name + " is ready"
	case domain.PhaseError:
		return "Download failed"
	default:
		return "Downloading " + m.app.Name
	}
}

func (m *DownloadModal) readout() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%3d%%  %s", m.percent, humanize.Bytes(uint64(max(m.received, 0))))

	if m.total > 0 {
		fmt.Fprintf(&b, " of %s", humanize.Bytes(uint64(m.total)))
	}

	if m.phase == domain.PhaseDownloading {
		fmt.Fprintf(&b, " · %s/s", humanize.Bytes(uint64(m.Speed())))
	}

	return b.String()
}

func (m *DownloadModal) statusLine() string {
	s := m.styles

	if m.err != nil {
		if errors.Is(m.err, domain.ErrDownloadCancelled) {
			return s.WarningText.Render("Download cancelled")
		}

		return s.ErrorText.Render(domain.FormatErrorMessage(m.err, m.app.Name, false))
	}

	switch m.phase {
	case domain.PhaseComplete:
		return s.SuccessText.Render("Saved to the cache. Install now or later.")
	case domain.PhaseInstalling:
		return s.PrimaryText.Render("Starting the installer on the device…")
	case domain.PhaseInstalled:
		return s.SuccessText.Render("Confirm the install on the device, then open the app.")
	}

	return ""
}
