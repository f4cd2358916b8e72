// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
	"github.com/SnowMediaEnt/snow-media-center/internal/focus"
)

// Layout constants for consistent spacing.
const (
	minViewportHeight = 3
	maxCardWidth      = 72
	cardChrome        = 4 // border and padding
)

func (a *App) render() string {
	if a.modal != nil {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.modal.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderHeader(),
		a.viewport.View(),
		a.renderDock(),
		a.renderFooter(),
	)
}

func (a *App) resize() {
	a.viewport.Width = a.width

	chrome := lipgloss.Height(a.renderHeader()) + lipgloss.Height(a.renderDock()) + lipgloss.Height(a.renderFooter())
	a.viewport.Height = max(minViewportHeight, a.height-chrome)

	a.renderCards()
}

func (a *App) renderHeader() string {
	cur := a.nav.Current()

	items := []string{a.headerItem("← Back", cur == focus.BackTarget, false)}

	title := cases.Title(language.Und)
	for i, category := range a.categories {
		items = append(items, a.headerItem(title.String(category), cur == focus.TabTarget(i), i == a.activeTab))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Title.Render("❄ Snow Media Center"),
		lipgloss.JoinHorizontal(lipgloss.Top, items...),
	)
}

func (a *App) headerItem(label string, focused, active bool) string {
	switch {
	case focused:
		return a.styles.Selected.Render(label)
	case active:
		return a.styles.ActiveTab.Render(label)
	default:
		return a.styles.Tab.Render(label)
	}
}

// renderCards lays the active tab's cards out in the viewport and records
// where each one starts.
func (a *App) renderCards() {
	clear(a.cardLines)
	clear(a.cardHeight)

	switch {
	case a.loading:
		a.viewport.SetContent(a.styles.MutedText.Render("Loading catalog…"))
		return
	case a.loadErr != nil && len(a.apps) == 0:
		a.viewport.SetContent(a.styles.ErrorText.Render("The catalog is unavailable. Press r to retry."))
		return
	case len(a.cards) == 0:
		a.viewport.SetContent(a.styles.MutedText.Render("No apps in this category."))
		return
	}

	cur := a.nav.Current()
	blocks := make([]string, 0, len(a.cards))
	line := 0

	for _, app := range a.cards {
		block := a.renderCard(app, cur)
		height := lipgloss.Height(block)

		a.cardLines[app.ID] = line
		a.cardHeight[app.ID] = height
		line += height

		blocks = append(blocks, block)
	}

	a.viewport.SetContent(strings.Join(blocks, "\n"))
}

func (a *App) cardWidth() int {
	return max(20, min(maxCardWidth, a.width-2))
}

func (a *App) renderCard(app domain.App, cur focus.Target) string {
	s := a.styles
	inner := a.cardWidth() - cardChrome
	status, known := a.svc.Reconciler.Status(app.ID)

	name := app.Name
	if app.Featured {
		name += " ★"
	}

	if a.svc.Pinned.Contains(app.ID) {
		name += " ◆"
	}

	lines := []string{
		s.Title.Render(truncate(name, inner)),
		s.MutedText.Render(truncate(fmt.Sprintf("v%s · %s", app.Version, app.Size), inner)),
	}

	if app.Description != "" {
		lines = append(lines, truncate(app.Description, inner))
	}

	lines = append(lines, a.statusLine(app, status, known))

	actions := a.svc.Reconciler.Actions(app)
	buttons := make([]string, 0, len(actions))

	for _, action := range actions {
		buttons = append(buttons, s.RenderButton(action.Label(), cur == focus.ActionTarget(action, app.ID)))
	}

	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, buttons...))

	style := s.Card
	if cur == focus.AppTarget(app.ID) {
		style = s.FocusedCard
	}

	return style.Width(a.cardWidth() - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (a *App) statusLine(app domain.App, status domain.InstallStatus, known bool) string {
	s := a.styles

	switch {
	case !known:
		return s.StatusIcon("unknown") + " " + s.MutedText.Render("Checking…")
	case !status.Installed:
		return s.StatusIcon("") + " " + s.MutedText.Render("Not installed")
	case domain.UpdateAvailable(status.InstalledVersion, app.Version):
		return s.StatusIcon("update") + " " + s.WarningText.Render("Update available: "+status.InstalledVersion+" → "+app.Version)
	default:
		label := "Installed"
		if status.InstalledVersion != "" {
			label += " " + status.InstalledVersion
		}

		return s.StatusIcon("installed") + " " + s.SuccessText.Render(label)
	}
}

func (a *App) renderDock() string {
	s := a.styles
	pins := a.svc.Pinned.Apps()
	cur := a.nav.Current()

	label := s.Subtitle.Render(fmt.Sprintf("Pinned %d/%d", len(pins), a.svc.Pinned.Max()))

	if len(pins) == 0 {
		return s.Dock.Render(label + "  " + s.MutedText.Render("Press p on an app to pin it here"))
	}

	items := make([]string, 0, len(pins))
	for _, pin := range pins {
		items = append(items, s.RenderButton(truncate(pin.Name, 18), cur == focus.PinnedTarget(pin.ID)))
	}

	return s.Dock.Render(lipgloss.JoinHorizontal(lipgloss.Center, append([]string{label + "  "}, items...)...))
}

func (a *App) renderFooter() string {
	s := a.styles

	flash := ""
	if a.flash != "" {
		style := s.SuccessText
		if a.flashErr {
			style = s.ErrorText
		}

		flash = style.Render(truncate(a.flash, max(10, a.width)))
	}

	if !a.svc.Native {
		hint := s.WarningText.Render("No device attached: installs run in preview mode")
		if flash == "" {
			flash = hint
		}
	}

	help := make([]string, 0, len(a.keys.ShortHelp()))
	for _, binding := range a.keys.ShortHelp() {
		h := binding.Help()
		help = append(help, s.Keybinding(h.Key, h.Desc))
	}

	return s.Footer.Render(lipgloss.JoinVertical(lipgloss.Left, flash, strings.Join(help, "  ")))
}

// truncate shortens s to width display cells.
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
