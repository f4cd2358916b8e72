// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package styles defines consistent visual styling for TUI components.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the styles used in the TUI.
type Styles struct {
	// Color palette
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color

	// Component styles
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Tab         lipgloss.Style
	ActiveTab   lipgloss.Style
	Card        lipgloss.Style
	FocusedCard lipgloss.Style
	Button      lipgloss.Style
	Selected    lipgloss.Style
	Dock        lipgloss.Style
	Modal       lipgloss.Style
	Footer      lipgloss.Style

	// Text styles
	MutedText   lipgloss.Style
	PrimaryText lipgloss.Style
	SuccessText lipgloss.Style
	ErrorText   lipgloss.Style
	WarningText lipgloss.Style
}

// New creates a Styles instance with the snow palette.
func New() *Styles {
	primary := lipgloss.Color("#5ec4ff")    // Ice blue
	secondary := lipgloss.Color("#a8d8ff")  // Frost
	success := lipgloss.Color("#8bd49c")    // Green
	warning := lipgloss.Color("#ebbf83")    // Amber
	errorColor := lipgloss.Color("#e27e8d") // Red
	muted := lipgloss.Color("#5b6a7d")      // Slate

	background := lipgloss.Color("#0f1722")
	foreground := lipgloss.Color("#d6e4f0")

	return &Styles{
		Primary:   primary,
		Secondary: secondary,
		Success:   success,
		Warning:   warning,
		Error:     errorColor,
		Muted:     muted,

		Title: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(secondary).
			Italic(true),

		Tab: lipgloss.NewStyle().
			Foreground(foreground).
			Padding(0, 2),

		ActiveTab: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true).
			Underline(true).
			Padding(0, 2),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),

		FocusedCard: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(primary).
			Padding(0, 1),

		Button: lipgloss.NewStyle().
			Foreground(foreground).
			Border(lipgloss.NormalBorder(), false, true).
			BorderForeground(muted).
			Padding(0, 1).
			MarginRight(1),

		Selected: lipgloss.NewStyle().
			Background(primary).
			Foreground(background).
			Bold(true).
			Padding(0, 2).
			MarginRight(1),

		Dock: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true, false, false, false).
			BorderForeground(muted).
			PaddingTop(0),

		Modal: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(primary).
			Padding(1, 3),

		Footer: lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1),

		MutedText: lipgloss.NewStyle().
			Foreground(muted),

		PrimaryText: lipgloss.NewStyle().
			Foreground(primary),

		SuccessText: lipgloss.NewStyle().
			Foreground(success),

		ErrorText: lipgloss.NewStyle().
			Foreground(errorColor),

		WarningText: lipgloss.NewStyle().
			Foreground(warning),
	}
}

// StatusIcon returns styled status icons.
func (s *Styles) StatusIcon(status string) string {
	style := lipgloss.NewStyle().Foreground(s.Muted)

	var icon string

	switch status {
	case "installed", "complete":
		style = lipgloss.NewStyle().Foreground(s.Success)
		icon = "✓"
	case "error":
		style = lipgloss.NewStyle().Foreground(s.Error)
		icon = "✗"
	case "update":
		style = lipgloss.NewStyle().Foreground(s.Warning)
		icon = "↑"
	case "downloading", "installing":
		style = lipgloss.NewStyle().Foreground(s.Primary)
		icon = "⚬"
	default:
		icon = "○"
	}

	return style.Render(icon)
}

// RenderButton renders a button, highlighted when focused.
func (s *Styles) RenderButton(label string, focused bool) string {
	if focused {
		return s.Selected.Render(label)
	}

	return s.Button.Render(label)
}

// Keybinding returns styled keybinding text.
func (s *Styles) Keybinding(key, desc string) string {
	keyStyle := lipgloss.NewStyle().
		Foreground(s.Primary).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(s.Muted)

	return keyStyle.Render("["+key+"]") + " " + descStyle.Render(desc)
}
