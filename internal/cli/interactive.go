// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/SnowMediaEnt/snow-media-center/internal/catalog"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
	"github.com/SnowMediaEnt/snow-media-center/internal/logging"
	"github.com/SnowMediaEnt/snow-media-center/internal/tui"
)

func getTitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginBottom(1)
}

// canPrompt reports whether an interactive picker may be shown.
func (app *CLI) canPrompt() bool {
	return !app.json && !app.plain && !app.quiet && app.console.Interactive()
}

func (app *CLI) pickApp(apps []domain.App, title string) (domain.App, error) {
	if len(apps) == 0 {
		return domain.App{}, fmt.Errorf("%w: catalog is empty", domain.ErrAppNotFound)
	}

	options := make([]huh.Option[string], 0, len(apps))
	for _, a := range apps {
		options = append(options, huh.NewOption(fmt.Sprintf("%s  %s", a.Name, a.Version), a.ID))
	}

	selected, err := app.runSelect(title, options)
	if err != nil {
		return domain.App{}, err
	}

	return catalog.Find(apps, selected)
}

func (app *CLI) pickPinned(pins []domain.PinnedApp) (domain.PinnedApp, error) {
	options := make([]huh.Option[string], 0, len(pins))
	for _, p := range pins {
		options = append(options, huh.NewOption(p.Name, p.ID))
	}

	selected, err := app.runSelect("Remove an app from the pinned dock", options)
	if err != nil {
		return domain.PinnedApp{}, err
	}

	pin, _ := findPinned(pins, selected)

	return pin, nil
}

func (app *CLI) runSelect(title string, options []huh.Option[string]) (string, error) {
	_, _ = fmt.Fprint(app.stdout, getTitleStyle().Render("◈ Snow Media"))
	_, _ = fmt.Fprintln(app.stdout)

	var selected string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(options...).
				Value(&selected),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", domain.NewExitError(ExitInterruptError, "✗ Cancelled", err)
		}

		return "", err
	}

	return selected, nil
}

// AppMarkdown renders an app's details as markdown.
func AppMarkdown(app domain.App, status domain.AppStatus) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", app.Name)

	if app.Description != "" {
		fmt.Fprintf(&b, "> %s\n\n", app.Description)
	}

	version := app.Version
	if status.Installed && status.InstalledVersion != "" {
		version = fmt.Sprintf("%s (installed %s)", app.Version, status.InstalledVersion)
	}

	fmt.Fprintf(&b, "- **Version:** %s\n", version)
	fmt.Fprintf(&b, "- **Size:** %s\n", app.Size)
	fmt.Fprintf(&b, "- **Category:** %s\n", categoryTitle(app.Category))
	fmt.Fprintf(&b, "- **Package:** `%s`\n", app.Package())
	fmt.Fprintf(&b, "- **State:** %s\n", installedLabel(status.Installed))

	if status.UpdateAvailable {
		b.WriteString("- **Update available**\n")
	}

	labels := make([]string, 0, len(status.Actions))
	for _, action := range status.Actions {
		labels = append(labels, action.Label())
	}

	fmt.Fprintf(&b, "- **Actions:** %s\n", strings.Join(labels, ", "))

	if app.DownloadURL != "" {
		fmt.Fprintf(&b, "\n<%s>\n", app.DownloadURL)
	}

	return b.String()
}

func renderMarkdown(markdown string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return markdown
	}

	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}

	return strings.TrimRight(out, "\n")
}

func categoryTitle(category string) string {
	return cases.Title(language.Und).String(category)
}

func (app *CLI) createTUICommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Open the store in the terminal",
		Description: `Browse the catalog with the keyboard the way a TV remote would.

Navigation:
- Arrow keys or h/j/k/l move focus
- Enter selects, Esc or Backspace goes back
- p pins or unpins the focused app
- q or Ctrl+C quits`,
		Action: app.runTUI,
	}
}

func (app *CLI) runTUI(ctx context.Context, _ *cli.Command) error {
	logFile, err := logging.OpenFile(app.cfg.LogFilePath())
	if err != nil {
		return app.fail(err, "")
	}
	defer logFile.Close()

	rt, err := app.newRuntime(ctx, app.cfg, RuntimeOptions{
		LogWriter: logFile,
		Verbose:   app.verbose,
	})
	if err != nil {
		return app.fail(err, "")
	}

	defer func() {
		if cerr := rt.Close(); cerr != nil {
			rt.Logger.Warn().Err(cerr).Msg("shutdown")
		}
	}()

	if err := tui.LaunchInteractive(ctx, rt.Services()); err != nil {
		if errors.Is(err, tui.ErrNoTerminal) {
			return domain.NewExitError(ExitGeneralError, "✗ Failed to launch interactive interface (terminal required)", err)
		}

		return app.fail(err, "")
	}

	return nil
}
