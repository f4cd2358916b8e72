// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	cliAdapter "github.com/SnowMediaEnt/snow-media-center/internal/adapters/cli"
	"github.com/SnowMediaEnt/snow-media-center/internal/application"
	"github.com/SnowMediaEnt/snow-media-center/internal/catalog"
	"github.com/SnowMediaEnt/snow-media-center/internal/console"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
	"github.com/SnowMediaEnt/snow-media-center/internal/platform"
)

// runtimeAction builds the runtime, applies --timeout and tears both down
// after fn returns.
type runtimeAction func(ctx context.Context, cmd *cli.Command, rt *Runtime) error

func (app *CLI) withRuntime(fn runtimeAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		ctx, cancel := app.withTimeout(ctx)
		defer cancel()

		rt, err := app.newRuntime(ctx, app.cfg, RuntimeOptions{
			LogWriter: app.stderr,
			LogTTY:    console.IsTTY(app.stderr),
			Verbose:   app.verbose,
			Terse:     !app.verbose,
		})
		if err != nil {
			return app.fail(err, "")
		}

		defer func() {
			if cerr := rt.Close(); cerr != nil {
				rt.Logger.Warn().Err(cerr).Msg("shutdown")
			}
		}()

		return fn(ctx, cmd, rt)
	}
}

func (app *CLI) createCommands() []*cli.Command {
	return []*cli.Command{
		app.createAppsCommand(),
		app.createShowCommand(),
		app.createDownloadCommand(),
		app.createInstallCommand(),
		app.appCommand("launch", "Launch an installed app on the device", app.runLaunch),
		app.appCommand("uninstall", "Open the device's uninstall confirmation for an app", app.runUninstall),
		app.appCommand("settings", "Open the device's settings screen for an app", app.runSettings),
		app.createStatusCommand(),
		app.appCommand("pin", "Add an app to the pinned dock", app.runPin),
		app.createUnpinCommand(),
		app.createPinsCommand(),
		app.createCacheCommand(),
		app.createTUICommand(),
		app.createVersionCommand(),
	}
}

func (app *CLI) appCommand(name, usage string, fn func(ctx context.Context, rt *Runtime, target domain.App) error) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<app>",
		Action: app.withRuntime(func(ctx context.Context, cmd *cli.Command, rt *Runtime) error {
			target, err := app.appArg(ctx, cmd, rt, usage)
			if err != nil {
				return err
			}

			return fn(ctx, rt, target)
		}),
	}
}

// appArg resolves the first argument against the catalog. Without an
// argument an interactive terminal gets a picker.
func (app *CLI) appArg(ctx context.Context, cmd *cli.Command, rt *Runtime, title string) (domain.App, error) {
	apps, err := rt.LoadApps(ctx)
	if err != nil {
		return domain.App{}, app.fail(err, "")
	}

	ref := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if ref == "" {
		if !app.canPrompt() {
			return domain.App{}, app.usageError(fmt.Sprintf("missing app argument: %s %s <app>", platform.AppName, cmd.Name))
		}

		picked, err := app.pickApp(apps, title)
		if err != nil {
			return domain.App{}, app.fail(err, "")
		}

		return picked, nil
	}

	found, err := catalog.Find(apps, ref)
	if err != nil {
		return domain.App{}, app.fail(err, ref)
	}

	return found, nil
}

func (app *CLI) createAppsCommand() *cli.Command {
	return &cli.Command{
		Name:  "apps",
		Usage: "List the app catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Usage: "only list one category"},
			&cli.BoolFlag{Name: "featured", Usage: "only list featured apps"},
		},
		Action: app.withRuntime(app.runApps),
	}
}

func (app *CLI) runApps(ctx context.Context, cmd *cli.Command, rt *Runtime) error {
	apps, err := rt.LoadApps(ctx)
	if err != nil {
		return app.fail(err, "")
	}

	if category := cmd.String("category"); category != "" {
		apps = catalog.InCategory(apps, strings.ToLower(category))
	}

	if cmd.Bool("featured") {
		featured := apps[:0:0]

		for _, a := range apps {
			if a.Featured {
				featured = append(featured, a)
			}
		}

		apps = featured
	}

	if app.json {
		return app.output.Success("", apps)
	}

	if app.plain {
		for _, a := range apps {
			app.console.PlainKeyValue(a.ID, a.Name)
		}

		return nil
	}

	rows := make([][]string, 0, len(apps))
	for _, a := range apps {
		name := a.Name
		if a.Featured {
			name += " ★"
		}

		rows = append(rows, []string{a.ID, name, a.Version, a.Size, categoryTitle(a.Category)})
	}

	return app.output.Table([]string{"ID", "NAME", "VERSION", "SIZE", "CATEGORY"}, rows)
}

func (app *CLI) createShowCommand() *cli.Command {
	return app.appCommand("show", "Show details for an app", app.runShow)
}

func (app *CLI) runShow(ctx context.Context, rt *Runtime, target domain.App) error {
	row := application.Row(target, rt.Reconciler.EnsureStatus(ctx, target))

	if app.json {
		return app.output.Success("", map[string]any{"app": target, "status": row})
	}

	markdown := AppMarkdown(target, row)

	if app.plain || !console.IsTTY(app.stdout) {
		return app.output.Success(markdown, nil)
	}

	return app.output.Success(renderMarkdown(markdown), nil)
}

func (app *CLI) createDownloadCommand() *cli.Command {
	return app.appCommand("download", "Download an app's APK into the cache", app.runDownload)
}

func (app *CLI) runDownload(ctx context.Context, rt *Runtime, target domain.App) error {
	result, err := rt.Installs.Fetch(ctx, target, app.progressPrinter(target.Name))
	if err != nil {
		return app.fail(err, target.Name)
	}

	if app.json {
		return app.output.Success("", result)
	}

	return app.done("Downloaded %s (%s) to %s", result.FileName, domain.FormatSize(result.Bytes), result.Path)
}

func (app *CLI) createInstallCommand() *cli.Command {
	return app.appCommand("install", "Download an app and start the device installer", app.runInstall)
}

func (app *CLI) runInstall(ctx context.Context, rt *Runtime, target domain.App) error {
	session, err := rt.Installs.DownloadAndInstall(ctx, target, app.progressPrinter(target.Name))
	if err != nil {
		return app.fail(err, target.Name)
	}

	if app.json {
		return app.output.Success("", map[string]any{
			"app_id":  target.ID,
			"session": session.ID,
			"phase":   session.Phase,
			"file":    session.FileName,
			"path":    session.Path,
			"bytes":   session.Received,
		})
	}

	return app.done("Installer started for %s. Confirm the install on the device", target.Name)
}

func (app *CLI) runLaunch(ctx context.Context, rt *Runtime, target domain.App) error {
	if err := rt.Apps.Launch(ctx, target); err != nil {
		return app.fail(err, target.Name)
	}

	return app.done("Launched %s", target.Name)
}

func (app *CLI) runUninstall(ctx context.Context, rt *Runtime, target domain.App) error {
	if err := rt.Apps.Uninstall(ctx, target); err != nil {
		return app.fail(err, target.Name)
	}

	return app.done("Uninstall of %s is waiting for confirmation on the device", target.Name)
}

func (app *CLI) runSettings(ctx context.Context, rt *Runtime, target domain.App) error {
	if err := rt.Apps.OpenSettings(ctx, target); err != nil {
		return app.fail(err, target.Name)
	}

	return app.done("Opened settings for %s", target.Name)
}

func (app *CLI) createStatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show installed state for catalog apps",
		ArgsUsage: "[app...]",
		Action:    app.withRuntime(app.runStatus),
	}
}

func (app *CLI) runStatus(ctx context.Context, cmd *cli.Command, rt *Runtime) error {
	apps, err := rt.LoadApps(ctx)
	if err != nil {
		return app.fail(err, "")
	}

	if cmd.Args().Present() {
		selected := make([]domain.App, 0, cmd.Args().Len())

		for _, ref := range cmd.Args().Slice() {
			found, err := catalog.Find(apps, ref)
			if err != nil {
				return app.fail(err, ref)
			}

			selected = append(selected, found)
		}

		apps = selected
	}

	rows := rt.Status.Refresh(ctx, apps)

	if app.json {
		return app.output.Success("", rows)
	}

	if app.plain {
		for _, row := range rows {
			app.console.PlainKeyValue(row.AppID, installedLabel(row.Installed))
		}

		return nil
	}

	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		update := ""
		if row.UpdateAvailable {
			update = "available"
		}

		table = append(table, []string{
			row.AppID, row.Name, installedLabel(row.Installed), row.InstalledVersion, row.CatalogVersion, update,
		})
	}

	if err := app.output.Table([]string{"ID", "NAME", "STATE", "INSTALLED", "CATALOG", "UPDATE"}, table); err != nil {
		return err
	}

	if !rt.Native && !app.quiet {
		app.console.Warningf("no device reachable; every app is reported as not installed")
	}

	return nil
}

func (app *CLI) runPin(_ context.Context, rt *Runtime, target domain.App) error {
	if err := rt.Pinned.Pin(domain.PinnedFromApp(target)); err != nil {
		return app.fail(err, target.Name)
	}

	if app.json {
		return app.output.Success("", rt.Pinned.Apps())
	}

	return app.done("Pinned %s (%d/%d)", target.Name, len(rt.Pinned.Apps()), rt.Pinned.Max())
}

func (app *CLI) createUnpinCommand() *cli.Command {
	return &cli.Command{
		Name:      "unpin",
		Usage:     "Remove an app from the pinned dock",
		ArgsUsage: "<app>",
		Action:    app.withRuntime(app.runUnpin),
	}
}

// runUnpin accepts pinned ids directly so apps that left the catalog can
// still be removed.
func (app *CLI) runUnpin(ctx context.Context, cmd *cli.Command, rt *Runtime) error {
	ref := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))

	pin, ok := findPinned(rt.Pinned.Apps(), ref)
	if !ok {
		if ref == "" {
			if !app.canPrompt() || len(rt.Pinned.Apps()) == 0 {
				return app.usageError(fmt.Sprintf("missing app argument: %s unpin <app>", platform.AppName))
			}

			picked, err := app.pickPinned(rt.Pinned.Apps())
			if err != nil {
				return app.fail(err, "")
			}

			pin = picked
		} else {
			target, err := rt.FindApp(ctx, ref)
			if err != nil {
				return app.fail(fmt.Errorf("%w: %s", domain.ErrNotPinned, ref), ref)
			}

			pin = domain.PinnedFromApp(target)
		}
	}

	if err := rt.Pinned.Unpin(pin.ID); err != nil {
		return app.fail(err, pin.Name)
	}

	if app.json {
		return app.output.Success("", rt.Pinned.Apps())
	}

	return app.done("Unpinned %s", pin.Name)
}

func findPinned(pins []domain.PinnedApp, ref string) (domain.PinnedApp, bool) {
	if ref == "" {
		return domain.PinnedApp{}, false
	}

	for _, p := range pins {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}

	return domain.PinnedApp{}, false
}

func (app *CLI) createPinsCommand() *cli.Command {
	return &cli.Command{
		Name:  "pins",
		Usage: "List the pinned dock",
		Action: app.withRuntime(func(_ context.Context, _ *cli.Command, rt *Runtime) error {
			pins := rt.Pinned.Apps()

			if app.json {
				return app.output.Success("", pins)
			}

			if app.plain {
				for _, p := range pins {
					app.console.PlainKeyValue(p.ID, p.PackageName)
				}

				return nil
			}

			if len(pins) == 0 {
				return app.output.Info(fmt.Sprintf("Nothing pinned yet. Run '%s pin <app>'", platform.AppName))
			}

			rows := make([][]string, 0, len(pins))
			for i, p := range pins {
				rows = append(rows, []string{strconv.Itoa(i + 1), p.ID, p.Name, p.PackageName})
			}

			return app.output.Table([]string{"#", "ID", "NAME", "PACKAGE"}, rows)
		}),
	}
}

func (app *CLI) createCacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clean the APK cache",
		Commands: []*cli.Command{
			{
				Name:   "ls",
				Usage:  "List cached APKs",
				Action: app.withRuntime(app.runCacheList),
			},
			{
				Name:  "clean",
				Usage: "Delete cached APKs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "keep", Usage: "file name to keep"},
				},
				Action: app.withRuntime(app.runCacheClean),
			},
		},
	}
}

func (app *CLI) runCacheList(_ context.Context, _ *cli.Command, rt *Runtime) error {
	entries, err := rt.Cache.List()
	if err != nil {
		return app.fail(err, "")
	}

	if app.json {
		return app.output.Success("", entries)
	}

	if app.plain {
		for _, e := range entries {
			app.console.PlainKeyValue(e.Name, strconv.FormatInt(e.Size, 10))
		}

		return nil
	}

	if len(entries) == 0 {
		return app.output.Info("Cache is empty: " + rt.Cache.Dir())
	}

	var total int64

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		total += e.Size
		rows = append(rows, []string{e.Name, domain.FormatSize(e.Size), humanize.Time(e.Modified)})
	}

	if err := app.output.Table([]string{"FILE", "SIZE", "MODIFIED"}, rows); err != nil {
		return err
	}

	return app.output.Info(fmt.Sprintf("%d files, %s in %s", len(entries), domain.FormatSize(total), rt.Cache.Dir()))
}

func (app *CLI) runCacheClean(_ context.Context, cmd *cli.Command, rt *Runtime) error {
	unlock, err := rt.Cache.TryLock()
	if err != nil {
		return app.fail(err, "")
	}
	defer unlock()

	removed, err := rt.Cache.Cleanup(cmd.String("keep"))
	if err != nil {
		return app.fail(err, "")
	}

	if app.json {
		return app.output.Success("", map[string]any{"removed": removed})
	}

	return app.done("Removed %d cached %s", len(removed), plural(len(removed), "APK", "APKs"))
}

func (app *CLI) createVersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version",
		Action: func(_ context.Context, _ *cli.Command) error {
			if app.json {
				return app.output.Success("", map[string]string{"version": Version, "go": runtime.Version()})
			}

			return app.output.Success(fmt.Sprintf("%s %s (%s)", platform.AppName, Version, runtime.Version()), nil)
		},
	}
}

// progressPrinter renders download progress on one rewritten line.
func (app *CLI) progressPrinter(name string) func(application.Progress) {
	if app.json || app.quiet || app.plain {
		return nil
	}

	return func(p application.Progress) {
		_ = app.output.Progress(cliAdapter.DownloadLine(name, p.Percent, p.Received, p.Total))
	}
}

func (app *CLI) done(format string, args ...any) error {
	message := fmt.Sprintf(format, args...)
	if !app.plain {
		message = "✓ " + message
	}

	return app.output.Success(message, nil)
}

func installedLabel(installed bool) string {
	if installed {
		return "installed"
	}

	return "not installed"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}

	return many
}
