// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package cli provides the snowmedia command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	cliAdapter "github.com/SnowMediaEnt/snow-media-center/internal/adapters/cli"
	"github.com/SnowMediaEnt/snow-media-center/internal/config"
	"github.com/SnowMediaEnt/snow-media-center/internal/console"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
	"github.com/SnowMediaEnt/snow-media-center/internal/platform"
)

// Exit codes follow standard Unix conventions for scripting.
// Range 0-125 are safe to use (126+ have special meaning in shells).
const (
	ExitSuccess         = 0 // Operation completed successfully
	ExitGeneralError    = 1 // Generic failure (catch-all)
	ExitUsageError      = 2 // Invalid command line usage
	ExitConfigError     = 3 // Configuration file error
	ExitPermissionError = 4 // Permission denied
	ExitNotFoundError   = 5 // App, package or file not found

	ExitDependencyError = 10 // No device or adb missing
	ExitNetworkError    = 11 // Download or catalog fetch failed
	ExitSystemError     = 12 // Filesystem failure
	ExitTimeoutError    = 13 // Operation timed out
	ExitInterruptError  = 14 // Cancelled by the user

	ExitCatalogError = 20 // Catalog could not be parsed
	ExitInstallError = 21 // Device refused the installer
	ExitPinError     = 22 // Pinned dock rejected the change
	ExitBusyError    = 23 // Another download holds the cache

	// HelpFlag is the long help flag.
	HelpFlag = "--help"
)

// Version is stamped at build time with -ldflags.
var Version = "dev" //nolint:gochecknoglobals

// CLI holds global flags and the lazily built runtime.
type CLI struct {
	app        *cli.Command
	verbose    bool
	json       bool
	quiet      bool
	plain      bool
	color      string        // "auto", "always", "never"
	timeout    time.Duration // Per-command deadline
	configPath string
	platform   string // Overrides config platform when set
	serial     string // Overrides config device serial when set

	cfg     *config.Config
	console *console.OutputState
	output  *cliAdapter.OutputAdapter
	stdout  io.Writer
	stderr  io.Writer

	// newRuntime is swapped in tests.
	newRuntime func(ctx context.Context, cfg *config.Config, opts RuntimeOptions) (*Runtime, error)
}

// NewCLI creates the command tree.
func NewCLI() *CLI {
	return newCLI(os.Stdout, os.Stderr)
}

func newCLI(stdout, stderr io.Writer) *CLI {
	app := &CLI{
		stdout:     stdout,
		stderr:     stderr,
		newRuntime: NewRuntime,
	}

	app.app = &cli.Command{
		Name:      platform.AppName,
		Usage:     "Browse, download, install and launch Snow Media apps on an Android TV device",
		Version:   Version,
		Suggest:   true,
		Writer:    stdout,
		ErrWriter: stderr,
		Description: `Manages the Snow Media app catalog for an Android TV device reached over adb.

ESSENTIAL COMMANDS:
  apps                      List the catalog
  install <app>             Download an APK and start the device installer
  status                    Show what is installed on the device
  pin <app>                 Add an app to the pinned dock

Run without a command to open the store in the terminal.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "show progress messages and debug logs on stderr",
				Aliases:     []string{"v"},
				Destination: &app.verbose,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output structured JSON results",
				Aliases:     []string{"j"},
				Destination: &app.json,
			},
			&cli.BoolFlag{
				Name:        "quiet",
				Usage:       "suppress non-essential output",
				Aliases:     []string{"q"},
				Destination: &app.quiet,
			},
			&cli.BoolFlag{
				Name:        "plain",
				Usage:       "output plain text without formatting for scripts",
				Destination: &app.plain,
			},
			&cli.StringFlag{
				Name:        "color",
				Usage:       "color output mode: auto, always, never",
				Value:       "auto",
				Destination: &app.color,
			},
			&cli.DurationFlag{
				Name:        "timeout",
				Usage:       "deadline for one command (0 = none)",
				Value:       10 * time.Minute,
				Destination: &app.timeout,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config.toml",
				Sources:     cli.EnvVars(config.EnvPrefix + "_CONFIG"),
				Destination: &app.configPath,
			},
			&cli.StringFlag{
				Name:        "platform",
				Usage:       "installer platform: auto, native, web",
				Destination: &app.platform,
			},
			&cli.StringFlag{
				Name:        "serial",
				Aliases:     []string{"s"},
				Usage:       "adb device serial",
				Destination: &app.serial,
			},
		},
		Before:          app.initConfig,
		Action:          app.defaultAction,
		Commands:        app.createCommands(),
		CommandNotFound: app.commandNotFound,
	}

	return app
}

// App returns a fresh CLI ready to run.
func App() *CLI {
	return NewCLI()
}

// Run executes the CLI application.
func (app *CLI) Run(ctx context.Context, args []string) error {
	return app.app.Run(ctx, args)
}

// initConfig validates flags, loads settings and configures output.
func (app *CLI) initConfig(ctx context.Context, _ *cli.Command) (context.Context, error) {
	if app.json && app.plain {
		return ctx, domain.NewExitError(ExitUsageError, "cannot use both --json and --plain flags simultaneously", nil)
	}

	switch app.color {
	case "auto", "always", "never":
	default:
		return ctx, domain.NewExitError(ExitUsageError, "invalid --color value: must be auto, always, or never", nil)
	}

	switch app.color {
	case "never":
		_ = os.Setenv("NO_COLOR", "1")
	case "always":
		_ = os.Unsetenv("NO_COLOR")
	}

	cfg, err := config.Load(app.configPath)
	if err != nil {
		return ctx, domain.NewExitError(ExitConfigError, fmt.Sprintf("✗ Configuration error: %v", err), err)
	}

	if app.platform != "" {
		cfg.Platform = strings.ToLower(app.platform)
	}

	if app.serial != "" {
		cfg.Device.Serial = app.serial
	}

	if err := cfg.Validate(); err != nil {
		return ctx, domain.NewExitError(ExitUsageError, fmt.Sprintf("✗ %v", err), err)
	}

	app.cfg = cfg

	app.console = console.NewWithWriters(app.stdout, app.stderr)
	app.console.SetMode(app.verbose, app.json, app.plain)

	format := cliAdapter.TextFormat
	if app.json {
		format = cliAdapter.JSONFormat
	}

	app.output = cliAdapter.NewOutputAdapterWithWriter(app.stdout, format, app.quiet)

	return ctx, nil
}

// defaultAction opens the store UI when no command is given.
func (app *CLI) defaultAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Present() {
		return app.usageError(fmt.Sprintf("'%s' is not a command. Run '%s --help' to see available commands.",
			cmd.Args().First(), platform.AppName))
	}

	return app.runTUI(ctx, cmd)
}

// commandNotFound reports unknown subcommands.
func (app *CLI) commandNotFound(_ context.Context, _ *cli.Command, command string) {
	_, _ = fmt.Fprintf(app.stderr, "✗ '%s' is not a command.\n\nRun '%s --help' to see available commands.\n",
		command, platform.AppName)
}

// withTimeout applies the --timeout deadline.
func (app *CLI) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if app.timeout > 0 {
		return context.WithTimeout(ctx, app.timeout)
	}

	return context.WithCancel(ctx)
}

func (app *CLI) usageError(message string) error {
	return domain.NewExitError(ExitUsageError, "✗ "+message, domain.ErrInvalidArgument)
}
