// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/SnowMediaEnt/snow-media-center/internal/adapters/adb"
	platformAdapter "github.com/SnowMediaEnt/snow-media-center/internal/adapters/platform"
	"github.com/SnowMediaEnt/snow-media-center/internal/application"
	"github.com/SnowMediaEnt/snow-media-center/internal/bridge"
	"github.com/SnowMediaEnt/snow-media-center/internal/cache"
	"github.com/SnowMediaEnt/snow-media-center/internal/catalog"
	"github.com/SnowMediaEnt/snow-media-center/internal/config"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
	"github.com/SnowMediaEnt/snow-media-center/internal/download"
	"github.com/SnowMediaEnt/snow-media-center/internal/kvstore"
	"github.com/SnowMediaEnt/snow-media-center/internal/logging"
	"github.com/SnowMediaEnt/snow-media-center/internal/pinned"
	"github.com/SnowMediaEnt/snow-media-center/internal/reconcile"
	"github.com/SnowMediaEnt/snow-media-center/internal/tui"
)

// RuntimeOptions controls logging for one process.
type RuntimeOptions struct {
	// LogWriter receives log lines; nil discards them.
	LogWriter io.Writer
	LogTTY    bool
	// Verbose forces debug logging.
	Verbose bool
	// Terse raises the level to warn so logs do not interleave with
	// command output.
	Terse bool
	// Installer, when set, replaces the adb bridge.
	Installer domain.Installer
}

// Runtime is the fully wired set of components behind every command.
type Runtime struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Cache      *cache.Manager
	Installer  domain.Installer
	Native     bool
	Streamer   *download.Streamer
	Reconciler *reconcile.Reconciler
	Pinned     *pinned.Store
	Catalog    *catalog.Loader
	Installs   *application.InstallService
	Apps       *application.AppService
	Status     *application.StatusService

	mu   sync.Mutex
	apps []domain.App
}

// NewRuntime builds every component from cfg.
func NewRuntime(ctx context.Context, cfg *config.Config, opts RuntimeOptions) (*Runtime, error) {
	logger, err := newLogger(cfg.Log, opts)
	if err != nil {
		return nil, err
	}

	cacheManager := cache.NewManager(cfg.Cache.Dir, cfg.Cache.Subdir, logger)

	installer, native := opts.Installer, false
	if installer == nil {
		runner := platformAdapter.NewCommandRunner(logger, cfg.Device.CommandTimeout.Duration, false)
		device := adb.NewInstaller(runner, cacheManager, cfg.Device.ADBPath, cfg.Device.Serial, logger)
		installer, native = bridge.Resolve(ctx, cfg.Platform, device, logger)
	} else {
		native = installer.Native()
	}

	streamer := download.NewStreamer(cacheManager, download.OptionsFromConfig(cfg.Download, native), logger)
	reconciler := reconcile.New(installer, reconcile.OptionsFromConfig(cfg.Reconcile), logger)

	kv, err := kvstore.Open(cfg.PinnedStatePath(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open state: %w", err)
	}

	pins, err := pinned.Open(kv, cfg.Pinned.Max, cfg.Pinned.SchemaVersion, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load pinned apps: %w", err)
	}

	return &Runtime{
		Config:     cfg,
		Logger:     logger,
		Cache:      cacheManager,
		Installer:  installer,
		Native:     native,
		Streamer:   streamer,
		Reconciler: reconciler,
		Pinned:     pins,
		Catalog:    catalog.NewLoader(cfg.Catalog, logger),
		Installs: application.NewInstallService(
			streamer, cacheManager, installer, reconciler, cfg.Download.PostInstallCleanup.Duration, logger),
		Apps:   application.NewAppService(installer, reconciler, logger),
		Status: application.NewStatusService(reconciler),
	}, nil
}

func newLogger(cfg config.LogConfig, opts RuntimeOptions) (zerolog.Logger, error) {
	if opts.LogWriter == nil {
		return zerolog.Nop(), nil
	}

	logger, err := logging.New(cfg, opts.LogWriter, opts.LogTTY)
	if err != nil {
		return zerolog.Nop(), err
	}

	switch {
	case opts.Verbose:
		logger = logger.Level(zerolog.DebugLevel)
	case opts.Terse && logger.GetLevel() < zerolog.WarnLevel:
		logger = logger.Level(zerolog.WarnLevel)
	}

	return logger, nil
}

// LoadApps reads the catalog once per process.
func (r *Runtime) LoadApps(ctx context.Context) ([]domain.App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.apps != nil {
		return r.apps, nil
	}

	apps, err := r.Catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	r.apps = apps

	return apps, nil
}

// FindApp resolves an id or display name against the catalog.
func (r *Runtime) FindApp(ctx context.Context, ref string) (domain.App, error) {
	apps, err := r.LoadApps(ctx)
	if err != nil {
		return domain.App{}, err
	}

	return catalog.Find(apps, ref)
}

// Close waits briefly for post-install cleanup and stops pending rechecks.
func (r *Runtime) Close() error {
	grace := r.Config.Download.PostInstallCleanup.Duration + 10*time.Second

	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	err := r.Installs.Wait(ctx)

	r.Reconciler.Close()

	if errors.Is(err, context.DeadlineExceeded) {
		r.Logger.Warn().Msg("post-install cleanup did not finish")
		return nil
	}

	return err
}

// Services exposes the runtime to the terminal UI.
func (r *Runtime) Services() tui.Services {
	return tui.Services{
		Catalog:    r.Catalog,
		Poll:       r.Config.Catalog.Poll.Duration,
		Watch:      r.Config.Catalog.Watch,
		Reconciler: r.Reconciler,
		Pinned:     r.Pinned,
		Installs:   r.Installs,
		Apps:       r.Apps,
		Native:     r.Native,
		Logger:     r.Logger,
	}
}
