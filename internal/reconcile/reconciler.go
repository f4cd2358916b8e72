// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package reconcile keeps believed-installed state in line with the device
// by polling the installer bridge.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/SnowMediaEnt/snow-media-center/internal/config"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

// Options tunes polling.
type Options struct {
	// UninstallRecheck is the delay before the confirming poll that follows
	// an uninstall request.
	UninstallRecheck time.Duration
	// PollTimeout bounds each isInstalled call.
	PollTimeout time.Duration
	PollRate    float64
	PollBurst   int
}

// OptionsFromConfig maps reconcile settings onto Options.
func OptionsFromConfig(cfg config.ReconcileConfig) Options {
	return Options{
		UninstallRecheck: cfg.UninstallRecheck.Duration,
		PollTimeout:      cfg.StatusTimeout.Duration,
		PollRate:         cfg.PollRate,
		PollBurst:        cfg.PollBurst,
	}
}

// Listener is told about every status whose installed flag or version changed.
type Listener func(domain.InstallStatus)

// Reconciler owns the app-id to install-status map. It is the only writer.
type Reconciler struct {
	installer domain.Installer
	opts      Options
	limiter   *rate.Limiter
	logger    zerolog.Logger
	now       func() time.Time

	mu        sync.RWMutex
	statuses  map[string]domain.InstallStatus
	pending   map[string]*time.Timer
	listeners []Listener
	closed    bool
}

// New creates a reconciler over installer.
func New(installer domain.Installer, opts Options, logger zerolog.Logger) *Reconciler {
	if opts.UninstallRecheck <= 0 {
		opts.UninstallRecheck = time.Second
	}

	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 5 * time.Second
	}

	limit := rate.Inf
	if opts.PollRate > 0 {
		limit = rate.Limit(opts.PollRate)
	}

	return &Reconciler{
		installer: installer,
		opts:      opts,
		limiter:   rate.NewLimiter(limit, max(opts.PollBurst, 1)),
		logger:    logger.With().Str("component", "reconcile").Logger(),
		now:       time.Now,
		statuses:  make(map[string]domain.InstallStatus),
		pending:   make(map[string]*time.Timer),
	}
}

// Subscribe registers fn for status changes.
func (r *Reconciler) Subscribe(fn Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listeners = append(r.listeners, fn)
}

// EnsureStatus polls the device for app and returns the fresh status.
// Failures degrade to not installed.
func (r *Reconciler) EnsureStatus(ctx context.Context, app domain.App) domain.InstallStatus {
	status := domain.InstallStatus{AppID: app.ID, CheckedAt: r.now()}

	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.Debug().Err(err).Str("app", app.ID).Msg("poll skipped")

		return r.store(status)
	}

	pollCtx, cancel := context.WithTimeout(ctx, r.opts.PollTimeout)
	defer cancel()

	installed, err := r.installer.IsInstalled(pollCtx, app.Package())
	if err != nil {
		r.logger.Debug().Err(err).Str("app", app.ID).Msg("status lookup failed")
	}

	status.Installed = err == nil && installed

	if status.Installed {
		if reporter, ok := r.installer.(domain.VersionReporter); ok {
			if version, verr := reporter.InstalledVersion(pollCtx, app.Package()); verr == nil {
				status.InstalledVersion = version
			}
		}
	}

	return r.store(status)
}

// RefreshAll polls every app concurrently, paced by the rate limiter, and
// returns the statuses in input order.
func (r *Reconciler) RefreshAll(ctx context.Context, apps []domain.App) []domain.InstallStatus {
	results := make([]domain.InstallStatus, len(apps))

	var wg sync.WaitGroup

	for idx, app := range apps {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[idx] = r.EnsureStatus(ctx, app)
		}()
	}

	wg.Wait()

	r.logger.Debug().Int("apps", len(apps)).Msg("refreshed install state")

	return results
}

// Status returns the cached status for id.
func (r *Reconciler) Status(id string) (domain.InstallStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status, ok := r.statuses[id]

	return status, ok
}

// Installed reports the cached installed flag, false when never polled.
func (r *Reconciler) Installed(id string) bool {
	status, _ := r.Status(id)

	return status.Installed
}

// Actions derives the button set for app from the cached status.
func (r *Reconciler) Actions(app domain.App) []domain.Action {
	return domain.ActionsFor(r.Installed(app.ID))
}

// MarkUninstalled flips app to not installed at once and schedules one
// confirming poll after the recheck delay.
func (r *Reconciler) MarkUninstalled(app domain.App) {
	r.store(domain.InstallStatus{AppID: app.ID, CheckedAt: r.now()})

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	if timer, ok := r.pending[app.ID]; ok {
		timer.Stop()
	}

	r.pending[app.ID] = time.AfterFunc(r.opts.UninstallRecheck, func() {
		r.mu.Lock()
		delete(r.pending, app.ID)
		r.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), r.opts.PollTimeout)
		defer cancel()

		r.EnsureStatus(ctx, app)
	})
}

// Close cancels pending confirming polls.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	for id, timer := range r.pending {
		timer.Stop()
		delete(r.pending, id)
	}
}

func (r *Reconciler) store(status domain.InstallStatus) domain.InstallStatus {
	r.mu.Lock()
	previous, existed := r.statuses[status.AppID]
	r.statuses[status.AppID] = status
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	changed := !existed || previous.Installed != status.Installed || previous.InstalledVersion != status.InstalledVersion
	if changed {
		for _, fn := range listeners {
			fn(status)
		}
	}

	return status
}
