// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher reloads the catalog when it changes. Local files are watched
// with fsnotify; remote sources are polled.
type Watcher struct {
	loader   *Loader
	poll     time.Duration
	debounce time.Duration
	onChange func([]domain.App)
	logger   zerolog.Logger
	last     []domain.App
}

// NewWatcher calls onChange with every catalog that differs from the
// previous one. poll applies to remote sources only.
func NewWatcher(loader *Loader, poll time.Duration, onChange func([]domain.App), logger zerolog.Logger) *Watcher {
	if poll <= 0 {
		poll = 30 * time.Second
	}

	return &Watcher{
		loader:   loader,
		poll:     poll,
		debounce: defaultDebounce,
		onChange: onChange,
		logger:   logger.With().Str("component", "catalog-watcher").Logger(),
	}
}

// Seed records the catalog the caller already has so an unchanged reload
// is not reported.
func (w *Watcher) Seed(apps []domain.App) {
	w.last = slices.Clone(apps)
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if w.loader.Remote() {
		return w.runPoll(ctx)
	}

	return w.runNotify(ctx)
}

func (w *Watcher) runPoll(ctx context.Context) error {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) runNotify(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are seen.
	dir := filepath.Dir(w.loader.Source())
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.logger.Info().Str("path", w.loader.Source()).Msg("watching catalog")

	base := filepath.Base(w.loader.Source())

	debounce := time.NewTimer(w.debounce)
	debounce.Stop()

	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Base(event.Name) != base || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}

			debounce.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn().Err(err).Msg("catalog watch error")

		case <-debounce.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	apps, err := w.loader.Load(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("catalog reload failed, keeping previous list")
		return
	}

	if w.last != nil && slices.Equal(apps, w.last) {
		return
	}

	w.last = apps

	w.logger.Info().Int("apps", len(apps)).Msg("catalog changed")

	w.onChange(apps)
}
