// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package application orchestrates the download, install and app action
// flows over the domain ports.
package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/SnowMediaEnt/snow-media-center/internal/cache"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
	"github.com/SnowMediaEnt/snow-media-center/internal/download"
	"github.com/SnowMediaEnt/snow-media-center/internal/reconcile"
)

// Progress is one download progress report.
type Progress struct {
	Percent  int
	Received int64
	// Total is the transport-declared size, 0 when unknown.
	Total int64
}

// Downloader is the part of the streamer the service needs.
type Downloader interface {
	Download(ctx context.Context, req download.Request, onProgress domain.ProgressFunc) (*download.Result, error)
}

// InstallService drives download sessions from first byte to the
// platform installer.
type InstallService struct {
	downloader   Downloader
	cache        *cache.Manager
	installer    domain.Installer
	reconciler   *reconcile.Reconciler
	cleanupDelay time.Duration
	logger       zerolog.Logger
	now          func() time.Time
	afterFunc    func(time.Duration, func())
	pending      sync.WaitGroup
}

// NewInstallService wires the download and install flow. cleanupDelay is
// how long after a successful install handoff stale APKs are removed.
func NewInstallService(
	downloader Downloader,
	cacheManager *cache.Manager,
	installer domain.Installer,
	reconciler *reconcile.Reconciler,
	cleanupDelay time.Duration,
	logger zerolog.Logger,
) *InstallService {
	return &InstallService{
		downloader:   downloader,
		cache:        cacheManager,
		installer:    installer,
		reconciler:   reconciler,
		cleanupDelay: cleanupDelay,
		logger:       logger.With().Str("component", "install").Logger(),
		now:          time.Now,
		afterFunc: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// NewSession starts a download session for app.
func (s *InstallService) NewSession(app domain.App) *domain.DownloadSession {
	return domain.NewDownloadSession(app, s.now())
}

// Download streams the session's APK into the cache. alive may be nil.
// The session ends in the complete phase on success and the error phase
// otherwise.
func (s *InstallService) Download(
	ctx context.Context,
	session *domain.DownloadSession,
	alive func() bool,
	onProgress func(Progress),
) (*download.Result, error) {
	if session.Phase != domain.PhaseDownloading {
		return nil, fmt.Errorf("%w: cannot download in phase %s", domain.ErrInvalidTransition, session.Phase)
	}

	var received, total int64

	req := download.Request{
		URL:          session.App.DownloadURL,
		FileName:     session.FileName,
		DeclaredSize: session.App.SizeBytes(),
		Alive:        alive,
		Observe: func(r, t int64) {
			received, total = r, t
		},
	}

	result, err := s.downloader.Download(ctx, req, func(percent int) {
		if !session.Observe(percent, received) {
			return
		}

		session.Total = total

		if onProgress != nil {
			onProgress(Progress{Percent: percent, Received: received, Total: total})
		}
	})
	if err != nil {
		_ = session.Fail(err, s.now())

		s.logger.Warn().Err(err).Str("app", session.App.ID).Str("session", session.ID).Msg("download failed")

		return nil, err
	}

	session.Path = result.Path
	session.URI = result.URI
	session.Received = result.Bytes

	if err := session.Transition(domain.PhaseComplete, s.now()); err != nil {
		return nil, err
	}

	return result, nil
}

// Install hands the downloaded artifact to the platform installer. A
// refused handoff rolls the session back to complete so the user can retry.
func (s *InstallService) Install(ctx context.Context, session *domain.DownloadSession, result *download.Result) error {
	if err := session.Transition(domain.PhaseInstalling, s.now()); err != nil {
		return err
	}

	installable, err := download.Materialize(s.cache, result)
	if err == nil {
		session.Path = installable.Path
		session.URI = installable.URI

		err = s.installer.InstallAPK(ctx, installable.Path)
	}

	if err != nil {
		if rerr := session.Transition(domain.PhaseComplete, s.now()); rerr != nil {
			return errors.Join(err, rerr)
		}

		s.logger.Warn().Err(err).Str("app", session.App.ID).Msg("install handoff failed")

		return err
	}

	if err := session.Transition(domain.PhaseInstalled, s.now()); err != nil {
		return err
	}

	s.logger.Info().Str("app", session.App.ID).Str("file", session.FileName).Msg("installer started")

	s.schedulePostInstall(session.App)

	return nil
}

// DownloadAndInstall runs a whole session without a UI.
func (s *InstallService) DownloadAndInstall(ctx context.Context, app domain.App, onProgress func(Progress)) (*domain.DownloadSession, error) {
	session := s.NewSession(app)

	result, err := s.Download(ctx, session, nil, onProgress)
	if err != nil {
		return session, err
	}

	return session, s.Install(ctx, session, result)
}

// Fetch downloads app into the cache without installing it.
func (s *InstallService) Fetch(ctx context.Context, app domain.App, onProgress func(Progress)) (domain.DownloadResult, error) {
	session := s.NewSession(app)

	result, err := s.Download(ctx, session, nil, onProgress)
	if err != nil {
		return domain.DownloadResult{}, err
	}

	return domain.DownloadResult{
		AppID:    app.ID,
		FileName: result.FileName,
		Path:     result.Path,
		URI:      result.URI,
		Bytes:    result.Bytes,
		SHA256:   result.SHA256,
		Encoding: result.Encoding,
		Duration: result.Duration,
	}, nil
}

// schedulePostInstall clears the cache after the delay and refreshes the
// app's status. Failures are only logged.
func (s *InstallService) schedulePostInstall(app domain.App) {
	s.pending.Add(1)

	s.afterFunc(s.cleanupDelay, func() {
		defer s.pending.Done()

		removed, err := s.cache.Cleanup("")
		if err != nil {
			s.logger.Warn().Err(err).Msg("post-install cleanup failed")
		} else {
			s.logger.Debug().Strs("removed", removed).Msg("post-install cleanup")
		}

		if s.reconciler == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.reconciler.EnsureStatus(ctx, app)
	})
}

// Wait blocks until scheduled post-install work has run or ctx is done.
func (s *InstallService) Wait(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
