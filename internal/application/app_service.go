// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
	"github.com/SnowMediaEnt/snow-media-center/internal/reconcile"
)

// AppService runs the per-app actions offered on installed cards.
type AppService struct {
	installer  domain.Installer
	reconciler *reconcile.Reconciler
	logger     zerolog.Logger
}

// NewAppService creates the action service.
func NewAppService(installer domain.Installer, reconciler *reconcile.Reconciler, logger zerolog.Logger) *AppService {
	return &AppService{
		installer:  installer,
		reconciler: reconciler,
		logger:     logger.With().Str("component", "apps").Logger(),
	}
}

// Launch starts app. A missing launcher entry refreshes the cached status.
func (s *AppService) Launch(ctx context.Context, app domain.App) error {
	err := s.installer.Launch(ctx, app.Package())
	if errors.Is(err, domain.ErrAppNotInstalled) {
		s.reconciler.EnsureStatus(ctx, app)
	}

	return s.logResult(err, domain.ActionLaunch, app.ID)
}

// LaunchPinned starts a pinned shortcut by its stored package name.
func (s *AppService) LaunchPinned(ctx context.Context, pin domain.PinnedApp) error {
	return s.logResult(s.installer.Launch(ctx, pin.PackageName), domain.ActionLaunch, pin.ID)
}

// OpenSettings opens the platform settings page for app.
func (s *AppService) OpenSettings(ctx context.Context, app domain.App) error {
	return s.logResult(s.installer.OpenAppSettings(ctx, app.Package()), domain.ActionSettings, app.ID)
}

// Uninstall opens the uninstall prompt and optimistically marks app as
// removed; the reconciler confirms shortly after.
func (s *AppService) Uninstall(ctx context.Context, app domain.App) error {
	if err := s.installer.Uninstall(ctx, app.Package()); err != nil {
		if errors.Is(err, domain.ErrPackageNotFound) {
			s.reconciler.EnsureStatus(ctx, app)
		}

		return s.logResult(err, domain.ActionUninstall, app.ID)
	}

	s.reconciler.MarkUninstalled(app)

	return s.logResult(nil, domain.ActionUninstall, app.ID)
}

// Invoke runs an installed-card action. Download is handled by the
// install flow and is rejected here.
func (s *AppService) Invoke(ctx context.Context, action domain.Action, app domain.App) error {
	switch action {
	case domain.ActionLaunch:
		return s.Launch(ctx, app)
	case domain.ActionSettings:
		return s.OpenSettings(ctx, app)
	case domain.ActionUninstall:
		return s.Uninstall(ctx, app)
	default:
		return fmt.Errorf("%w: action %q", domain.ErrInvalidArgument, action)
	}
}

func (s *AppService) logResult(err error, action domain.Action, appID string) error {
	if err != nil {
		s.logger.Warn().Err(err).Str("action", string(action)).Str("app", appID).Msg("app action failed")

		return err
	}

	s.logger.Info().Str("action", string(action)).Str("app", appID).Msg("app action")

	return nil
}
