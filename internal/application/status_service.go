// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package application

import (
	"context"

	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
	"github.com/SnowMediaEnt/snow-media-center/internal/reconcile"
)

// StatusService reports installed state for catalog apps.
type StatusService struct {
	reconciler *reconcile.Reconciler
}

// NewStatusService creates a new status service.
func NewStatusService(reconciler *reconcile.Reconciler) *StatusService {
	return &StatusService{reconciler: reconciler}
}

// Refresh polls every app and returns one row per app in catalog order.
func (s *StatusService) Refresh(ctx context.Context, apps []domain.App) []domain.AppStatus {
	statuses := s.reconciler.RefreshAll(ctx, apps)

	rows := make([]domain.AppStatus, 0, len(apps))
	for i, app := range apps {
		rows = append(rows, Row(app, statuses[i]))
	}

	return rows
}

// Row combines a catalog entry with its install status.
func Row(app domain.App, status domain.InstallStatus) domain.AppStatus {
	return domain.AppStatus{
		AppID:            app.ID,
		Name:             app.Name,
		PackageName:      app.Package(),
		Installed:        status.Installed,
		InstalledVersion: status.InstalledVersion,
		CatalogVersion:   app.Version,
		UpdateAvailable:  status.Installed && domain.UpdateAvailable(status.InstalledVersion, app.Version),
		Actions:          status.Actions(),
		CheckedAt:        status.CheckedAt,
	}
}
