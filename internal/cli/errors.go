// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"context"
	"errors"
	"io/fs"

	"github.com/SnowMediaEnt/snow-media-center/internal/catalog"
	"github.com/SnowMediaEnt/snow-media-center/internal/config"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

type exitMapping struct {
	target error
	code   int
}

// Order matters: wrapped errors match the first entry they satisfy.
var exitMappings = []exitMapping{
	{domain.ErrInvalidArgument, ExitUsageError},
	{domain.ErrInvalidTransition, ExitUsageError},
	{config.ErrInvalidConfig, ExitConfigError},
	{fs.ErrPermission, ExitPermissionError},
	{domain.ErrAppNotFound, ExitNotFoundError},
	{domain.ErrPackageNotFound, ExitNotFoundError},
	{domain.ErrAppNotInstalled, ExitNotFoundError},
	{domain.ErrFileNotFound, ExitNotFoundError},
	{domain.ErrNotPinned, ExitNotFoundError},
	{domain.ErrPlatformUnsupported, ExitDependencyError},
	{domain.ErrDownloadTimeout, ExitTimeoutError},
	{context.DeadlineExceeded, ExitTimeoutError},
	{domain.ErrDownloadCancelled, ExitInterruptError},
	{context.Canceled, ExitInterruptError},
	{domain.ErrDownloadFailed, ExitNetworkError},
	{domain.ErrUnexpectedContentType, ExitNetworkError},
	{catalog.ErrCatalogUnavailable, ExitNetworkError},
	{catalog.ErrInvalidCatalog, ExitCatalogError},
	{domain.ErrInstallerLaunchFailed, ExitInstallError},
	{domain.ErrPinLimitReached, ExitPinError},
	{domain.ErrAlreadyPinned, ExitPinError},
	{domain.ErrSessionActive, ExitBusyError},
}

// ExitCodeFor maps an error to the process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *domain.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	for _, m := range exitMappings {
		if errors.Is(err, m.target) {
			return m.code
		}
	}

	return ExitGeneralError
}

// fail converts err into an ExitError carrying a friendly message. In
// JSON mode the failure is also written to stdout as a result object.
func (app *CLI) fail(err error, appName string) error {
	if err == nil {
		return nil
	}

	var exitErr *domain.ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}

	code := ExitCodeFor(err)
	message := domain.FormatErrorMessage(err, appName, app.verbose)

	if app.json && app.console != nil {
		app.console.JSONResult("error", map[string]any{
			"error":   err.Error(),
			"message": domain.GetErrorInfo(err, false).Message,
			"code":    code,
		})
	}

	return domain.NewExitError(code, message, err)
}
