// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package main provides the CLI entry point for Snow Media Center.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"

	"github.com/SnowMediaEnt/snow-media-center/internal/cli"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
	"github.com/SnowMediaEnt/snow-media-center/internal/platform"
)

func main() {
	os.Exit(run())
}

func run() int {
	// One instance drives the device at a time.
	stateDir := platform.StateDir()
	if err := os.MkdirAll(stateDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create state directory: %v\n", err)

		return cli.ExitSystemError
	}

	lock := flock.New(filepath.Join(stateDir, "snowmedia.lock"))

	locked, err := lock.TryLock()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to acquire process lock: %v\n", err)

		return cli.ExitSystemError
	}

	if !locked {
		fmt.Fprintf(os.Stderr, "Another snowmedia instance is already running\n")

		return cli.ExitBusyError
	}

	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to release process lock: %v\n", unlockErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.App().Run(ctx, os.Args); err != nil {
		exitErr := &domain.ExitError{}
		if errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "%s\n", exitErr.Message)

			return exitErr.Code
		}

		fmt.Fprintf(os.Stderr, "Unexpected error: %v\n", err)

		return cli.ExitGeneralError
	}

	return cli.ExitSuccess
}
