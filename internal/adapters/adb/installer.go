// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package adb implements the native installer bridge over the Android
// Debug Bridge.
package adb

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

// Locator resolves an APK locator to a readable local file.
type Locator interface {
	Locate(location string) (string, error)
}

// Installer drives a device through adb.
type Installer struct {
	runner  domain.CommandRunner
	locator Locator
	adbPath string
	serial  string
	logger  zerolog.Logger
}

// NewInstaller creates an adb-backed installer. An empty serial targets the
// only connected device.
func NewInstaller(runner domain.CommandRunner, locator Locator, adbPath, serial string, logger zerolog.Logger) *Installer {
	if adbPath == "" {
		adbPath = "adb"
	}

	return &Installer{
		runner:  runner,
		locator: locator,
		adbPath: adbPath,
		serial:  serial,
		logger:  logger.With().Str("component", "adb").Logger(),
	}
}

// Native reports true; adb reaches a real device.
func (i *Installer) Native() bool { return true }

// Available reports whether adb is installed and a device is online.
func (i *Installer) Available(ctx context.Context) bool {
	if !i.runner.CommandExists(i.adbPath) {
		return false
	}

	out, err := i.run(ctx, "get-state")

	return err == nil && strings.TrimSpace(out) == "device"
}

// IsInstalled asks the package manager for the package's APK path. Any
// lookup failure counts as not installed.
func (i *Installer) IsInstalled(ctx context.Context, packageName string) (bool, error) {
	if err := requireArg("package name", packageName); err != nil {
		return false, err
	}

	out, err := i.run(ctx, "shell", "pm", "path", packageName)
	if err != nil {
		i.logger.Debug().Err(err).Str("package", packageName).Msg("package lookup failed, treating as not installed")

		return false, nil
	}

	return strings.Contains(out, "package:"), nil
}

// InstallAPK resolves location and installs it, replacing any existing copy.
func (i *Installer) InstallAPK(ctx context.Context, location string) error {
	if err := requireArg("file path", location); err != nil {
		return err
	}

	path, err := i.locator.Locate(location)
	if err != nil {
		return err
	}

	i.logger.Info().Str("apk", path).Msg("installing")

	out, err := i.run(ctx, "install", "-r", path)
	if err != nil || strings.Contains(strings.ToUpper(out), "FAILURE") {
		installErr := ParseInstallError(out)
		i.logger.Warn().Err(err).Str("code", installErr.Code).Msg("install rejected")

		return installErr
	}

	return nil
}

// Launch starts the package's launcher activity.
func (i *Installer) Launch(ctx context.Context, packageName string) error {
	if err := requireArg("package name", packageName); err != nil {
		return err
	}

	out, err := i.run(ctx, "shell", "monkey", "-p", packageName, "-c", "android.intent.category.LAUNCHER", "1")
	if strings.Contains(out, "No activities found") {
		return fmt.Errorf("%w: %s", domain.ErrAppNotInstalled, packageName)
	}

	if err != nil {
		return fmt.Errorf("failed to launch %s: %w", packageName, err)
	}

	return nil
}

// Uninstall opens the device's uninstall confirmation for the package.
func (i *Installer) Uninstall(ctx context.Context, packageName string) error {
	if err := requireArg("package name", packageName); err != nil {
		return err
	}

	if installed, _ := i.IsInstalled(ctx, packageName); !installed {
		return fmt.Errorf("%w: %s", domain.ErrPackageNotFound, packageName)
	}

	return i.startActivity(ctx, "android.intent.action.DELETE", packageName)
}

// OpenAppSettings opens the per-app settings screen.
func (i *Installer) OpenAppSettings(ctx context.Context, packageName string) error {
	if err := requireArg("package name", packageName); err != nil {
		return err
	}

	return i.startActivity(ctx, "android.settings.APPLICATION_DETAILS_SETTINGS", packageName)
}

// InstalledVersion returns the installed versionName of the package.
func (i *Installer) InstalledVersion(ctx context.Context, packageName string) (string, error) {
	if err := requireArg("package name", packageName); err != nil {
		return "", err
	}

	out, err := i.run(ctx, "shell", "dumpsys", "package", packageName)
	if err != nil {
		return "", fmt.Errorf("failed to get package info: %w", err)
	}

	for _, line := range strings.Split(out, "\n") {
		if version, found := strings.CutPrefix(strings.TrimSpace(line), "versionName="); found {
			return version, nil
		}
	}

	return "", fmt.Errorf("%w: %s", domain.ErrPackageNotFound, packageName)
}

func (i *Installer) startActivity(ctx context.Context, action, packageName string) error {
	out, err := i.run(ctx, "shell", "am", "start", "-a", action, "-d", "package:"+packageName)
	if strings.Contains(out, "unable to resolve Intent") {
		return fmt.Errorf("%w: %s", domain.ErrPackageNotFound, packageName)
	}

	if err != nil || strings.Contains(out, "Error:") {
		return fmt.Errorf("%w: %s", domain.ErrInstallerLaunchFailed, strings.TrimSpace(out))
	}

	return nil
}

func (i *Installer) run(ctx context.Context, args ...string) (string, error) {
	if i.serial != "" {
		args = append([]string{"-s", i.serial}, args...)
	}

	return i.runner.ExecuteWithOutput(ctx, i.adbPath, args...)
}

func requireArg(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrInvalidArgument, name)
	}

	return nil
}

var installFailurePattern = regexp.MustCompile(`INSTALL_(?:FAILED|PARSE_FAILED)_([A-Z_]+)`)

var knownInstallFailures = map[string]struct {
	message     string
	suggestions []string
}{
	"ALREADY_EXISTS": {"App already installed", []string{"Uninstall the existing app first"}},
	"VERSION_DOWNGRADE": {"Cannot downgrade app version", []string{
		"Uninstall the existing app first", "Install a newer version instead",
	}},
	"INSUFFICIENT_STORAGE": {"Not enough storage space on device", []string{
		"Free up storage space on the device", "Clear app caches and data",
	}},
	"INVALID_APK": {"APK file is invalid or corrupted", []string{
		"Re-download the APK file", "Check if the APK matches the device architecture",
	}},
	"OLDER_SDK": {"APK requires a newer Android version", []string{
		"Find a version compatible with your Android version",
	}},
	"NO_MATCHING_ABIS": {"APK architecture not compatible with device", []string{
		"Download the APK for the device architecture (ARM, x86)",
	}},
	"UPDATE_INCOMPATIBLE": {"Installed copy is signed with a different key", []string{
		"Uninstall the existing app first",
	}},
}

// ParseInstallError turns adb install output into a typed install error.
func ParseInstallError(output string) *domain.InstallError {
	match := installFailurePattern.FindStringSubmatch(strings.ToUpper(output))
	if match == nil {
		return &domain.InstallError{
			Code:    "UNKNOWN",
			Message: "Unknown installation error",
			Suggestions: []string{
				"Check the adb connection", "Verify the APK file is valid",
			},
		}
	}

	code := match[1]
	if known, ok := knownInstallFailures[code]; ok {
		return &domain.InstallError{Code: code, Message: known.message, Suggestions: known.suggestions}
	}

	return &domain.InstallError{
		Code:        code,
		Message:     "Installation failed: " + code,
		Suggestions: []string{"Check device logs for more details"},
	}
}
