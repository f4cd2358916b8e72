// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Acquisition and installer errors.
var (
	ErrPlatformUnsupported   = errors.New("platform unsupported")
	ErrDownloadTimeout       = errors.New("download timed out")
	ErrDownloadFailed        = errors.New("download failed")
	ErrUnexpectedContentType = errors.New("unexpected content type")
	ErrDownloadCancelled     = errors.New("download cancelled")
	ErrFileNotFound          = errors.New("file not found")
	ErrInstallerLaunchFailed = errors.New("installer launch failed")
	ErrAppNotInstalled       = errors.New("app not installed")
	ErrPackageNotFound       = errors.New("package not found")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrAppNotFound           = errors.New("app not found in catalog")
)

// Session and pinning errors.
var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrSessionActive     = errors.New("a download is already in progress")
	ErrPinLimitReached   = errors.New("pinned app limit reached")
	ErrAlreadyPinned     = errors.New("app already pinned")
	ErrNotPinned         = errors.New("app not pinned")
)

// HTTPStatusError carries the transport status of a failed download.
// It unwraps to ErrDownloadFailed.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("download failed with status %s", e.Status)
	}

	return fmt.Sprintf("download failed with status %d", e.StatusCode)
}

// Unwrap makes errors.Is(err, ErrDownloadFailed) hold.
func (e *HTTPStatusError) Unwrap() error {
	return ErrDownloadFailed
}

// InstallError describes why the device refused to start an installation.
// It unwraps to ErrInstallerLaunchFailed.
type InstallError struct {
	Code        string
	Message     string
	Suggestions []string
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("installer launch failed (%s): %s", e.Code, e.Message)
}

// Unwrap makes errors.Is(err, ErrInstallerLaunchFailed) hold.
func (e *InstallError) Unwrap() error {
	return ErrInstallerLaunchFailed
}

// ErrorInfo provides user-friendly error information.
type ErrorInfo struct {
	Message     string   // User-friendly message
	Suggestions []string // Actionable suggestions
	ShowDetails bool     // Whether to show technical details
}

type errorMatcher struct {
	target  error
	message string
	hints   []string
}

var errorMatchers = []errorMatcher{
	{ErrPlatformUnsupported, "Downloads and installs only work on an Android device", []string{
		"Connect a device with adb and set platform = \"native\"",
	}},
	{ErrDownloadTimeout, "The download took too long", []string{
		"Check your internet connection", "Try again in a few moments",
	}},
	{ErrUnexpectedContentType, "The server returned a web page instead of an APK", []string{
		"The download link may have expired", "Check the app's download URL in the catalog",
	}},
	{ErrDownloadCancelled, "Download cancelled", nil},
	{ErrDownloadFailed, "The download failed", []string{
		"Check your internet connection", "Try again in a few moments",
	}},
	{ErrFileNotFound, "The downloaded APK could not be found", []string{
		"Download the app again", "Run 'snowmedia cache ls' to inspect the cache",
	}},
	{ErrInstallerLaunchFailed, "The device refused to start the installer", []string{
		"Allow installs from unknown sources on the device",
	}},
	{ErrAppNotInstalled, "The app is not installed", []string{"Download and install it first"}},
	{ErrPackageNotFound, "Package not found on the device", []string{"Refresh the app status"}},
	{ErrInvalidArgument, "A required value was missing", []string{"Check the command arguments"}},
	{ErrAppNotFound, "App not found in the catalog", []string{"Run 'snowmedia apps' to list available apps"}},
	{ErrSessionActive, "Another download is already running", []string{"Wait for it to finish"}},
	{ErrPinLimitReached, "Pinned app limit reached", []string{"Unpin an app first"}},
	{ErrAlreadyPinned, "App already pinned", nil},
	{ErrNotPinned, "App is not pinned", nil},
}

// GetErrorInfo analyzes an error and returns user-friendly information.
func GetErrorInfo(err error, verbose bool) ErrorInfo {
	if err == nil {
		return ErrorInfo{}
	}

	var installErr *InstallError
	if errors.As(err, &installErr) && len(installErr.Suggestions) > 0 {
		return ErrorInfo{Message: installErr.Message, Suggestions: installErr.Suggestions, ShowDetails: verbose}
	}

	for _, m := range errorMatchers {
		if errors.Is(err, m.target) {
			return ErrorInfo{Message: m.message, Suggestions: m.hints, ShowDetails: verbose}
		}
	}

	return ErrorInfo{
		Message:     "Operation failed",
		Suggestions: []string{"Run with --verbose for more details"},
		ShowDetails: verbose,
	}
}

// FormatErrorMessage formats an error for display, naming the app when known.
func FormatErrorMessage(err error, appName string, verbose bool) string {
	info := GetErrorInfo(err, verbose)

	var result strings.Builder

	result.WriteString("✗ ")

	if appName != "" {
		result.WriteString(appName)
		result.WriteString(": ")
	}

	result.WriteString(info.Message)

	if info.ShowDetails {
		result.WriteString("\n  Technical details: ")
		result.WriteString(err.Error())
	}

	if len(info.Suggestions) == 0 {
		return result.String()
	}

	if !verbose {
		result.WriteString(" (")
		result.WriteString(info.Suggestions[0])
		result.WriteString(")")

		return result.String()
	}

	result.WriteString("\n  Suggestions:")

	for _, s := range info.Suggestions {
		result.WriteString("\n    • ")
		result.WriteString(s)
	}

	return result.String()
}
