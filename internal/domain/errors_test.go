// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetErrorInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "timeout", err: fmt.Errorf("get: %w", ErrDownloadTimeout), expected: "The download took too long"},
		{name: "http status", err: &HTTPStatusError{StatusCode: 404}, expected: "The download failed"},
		{name: "content type", err: ErrUnexpectedContentType, expected: "The server returned a web page instead of an APK"},
		{name: "unsupported", err: ErrPlatformUnsupported, expected: "Downloads and installs only work on an Android device"},
		{name: "install refused", err: &InstallError{Code: "INVALID_APK", Message: "APK file is invalid", Suggestions: []string{"Re-download"}}, expected: "APK file is invalid"},
		{name: "unknown", err: errors.New("weird"), expected: "Operation failed"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, GetErrorInfo(testCase.err, false).Message)
		})
	}
}

func TestTypedErrorsUnwrap(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, &HTTPStatusError{StatusCode: 500}, ErrDownloadFailed)
	assert.ErrorIs(t, &InstallError{Code: "X"}, ErrInstallerLaunchFailed)
	assert.Contains(t, (&HTTPStatusError{StatusCode: 503, Status: "503 Service Unavailable"}).Error(), "503 Service Unavailable")
}

func TestFormatErrorMessage(t *testing.T) {
	t.Parallel()

	short := FormatErrorMessage(ErrPinLimitReached, "Plex", false)
	assert.Equal(t, "✗ Plex: Pinned app limit reached (Unpin an app first)", short)

	verbose := FormatErrorMessage(ErrDownloadTimeout, "", true)
	assert.True(t, strings.HasPrefix(verbose, "✗ The download took too long"))
	assert.Contains(t, verbose, "Technical details: download timed out")
	assert.Contains(t, verbose, "• Try again in a few moments")
}

func TestUpdateAvailable(t *testing.T) {
	t.Parallel()

	assert.True(t, UpdateAvailable("1.2.0", "1.3"))
	assert.True(t, UpdateAvailable("v2.0.0", "2.0.1"))
	assert.False(t, UpdateAvailable("2.0.0", "2.0.0"))
	assert.False(t, UpdateAvailable("3.0", "2.9"))
	assert.False(t, UpdateAvailable("", "1.0"))
	assert.False(t, UpdateAvailable("nightly", "1.0"))
}
