// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		resolve  func(string) string
		override string
		want     string
	}{
		{name: "config override", resolve: GetXDGConfigHomeWithEnv, override: "/x/config", want: "/x/config"},
		{name: "config default", resolve: GetXDGConfigHomeWithEnv, want: filepath.Join(home, ".config")},
		{name: "cache default", resolve: GetXDGCacheHomeWithEnv, want: filepath.Join(home, ".cache")},
		{name: "state default", resolve: GetXDGStateHomeWithEnv, want: filepath.Join(home, ".local", "state")},
		{name: "state override", resolve: GetXDGStateHomeWithEnv, override: "/x/state", want: "/x/state"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, testCase.resolve(testCase.override))
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "apks"), ExpandPath("~/apks"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
}

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}
