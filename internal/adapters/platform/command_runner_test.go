// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package platform_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SnowMediaEnt/snow-media-center/internal/adapters/platform"
)

func TestCommandRunner_Execute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cmd     string
		args    []string
		wantErr bool
	}{
		{
			name: "successful echo command",
			cmd:  "echo",
			args: []string{"hello"},
		},
		{
			name:    "non-existent command",
			cmd:     "nonexistent_command_xyz",
			wantErr: true,
		},
		{
			name:    "command with exit code 1",
			cmd:     "sh",
			args:    []string{"-c", "exit 1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cr := platform.NewCommandRunner(zerolog.Nop(), 0, false)
			err := cr.Execute(context.Background(), tt.cmd, tt.args...)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCommandRunner_OutputSurvivesFailure(t *testing.T) {
	t.Parallel()

	cr := platform.NewCommandRunner(zerolog.Nop(), 0, false)

	output, err := cr.ExecuteWithOutput(context.Background(), "sh", "-c", "echo 'Failure [INSTALL_FAILED_INVALID_APK]'; exit 1")
	require.Error(t, err)
	assert.Contains(t, output, "INSTALL_FAILED_INVALID_APK")
	assert.Contains(t, err.Error(), "INSTALL_FAILED_INVALID_APK")
}

func TestCommandRunner_Timeout(t *testing.T) {
	t.Parallel()

	cr := platform.NewCommandRunner(zerolog.Nop(), 50*time.Millisecond, false)

	start := time.Now()
	_, err := cr.ExecuteWithOutput(context.Background(), "sleep", "5")

	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestCommandRunner_DryRun(t *testing.T) {
	t.Parallel()

	cr := platform.NewCommandRunner(zerolog.Nop(), 0, true)

	output, err := cr.ExecuteWithOutput(context.Background(), "nonexistent_command_xyz")
	require.NoError(t, err)
	assert.Empty(t, output)
}

func TestCommandRunner_CommandExists(t *testing.T) {
	t.Parallel()

	cr := platform.NewCommandRunner(zerolog.Nop(), 0, false)

	assert.True(t, cr.CommandExists("sh"))
	assert.False(t, cr.CommandExists("nonexistent_command_xyz"))
}

func TestMockCommandRunner(t *testing.T) {
	t.Parallel()

	mock := platform.NewMockCommandRunner()
	mock.SetMockOutput("adb get-state", "device\n")
	mock.SetMockError("adb reboot", errors.New("denied"))
	mock.SetMissing("fastboot")

	out, err := mock.ExecuteWithOutput(context.Background(), "adb", "get-state")
	require.NoError(t, err)
	assert.Equal(t, "device", strings.TrimSpace(out))

	require.Error(t, mock.Execute(context.Background(), "adb", "reboot"))
	assert.Equal(t, []string{"adb get-state", "adb reboot"}, mock.Calls())
	assert.True(t, mock.CommandExists("adb"))
	assert.False(t, mock.CommandExists("fastboot"))
}
