// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package bridge

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/SnowMediaEnt/snow-media-center/internal/adapters/adb"
	"github.com/SnowMediaEnt/snow-media-center/internal/adapters/platform"
	"github.com/SnowMediaEnt/snow-media-center/internal/config"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	online := platform.NewMockCommandRunner()
	online.SetMockOutput("adb get-state", "device\n")

	offline := platform.NewMockCommandRunner()
	offline.SetMockOutput("adb get-state", "error: no devices/emulators found")

	tests := []struct {
		name       string
		platform   string
		runner     *platform.MockCommandRunner
		wantNative bool
	}{
		{name: "auto with device", platform: config.PlatformAuto, runner: online, wantNative: true},
		{name: "auto without device", platform: config.PlatformAuto, runner: offline, wantNative: false},
		{name: "forced native", platform: config.PlatformNative, runner: offline, wantNative: true},
		{name: "forced web", platform: config.PlatformWeb, runner: online, wantNative: false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			device := adb.NewInstaller(testCase.runner, nil, "adb", "", zerolog.Nop())
			installer, native := Resolve(context.Background(), testCase.platform, device, zerolog.Nop())

			assert.Equal(t, testCase.wantNative, native)
			assert.Equal(t, testCase.wantNative, installer.Native())
		})
	}
}

func TestSelect_NilNativeFallsBack(t *testing.T) {
	t.Parallel()

	assert.False(t, Select(true, nil).Native())
}
