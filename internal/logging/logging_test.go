// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SnowMediaEnt/snow-media-center/internal/config"
)

func TestNew_JSONWhenNotATerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger, err := New(config.LogConfig{Level: "debug", Format: FormatAuto}, &buf, false)
	require.NoError(t, err)

	cacheLogger := Component(logger, "cache")
	cacheLogger.Debug().Str("file", "a.apk").Msg("removed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "cache", entry["component"])
	assert.Equal(t, "a.apk", entry["file"])
	assert.Equal(t, "removed", entry["message"])
}

func TestNew_LevelFilters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger, err := New(config.LogConfig{Level: "warn", Format: FormatJSON}, &buf, false)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_ConsoleFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger, err := New(config.LogConfig{Format: FormatConsole}, &buf, false)
	require.NoError(t, err)

	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), "{")
}

func TestNew_RejectsBadSettings(t *testing.T) {
	t.Parallel()

	_, err := New(config.LogConfig{Level: "loud"}, &bytes.Buffer{}, false)
	require.Error(t, err)

	_, err = New(config.LogConfig{Format: "xml"}, &bytes.Buffer{}, false)
	require.Error(t, err)
}

func TestOpenFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "snowmedia.log")

	file, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)
}
