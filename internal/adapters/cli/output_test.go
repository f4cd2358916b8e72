// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

func TestOutputAdapter_Success(t *testing.T) {
	tests := []struct {
		name         string
		format       OutputFormat
		quiet        bool
		message      string
		data         any
		wantContains string
		wantEmpty    bool
	}{
		{
			name:         "text format with message",
			format:       TextFormat,
			message:      "Plex installed",
			wantContains: "Plex installed",
		},
		{
			name:      "quiet mode suppresses message",
			format:    TextFormat,
			quiet:     true,
			message:   "Plex installed",
			wantEmpty: true,
		},
		{
			name:    "JSON format with data",
			format:  JSONFormat,
			message: "ignored",
			data: domain.DownloadResult{
				AppID:    "plex",
				FileName: "plex-1.0.apk",
				Bytes:    2048,
				Duration: 2 * time.Second,
			},
			wantContains: `"file_name"`,
		},
		{
			name:         "JSON format without data shows message",
			format:       JSONFormat,
			message:      "Nothing pinned",
			wantContains: "Nothing pinned",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			adapter := NewOutputAdapterWithWriter(&buf, tt.format, tt.quiet)

			err := adapter.Success(tt.message, tt.data)
			require.NoError(t, err)

			output := buf.String()
			if tt.wantEmpty {
				assert.Empty(t, output)
			} else {
				assert.Contains(t, output, tt.wantContains)
			}

			if tt.format == JSONFormat && tt.data != nil {
				var result map[string]any

				assert.NoError(t, json.Unmarshal(buf.Bytes(), &result))
			}
		})
	}
}

func TestOutputAdapter_Error(t *testing.T) {
	t.Run("text format shows error prefix", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, NewOutputAdapterWithWriter(&buf, TextFormat, false).Error("boom"))
		assert.Equal(t, "Error: boom\n", buf.String())
	})

	t.Run("quiet mode suppresses error", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, NewOutputAdapterWithWriter(&buf, TextFormat, true).Error("boom"))
		assert.Empty(t, buf.String())
	})

	t.Run("JSON format wraps error", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, NewOutputAdapterWithWriter(&buf, JSONFormat, false).Error("boom"))

		var result map[string]string

		require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
		assert.Equal(t, "boom", result["error"])
	})
}

func TestOutputAdapter_Table(t *testing.T) {
	headers := []string{"ID", "Name", "Status"}
	rows := [][]string{
		{"plex", "Plex", "installed"},
		{"cinemahd", "Cinema HD", "available"},
		{"tv", "电视", "installed"},
	}

	t.Run("text format aligns by display width", func(t *testing.T) {
		var buf bytes.Buffer

		adapter := NewOutputAdapterWithWriter(&buf, TextFormat, false)
		require.NoError(t, adapter.Table(headers, rows))

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, "ID        Name       Status", lines[0])
		assert.Equal(t, "--------  ---------  ---------", lines[1])
		assert.Equal(t, "plex      Plex       installed", lines[2])
		assert.Equal(t, "tv        电视       installed", lines[4])
	})

	t.Run("JSON format outputs structured data", func(t *testing.T) {
		var buf bytes.Buffer

		adapter := NewOutputAdapterWithWriter(&buf, JSONFormat, false)
		require.NoError(t, adapter.Table(headers, rows))

		var result map[string]any

		require.NoError(t, json.Unmarshal(buf.Bytes(), &result))

		resultHeaders, ok := result["headers"].([]any)
		require.True(t, ok)
		assert.Len(t, resultHeaders, len(headers))

		resultRows, ok := result["rows"].([]any)
		require.True(t, ok)
		assert.Len(t, resultRows, 3)
	})

	t.Run("quiet mode suppresses table", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, NewOutputAdapterWithWriter(&buf, TextFormat, true).Table(headers, rows))
		assert.Empty(t, buf.String())
	})
}

func TestOutputAdapter_Progress(t *testing.T) {
	t.Run("progress rewrites the line and the next message starts fresh", func(t *testing.T) {
		var buf bytes.Buffer

		adapter := NewOutputAdapterWithWriter(&buf, TextFormat, false)
		require.NoError(t, adapter.Progress("↓ Plex 50%"))
		require.NoError(t, adapter.Progress("↓ Plex 99%"))
		require.NoError(t, adapter.Info("done"))

		assert.Equal(t, "\r↓ Plex 50%\r↓ Plex 99%\ndone\n", buf.String())
	})

	t.Run("JSON format suppresses progress", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, NewOutputAdapterWithWriter(&buf, JSONFormat, false).Progress("50%"))
		assert.Empty(t, buf.String())
	})

	t.Run("quiet mode suppresses progress", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, NewOutputAdapterWithWriter(&buf, TextFormat, true).Progress("50%"))
		assert.Empty(t, buf.String())
	})
}

func TestDownloadLine(t *testing.T) {
	assert.Equal(t, "↓ Plex  42% 1.0 MB / 25 MB", DownloadLine("Plex", 42, 1_000_000, 25_000_000))
	assert.Equal(t, "↓ Plex   5% 512 B", DownloadLine("Plex", 5, 512, -1))
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"", TextFormat, false},
		{"text", TextFormat, false},
		{"JSON", JSONFormat, false},
		{"xml", TextFormat, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidArgument)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutputFromContext(t *testing.T) {
	assert.False(t, OutputFromContext(false, false).IsJSON())
	assert.True(t, OutputFromContext(true, false).IsJSON())
	assert.True(t, OutputFromContext(false, true).IsQuiet())
}
