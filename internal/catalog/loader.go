// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/SnowMediaEnt/snow-media-center/internal/config"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

// maxCatalogBytes bounds how much of a remote payload is read.
const maxCatalogBytes = 8 << 20

// ErrCatalogUnavailable wraps fetch and read failures.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Loader reads the catalog from its configured source.
type Loader struct {
	source string
	client *retryablehttp.Client
	logger zerolog.Logger
}

// NewLoader builds a loader for cfg.Source. Remote sources are fetched
// with retries, unlike APK downloads.
func NewLoader(cfg config.CatalogConfig, logger zerolog.Logger) *Loader {
	logger = logger.With().Str("component", "catalog").Logger()

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = cfg.Timeout.Duration
	client.Logger = leveledLogger{logger: logger}

	return &Loader{source: cfg.Source, client: client, logger: logger}
}

// Source returns the file path or URL the catalog is read from.
func (l *Loader) Source() string { return l.source }

// Remote reports whether the source is an HTTP URL.
func (l *Loader) Remote() bool {
	return strings.HasPrefix(l.source, "http://") || strings.HasPrefix(l.source, "https://")
}

// Load reads and parses the catalog.
func (l *Loader) Load(ctx context.Context) ([]domain.App, error) {
	var (
		data []byte
		err  error
	)

	if l.Remote() {
		data, err = l.fetch(ctx)
	} else {
		data, err = os.ReadFile(l.source)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
		}
	}

	if err != nil {
		return nil, err
	}

	apps, err := Parse(data)
	if err != nil {
		return nil, err
	}

	l.logger.Debug().Str("source", l.source).Int("apps", len(apps)).Msg("catalog loaded")

	return apps, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrCatalogUnavailable, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	return data, nil
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger zerolog.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) {
	l.logger.Error().Fields(kv).Msg(msg)
}

func (l leveledLogger) Info(msg string, kv ...interface{}) {
	l.logger.Debug().Fields(kv).Msg(msg)
}

func (l leveledLogger) Debug(msg string, kv ...interface{}) {
	l.logger.Trace().Fields(kv).Msg(msg)
}

func (l leveledLogger) Warn(msg string, kv ...interface{}) {
	l.logger.Warn().Fields(kv).Msg(msg)
}
