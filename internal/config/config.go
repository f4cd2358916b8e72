// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package config loads snowmedia settings from a TOML file and
// SNOWMEDIA_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/SnowMediaEnt/snow-media-center/internal/platform"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SNOWMEDIA"

// Platform selection values.
const (
	PlatformAuto   = "auto"
	PlatformNative = "native"
	PlatformWeb    = "web"
)

// Download encodings.
const (
	EncodingBinary = "binary"
	EncodingBase64 = "base64"
)

// ErrInvalidConfig is returned when a setting is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Duration is a time.Duration read from strings such as "180s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}

	d.Duration = parsed

	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds all snowmedia settings.
type Config struct {
	Platform  string          `toml:"platform" split_words:"true"`
	StateDir  string          `toml:"state_dir" split_words:"true"`
	Device    DeviceConfig    `toml:"device"`
	Download  DownloadConfig  `toml:"download"`
	Cache     CacheConfig     `toml:"cache"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Pinned    PinnedConfig    `toml:"pinned"`
	Reconcile ReconcileConfig `toml:"reconcile"`
	Log       LogConfig       `toml:"log"`
}

// DeviceConfig selects the adb binary and target device.
type DeviceConfig struct {
	ADBPath        string   `toml:"adb_path" split_words:"true"`
	Serial         string   `toml:"serial" split_words:"true"`
	CommandTimeout Duration `toml:"command_timeout" split_words:"true"`
}

// DownloadConfig tunes the binary streamer.
type DownloadConfig struct {
	Timeout            Duration `toml:"timeout" split_words:"true"`
	ProgressStep       int      `toml:"progress_step" split_words:"true"`
	FallbackSize       string   `toml:"fallback_size" split_words:"true"`
	ChunkSize          int      `toml:"chunk_size" split_words:"true"`
	Encoding           string   `toml:"encoding" split_words:"true"`
	UserAgent          string   `toml:"user_agent" split_words:"true"`
	PostInstallCleanup Duration `toml:"post_install_cleanup" split_words:"true"`
}

// CacheConfig locates the APK cache.
type CacheConfig struct {
	Dir    string `toml:"dir" split_words:"true"`
	Subdir string `toml:"subdir" split_words:"true"`
}

// CatalogConfig locates the app catalog.
type CatalogConfig struct {
	Source   string   `toml:"source" split_words:"true"`
	Watch    bool     `toml:"watch" split_words:"true"`
	Timeout  Duration `toml:"timeout" split_words:"true"`
	RetryMax int      `toml:"retry_max" split_words:"true"`
	// Poll is the refresh interval for remote catalogs.
	Poll Duration `toml:"poll" split_words:"true"`
}

// PinnedConfig bounds the pinned dock.
type PinnedConfig struct {
	Max           int `toml:"max" split_words:"true"`
	SchemaVersion int `toml:"schema_version" split_words:"true"`
}

// ReconcileConfig paces installed-state polling.
type ReconcileConfig struct {
	UninstallRecheck Duration `toml:"uninstall_recheck" split_words:"true"`
	PollRate         float64  `toml:"poll_rate" split_words:"true"`
	PollBurst        int      `toml:"poll_burst" split_words:"true"`
	StatusTimeout    Duration `toml:"status_timeout" split_words:"true"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `toml:"level" split_words:"true"`
	Format string `toml:"format" split_words:"true"`
	File   string `toml:"file" split_words:"true"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Platform: PlatformAuto,
		StateDir: platform.StateDir(),
		Device: DeviceConfig{
			ADBPath:        "adb",
			CommandTimeout: Duration{30 * time.Second},
		},
		Download: DownloadConfig{
			Timeout:            Duration{180 * time.Second},
			ProgressStep:       2,
			FallbackSize:       "28MB",
			ChunkSize:          8190,
			Encoding:           EncodingBinary,
			UserAgent:          "snowmedia/1.0",
			PostInstallCleanup: Duration{2 * time.Second},
		},
		Cache: CacheConfig{
			Dir:    platform.CacheDir(),
			Subdir: "apk",
		},
		Catalog: CatalogConfig{
			Source:   filepath.Join(platform.GetXDGConfigHome(), platform.AppName, "apps.json"),
			Watch:    true,
			Timeout:  Duration{15 * time.Second},
			RetryMax: 3,
			Poll:     Duration{30 * time.Second},
		},
		Pinned: PinnedConfig{
			Max:           5,
			SchemaVersion: 2,
		},
		Reconcile: ReconcileConfig{
			UninstallRecheck: Duration{time.Second},
			PollRate:         10,
			PollBurst:        4,
			StatusTimeout:    Duration{5 * time.Second},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads path over the defaults and then applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = platform.ConfigFile()
	}

	// #nosec G304 - config path is chosen by the user
	data, err := os.ReadFile(path)

	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that would otherwise fail later.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains([]string{PlatformAuto, PlatformNative, PlatformWeb}, c.Platform) {
		errs = append(errs, fmt.Errorf("%w: platform must be auto, native or web, got %q", ErrInvalidConfig, c.Platform))
	}

	if !slices.Contains([]string{EncodingBinary, EncodingBase64}, c.Download.Encoding) {
		errs = append(errs, fmt.Errorf("%w: download.encoding must be binary or base64, got %q", ErrInvalidConfig, c.Download.Encoding))
	}

	if c.Download.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("%w: download.timeout must be positive", ErrInvalidConfig))
	}

	if c.Download.ProgressStep < 1 || c.Download.ProgressStep > 50 {
		errs = append(errs, fmt.Errorf("%w: download.progress_step must be in 1..50", ErrInvalidConfig))
	}

	if c.Download.ChunkSize < 3 {
		errs = append(errs, fmt.Errorf("%w: download.chunk_size must be at least 3", ErrInvalidConfig))
	}

	if c.Pinned.Max < 1 {
		errs = append(errs, fmt.Errorf("%w: pinned.max must be at least 1", ErrInvalidConfig))
	}

	if c.Reconcile.PollRate <= 0 || c.Reconcile.PollBurst < 1 {
		errs = append(errs, fmt.Errorf("%w: reconcile.poll_rate and poll_burst must be positive", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// PinnedStatePath returns the file holding pinned apps and other local state.
func (c *Config) PinnedStatePath() string {
	return filepath.Join(c.StateDir, "state.json")
}

// LogFilePath returns the log file used while the terminal UI owns the screen.
func (c *Config) LogFilePath() string {
	if c.Log.File != "" {
		return c.Log.File
	}

	return filepath.Join(c.StateDir, "snowmedia.log")
}

func (c *Config) expandPaths() {
	c.StateDir = platform.ExpandPath(c.StateDir)
	c.Cache.Dir = platform.ExpandPath(c.Cache.Dir)
	c.Log.File = platform.ExpandPath(c.Log.File)
	c.Device.ADBPath = platform.ExpandPath(c.Device.ADBPath)

	if !isURL(c.Catalog.Source) {
		c.Catalog.Source = platform.ExpandPath(c.Catalog.Source)
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsRemoteCatalog reports whether the catalog source is an HTTP URL.
func (c *Config) IsRemoteCatalog() bool {
	return isURL(c.Catalog.Source)
}
