// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package cache owns the APK subdirectory of the cache area.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

// DefaultSubdir is the APK subdirectory below the cache root.
const DefaultSubdir = "apk"

const lockFileName = ".download.lock"

// Artifact suffixes removed by Cleanup.
var artifactSuffixes = []string{".apk", ".apk.part", ".apk.b64", ".apk.b64.part"}

// Manager manages the APK cache directory.
type Manager struct {
	root   string
	subdir string
	logger zerolog.Logger
}

// NewManager creates a manager for root/subdir. An empty subdir means DefaultSubdir.
func NewManager(root, subdir string, logger zerolog.Logger) *Manager {
	if subdir == "" {
		subdir = DefaultSubdir
	}

	return &Manager{
		root:   root,
		subdir: subdir,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// Root returns the cache root directory.
func (m *Manager) Root() string { return m.root }

// Subdir returns the name of the APK subdirectory.
func (m *Manager) Subdir() string { return m.subdir }

// Dir returns the APK directory.
func (m *Manager) Dir() string {
	return filepath.Join(m.root, m.subdir)
}

// Path returns the full path of name inside the APK directory.
func (m *Manager) Path(name string) string {
	return filepath.Join(m.Dir(), filepath.Base(name))
}

// EnsureDirectory creates the APK directory if needed.
func (m *Manager) EnsureDirectory() error {
	// #nosec G301 - Standard directory permissions for application directories
	if err := os.MkdirAll(m.Dir(), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	return nil
}

// Cleanup deletes APK artifacts except keep and returns the removed names.
// A missing directory is already clean.
func (m *Manager) Cleanup(keep string) ([]string, error) {
	entries, err := os.ReadDir(m.Dir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}

	keep = filepath.Base(keep)

	var (
		removed []string
		errs    []error
	)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == keep || !isArtifact(name) {
			continue
		}

		if err := os.Remove(filepath.Join(m.Dir(), name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", name, err))

			continue
		}

		removed = append(removed, name)
	}

	if len(removed) > 0 {
		m.logger.Debug().Strs("removed", removed).Str("kept", keep).Msg("cleaned apk cache")
	}

	return removed, errors.Join(errs...)
}

// ResolveURI returns a file URI for name. The file must exist.
func (m *Manager) ResolveURI(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty file name", domain.ErrInvalidArgument)
	}

	path := m.Path(name)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// List returns the APK artifacts currently cached, newest first.
func (m *Manager) List() ([]domain.CacheEntry, error) {
	entries, err := os.ReadDir(m.Dir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}

	result := make([]domain.CacheEntry, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !isArtifact(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		result = append(result, domain.CacheEntry{Name: entry.Name(), Size: info.Size(), Modified: info.ModTime()})
	}

	slices.SortFunc(result, func(a, b domain.CacheEntry) int {
		return b.Modified.Compare(a.Modified)
	})

	return result, nil
}

// Usage returns the total size of cached artifacts in bytes.
func (m *Manager) Usage() (int64, error) {
	entries, err := m.List()
	if err != nil {
		return 0, err
	}

	var total int64
	for _, e := range entries {
		total += e.Size
	}

	return total, nil
}

// TryLock takes the exclusive download lock on the APK directory without
// waiting. Only one download may write to the directory at a time.
func (m *Manager) TryLock() (func(), error) {
	if err := m.EnsureDirectory(); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(m.Dir(), lockFileName))

	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock cache directory: %w", err)
	}

	if !locked {
		return nil, domain.ErrSessionActive
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			m.logger.Warn().Err(err).Msg("failed to release cache lock")
		}
	}, nil
}

func isArtifact(name string) bool {
	lower := strings.ToLower(name)

	for _, suffix := range artifactSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}

	return false
}

// Locate resolves an APK locator to a readable file. It accepts absolute
// paths, file:// and content:// URIs, paths containing a cache/ segment and
// bare file names, trying each convention in turn.
func (m *Manager) Locate(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", fmt.Errorf("%w: empty file locator", domain.ErrInvalidArgument)
	}

	candidates := m.candidates(location)

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	m.logger.Debug().Str("location", location).Strs("tried", candidates).Msg("apk not found")

	return "", fmt.Errorf("%w: %s", domain.ErrFileNotFound, location)
}

func (m *Manager) candidates(location string) []string {
	clean := location

	if u, err := url.Parse(location); err == nil && (u.Scheme == "file" || u.Scheme == "content") {
		clean = u.Host + u.Path
		if u.Scheme == "file" {
			clean = u.Path
		}
	}

	clean = filepath.FromSlash(clean)
	candidates := []string{clean}

	if !filepath.IsAbs(clean) {
		candidates = append(candidates, filepath.Join(m.root, clean), filepath.Join(m.Dir(), clean))
	}

	slashed := filepath.ToSlash(clean)
	if _, after, found := strings.Cut(slashed, "cache/"); found && after != "" {
		candidates = append(candidates, filepath.Join(m.root, filepath.FromSlash(after)))
	}

	candidates = append(candidates, m.Path(filepath.Base(clean)))

	return slices.Compact(candidates)
}
