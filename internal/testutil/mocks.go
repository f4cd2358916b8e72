// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package testutil holds shared mocks and fixtures for package tests.
package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

// MockInstaller mocks the Installer and VersionReporter ports.
type MockInstaller struct {
	mock.Mock

	NativePlatform bool
}

// IsInstalled mocks the installed lookup.
func (m *MockInstaller) IsInstalled(ctx context.Context, packageName string) (bool, error) {
	args := m.Called(ctx, packageName)
	return args.Bool(0), args.Error(1)
}

// InstallAPK mocks handing an APK to the platform installer.
func (m *MockInstaller) InstallAPK(ctx context.Context, location string) error {
	return m.Called(ctx, location).Error(0)
}

// Launch mocks launching an app.
func (m *MockInstaller) Launch(ctx context.Context, packageName string) error {
	return m.Called(ctx, packageName).Error(0)
}

// Uninstall mocks the uninstall prompt.
func (m *MockInstaller) Uninstall(ctx context.Context, packageName string) error {
	return m.Called(ctx, packageName).Error(0)
}

// OpenAppSettings mocks opening app settings.
func (m *MockInstaller) OpenAppSettings(ctx context.Context, packageName string) error {
	return m.Called(ctx, packageName).Error(0)
}

// InstalledVersion mocks the version lookup.
func (m *MockInstaller) InstalledVersion(ctx context.Context, packageName string) (string, error) {
	args := m.Called(ctx, packageName)
	return args.String(0), args.Error(1)
}

// Native reports the configured platform flag.
func (m *MockInstaller) Native() bool { return m.NativePlatform }

// MemoryStore is an in-memory KeyValueStore with optional write failure.
type MemoryStore struct {
	mu       sync.Mutex
	values   map[string]string
	writes   int
	WriteErr error
}

// NewMemoryStore returns a store seeded with values.
func NewMemoryStore(values map[string]string) *MemoryStore {
	store := &MemoryStore{values: make(map[string]string, len(values))}
	for k, v := range values {
		store.values[k] = v
	}

	return store
}

// Get returns the value for key.
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]

	return v, ok, nil
}

// Set stores key.
func (s *MemoryStore) Set(key, value string) error {
	return s.SetMany(map[string]string{key: value})
}

// SetMany stores all values at once.
func (s *MemoryStore) SetMany(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.WriteErr != nil {
		return s.WriteErr
	}

	for k, v := range values {
		s.values[k] = v
	}

	s.writes++

	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.WriteErr != nil {
		return s.WriteErr
	}

	delete(s.values, key)
	s.writes++

	return nil
}

// Writes returns how many commits succeeded.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writes
}

// CreateTestApp builds a catalog entry with a stable id.
func CreateTestApp(id, name string) domain.App {
	return domain.App{
		ID:          id,
		Name:        name,
		Version:     "1.0",
		Size:        "25MB",
		DownloadURL: "https://example.com/" + id + ".apk",
		Category:    domain.CategoryStreaming,
	}
}
