// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package pinned persists the pinned-app dock.
package pinned

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

// Storage keys.
const (
	AppsKey    = "pinned-apps"
	VersionKey = "pinned-apps-version"
)

// Store keeps the pinned list in memory and writes every change through to
// the key-value store before returning.
type Store struct {
	kv      domain.KeyValueStore
	version int
	logger  zerolog.Logger

	mu   sync.Mutex
	list *domain.PinnedList
}

// Open loads the pinned list. A stored schema version other than version
// resets the list to empty.
func Open(kv domain.KeyValueStore, maxApps, version int, logger zerolog.Logger) (*Store, error) {
	s := &Store{
		kv:      kv,
		version: version,
		logger:  logger.With().Str("component", "pinned").Logger(),
	}

	apps, err := s.load()
	if err != nil {
		return nil, err
	}

	s.list = domain.NewPinnedList(maxApps, apps)

	return s, nil
}

func (s *Store) load() ([]domain.PinnedApp, error) {
	rawVersion, hasVersion, err := s.kv.Get(VersionKey)
	if err != nil {
		return nil, fmt.Errorf("read pinned version: %w", err)
	}

	rawApps, hasApps, err := s.kv.Get(AppsKey)
	if err != nil {
		return nil, fmt.Errorf("read pinned apps: %w", err)
	}

	stored, convErr := strconv.Atoi(rawVersion)
	if !hasVersion || convErr != nil || stored != s.version {
		if hasApps || hasVersion {
			s.logger.Warn().
				Str("stored_version", rawVersion).
				Int("version", s.version).
				Msg("pinned schema changed, resetting pinned apps")
		}

		return nil, s.persist(nil)
	}

	if !hasApps {
		return nil, nil
	}

	var apps []domain.PinnedApp
	if err := json.Unmarshal([]byte(rawApps), &apps); err != nil {
		s.logger.Warn().Err(err).Msg("unreadable pinned apps, resetting")

		return nil, s.persist(nil)
	}

	return apps, nil
}

// Apps returns the pinned apps in dock order.
func (s *Store) Apps() []domain.PinnedApp {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.list.Apps()
}

// Max returns the pin limit.
func (s *Store) Max() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.list.Max()
}

// Contains reports whether id is pinned.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.list.Contains(id)
}

// Pin adds app to the end of the dock.
func (s *Store) Pin(app domain.PinnedApp) error {
	return s.mutate(func(list *domain.PinnedList) error {
		return list.Pin(app)
	})
}

// Unpin removes id from the dock.
func (s *Store) Unpin(id string) error {
	return s.mutate(func(list *domain.PinnedList) error {
		return list.Unpin(id)
	})
}

// Toggle pins or unpins app. A full dock reports limit_reached without error.
func (s *Store) Toggle(app domain.PinnedApp) (domain.PinResult, error) {
	var result domain.PinResult

	err := s.mutate(func(list *domain.PinnedList) error {
		var err error

		result, err = list.Toggle(app)

		return err
	})
	if err != nil {
		return "", err
	}

	return result, nil
}

// mutate applies fn to a copy and swaps it in only once it is durable.
func (s *Store) mutate(fn func(*domain.PinnedList) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := domain.NewPinnedList(s.list.Max(), s.list.Apps())
	if err := fn(next); err != nil {
		return err
	}

	apps := next.Apps()
	if len(apps) == s.list.Len() && sameOrder(apps, s.list.Apps()) {
		return nil
	}

	if err := s.persist(apps); err != nil {
		return err
	}

	s.list = next

	return nil
}

func (s *Store) persist(apps []domain.PinnedApp) error {
	if apps == nil {
		apps = []domain.PinnedApp{}
	}

	data, err := json.Marshal(apps)
	if err != nil {
		return fmt.Errorf("encode pinned apps: %w", err)
	}

	err = s.kv.SetMany(map[string]string{
		AppsKey:    string(data),
		VersionKey: strconv.Itoa(s.version),
	})
	if err != nil {
		return fmt.Errorf("save pinned apps: %w", err)
	}

	s.logger.Debug().Int("pinned", len(apps)).Msg("pinned apps saved")

	return nil
}

func sameOrder(a, b []domain.PinnedApp) bool {
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}

	return true
}
