// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package kvstore is a small durable string key-value store kept in one
// JSON file. Every write is committed with fsync and rename before it returns.
package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
)

// ErrPathRequired is returned when no state file path is configured.
var ErrPathRequired = errors.New("state file path is required")

// Store implements domain.KeyValueStore. Access from other processes is
// serialised through an advisory lock next to the file.
type Store struct {
	path   string
	lock   *flock.Flock
	mu     sync.Mutex
	logger zerolog.Logger
}

// Open prepares a store at path, creating its directory.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrPathRequired
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	return &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger.With().Str("component", "kvstore").Str("path", path).Logger(),
	}, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)

	err := s.withLock(func() error {
		values, err := s.read()
		if err != nil {
			return err
		}

		value, ok = values[key]

		return nil
	})

	return value, ok, err
}

// Set stores one value.
func (s *Store) Set(key, value string) error {
	return s.SetMany(map[string]string{key: value})
}

// SetMany stores all values in a single commit.
func (s *Store) SetMany(updates map[string]string) error {
	return s.update(func(values map[string]string) {
		for k, v := range updates {
			values[k] = v
		}
	})
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	return s.update(func(values map[string]string) {
		delete(values, key)
	})
}

func (s *Store) update(mutate func(map[string]string)) error {
	return s.withLock(func() error {
		values, err := s.read()
		if err != nil {
			return err
		}

		mutate(values)

		return s.write(values)
	})
}

func (s *Store) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock state file: %w", err)
	}

	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn().Err(err).Msg("unlock state file")
		}
	}()

	return fn()
}

func (s *Store) read() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return values, nil
	}

	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return values, nil
}

func (s *Store) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	committed := false

	defer func() {
		if !committed {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync state file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}

	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("commit state file: %w", err)
	}

	committed = true

	s.logger.Trace().Int("keys", len(values)).Msg("state saved")

	return nil
}
