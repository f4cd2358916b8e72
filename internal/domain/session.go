// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Phase is the lifecycle phase of a download session.
type Phase string

// Download session phases.
const (
	PhaseDownloading Phase = "downloading"
	PhaseComplete    Phase = "complete"
	PhaseInstalling  Phase = "installing"
	PhaseInstalled   Phase = "installed"
	PhaseError       Phase = "error"
)

var phaseTransitions = map[Phase][]Phase{
	PhaseDownloading: {PhaseComplete, PhaseError},
	PhaseComplete:    {PhaseInstalling},
	PhaseInstalling:  {PhaseInstalled, PhaseComplete},
}

// Terminal reports whether only an explicit dismiss can leave the phase.
func (p Phase) Terminal() bool {
	return p == PhaseInstalled || p == PhaseError
}

// CanTransition reports whether moving from p to next is allowed.
func (p Phase) CanTransition(next Phase) bool {
	for _, allowed := range phaseTransitions[p] {
		if allowed == next {
			return true
		}
	}

	return false
}

// DownloadSession is the ephemeral state of one APK acquisition.
// Sessions are never persisted.
type DownloadSession struct {
	ID          string
	App         App
	FileName    string
	Received    int64
	Total       int64
	LastPercent int
	Phase       Phase
	Path        string
	URI         string
	Err         error
	StartedAt   time.Time
	UpdatedAt   time.Time
}

// NewDownloadSession starts a session in the downloading phase.
func NewDownloadSession(app App, now time.Time) *DownloadSession {
	return &DownloadSession{
		ID:        uuid.NewString(),
		App:       app,
		FileName:  app.FileName(),
		Phase:     PhaseDownloading,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the session to the next phase.
func (s *DownloadSession) Transition(next Phase, now time.Time) error {
	if !s.Phase.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Phase, next)
	}

	s.Phase = next
	s.UpdatedAt = now

	return nil
}

// Fail records err and moves a downloading session to the error phase.
func (s *DownloadSession) Fail(err error, now time.Time) error {
	if terr := s.Transition(PhaseError, now); terr != nil {
		return terr
	}

	s.Err = err

	return nil
}

// Observe records a progress report. Reports that would move the
// percentage backwards are ignored and false is returned.
func (s *DownloadSession) Observe(percent int, received int64) bool {
	if percent < s.LastPercent {
		return false
	}

	s.LastPercent = percent
	if received > s.Received {
		s.Received = received
	}

	return true
}

// Elapsed returns how long the session has been running.
func (s *DownloadSession) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}
