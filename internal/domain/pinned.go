// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import "slices"

// DefaultMaxPinned is the number of pinned shortcuts allowed.
const DefaultMaxPinned = 5

// PinnedApp is a user-curated shortcut.
type PinnedApp struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	PackageName string `json:"packageName"`
}

// PinnedFromApp builds a shortcut for a catalog app.
func PinnedFromApp(app App) PinnedApp {
	return PinnedApp{
		ID:          app.ID,
		Name:        app.Name,
		Icon:        app.Icon,
		PackageName: app.Package(),
	}
}

// PinResult reports what a toggle did.
type PinResult string

// Toggle outcomes.
const (
	PinResultPinned       PinResult = "pinned"
	PinResultUnpinned     PinResult = "unpinned"
	PinResultLimitReached PinResult = "limit_reached"
)

// PinnedList holds pinned shortcuts in display order.
// It is deduplicated by ID and never grows past its maximum.
type PinnedList struct {
	apps []PinnedApp
	max  int
}

// NewPinnedList builds a list from stored entries, dropping duplicates
// and anything past max.
func NewPinnedList(maxApps int, apps []PinnedApp) *PinnedList {
	if maxApps <= 0 {
		maxApps = DefaultMaxPinned
	}

	list := &PinnedList{max: maxApps}

	for _, app := range apps {
		if app.ID == "" || list.Contains(app.ID) {
			continue
		}

		if len(list.apps) == maxApps {
			break
		}

		list.apps = append(list.apps, app)
	}

	return list
}

// Apps returns a copy of the pinned shortcuts.
func (l *PinnedList) Apps() []PinnedApp {
	return slices.Clone(l.apps)
}

// Len returns the number of pinned shortcuts.
func (l *PinnedList) Len() int { return len(l.apps) }

// Max returns the pin limit.
func (l *PinnedList) Max() int { return l.max }

// CanPinMore reports whether another app fits.
func (l *PinnedList) CanPinMore() bool { return len(l.apps) < l.max }

// Contains reports whether id is pinned.
func (l *PinnedList) Contains(id string) bool {
	return slices.ContainsFunc(l.apps, func(a PinnedApp) bool { return a.ID == id })
}

// Pin appends app. The list is unchanged on error.
func (l *PinnedList) Pin(app PinnedApp) error {
	if app.ID == "" {
		return ErrInvalidArgument
	}

	if !l.CanPinMore() {
		return ErrPinLimitReached
	}

	if l.Contains(app.ID) {
		return ErrAlreadyPinned
	}

	l.apps = append(l.apps, app)

	return nil
}

// Unpin removes the app with id, keeping the order of the rest.
func (l *PinnedList) Unpin(id string) error {
	idx := slices.IndexFunc(l.apps, func(a PinnedApp) bool { return a.ID == id })
	if idx < 0 {
		return ErrNotPinned
	}

	l.apps = slices.Delete(l.apps, idx, idx+1)

	return nil
}

// Toggle unpins a pinned app or pins an unpinned one.
func (l *PinnedList) Toggle(app PinnedApp) (PinResult, error) {
	if l.Contains(app.ID) {
		return PinResultUnpinned, l.Unpin(app.ID)
	}

	if !l.CanPinMore() {
		return PinResultLimitReached, nil
	}

	if err := l.Pin(app); err != nil {
		return "", err
	}

	return PinResultPinned, nil
}
