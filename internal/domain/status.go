// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"time"

	"github.com/Masterminds/semver/v3"
)

// InstallStatus is the cached reconciliation result for one app.
type InstallStatus struct {
	AppID            string
	Installed        bool
	InstalledVersion string
	CheckedAt        time.Time
}

// Actions returns the button set for the status.
func (s InstallStatus) Actions() []Action {
	return ActionsFor(s.Installed)
}

// UpdateAvailable reports whether the catalog version is newer than the
// installed one. Unparseable versions never report an update.
func UpdateAvailable(installed, catalog string) bool {
	if installed == "" || catalog == "" {
		return false
	}

	have, err := semver.NewVersion(installed)
	if err != nil {
		return false
	}

	want, err := semver.NewVersion(catalog)
	if err != nil {
		return false
	}

	return want.GreaterThan(have)
}
