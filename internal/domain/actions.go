// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

// Action is a per-app operation offered to the user.
type Action string

// Per-app actions.
const (
	ActionDownload  Action = "download"
	ActionLaunch    Action = "launch"
	ActionSettings  Action = "settings"
	ActionUninstall Action = "uninstall"
)

// ActionsFor derives the button set for an app from its installed flag.
func ActionsFor(installed bool) []Action {
	if installed {
		return []Action{ActionLaunch, ActionSettings, ActionUninstall}
	}

	return []Action{ActionDownload}
}

// Label returns the button caption for the action.
func (a Action) Label() string {
	switch a {
	case ActionDownload:
		return "Download"
	case ActionLaunch:
		return "Launch"
	case ActionSettings:
		return "Settings"
	case ActionUninstall:
		return "Uninstall"
	default:
		return string(a)
	}
}
