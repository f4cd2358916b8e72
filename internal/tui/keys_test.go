// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/SnowMediaEnt/snow-media-center/internal/focus"
)

func TestKeyMapInput(t *testing.T) {
	t.Parallel()

	keys := DefaultKeyMap()

	tests := []struct {
		name string
		msg  tea.KeyMsg
		want focus.Input
		ok   bool
	}{
		{"arrow up", tea.KeyMsg{Type: tea.KeyUp}, focus.InputUp, true},
		{"vim down", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}, focus.InputDown, true},
		{"arrow left", tea.KeyMsg{Type: tea.KeyLeft}, focus.InputLeft, true},
		{"vim right", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}}, focus.InputRight, true},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, focus.InputSelect, true},
		{"space", tea.KeyMsg{Type: tea.KeySpace}, focus.InputSelect, true},
		{"escape", tea.KeyMsg{Type: tea.KeyEsc}, focus.InputBack, true},
		{"backspace", tea.KeyMsg{Type: tea.KeyBackspace}, focus.InputBack, true},
		{"pin is not navigation", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := keys.Input(tt.msg)
			assert.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
