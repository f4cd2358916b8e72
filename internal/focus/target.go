// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package focus

import (
	"strconv"

	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

// Target identifies one focusable element.
type Target string

// BackTarget is the screen's back button and the default anchor.
const BackTarget Target = "back"

// TabTarget returns the target for tab n.
func TabTarget(n int) Target {
	return Target("tab-" + strconv.Itoa(n))
}

// AppTarget returns the target for an app card.
func AppTarget(appID string) Target {
	return Target("app-" + appID)
}

// ActionTarget returns the target for one of an app card's buttons.
func ActionTarget(action domain.Action, appID string) Target {
	return Target(string(action) + "-" + appID)
}

// PinnedTarget returns the target for a pinned dock slot.
func PinnedTarget(appID string) Target {
	return Target("pinned-" + appID)
}

// Card is one app card with the buttons it currently shows.
type Card struct {
	AppID   string
	Actions []domain.Action
}

// Layout is everything the focus order is computed from.
type Layout struct {
	Tabs      int
	ActiveTab int
	// Cards are the visible cards of the active tab, in display order.
	Cards []Card
	// Pinned are the pinned app ids in dock order.
	Pinned []string
}

type kind int

const (
	kindBack kind = iota
	kindTab
	kindCard
	kindAction
	kindPinned
)

type node struct {
	kind   kind
	tab    int
	card   int
	action int
	pin    int
}

// Order returns the flat focus order for l.
func (l Layout) Order() []Target {
	order, _ := l.build()
	return order
}

func (l Layout) build() ([]Target, []node) {
	order := []Target{BackTarget}
	nodes := []node{{kind: kindBack}}

	for n := range l.Tabs {
		order = append(order, TabTarget(n))
		nodes = append(nodes, node{kind: kindTab, tab: n})
	}

	for c, card := range l.Cards {
		order = append(order, AppTarget(card.AppID))
		nodes = append(nodes, node{kind: kindCard, card: c})

		for a, action := range card.Actions {
			order = append(order, ActionTarget(action, card.AppID))
			nodes = append(nodes, node{kind: kindAction, card: c, action: a})
		}
	}

	for p, id := range l.Pinned {
		order = append(order, PinnedTarget(id))
		nodes = append(nodes, node{kind: kindPinned, pin: p})
	}

	return order, nodes
}
