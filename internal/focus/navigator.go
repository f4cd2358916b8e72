// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package focus maps remote-control input onto a single focused element
// of a screen whose grid changes with the active tab and pinned dock.
package focus

import (
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

// Input is a discrete remote or keyboard event.
type Input int

// Inputs. Escape, Backspace and the hardware back key all map to InputBack.
const (
	InputUp Input = iota
	InputDown
	InputLeft
	InputRight
	InputSelect
	InputBack
)

// CommandKind says what the screen must do after an input.
type CommandKind int

// Commands.
const (
	CommandNone CommandKind = iota
	CommandBack
	CommandSwitchTab
	CommandInvoke
	CommandLaunchPinned
)

// Command is the side effect requested by a select or back input.
type Command struct {
	Kind   CommandKind
	Tab    int
	Action domain.Action
	AppID  string
}

// Outcome is the result of handling one input.
type Outcome struct {
	Focus   Target
	Changed bool
	Command Command
}

// Scroller brings a target into the visible viewport.
type Scroller interface {
	ScrollIntoView(target Target)
}

// Navigator owns the current focus for one screen.
// It is not safe for concurrent use; the UI event loop owns it.
type Navigator struct {
	layout   Layout
	order    []Target
	nodes    []node
	pos      map[Target]int
	current  Target
	scroller Scroller
}

// NewNavigator returns a navigator focused on the back button.
// scroller may be nil.
func NewNavigator(scroller Scroller) *Navigator {
	n := &Navigator{current: BackTarget, scroller: scroller}
	n.SetLayout(Layout{})

	return n
}

// Current returns the focused target.
func (n *Navigator) Current() Target { return n.current }

// Order returns a copy of the current focus order.
func (n *Navigator) Order() []Target {
	return append([]Target(nil), n.order...)
}

// Layout returns the layout the order was computed from.
func (n *Navigator) Layout() Layout { return n.layout }

// SetLayout recomputes the focus order. When the focused target is gone
// focus falls back to the active tab, or to back when there are no tabs.
func (n *Navigator) SetLayout(layout Layout) Outcome {
	if layout.ActiveTab < 0 || layout.ActiveTab >= layout.Tabs {
		layout.ActiveTab = 0
	}

	n.layout = layout
	n.order, n.nodes = layout.build()

	n.pos = make(map[Target]int, len(n.order))
	for i, target := range n.order {
		if _, dup := n.pos[target]; !dup {
			n.pos[target] = i
		}
	}

	if _, ok := n.pos[n.current]; ok {
		return Outcome{Focus: n.current}
	}

	fallback := BackTarget
	if layout.Tabs > 0 {
		fallback = TabTarget(layout.ActiveTab)
	}

	return n.moveTo(fallback, Command{})
}

// Focus moves focus to target when it is part of the order.
func (n *Navigator) Focus(target Target) bool {
	if _, ok := n.pos[target]; !ok {
		return false
	}

	n.moveTo(target, Command{})

	return true
}

// Handle applies one input.
func (n *Navigator) Handle(input Input) Outcome {
	if input == InputBack {
		return Outcome{Focus: n.current, Command: Command{Kind: CommandBack}}
	}

	cur := n.nodes[n.pos[n.current]]

	switch input {
	case InputSelect:
		return n.selectNode(cur)
	case InputLeft:
		return n.moveTo(n.left(cur), Command{})
	case InputRight:
		return n.moveTo(n.right(cur), Command{})
	case InputUp:
		return n.moveTo(n.up(cur), Command{})
	case InputDown:
		return n.moveTo(n.down(cur), Command{})
	default:
		return Outcome{Focus: n.current}
	}
}

func (n *Navigator) moveTo(target Target, cmd Command) Outcome {
	out := Outcome{Focus: target, Changed: target != n.current, Command: cmd}
	n.current = target

	if out.Changed && n.scroller != nil {
		n.scroller.ScrollIntoView(target)
	}

	return out
}

func (n *Navigator) selectNode(cur node) Outcome {
	switch cur.kind {
	case kindBack:
		return Outcome{Focus: n.current, Command: Command{Kind: CommandBack}}
	case kindTab:
		return Outcome{Focus: n.current, Command: Command{Kind: CommandSwitchTab, Tab: cur.tab}}
	case kindCard:
		card := n.layout.Cards[cur.card]
		if len(card.Actions) == 0 {
			return Outcome{Focus: n.current}
		}

		return n.moveTo(ActionTarget(card.Actions[0], card.AppID), Command{})
	case kindAction:
		card := n.layout.Cards[cur.card]

		return Outcome{Focus: n.current, Command: Command{
			Kind:   CommandInvoke,
			Action: card.Actions[cur.action],
			AppID:  card.AppID,
		}}
	case kindPinned:
		return Outcome{Focus: n.current, Command: Command{Kind: CommandLaunchPinned, AppID: n.layout.Pinned[cur.pin]}}
	}

	return Outcome{Focus: n.current}
}

// header returns the back button followed by the tabs.
func (n *Navigator) header(i int) Target {
	if i == 0 {
		return BackTarget
	}

	return TabTarget(i - 1)
}

func (n *Navigator) left(cur node) Target {
	switch cur.kind {
	case kindBack:
		return n.header(n.layout.Tabs)
	case kindTab:
		return n.header(cur.tab)
	case kindAction:
		card := n.layout.Cards[cur.card]
		if cur.action == 0 {
			return AppTarget(card.AppID)
		}

		return ActionTarget(card.Actions[cur.action-1], card.AppID)
	case kindPinned:
		pinned := n.layout.Pinned
		return PinnedTarget(pinned[(cur.pin+len(pinned)-1)%len(pinned)])
	}

	return n.current
}

func (n *Navigator) right(cur node) Target {
	switch cur.kind {
	case kindBack:
		return n.header(1 % (n.layout.Tabs + 1))
	case kindTab:
		return n.header((cur.tab + 2) % (n.layout.Tabs + 1))
	case kindCard:
		card := n.layout.Cards[cur.card]
		if len(card.Actions) > 0 {
			return ActionTarget(card.Actions[0], card.AppID)
		}
	case kindAction:
		card := n.layout.Cards[cur.card]
		if cur.action+1 < len(card.Actions) {
			return ActionTarget(card.Actions[cur.action+1], card.AppID)
		}
	case kindPinned:
		pinned := n.layout.Pinned
		return PinnedTarget(pinned[(cur.pin+1)%len(pinned)])
	}

	return n.current
}

func (n *Navigator) down(cur node) Target {
	cards := n.layout.Cards

	switch cur.kind {
	case kindBack, kindTab:
		if len(cards) > 0 {
			return AppTarget(cards[0].AppID)
		}

		return n.dockOrTop()
	case kindCard:
		card := cards[cur.card]
		if len(card.Actions) > 0 {
			return ActionTarget(card.Actions[0], card.AppID)
		}

		return n.nextCard(cur.card)
	case kindAction:
		return n.nextCard(cur.card)
	case kindPinned:
		return n.top()
	}

	return n.current
}

func (n *Navigator) up(cur node) Target {
	cards := n.layout.Cards

	switch cur.kind {
	case kindBack, kindTab:
		if len(n.layout.Pinned) > 0 {
			return PinnedTarget(n.layout.Pinned[0])
		}

		if len(cards) > 0 {
			return n.lastRowOf(len(cards) - 1)
		}

		return n.current
	case kindCard:
		if cur.card == 0 {
			return n.top()
		}

		return n.lastRowOf(cur.card - 1)
	case kindAction:
		return AppTarget(cards[cur.card].AppID)
	case kindPinned:
		if len(cards) > 0 {
			return n.lastRowOf(len(cards) - 1)
		}

		return n.top()
	}

	return n.current
}

// nextCard is the card after c, or the dock, or the top when c is last.
func (n *Navigator) nextCard(c int) Target {
	if c+1 < len(n.layout.Cards) {
		return AppTarget(n.layout.Cards[c+1].AppID)
	}

	return n.dockOrTop()
}

// lastRowOf is the lowest row of card c: its first button, else the card.
func (n *Navigator) lastRowOf(c int) Target {
	card := n.layout.Cards[c]
	if len(card.Actions) > 0 {
		return ActionTarget(card.Actions[0], card.AppID)
	}

	return AppTarget(card.AppID)
}

func (n *Navigator) dockOrTop() Target {
	if len(n.layout.Pinned) > 0 {
		return PinnedTarget(n.layout.Pinned[0])
	}

	return n.top()
}

// top is the active tab, or back when the screen has no tabs.
func (n *Navigator) top() Target {
	if n.layout.Tabs > 0 {
		return TabTarget(n.layout.ActiveTab)
	}

	return BackTarget
}
