// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package tui is the remote-driven store screen: category tabs, app cards,
// the pinned dock and the download modal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/SnowMediaEnt/snow-media-center/internal/application"
	"github.com/SnowMediaEnt/snow-media-center/internal/catalog"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
	"github.com/SnowMediaEnt/snow-media-center/internal/focus"
	"github.com/SnowMediaEnt/snow-media-center/internal/logging"
	"github.com/SnowMediaEnt/snow-media-center/internal/pinned"
	"github.com/SnowMediaEnt/snow-media-center/internal/reconcile"
	"github.com/SnowMediaEnt/snow-media-center/internal/tui/styles"
)

const refreshingFlash = "Refreshing…"

// ErrNoTerminal is returned when the TUI is launched in a non-terminal environment.
var ErrNoTerminal = errors.New("TUI requires a terminal environment")

// Services are the collaborators the store screen drives.
type Services struct {
	Catalog    *catalog.Loader
	Poll       time.Duration
	Watch      bool
	Reconciler *reconcile.Reconciler
	Pinned     *pinned.Store
	Installs   *application.InstallService
	Apps       *application.AppService
	Native     bool
	Logger     zerolog.Logger
}

type catalogLoadedMsg struct {
	apps []domain.App
	err  error
}

type catalogChangedMsg struct {
	apps []domain.App
}

type statusChangedMsg struct{}

type statusRefreshedMsg struct{}

type actionDoneMsg struct {
	action domain.Action
	name   string
	err    error
}

// App is the root store model.
//
//nolint:containedctx // TUI models require context for proper cancellation propagation
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	svc    Services
	logger zerolog.Logger
	styles *styles.Styles
	keys   KeyMap

	nav      *focus.Navigator
	viewport viewport.Model

	apps       []domain.App
	byID       map[string]domain.App
	categories []string
	activeTab  int
	cards      []domain.App
	cardLines  map[string]int
	cardHeight map[string]int

	modal *DownloadModal

	flash    string
	flashErr bool
	loading  bool
	loadErr  error
	watching bool

	statusCh  chan struct{}
	catalogCh chan []domain.App

	width    int
	height   int
	quitting bool
}

// NewApp creates the store screen. Status changes reported by the
// reconciler re-render the cards.
func NewApp(ctx context.Context, svc Services) *App {
	ctx, cancel := context.WithCancel(ctx)

	app := &App{
		ctx:        ctx,
		cancel:     cancel,
		svc:        svc,
		logger:     logging.Component(svc.Logger, "tui"),
		styles:     styles.New(),
		keys:       DefaultKeyMap(),
		viewport:   viewport.New(80, 20),
		byID:       make(map[string]domain.App),
		cardLines:  make(map[string]int),
		cardHeight: make(map[string]int),
		loading:    true,
		statusCh:   make(chan struct{}, 1),
		catalogCh:  make(chan []domain.App, 1),
		width:      80,
		height:     24,
	}

	app.nav = focus.NewNavigator(app)

	statusCh := app.statusCh

	svc.Reconciler.Subscribe(func(domain.InstallStatus) {
		select {
		case statusCh <- struct{}{}:
		default:
		}
	})

	return app
}

// Init loads the catalog and starts listening for background changes.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadCatalog(), a.waitForStatus(), a.waitForCatalog())
}

// Update handles one message.
//
//nolint:ireturn // Bubble Tea framework requires returning tea.Model interface
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		if a.modal != nil {
			a.modal.SetWidth(msg.Width)
		}

		a.resize()

		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case tea.FocusMsg:
		return a, a.refreshStatuses()

	case catalogLoadedMsg:
		return a, a.handleCatalogLoaded(msg)

	case catalogChangedMsg:
		a.setApps(msg.apps)
		return a, tea.Batch(a.refreshStatuses(), a.waitForCatalog())

	case statusChangedMsg:
		a.relayout()
		return a, a.waitForStatus()

	case statusRefreshedMsg:
		a.relayout()
		return a, nil

	case actionDoneMsg:
		a.handleActionDone(msg)
		return a, nil

	case downloadProgressMsg, downloadFinishedMsg, installFinishedMsg:
		if a.modal == nil {
			return a, nil
		}

		return a, a.modal.Update(msg)
	}

	return a, nil
}

// View renders the screen.
func (a *App) View() string {
	if a.quitting {
		return ""
	}

	return a.render()
}

// ScrollIntoView keeps the focused card inside the viewport. Header targets
// scroll to the top; the dock is always visible.
func (a *App) ScrollIntoView(target focus.Target) {
	if a.nav == nil {
		return
	}

	id, onCard := a.cardOf(target)
	if !onCard {
		if target == focus.BackTarget || isTab(target, len(a.categories)) {
			a.viewport.GotoTop()
		}

		return
	}

	line, ok := a.cardLines[id]
	if !ok {
		return
	}

	bottom := line + a.cardHeight[id]

	switch {
	case line < a.viewport.YOffset:
		a.viewport.SetYOffset(line)
	case bottom > a.viewport.YOffset+a.viewport.Height:
		a.viewport.SetYOffset(bottom - a.viewport.Height)
	}
}

// Focused returns the current focus target.
func (a *App) Focused() focus.Target { return a.nav.Current() }

// Flash returns the last status message shown in the footer.
func (a *App) Flash() string { return a.flash }

// Modal returns the open download modal, nil when closed.
func (a *App) Modal() *DownloadModal { return a.modal }

// ActiveCategory returns the category of the active tab.
func (a *App) ActiveCategory() string {
	if a.activeTab < len(a.categories) {
		return a.categories[a.activeTab]
	}

	return ""
}

func (a *App) loadCatalog() tea.Cmd {
	ctx, loader := a.ctx, a.svc.Catalog

	return func() tea.Msg {
		apps, err := loader.Load(ctx)
		return catalogLoadedMsg{apps: apps, err: err}
	}
}

func (a *App) handleCatalogLoaded(msg catalogLoadedMsg) tea.Cmd {
	first := a.loading
	a.loading = false

	if msg.err != nil {
		a.logger.Warn().Err(msg.err).Msg("catalog load failed")
		a.loadErr = msg.err
		a.setFlash(domain.FormatErrorMessage(msg.err, "", false), true)
		a.relayout()

		return nil
	}

	a.loadErr = nil
	a.setApps(msg.apps)

	if first && len(a.categories) > 0 {
		a.nav.Focus(focus.TabTarget(a.activeTab))
		a.renderCards()
	}

	if a.flash == refreshingFlash {
		a.setFlash("Catalog refreshed", false)
	}

	return tea.Batch(a.refreshStatuses(), a.startWatcher(msg.apps))
}

func (a *App) startWatcher(apps []domain.App) tea.Cmd {
	if !a.svc.Watch || a.watching {
		return nil
	}

	a.watching = true

	ch := a.catalogCh
	watcher := catalog.NewWatcher(a.svc.Catalog, a.svc.Poll, func(apps []domain.App) {
		select {
		case <-ch:
		default:
		}
		ch <- apps
	}, a.svc.Logger)
	watcher.Seed(apps)

	ctx, logger := a.ctx, a.logger

	return func() tea.Msg {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg("catalog watcher stopped")
		}

		return nil
	}
}

func (a *App) waitForStatus() tea.Cmd {
	ctx, ch := a.ctx, a.statusCh

	return func() tea.Msg {
		select {
		case <-ch:
			return statusChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (a *App) waitForCatalog() tea.Cmd {
	ctx, ch := a.ctx, a.catalogCh

	return func() tea.Msg {
		select {
		case apps := <-ch:
			return catalogChangedMsg{apps: apps}
		case <-ctx.Done():
			return nil
		}
	}
}

func (a *App) refreshStatuses() tea.Cmd {
	if len(a.apps) == 0 {
		return nil
	}

	ctx, reconciler, apps := a.ctx, a.svc.Reconciler, a.apps

	return func() tea.Msg {
		reconciler.RefreshAll(ctx, apps)
		return statusRefreshedMsg{}
	}
}

func (a *App) setApps(apps []domain.App) {
	a.apps = apps
	a.byID = make(map[string]domain.App, len(apps))

	for _, app := range apps {
		a.byID[app.ID] = app
	}

	a.categories = catalog.Categories(apps)
	if a.activeTab >= len(a.categories) {
		a.activeTab = 0
	}

	a.relayout()
}

// relayout rebuilds the focus layout from the catalog, statuses and dock.
func (a *App) relayout() {
	a.cards = nil
	if category := a.ActiveCategory(); category != "" {
		a.cards = catalog.InCategory(a.apps, category)
	}

	layout := focus.Layout{Tabs: len(a.categories), ActiveTab: a.activeTab}

	for _, app := range a.cards {
		layout.Cards = append(layout.Cards, focus.Card{AppID: app.ID, Actions: a.svc.Reconciler.Actions(app)})
	}

	for _, pin := range a.svc.Pinned.Apps() {
		layout.Pinned = append(layout.Pinned, pin.ID)
	}

	a.nav.SetLayout(layout)
	a.renderCards()
	a.ScrollIntoView(a.nav.Current())
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, a.keys.Quit) {
		return a.quit()
	}

	in, isInput := a.keys.Input(msg)

	if a.modal != nil {
		if !isInput {
			return nil
		}

		outcome, cmd := a.modal.HandleInput(in)

		return tea.Batch(cmd, a.afterModal(outcome))
	}

	switch {
	case key.Matches(msg, a.keys.Pin):
		a.togglePin()
		return nil
	case key.Matches(msg, a.keys.Refresh):
		a.setFlash(refreshingFlash, false)
		return tea.Batch(a.loadCatalog(), a.refreshStatuses())
	case !isInput:
		return nil
	}

	out := a.nav.Handle(in)
	if out.Changed {
		a.renderCards()
	}

	return a.handleCommand(out.Command)
}

func (a *App) handleCommand(cmd focus.Command) tea.Cmd {
	switch cmd.Kind {
	case focus.CommandBack:
		return a.quit()

	case focus.CommandSwitchTab:
		a.activeTab = cmd.Tab
		a.viewport.GotoTop()
		a.relayout()

	case focus.CommandInvoke:
		app, ok := a.byID[cmd.AppID]
		if !ok {
			return nil
		}

		if cmd.Action == domain.ActionDownload {
			return a.openModal(app)
		}

		return a.invoke(cmd.Action, app)

	case focus.CommandLaunchPinned:
		return a.launchPinned(cmd.AppID)

	case focus.CommandNone:
	}

	return nil
}

func (a *App) openModal(app domain.App) tea.Cmd {
	a.modal = newDownloadModal(a.ctx, a.styles, a.svc.Installs, app)
	a.modal.SetWidth(a.width)

	return a.modal.Start()
}

func (a *App) afterModal(outcome modalOutcome) tea.Cmd {
	if outcome == modalStay || a.modal == nil {
		return nil
	}

	app := a.modal.app
	a.modal = nil

	if outcome == modalLaunch {
		return a.invoke(domain.ActionLaunch, app)
	}

	ctx, reconciler := a.ctx, a.svc.Reconciler

	return func() tea.Msg {
		reconciler.EnsureStatus(ctx, app)
		return statusRefreshedMsg{}
	}
}

func (a *App) invoke(action domain.Action, app domain.App) tea.Cmd {
	ctx, apps := a.ctx, a.svc.Apps

	return func() tea.Msg {
		return actionDoneMsg{action: action, name: app.Name, err: apps.Invoke(ctx, action, app)}
	}
}

func (a *App) launchPinned(id string) tea.Cmd {
	for _, pin := range a.svc.Pinned.Apps() {
		if pin.ID != id {
			continue
		}

		ctx, apps := a.ctx, a.svc.Apps

		return func() tea.Msg {
			return actionDoneMsg{action: domain.ActionLaunch, name: pin.Name, err: apps.LaunchPinned(ctx, pin)}
		}
	}

	return nil
}

func (a *App) handleActionDone(msg actionDoneMsg) {
	if msg.err != nil {
		a.setFlash(domain.FormatErrorMessage(msg.err, msg.name, false), true)
		return
	}

	switch msg.action {
	case domain.ActionLaunch:
		a.setFlash("Launched "+msg.name, false)
	case domain.ActionSettings:
		a.setFlash("Opened settings for "+msg.name, false)
	case domain.ActionUninstall:
		a.setFlash("Confirm the uninstall of "+msg.name+" on the device", false)
	case domain.ActionDownload:
	}
}

func (a *App) togglePin() {
	id := a.focusedAppID()
	if id == "" {
		return
	}

	pin, ok := a.pinFor(id)
	if !ok {
		return
	}

	result, err := a.svc.Pinned.Toggle(pin)
	if err != nil {
		a.setFlash(domain.FormatErrorMessage(err, pin.Name, false), true)
		return
	}

	switch result {
	case domain.PinResultPinned:
		a.setFlash("Pinned "+pin.Name, false)
	case domain.PinResultUnpinned:
		a.setFlash("Unpinned "+pin.Name, false)
	case domain.PinResultLimitReached:
		a.setFlash(fmt.Sprintf("The dock is full (%d apps). Unpin one first.", a.svc.Pinned.Max()), true)
	}

	a.relayout()
}

func (a *App) pinFor(id string) (domain.PinnedApp, bool) {
	if app, ok := a.byID[id]; ok {
		return domain.PinnedFromApp(app), true
	}

	for _, pin := range a.svc.Pinned.Apps() {
		if pin.ID == id {
			return pin, true
		}
	}

	return domain.PinnedApp{}, false
}

// focusedAppID returns the app behind the focused card, button or dock item.
func (a *App) focusedAppID() string {
	cur := a.nav.Current()

	if id, ok := a.cardOf(cur); ok {
		return id
	}

	for _, id := range a.nav.Layout().Pinned {
		if cur == focus.PinnedTarget(id) {
			return id
		}
	}

	return ""
}

// cardOf reports which card target belongs to, if any.
func (a *App) cardOf(target focus.Target) (string, bool) {
	for _, card := range a.nav.Layout().Cards {
		if target == focus.AppTarget(card.AppID) {
			return card.AppID, true
		}

		for _, action := range card.Actions {
			if target == focus.ActionTarget(action, card.AppID) {
				return card.AppID, true
			}
		}
	}

	return "", false
}

func isTab(target focus.Target, tabs int) bool {
	for i := range tabs {
		if target == focus.TabTarget(i) {
			return true
		}
	}

	return false
}

func (a *App) setFlash(msg string, isErr bool) {
	a.flash = msg
	a.flashErr = isErr
}

func (a *App) quit() tea.Cmd {
	if a.modal != nil {
		a.modal.Dismiss()
		a.modal = nil
	}

	a.quitting = true
	a.cancel()

	return tea.Quit
}

// LaunchInteractive starts the interactive TUI interface.
func LaunchInteractive(ctx context.Context, svc Services) error {
	if !isTerminal() {
		return fmt.Errorf("terminal check failed: %w", ErrNoTerminal)
	}

	program := tea.NewProgram(
		NewApp(ctx, svc),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithReportFocus(),
	)

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
