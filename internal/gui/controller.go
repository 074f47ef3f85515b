package gui

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"stepbot/internal/behavior"
	"stepbot/internal/config"
	"stepbot/internal/driver"
	"stepbot/internal/events"
	"stepbot/internal/history"
)

// DefaultWindowSize is the initial main window size
var DefaultWindowSize = fyne.NewSize(900, 600)

// Controller manages the GUI state and routes events to tabs
type Controller struct {
	config   *config.Config
	app      fyne.App
	window   fyne.Window
	driver   *driver.Driver
	registry *behavior.Registry
	db       *history.DB
	bus      events.EventBus

	// GUI components
	controlTab *ControlTab
	historyTab *HistoryTab
	logTab     *LogTab

	// Content area reference for tab switching
	contentArea *fyne.Container

	currentTab int
	mu         sync.RWMutex

	subscriptions []events.SubscriptionID
}

// NewController creates a new GUI controller
func NewController(cfg *config.Config, app fyne.App, window fyne.Window, drv *driver.Driver, registry *behavior.Registry, db *history.DB, bus events.EventBus) *Controller {
	ctrl := &Controller{
		config:   cfg,
		app:      app,
		window:   window,
		driver:   drv,
		registry: registry,
		db:       db,
		bus:      bus,
	}

	ctrl.controlTab = NewControlTab(ctrl)
	ctrl.historyTab = NewHistoryTab(ctrl)
	ctrl.logTab = NewLogTab(ctrl)

	ctrl.setupEventHandlers()

	return ctrl
}

// BuildUI constructs the main UI with horizontal tabs
func (c *Controller) BuildUI() fyne.CanvasObject {
	tabButtons := container.NewHBox(
		widget.NewButton("Controls", func() { c.switchTab(0) }),
		widget.NewButton("History", func() { c.switchTab(1) }),
		widget.NewButton("Event Log", func() { c.switchTab(2) }),
	)

	c.contentArea = container.NewStack(
		c.controlTab.Build(),
		c.historyTab.Build(),
		c.logTab.Build(),
	)

	c.showTab(0, c.contentArea)

	return container.NewBorder(
		tabButtons,    // Top
		nil,           // Bottom
		nil,           // Left
		nil,           // Right
		c.contentArea, // Center
	)
}

// switchTab changes the active tab
func (c *Controller) switchTab(tabIndex int) {
	c.mu.Lock()
	c.currentTab = tabIndex
	contentArea := c.contentArea
	c.mu.Unlock()

	if contentArea != nil {
		c.showTab(tabIndex, contentArea)
	}
}

// showTab updates which tab content is visible
func (c *Controller) showTab(tabIndex int, contentArea *fyne.Container) {
	if contentArea == nil {
		return
	}

	for _, obj := range contentArea.Objects {
		obj.Hide()
	}
	if tabIndex >= 0 && tabIndex < len(contentArea.Objects) {
		contentArea.Objects[tabIndex].Show()
	}

	contentArea.Refresh()
}

// setupEventHandlers subscribes the tabs to the system event bus. Fyne
// widgets are only touched inside fyne.Do.
func (c *Controller) setupEventHandlers() {
	if c.bus == nil {
		return
	}

	logged := []events.EventType{
		events.EventTypeRunStarted,
		events.EventTypeRunCompleted,
		events.EventTypeRunFailed,
		events.EventTypeStepFailed,
		events.EventTypePaused,
		events.EventTypeResumed,
		events.EventTypeSourceReplaced,
		events.EventTypeBehaviorReloaded,
		events.EventTypeError,
	}
	for _, eventType := range logged {
		id := c.bus.Subscribe(eventType, func(e events.Event) {
			c.logTab.AddLog(fmt.Sprintf("%s %v", e.Type, e.Data))
		})
		c.subscriptions = append(c.subscriptions, id)
	}

	id := c.bus.Subscribe(events.EventTypeStepCompleted, func(e events.Event) {
		c.controlTab.OnStepCompleted(e)
	})
	c.subscriptions = append(c.subscriptions, id)

	for _, eventType := range []events.EventType{events.EventTypePaused, events.EventTypeResumed, events.EventTypeRunStarted, events.EventTypeRunCompleted, events.EventTypeRunFailed} {
		id := c.bus.Subscribe(eventType, func(events.Event) {
			c.controlTab.RefreshStatus()
		})
		c.subscriptions = append(c.subscriptions, id)
	}
}

// Driver returns the run driver
func (c *Controller) Driver() *driver.Driver {
	return c.driver
}

// Registry returns the behavior registry
func (c *Controller) Registry() *behavior.Registry {
	return c.registry
}

// DB returns the history database, or nil when history is disabled
func (c *Controller) DB() *history.DB {
	return c.db
}

// Window returns the main window for dialogs
func (c *Controller) Window() fyne.Window {
	return c.window
}

// Shutdown unsubscribes from the event bus
func (c *Controller) Shutdown() {
	if c.bus == nil {
		return
	}
	for _, id := range c.subscriptions {
		c.bus.Unsubscribe(id)
	}
}
