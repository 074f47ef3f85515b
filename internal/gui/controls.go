package gui

import (
	"context"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"stepbot/internal/events"
)

// ControlTab provides run control: start/stop, pause/resume, and
// behavior selection.
type ControlTab struct {
	controller *Controller

	// Widgets
	behaviorSelect *widget.Select
	startBtn       *widget.Button
	stopBtn        *widget.Button
	pauseBtn       *widget.Button
	resumeBtn      *widget.Button
	statusLabel    *widget.Label
	lastStepLabel  *widget.Label

	mu        sync.Mutex
	runCancel context.CancelFunc
	running   bool
}

// NewControlTab creates a new control tab
func NewControlTab(ctrl *Controller) *ControlTab {
	return &ControlTab{controller: ctrl}
}

// Build constructs the run control UI
func (c *ControlTab) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Run Controls", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	c.statusLabel = widget.NewLabel("Idle")
	c.statusLabel.TextStyle = fyne.TextStyle{Bold: true}

	c.lastStepLabel = widget.NewLabel("No steps yet")

	c.behaviorSelect = widget.NewSelect(c.controller.Registry().ListValid(), nil)
	if active := c.controller.Driver().ActiveBehavior(); active != "" {
		c.behaviorSelect.SetSelected(active)
	}

	refreshBtn := widget.NewButton("Refresh", func() {
		c.behaviorSelect.Options = c.controller.Registry().ListValid()
		c.behaviorSelect.Refresh()
	})

	behaviorSelector := container.NewHBox(
		widget.NewLabel("Behavior:"),
		c.behaviorSelect,
		refreshBtn,
	)

	c.startBtn = widget.NewButton("Start Run", func() { c.startRun() })
	c.stopBtn = widget.NewButton("Stop Run", func() { c.stopRun() })
	c.pauseBtn = widget.NewButton("Pause", func() { c.controller.Driver().Pause() })
	c.resumeBtn = widget.NewButton("Resume", func() { c.controller.Driver().Resume() })

	swapBtn := widget.NewButton("Swap Behavior", func() { c.swapBehavior() })

	controls := container.NewGridWithColumns(2,
		c.startBtn,
		c.stopBtn,
		c.pauseBtn,
		c.resumeBtn,
	)

	content := container.NewVScroll(
		container.NewVBox(
			header,
			c.statusLabel,
			c.lastStepLabel,
			widget.NewSeparator(),
			behaviorSelector,
			controls,
			swapBtn,
		),
	)

	return content
}

// startRun starts driving the selected behavior in the background
func (c *ControlTab) startRun() {
	selected := c.behaviorSelect.Selected
	if selected == "" {
		c.showError("No behavior selected")
		return
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		c.showError("A run is already in progress")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.runCancel = cancel
	c.running = true
	c.mu.Unlock()

	drv := c.controller.Driver()
	if err := drv.SwapBehavior(selected); err != nil {
		c.finishRun()
		c.showError(fmt.Sprintf("Cannot start behavior: %v", err))
		return
	}

	go func() {
		err := drv.Run(ctx)
		c.finishRun()
		if err != nil && ctx.Err() == nil {
			fyne.Do(func() {
				c.showError(fmt.Sprintf("Run failed: %v", err))
			})
		}
	}()

	c.RefreshStatus()
}

// stopRun cancels the in-flight run
func (c *ControlTab) stopRun() {
	c.mu.Lock()
	cancel := c.runCancel
	c.mu.Unlock()

	if cancel == nil {
		c.showError("No run in progress")
		return
	}
	cancel()
}

func (c *ControlTab) finishRun() {
	c.mu.Lock()
	c.running = false
	c.runCancel = nil
	c.mu.Unlock()
	c.RefreshStatus()
}

// swapBehavior replaces the running source with the selected behavior
func (c *ControlTab) swapBehavior() {
	selected := c.behaviorSelect.Selected
	if selected == "" {
		c.showError("No behavior selected")
		return
	}
	if err := c.controller.Driver().SwapBehavior(selected); err != nil {
		c.showError(fmt.Sprintf("Swap failed: %v", err))
	}
}

// RefreshStatus updates the status label from driver state
func (c *ControlTab) RefreshStatus() {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()

	status := "Idle"
	if running {
		status = fmt.Sprintf("Running '%s'", c.controller.Driver().ActiveBehavior())
	}
	if c.controller.Driver().Controller().Paused() {
		status += " (paused)"
	}

	fyne.Do(func() {
		c.statusLabel.SetText(status)
		c.statusLabel.Refresh()
	})
}

// OnStepCompleted updates the last-step label from a step event
func (c *ControlTab) OnStepCompleted(e events.Event) {
	text := fmt.Sprintf("Step %v: done=%v wait=%v", e.Data["step_index"], e.Data["done"], e.Data["wait"])
	fyne.Do(func() {
		c.lastStepLabel.SetText(text)
		c.lastStepLabel.Refresh()
	})
}

// showError displays an error dialog
func (c *ControlTab) showError(message string) {
	dialog.ShowError(fmt.Errorf("%s", message), c.controller.Window())
}
