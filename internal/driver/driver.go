// Package driver owns the decision of when to call the stepper: a timer
// loop advances the controller one action per tick, records outcomes,
// and publishes lifecycle events. Recovery from step failures lives
// here, not in the controller.
package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stepbot/internal/behavior"
	"stepbot/internal/events"
	"stepbot/internal/history"
	"stepbot/internal/logging"
	"stepbot/internal/step"
)

// Driver repeatedly invokes the controller's Step on a fixed interval
// until the behavior reports done or a step fails.
type Driver struct {
	controller   *step.Controller
	registry     *behavior.Registry
	device       behavior.Device
	stepInterval time.Duration
	logger       *logging.Logger
	reporter     *logging.ErrorReporter

	db         *history.DB
	bus        events.EventBus
	deviceName string

	mu           sync.Mutex
	behaviorName string
}

// NewDriver creates a driver stepping the named behavior on the given
// interval.
func NewDriver(ctrl *step.Controller, registry *behavior.Registry, dev behavior.Device, behaviorName string, stepInterval time.Duration) *Driver {
	return &Driver{
		controller:   ctrl,
		registry:     registry,
		device:       dev,
		behaviorName: behaviorName,
		stepInterval: stepInterval,
		logger:       logging.NewLogger("Driver"),
		reporter:     logging.NewErrorReporter(),
	}
}

// WithErrorReporter replaces the driver's own error reporter, so the
// host can share one reporter across components. Passing nil keeps the
// current one.
func (d *Driver) WithErrorReporter(reporter *logging.ErrorReporter) *Driver {
	if reporter != nil {
		d.reporter = reporter
	}
	return d
}

// ErrorReporter returns the reporter collecting run and step failures.
func (d *Driver) ErrorReporter() *logging.ErrorReporter {
	return d.reporter
}

// WithHistory enables run and step recording to the given database.
func (d *Driver) WithHistory(db *history.DB) *Driver {
	d.db = db
	return d
}

// WithEventBus enables lifecycle event publishing.
func (d *Driver) WithEventBus(bus events.EventBus) *Driver {
	d.bus = bus
	return d
}

// WithDeviceName sets the device label used in events and history.
func (d *Driver) WithDeviceName(name string) *Driver {
	d.deviceName = name
	return d
}

// Controller returns the underlying step controller.
func (d *Driver) Controller() *step.Controller {
	return d.controller
}

// ActiveBehavior returns the name of the behavior currently driven.
func (d *Driver) ActiveBehavior() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.behaviorName
}

// Pause sets the shared pause flag and announces it.
func (d *Driver) Pause() {
	d.controller.Pause()
	d.publish(events.NewPausedEvent("driver"))
}

// Resume clears the shared pause flag and announces it.
func (d *Driver) Resume() {
	d.controller.Unpause()
	d.publish(events.NewResumedEvent("driver"))
}

// SwapBehavior replaces the controller's source with a fresh source over
// the named behavior. The swap takes effect on the next step, including
// a step currently suspended on a pause.
func (d *Driver) SwapBehavior(name string) error {
	b, err := d.registry.Get(name)
	if err != nil {
		return fmt.Errorf("cannot swap to behavior '%s': %w", name, err)
	}

	d.controller.ReplaceSource(behavior.NewSource(b, d.device))

	d.mu.Lock()
	d.behaviorName = name
	d.mu.Unlock()

	d.publish(events.NewSourceReplacedEvent(name))
	d.logger.InfoWithContext("Swapped behavior source", map[string]any{"behavior": name})
	return nil
}

// Run drives the active behavior to completion, one step per tick.
// It returns nil once the behavior reports done, or the first step
// error. Cancelling the context stops the run and marks it failed.
func (d *Driver) Run(ctx context.Context) error {
	name := d.ActiveBehavior()

	b, err := d.registry.Get(name)
	if err != nil {
		return fmt.Errorf("cannot run behavior '%s': %w", name, err)
	}
	d.controller.ReplaceSource(behavior.NewSource(b, d.device))

	runID := ""
	if d.db != nil {
		runID, err = d.db.StartRun(name, d.deviceName)
		if err != nil {
			return fmt.Errorf("failed to record run start: %w", err)
		}
	}
	d.publish(events.NewRunStartedEvent(runID, name, d.deviceName))
	d.logger.InfoWithContext("Run started", map[string]any{"run_id": runID, "behavior": name})

	ticker := time.NewTicker(d.stepInterval)
	defer ticker.Stop()

	stepIndex := 0
	for {
		select {
		case <-ctx.Done():
			d.finishFailed(runID, stepIndex, ctx.Err())
			return ctx.Err()
		case <-ticker.C:
		}

		out, err := d.controller.Step(ctx)
		if err != nil {
			d.recordStep(runID, stepIndex, out, err)
			d.publish(events.NewStepFailedEvent(runID, stepIndex, err))
			d.finishFailed(runID, stepIndex, err)
			return err
		}

		d.recordStep(runID, stepIndex, out, nil)
		d.publish(events.NewStepCompletedEvent(runID, stepIndex, out.Done, out.Wait))
		stepIndex++

		if out.Done {
			if d.db != nil && runID != "" {
				if dbErr := d.db.CompleteRun(runID); dbErr != nil {
					d.logger.Error("Failed to record run completion", dbErr)
				}
			}
			d.publish(events.NewRunCompletedEvent(runID, stepIndex))
			d.logger.InfoWithContext("Run completed", map[string]any{"run_id": runID, "steps": stepIndex})
			return nil
		}
	}
}

func (d *Driver) recordStep(runID string, index int, out step.StepOutcome, stepErr error) {
	if d.db == nil || runID == "" {
		return
	}
	if err := d.db.RecordStep(runID, index, out.Done, out.Wait, stepErr); err != nil {
		d.reporter.ReportError(logging.ErrorCategoryHistory, logging.ErrorSeverityMedium, "driver", "Failed to record step", err)
		d.publish(events.NewErrorEvent("driver", "history", err, map[string]any{"run_id": runID}))
	}
}

func (d *Driver) finishFailed(runID string, stepIndex int, runErr error) {
	if d.db != nil && runID != "" {
		if err := d.db.FailRun(runID, runErr); err != nil {
			d.reporter.ReportError(logging.ErrorCategoryHistory, logging.ErrorSeverityMedium, "driver", "Failed to record run failure", err)
		}
	}
	d.publish(events.NewRunFailedEvent(runID, stepIndex, runErr))
	d.reporter.ReportErrorWithContext(logging.ErrorCategoryStep, logging.ErrorSeverityHigh, "driver", "Run failed", runErr,
		map[string]any{"run_id": runID, "step_index": stepIndex})
}

func (d *Driver) publish(event events.Event) {
	if d.bus != nil {
		d.bus.Publish(event)
	}
}
