package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Run lifecycle events
	EventTypeRunStarted   EventType = "run.started"
	EventTypeRunCompleted EventType = "run.completed"
	EventTypeRunFailed    EventType = "run.failed"

	// Step events
	EventTypeStepCompleted EventType = "step.completed"
	EventTypeStepFailed    EventType = "step.failed"

	// Controller events
	EventTypePaused         EventType = "controller.paused"
	EventTypeResumed        EventType = "controller.resumed"
	EventTypeSourceReplaced EventType = "controller.source_replaced"

	// Behavior registry events
	EventTypeBehaviorReloaded EventType = "behavior.reloaded"

	// Error events
	EventTypeError EventType = "error"
)

// Event represents a system event with metadata
type Event struct {
	Type      EventType      // Type of event
	Source    string         // Component that emitted event (e.g., "driver", "gui")
	Timestamp time.Time      // When the event occurred
	Data      map[string]any // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish sends an event to all subscribers (blocking)
	Publish(event Event)

	// PublishAsync sends an event asynchronously (non-blocking)
	PublishAsync(event Event)

	// Stop stops the event bus and drains remaining events
	Stop()
}

// Helper functions to create common events

// NewRunStartedEvent creates a run started event
func NewRunStartedEvent(runID, behaviorName, device string) Event {
	return Event{
		Type:      EventTypeRunStarted,
		Source:    "driver",
		Timestamp: time.Now(),
		Data: map[string]any{
			"run_id":   runID,
			"behavior": behaviorName,
			"device":   device,
		},
	}
}

// NewRunCompletedEvent creates a run completed event
func NewRunCompletedEvent(runID string, stepsTaken int) Event {
	return Event{
		Type:      EventTypeRunCompleted,
		Source:    "driver",
		Timestamp: time.Now(),
		Data: map[string]any{
			"run_id":      runID,
			"steps_taken": stepsTaken,
		},
	}
}

// NewRunFailedEvent creates a run failed event
func NewRunFailedEvent(runID string, stepIndex int, err error) Event {
	return Event{
		Type:      EventTypeRunFailed,
		Source:    "driver",
		Timestamp: time.Now(),
		Data: map[string]any{
			"run_id":     runID,
			"step_index": stepIndex,
			"error":      err.Error(),
		},
	}
}

// NewStepCompletedEvent creates a step completed event
func NewStepCompletedEvent(runID string, stepIndex int, done, wait bool) Event {
	return Event{
		Type:      EventTypeStepCompleted,
		Source:    "driver",
		Timestamp: time.Now(),
		Data: map[string]any{
			"run_id":     runID,
			"step_index": stepIndex,
			"done":       done,
			"wait":       wait,
		},
	}
}

// NewStepFailedEvent creates a step failed event
func NewStepFailedEvent(runID string, stepIndex int, err error) Event {
	return Event{
		Type:      EventTypeStepFailed,
		Source:    "driver",
		Timestamp: time.Now(),
		Data: map[string]any{
			"run_id":     runID,
			"step_index": stepIndex,
			"error":      err.Error(),
		},
	}
}

// NewPausedEvent creates a controller paused event
func NewPausedEvent(source string) Event {
	return Event{
		Type:      EventTypePaused,
		Source:    source,
		Timestamp: time.Now(),
		Data:      map[string]any{},
	}
}

// NewResumedEvent creates a controller resumed event
func NewResumedEvent(source string) Event {
	return Event{
		Type:      EventTypeResumed,
		Source:    source,
		Timestamp: time.Now(),
		Data:      map[string]any{},
	}
}

// NewSourceReplacedEvent creates a source replaced event
func NewSourceReplacedEvent(behaviorName string) Event {
	return Event{
		Type:      EventTypeSourceReplaced,
		Source:    "driver",
		Timestamp: time.Now(),
		Data: map[string]any{
			"behavior": behaviorName,
		},
	}
}

// NewBehaviorReloadedEvent creates a behavior reloaded event
func NewBehaviorReloadedEvent(behaviorName string, valid bool) Event {
	return Event{
		Type:      EventTypeBehaviorReloaded,
		Source:    "watcher",
		Timestamp: time.Now(),
		Data: map[string]any{
			"behavior": behaviorName,
			"valid":    valid,
		},
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(source, component string, err error, metadata map[string]any) Event {
	data := map[string]any{
		"source":    source,
		"component": component,
		"error":     err.Error(),
	}

	// Merge metadata
	for k, v := range metadata {
		data[k] = v
	}

	return Event{
		Type:      EventTypeError,
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}
}
