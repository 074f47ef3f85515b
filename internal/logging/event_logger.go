package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stepbot/internal/events"
)

// EventLogger subscribes to the event bus and logs all events
type EventLogger struct {
	logger   *Logger
	eventBus events.EventBus
	logFile  *os.File
}

// NewEventLogger creates a new event logger writing to a timestamped
// file under logDir
func NewEventLogger(eventBus events.EventBus, logDir string) (*EventLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("events_%s.log", timestamp))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := NewLogger("EventLogger")
	logger.AddOutput(logFile)

	el := &EventLogger{
		logger:   logger,
		eventBus: eventBus,
		logFile:  logFile,
	}

	el.subscribeToEvents()

	return el, nil
}

// subscribeToEvents subscribes to every event type the system emits
func (el *EventLogger) subscribeToEvents() {
	eventTypes := []events.EventType{
		events.EventTypeRunStarted,
		events.EventTypeRunCompleted,
		events.EventTypeRunFailed,
		events.EventTypeStepCompleted,
		events.EventTypeStepFailed,
		events.EventTypePaused,
		events.EventTypeResumed,
		events.EventTypeSourceReplaced,
		events.EventTypeBehaviorReloaded,
		events.EventTypeError,
	}

	for _, eventType := range eventTypes {
		el.eventBus.Subscribe(eventType, el.handleEvent)
	}
}

// handleEvent logs an incoming event with its data as context
func (el *EventLogger) handleEvent(event events.Event) {
	context := map[string]any{
		"event_type": string(event.Type),
		"source":     event.Source,
	}

	for k, v := range event.Data {
		context[k] = v
	}

	el.logger.InfoWithContext(fmt.Sprintf("Event: %s", event.Type), context)
}

// Close closes the event logger and log file
func (el *EventLogger) Close() error {
	if el.logFile != nil {
		return el.logFile.Close()
	}
	return nil
}
