package events

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

func TestSubscribeAndPublish(t *testing.T) {
	bus := NewEventBus(16)
	defer bus.Stop()

	var mu sync.Mutex
	var received []Event

	bus.Subscribe(EventTypeStepCompleted, func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e)
	})

	bus.Publish(NewStepCompletedEvent("run-1", 3, false, false))

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if received[0].Data["run_id"] != "run-1" {
		t.Errorf("Expected run_id 'run-1', got %v", received[0].Data["run_id"])
	}
	if received[0].Data["step_index"] != 3 {
		t.Errorf("Expected step_index 3, got %v", received[0].Data["step_index"])
	}
	if received[0].Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventBus(16)
	defer bus.Stop()

	var count int
	var mu sync.Mutex

	id := bus.Subscribe(EventTypePaused, func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	bus.Publish(NewPausedEvent("test"))
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	})

	bus.Unsubscribe(id)
	if got := bus.GetSubscriberCount(EventTypePaused); got != 0 {
		t.Errorf("Expected 0 subscribers after unsubscribe, got %d", got)
	}

	bus.Publish(NewPausedEvent("test"))
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("Expected no delivery after unsubscribe, count=%d", count)
	}
}

func TestEventTypeIsolation(t *testing.T) {
	bus := NewEventBus(16)
	defer bus.Stop()

	var mu sync.Mutex
	var got []EventType

	bus.Subscribe(EventTypeRunStarted, func(e Event) {
		mu.Lock()
		got = append(got, e.Type)
		mu.Unlock()
	})

	bus.Publish(NewRunCompletedEvent("run-1", 5))
	bus.Publish(NewRunStartedEvent("run-2", "daily", "127.0.0.1:5555"))

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if got[0] != EventTypeRunStarted {
		t.Errorf("Expected only run.started delivered, got %v", got)
	}
}

func TestHandlerPanicDoesNotKillBus(t *testing.T) {
	bus := NewEventBus(16)
	defer bus.Stop()

	var mu sync.Mutex
	var delivered bool

	bus.Subscribe(EventTypeError, func(Event) {
		panic("handler bug")
	})
	bus.Subscribe(EventTypeError, func(Event) {
		mu.Lock()
		delivered = true
		mu.Unlock()
	})

	bus.Publish(NewErrorEvent("test", "bus", errors.New("boom"), nil))

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return delivered
	})
}
