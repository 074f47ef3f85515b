package behavior

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"stepbot/internal/step"
)

// fakeDevice records every call made against it.
type fakeDevice struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (d *fakeDevice) record(call string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
	return d.err
}

func (d *fakeDevice) Tap(x, y int) error {
	return d.record(fmt.Sprintf("tap %d %d", x, y))
}

func (d *fakeDevice) Swipe(x1, y1, x2, y2, durationMs int) error {
	return d.record(fmt.Sprintf("swipe %d %d %d %d %d", x1, y1, x2, y2, durationMs))
}

func (d *fakeDevice) SendKey(key string) error {
	return d.record("key " + key)
}

func (d *fakeDevice) InputText(text string) error {
	return d.record("input " + text)
}

func (d *fakeDevice) recorded() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

func tapBehavior(name string, coords ...int) *Behavior {
	b := &Behavior{BehaviorName: name}
	for i := 0; i+1 < len(coords); i += 2 {
		b.Steps = append(b.Steps, &Tap{X: coords[i], Y: coords[i+1]})
	}
	return b
}

func TestSourceExecutesOneActionPerNext(t *testing.T) {
	dev := &fakeDevice{}
	source := NewSource(tapBehavior("taps", 1, 2, 3, 4), dev)
	ctx := context.Background()

	r, err := source.Next(ctx)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if r.Done {
		t.Fatal("Source reported done too early")
	}
	if calls := dev.recorded(); len(calls) != 1 || calls[0] != "tap 1 2" {
		t.Errorf("Expected one tap call, got %v", calls)
	}

	if _, err := source.Next(ctx); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	// Exhausted: done forever after, no device work
	for i := 0; i < 2; i++ {
		r, err := source.Next(ctx)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if !r.Done {
			t.Fatal("Expected done after exhaustion")
		}
	}
	if calls := dev.recorded(); len(calls) != 2 {
		t.Errorf("Expected 2 device calls total, got %v", calls)
	}
}

func TestSourceWaitActionYieldsSentinel(t *testing.T) {
	b := &Behavior{BehaviorName: "waits", Steps: []Action{&Wait{}}}
	source := NewSource(b, &fakeDevice{})

	r, err := source.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if r.Value != step.WaitSignal {
		t.Errorf("Expected wait sentinel, got %v", r.Value)
	}

	out, err := step.DefaultPolicy(r)
	if err != nil {
		t.Fatalf("Policy failed: %v", err)
	}
	if !out.Wait {
		t.Errorf("Expected wait outcome, got %+v", out)
	}
}

func TestSourceDeviceFailurePropagates(t *testing.T) {
	devErr := errors.New("adb gone")
	dev := &fakeDevice{err: devErr}
	source := NewSource(tapBehavior("taps", 1, 2), dev)

	_, err := source.Next(context.Background())
	if !errors.Is(err, devErr) {
		t.Fatalf("Expected device error unmodified, got %v", err)
	}
}

func TestSourceDrivenByController(t *testing.T) {
	dev := &fakeDevice{}
	source := NewSource(tapBehavior("taps", 1, 2, 3, 4), dev)
	ctrl := step.NewController(step.NewPauseState(), source)

	var steps int
	for out, err := range ctrl.Outcomes(context.Background()) {
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		if !out.Done {
			steps++
		}
	}

	if steps != 2 {
		t.Errorf("Expected 2 live steps, got %d", steps)
	}
	if calls := dev.recorded(); len(calls) != 2 {
		t.Errorf("Expected 2 device calls, got %v", calls)
	}
}
