package behavior

import (
	"context"
	"fmt"
	"time"

	"stepbot/internal/step"
)

// Tap taps the screen at fixed coordinates.
type Tap struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

func (a *Tap) Name() string { return "Tap" }

func (a *Tap) Validate() error {
	if a.X < 0 || a.Y < 0 {
		return fmt.Errorf("coordinates (x=%d, y=%d) must be non-negative", a.X, a.Y)
	}
	return nil
}

func (a *Tap) Execute(_ context.Context, dev Device) (any, error) {
	return nil, dev.Tap(a.X, a.Y)
}

// Swipe performs a swipe gesture between two points.
type Swipe struct {
	X1       int `yaml:"x1"`
	Y1       int `yaml:"y1"`
	X2       int `yaml:"x2"`
	Y2       int `yaml:"y2"`
	Duration int `yaml:"duration"` // milliseconds
}

func (a *Swipe) Name() string { return "Swipe" }

func (a *Swipe) Validate() error {
	if a.X1 < 0 || a.Y1 < 0 || a.X2 < 0 || a.Y2 < 0 {
		return fmt.Errorf("coordinates must be non-negative")
	}
	if a.Duration < 0 {
		return fmt.Errorf("duration (%d) must be non-negative", a.Duration)
	}
	return nil
}

func (a *Swipe) Execute(_ context.Context, dev Device) (any, error) {
	return nil, dev.Swipe(a.X1, a.Y1, a.X2, a.Y2, a.Duration)
}

// SendKey sends a key event (e.g., "KEYCODE_BACK", "KEYCODE_HOME").
type SendKey struct {
	Key string `yaml:"key"`
}

func (a *SendKey) Name() string { return "SendKey" }

func (a *SendKey) Validate() error {
	if a.Key == "" {
		return fmt.Errorf("key is required")
	}
	return nil
}

func (a *SendKey) Execute(_ context.Context, dev Device) (any, error) {
	return nil, dev.SendKey(a.Key)
}

// Input types text on the device.
type Input struct {
	Text string `yaml:"text"`
}

func (a *Input) Name() string { return "Input" }

func (a *Input) Validate() error {
	if a.Text == "" {
		return fmt.Errorf("text is required")
	}
	return nil
}

func (a *Input) Execute(_ context.Context, dev Device) (any, error) {
	return nil, dev.InputText(a.Text)
}

// Sleep blocks the step itself for the given duration. The pause flag is
// not consulted while sleeping; that is the point of an action being one
// indivisible unit.
type Sleep struct {
	Millis int `yaml:"millis"`
}

func (a *Sleep) Name() string { return "Sleep" }

func (a *Sleep) Validate() error {
	if a.Millis <= 0 {
		return fmt.Errorf("millis (%d) must be greater than 0", a.Millis)
	}
	return nil
}

func (a *Sleep) Execute(ctx context.Context, _ Device) (any, error) {
	select {
	case <-time.After(time.Duration(a.Millis) * time.Millisecond):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Wait performs no device work and yields the wait sentinel, telling the
// driver to hold off before demanding the next action. Unlike Sleep, the
// step returns immediately and the waiting happens in the driver.
type Wait struct{}

func (a *Wait) Name() string { return "Wait" }

func (a *Wait) Validate() error { return nil }

func (a *Wait) Execute(context.Context, Device) (any, error) {
	return step.WaitSignal, nil
}
