package behavior

import (
	"context"
	"sync"

	"stepbot/internal/step"
)

// Source adapts a behavior to step.ActionSource: each Next executes
// exactly one action against the device and yields its value. Once the
// step list is exhausted the source reports done forever after.
type Source struct {
	mu       sync.Mutex
	behavior *Behavior
	device   Device
	pos      int
}

// NewSource creates a source stepping the behavior on the given device.
func NewSource(b *Behavior, dev Device) *Source {
	return &Source{behavior: b, device: dev}
}

// Behavior returns the underlying behavior definition.
func (s *Source) Behavior() *Behavior {
	return s.behavior
}

// Position returns the index of the next action to execute.
func (s *Source) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Next executes the next action. Action failures propagate to the
// controller unmodified; the position still advances, so the driver
// decides whether to retry by rewinding a fresh source or to give up.
func (s *Source) Next(ctx context.Context) (step.StepResult, error) {
	s.mu.Lock()
	if s.pos >= len(s.behavior.Steps) {
		s.mu.Unlock()
		return step.StepResult{Done: true}, nil
	}
	action := s.behavior.Steps[s.pos]
	s.pos++
	s.mu.Unlock()

	value, err := action.Execute(ctx, s.device)
	if err != nil {
		return step.StepResult{}, err
	}
	return step.StepResult{Value: value}, nil
}
