package step

import (
	"context"
	"sync"
)

// StepResult is one unit of progress produced by an ActionSource.
// Done signals the sequence is exhausted; Value carries action-specific
// payload. The default policy only inspects Value for the wait sentinel,
// but custom policies may interpret it however they like.
type StepResult struct {
	Done  bool
	Value any
}

// ActionSource produces a lazy, possibly infinite sequence of step
// results. Sources are supplied and owned by the caller and may be
// swapped on a running controller at any time. Next may block (for
// example while an action executes against a device), which is why it
// takes a context.
type ActionSource interface {
	Next(ctx context.Context) (StepResult, error)
}

// SourceFunc adapts a plain function to the ActionSource interface.
type SourceFunc func(ctx context.Context) (StepResult, error)

// Next calls f.
func (f SourceFunc) Next(ctx context.Context) (StepResult, error) {
	return f(ctx)
}

// SliceSource yields a fixed list of values one per step, then reports
// exhaustion forever after. Mostly useful for tests and scripted demos.
type SliceSource struct {
	mu     sync.Mutex
	values []any
	pos    int
}

// NewSliceSource creates a source over the given values.
func NewSliceSource(values ...any) *SliceSource {
	return &SliceSource{values: values}
}

// Next returns the next value, or Done once the slice is exhausted.
func (s *SliceSource) Next(_ context.Context) (StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.values) {
		return StepResult{Done: true}, nil
	}

	v := s.values[s.pos]
	s.pos++
	return StepResult{Value: v}, nil
}

// Consumed returns how many values have been taken so far.
func (s *SliceSource) Consumed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}
