package step

import (
	"context"
	"iter"
	"sync"
	"time"
)

// DefaultPollInterval is how often an outstanding wait re-checks the
// pause flag. Long enough to avoid busy-waiting, short enough that
// resuming from a control UI still feels responsive.
const DefaultPollInterval = 2 * time.Second

// Controller advances one behavior a single action at a time. It owns
// the pause coordination: a pause request is only ever observed at an
// action boundary, immediately before the next action would be taken,
// never in the middle of one.
//
// Both the action source and the result policy may be replaced while
// stepping continues. Replacing the source during an outstanding wait
// means the eventually-resolved step advances whichever source is
// current at the moment the wait resolves.
//
// Overlapping Step calls are safe while a wait is pending: they coalesce
// onto the same wait and share one source advance. Two fully concurrent
// Step calls on an unpaused controller advancing the source twice is a
// contract on the driver, not something the controller defends against.
type Controller struct {
	mu           sync.Mutex
	source       ActionSource
	policy       ResultPolicy
	pause        *PauseState
	pending      *PendingWait
	pollInterval time.Duration
}

// NewController creates a controller over the given shared pause state
// and initial source, classifying results with DefaultPolicy.
func NewController(pause *PauseState, source ActionSource) *Controller {
	return &Controller{
		source:       source,
		policy:       DefaultPolicy,
		pause:        pause,
		pollInterval: DefaultPollInterval,
	}
}

// WithPolicy sets the initial result policy. A nil policy keeps the
// default.
func (c *Controller) WithPolicy(policy ResultPolicy) *Controller {
	c.ReplacePolicy(policy)
	return c
}

// WithPollInterval overrides how often an outstanding wait re-checks the
// pause flag. Intended for tests and hosts that need tighter resume
// latency.
func (c *Controller) WithPollInterval(d time.Duration) *Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.pollInterval = d
	}
	return c
}

// ReplaceSource swaps the action source used by subsequent steps.
// In-flight waits are unaffected.
func (c *Controller) ReplaceSource(source ActionSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = source
}

// ReplacePolicy swaps the result policy starting from the very next
// step. Passing nil is a no-op; the previous policy persists.
func (c *Controller) ReplacePolicy(policy ResultPolicy) {
	if policy == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = policy
}

// Pause sets the shared pause flag. It does not itself create a wait;
// the next Step (or WaitUntilUnpaused) does.
func (c *Controller) Pause() {
	c.pause.Set(true)
}

// Unpause clears the shared pause flag. If a wait is outstanding, the
// poll loop resolves it on its next tick. Unpausing when already
// unpaused is a no-op.
func (c *Controller) Unpause() {
	c.pause.Set(false)
}

// Paused reports the current value of the shared pause flag.
func (c *Controller) Paused() bool {
	return c.pause.Paused()
}

// WaitUntilUnpaused returns the single shared handle that resolves when
// the pause flag is next observed false. If one is already outstanding
// it is returned unchanged, so concurrent callers never create multiple
// polling loops or multiple resolutions. The handle slot clears exactly
// when the flag transition is observed, so a later pause creates a
// fresh one.
func (c *Controller) WaitUntilUnpaused() *PendingWait {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beginWaitLocked()
}

func (c *Controller) beginWaitLocked() *PendingWait {
	if c.pending != nil {
		return c.pending
	}
	w := newPendingWait()
	c.pending = w
	go c.pollUntilUnpaused(w)
	return w
}

// pollUntilUnpaused checks the pause flag once per interval and resolves
// the wait on the first tick where it is false. The ticker self-cancels
// the moment that happens.
func (c *Controller) pollUntilUnpaused(w *PendingWait) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for range ticker.C {
		if c.pause.Paused() {
			continue
		}
		c.mu.Lock()
		if c.pending == w {
			c.pending = nil
		}
		c.mu.Unlock()
		close(w.unpaused)
		return
	}
}

// Step advances the behavior by exactly one action and returns the
// normalized outcome.
//
// If a wait is already outstanding, the call coalesces onto it and
// shares the eventual outcome rather than racing to advance the source
// twice. Otherwise, if paused, the call suspends until unpaused before
// taking the action. Source and policy failures propagate unmodified
// and leave pause and wait state untouched, so a subsequent Step is
// still well-formed.
func (c *Controller) Step(ctx context.Context) (StepOutcome, error) {
	c.mu.Lock()
	w := c.pending
	if w == nil && c.pause.Paused() {
		w = c.beginWaitLocked()
	}
	c.mu.Unlock()
	if w == nil {
		return c.advance(ctx)
	}

	// Exactly one caller holds the claim token; everyone else shares the
	// holder's outcome. A holder that is cancelled hands the token back,
	// so a coalesced caller takes over the advance.
	select {
	case <-w.resolved:
		return w.outcome, w.err
	case <-ctx.Done():
		return StepOutcome{}, ctx.Err()
	case <-w.claim:
	}

	select {
	case <-w.unpaused:
	case <-ctx.Done():
		w.claim <- struct{}{}
		return StepOutcome{}, ctx.Err()
	}

	out, err := c.advance(ctx)
	w.resolve(out, err)
	return out, err
}

// advance takes one action from the current source and classifies it
// with the current policy. Both are read at call time, so a source or
// policy replaced while a wait was pending takes effect here.
func (c *Controller) advance(ctx context.Context) (StepOutcome, error) {
	c.mu.Lock()
	source := c.source
	policy := c.policy
	c.mu.Unlock()

	result, err := source.Next(ctx)
	if err != nil {
		return StepOutcome{}, err
	}

	out, err := policy(result)
	if err != nil {
		return StepOutcome{}, err
	}

	// Done wins if a policy sets both.
	if out.Done {
		out.Wait = false
	}
	return out, nil
}

// Outcomes exposes the controller as an externally-driven sequence where
// each demand maps to one Step call. The sequence ends after a Done
// outcome or an error; breaking out early needs no cleanup since the
// controller owns no per-iteration resources. Iteration does not rewind:
// a second Outcomes call continues from wherever the source is.
func (c *Controller) Outcomes(ctx context.Context) iter.Seq2[StepOutcome, error] {
	return func(yield func(StepOutcome, error) bool) {
		for {
			out, err := c.Step(ctx)
			if !yield(out, err) {
				return
			}
			if err != nil || out.Done {
				return
			}
		}
	}
}
