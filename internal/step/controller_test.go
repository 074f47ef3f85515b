package step

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// testPollInterval keeps wait resolution fast enough for tests.
const testPollInterval = 5 * time.Millisecond

// recordingPolicy wraps DefaultPolicy and remembers every raw value it
// classified, so tests can see which source produced a step.
type recordingPolicy struct {
	mu     sync.Mutex
	values []any
}

func (p *recordingPolicy) classify(r StepResult) (StepOutcome, error) {
	p.mu.Lock()
	p.values = append(p.values, r.Value)
	p.mu.Unlock()
	return DefaultPolicy(r)
}

func (p *recordingPolicy) seen() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]any, len(p.values))
	copy(out, p.values)
	return out
}

func newTestController(source ActionSource) (*Controller, *PauseState) {
	pause := NewPauseState()
	ctrl := NewController(pause, source).WithPollInterval(testPollInterval)
	return ctrl, pause
}

func TestWaitUntilUnpausedCoalesces(t *testing.T) {
	ctrl, _ := newTestController(NewSliceSource("a"))
	ctrl.Pause()

	w1 := ctrl.WaitUntilUnpaused()
	w2 := ctrl.WaitUntilUnpaused()
	if w1 != w2 {
		t.Fatal("Expected concurrent WaitUntilUnpaused calls to return the same handle")
	}

	select {
	case <-w1.Done():
		t.Fatal("Wait resolved while still paused")
	case <-time.After(3 * testPollInterval):
	}

	ctrl.Unpause()
	select {
	case <-w1.Done():
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for wait to resolve after unpause")
	}

	// A later pause creates a fresh handle.
	ctrl.Pause()
	w3 := ctrl.WaitUntilUnpaused()
	if w3 == w1 {
		t.Error("Expected a fresh handle after the previous wait resolved")
	}
	ctrl.Unpause()
	<-w3.Done()
}

func TestStepWhilePausedDoesNotAdvanceSource(t *testing.T) {
	source := NewSliceSource("a", "b")
	ctrl, _ := newTestController(source)

	ctrl.Pause()

	done := make(chan struct{})
	var out StepOutcome
	var err error
	go func() {
		out, err = ctrl.Step(context.Background())
		close(done)
	}()

	// Give the step time to reach the wait.
	time.Sleep(5 * testPollInterval)

	select {
	case <-done:
		t.Fatal("Step resolved while paused")
	default:
	}
	if source.Consumed() != 0 {
		t.Fatalf("Source advanced while paused: consumed %d", source.Consumed())
	}

	ctrl.Unpause()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for step after unpause")
	}

	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if out.Done || out.Wait {
		t.Errorf("Expected plain outcome for first element, got %+v", out)
	}
	if source.Consumed() != 1 {
		t.Errorf("Expected 1 element consumed, got %d", source.Consumed())
	}
}

func TestOverlappingStepsConsumeOneElement(t *testing.T) {
	source := NewSliceSource("a", "b", "c")
	ctrl, _ := newTestController(source)

	ctrl.Pause()

	type result struct {
		out StepOutcome
		err error
	}
	results := make(chan result, 2)
	for i := 0; i < 2; i++ {
		go func() {
			out, err := ctrl.Step(context.Background())
			results <- result{out, err}
		}()
	}

	// Both steps must be parked on the same wait.
	time.Sleep(5 * testPollInterval)
	select {
	case <-results:
		t.Fatal("A step resolved while paused")
	default:
	}

	ctrl.Unpause()

	var first, second result
	select {
	case first = <-results:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for first step")
	}
	select {
	case second = <-results:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for second step")
	}

	if first.err != nil || second.err != nil {
		t.Fatalf("Step errors: %v, %v", first.err, second.err)
	}
	if first.out != second.out {
		t.Errorf("Coalesced steps diverged: %+v vs %+v", first.out, second.out)
	}
	if source.Consumed() != 1 {
		t.Errorf("Expected exactly 1 element consumed, got %d", source.Consumed())
	}
}

func TestReplaceSourceMidSequence(t *testing.T) {
	s1 := NewSliceSource("s1-a", "s1-b")
	s2 := NewSliceSource("s2-a")
	policy := &recordingPolicy{}

	ctrl, _ := newTestController(s1)
	ctrl.ReplacePolicy(policy.classify)

	if _, err := ctrl.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	ctrl.ReplaceSource(s2)

	if _, err := ctrl.Step(context.Background()); err != nil {
		t.Fatalf("Step after replace failed: %v", err)
	}

	seen := policy.seen()
	if len(seen) != 2 || seen[0] != "s1-a" || seen[1] != "s2-a" {
		t.Errorf("Expected [s1-a s2-a], got %v", seen)
	}
	if s1.Consumed() != 1 {
		t.Errorf("Prior source advanced after replacement: consumed %d", s1.Consumed())
	}
}

func TestReplaceSourceDuringPendingWait(t *testing.T) {
	s1 := NewSliceSource("old")
	s2 := NewSliceSource("new")
	policy := &recordingPolicy{}

	ctrl, _ := newTestController(s1)
	ctrl.ReplacePolicy(policy.classify)
	ctrl.Pause()

	done := make(chan struct{})
	go func() {
		ctrl.Step(context.Background())
		close(done)
	}()

	time.Sleep(5 * testPollInterval)

	// Swap while the wait is outstanding: the resolved step must use
	// whichever source is current at resolution time.
	ctrl.ReplaceSource(s2)
	ctrl.Unpause()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for step")
	}

	seen := policy.seen()
	if len(seen) != 1 || seen[0] != "new" {
		t.Errorf("Expected the replaced source to serve the step, saw %v", seen)
	}
	if s1.Consumed() != 0 {
		t.Errorf("Old source was advanced: consumed %d", s1.Consumed())
	}
}

func TestReplacePolicyNilIsNoop(t *testing.T) {
	policy := &recordingPolicy{}
	ctrl, _ := newTestController(NewSliceSource("a", "b"))
	ctrl.ReplacePolicy(policy.classify)

	ctrl.ReplacePolicy(nil)

	if _, err := ctrl.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if len(policy.seen()) != 1 {
		t.Error("Expected previous policy to remain in effect after nil replacement")
	}
}

func TestReplacePolicyAppliesFromNextStep(t *testing.T) {
	ctrl, _ := newTestController(NewSliceSource("a", "b"))

	if _, err := ctrl.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	replaced := &recordingPolicy{}
	ctrl.ReplacePolicy(replaced.classify)

	if _, err := ctrl.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	seen := replaced.seen()
	if len(seen) != 1 || seen[0] != "b" {
		t.Errorf("Expected new policy to classify only the next step, saw %v", seen)
	}
}

func TestUnpauseWhenUnpausedIsNoop(t *testing.T) {
	ctrl, pause := newTestController(NewSliceSource("a"))

	ctrl.Unpause()

	if pause.Paused() {
		t.Error("Unpause set the flag")
	}
	ctrl.mu.Lock()
	pending := ctrl.pending
	ctrl.mu.Unlock()
	if pending != nil {
		t.Error("Unpause created a wait")
	}
}

func TestDefaultPolicySequence(t *testing.T) {
	ctrl, _ := newTestController(NewSliceSource("a", "b"))
	ctx := context.Background()

	expected := []StepOutcome{
		{Done: false, Wait: false},
		{Done: false, Wait: false},
		{Done: true, Wait: false},
	}
	for i, want := range expected {
		out, err := ctrl.Step(ctx)
		if err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
		if out != want {
			t.Errorf("Step %d: got %+v, want %+v", i, out, want)
		}
	}
}

func TestDefaultPolicyWaitSentinel(t *testing.T) {
	ctrl, _ := newTestController(NewSliceSource(WaitSignal, "a"))
	ctx := context.Background()

	out, err := ctrl.Step(ctx)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if !out.Wait || out.Done {
		t.Errorf("Expected wait outcome for sentinel, got %+v", out)
	}

	out, err = ctrl.Step(ctx)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if out.Wait {
		t.Errorf("Expected plain outcome, got %+v", out)
	}
}

func TestSourceFailurePropagatesUnmodified(t *testing.T) {
	sourceErr := errors.New("device went away")
	calls := 0
	source := SourceFunc(func(context.Context) (StepResult, error) {
		calls++
		if calls == 1 {
			return StepResult{}, sourceErr
		}
		return StepResult{Value: "recovered"}, nil
	})

	ctrl, pause := newTestController(source)
	ctx := context.Background()

	_, err := ctrl.Step(ctx)
	if !errors.Is(err, sourceErr) {
		t.Fatalf("Expected source error unmodified, got %v", err)
	}
	if pause.Paused() {
		t.Error("Failed step altered pause state")
	}

	// A subsequent step is still well-formed.
	out, err := ctrl.Step(ctx)
	if err != nil {
		t.Fatalf("Step after failure failed: %v", err)
	}
	if out.Done || out.Wait {
		t.Errorf("Unexpected outcome after recovery: %+v", out)
	}
}

func TestPolicyFailurePropagatesUnmodified(t *testing.T) {
	policyErr := errors.New("unclassifiable result")
	ctrl, _ := newTestController(NewSliceSource("a"))
	ctrl.ReplacePolicy(func(StepResult) (StepOutcome, error) {
		return StepOutcome{}, policyErr
	})

	_, err := ctrl.Step(context.Background())
	if !errors.Is(err, policyErr) {
		t.Fatalf("Expected policy error unmodified, got %v", err)
	}
}

func TestDoneWinsOverWait(t *testing.T) {
	ctrl, _ := newTestController(NewSliceSource("a"))
	ctrl.ReplacePolicy(func(StepResult) (StepOutcome, error) {
		return StepOutcome{Done: true, Wait: true}, nil
	})

	out, err := ctrl.Step(context.Background())
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if !out.Done || out.Wait {
		t.Errorf("Expected normalized done outcome, got %+v", out)
	}
}

func TestStepContextCancelledWhilePaused(t *testing.T) {
	source := NewSliceSource("a")
	ctrl, _ := newTestController(source)
	ctrl.Pause()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := ctrl.Step(ctx)
		errCh <- err
	}()

	time.Sleep(3 * testPollInterval)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for cancelled step")
	}
	if source.Consumed() != 0 {
		t.Errorf("Cancelled step advanced the source: consumed %d", source.Consumed())
	}

	// The controller is still usable: unpause and step normally.
	ctrl.Unpause()
	if _, err := ctrl.Step(context.Background()); err != nil {
		t.Fatalf("Step after cancellation failed: %v", err)
	}
}

func TestCoalescedStepTakesOverCancelledClaim(t *testing.T) {
	source := NewSliceSource("a")
	ctrl, _ := newTestController(source)
	ctrl.Pause()

	claimCtx, cancelClaim := context.WithCancel(context.Background())
	claimErr := make(chan error, 1)
	go func() {
		_, err := ctrl.Step(claimCtx)
		claimErr <- err
	}()

	// Let the first step claim the wait before the second coalesces.
	time.Sleep(3 * testPollInterval)

	type result struct {
		out StepOutcome
		err error
	}
	coalesced := make(chan result, 1)
	go func() {
		out, err := ctrl.Step(context.Background())
		coalesced <- result{out, err}
	}()

	time.Sleep(3 * testPollInterval)
	cancelClaim()

	select {
	case err := <-claimErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Expected context.Canceled for the cancelled step, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for cancelled step")
	}

	// The surviving step must inherit the advance, not hang.
	ctrl.Unpause()
	select {
	case r := <-coalesced:
		if r.err != nil {
			t.Fatalf("Coalesced step failed: %v", r.err)
		}
		if r.out.Done || r.out.Wait {
			t.Errorf("Expected plain outcome for first element, got %+v", r.out)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for coalesced step after unpause")
	}
	if source.Consumed() != 1 {
		t.Errorf("Expected exactly 1 element consumed, got %d", source.Consumed())
	}
}

func TestOutcomesIteratesUntilDone(t *testing.T) {
	ctrl, _ := newTestController(NewSliceSource("a", "b", "c"))

	var outcomes []StepOutcome
	for out, err := range ctrl.Outcomes(context.Background()) {
		if err != nil {
			t.Fatalf("Iteration failed: %v", err)
		}
		outcomes = append(outcomes, out)
	}

	// Three live steps plus the terminal done outcome.
	if len(outcomes) != 4 {
		t.Fatalf("Expected 4 outcomes, got %d: %v", len(outcomes), outcomes)
	}
	if !outcomes[3].Done {
		t.Errorf("Expected final outcome done, got %+v", outcomes[3])
	}
}

func TestOutcomesEarlyBreakLeavesControllerUsable(t *testing.T) {
	source := NewSliceSource("a", "b", "c")
	ctrl, _ := newTestController(source)

	for range ctrl.Outcomes(context.Background()) {
		break
	}

	if source.Consumed() != 1 {
		t.Fatalf("Expected 1 element consumed after early break, got %d", source.Consumed())
	}

	// Iteration does not rewind: the next demand continues the source.
	out, err := ctrl.Step(context.Background())
	if err != nil {
		t.Fatalf("Step after break failed: %v", err)
	}
	if out.Done {
		t.Error("Source reported done too early")
	}
	if source.Consumed() != 2 {
		t.Errorf("Expected 2 elements consumed, got %d", source.Consumed())
	}
}
