package step

// StepOutcome is the normalized result a driver receives from one step.
// Done and Wait are never both true: a finished sequence has nothing
// left to wait for.
type StepOutcome struct {
	Done bool
	Wait bool
}

// ResultPolicy classifies a raw step result into a normalized outcome.
// Policies must be pure; they may fail, and a failure propagates to the
// Step caller unmodified.
type ResultPolicy func(StepResult) (StepOutcome, error)

// waitSignal is the sentinel type for WaitSignal.
type waitSignal struct{}

func (waitSignal) String() string { return "wait" }

// WaitSignal is the value a source yields when the behavior wants the
// driver to hold off before demanding the next action. The default
// policy turns it into a Wait outcome; custom policies are free to
// ignore it.
var WaitSignal any = waitSignal{}

// DefaultPolicy classifies a result as done when the source is
// exhausted, and as waiting when a live result carries the wait
// sentinel. Every other value is a plain completed step.
func DefaultPolicy(r StepResult) (StepOutcome, error) {
	return StepOutcome{
		Done: r.Done,
		Wait: !r.Done && r.Value == WaitSignal,
	}, nil
}
