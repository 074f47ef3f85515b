package step

// PendingWait is the single outstanding "waiting to be unpaused" handle
// a controller holds while paused. Callers that overlap while one is
// outstanding all receive the same handle, so there is never more than
// one polling loop and never more than one resolution.
//
// Done closes when the pause flag is next observed false. A Step call
// that coalesced onto an already-claimed wait additionally blocks on the
// resolved channel to share the claiming step's outcome.
type PendingWait struct {
	unpaused chan struct{} // closed when the poll loop sees the flag drop
	resolved chan struct{} // closed when the claiming step produced an outcome

	// claim carries the single ownership token for advancing the source
	// once this wait resolves. A claiming step that is cancelled while
	// parked puts the token back, so a coalesced caller can take over
	// instead of waiting on a resolution that will never come.
	claim chan struct{}

	// Outcome of the claiming step, valid once resolved is closed.
	outcome StepOutcome
	err     error
}

func newPendingWait() *PendingWait {
	w := &PendingWait{
		unpaused: make(chan struct{}),
		resolved: make(chan struct{}),
		claim:    make(chan struct{}, 1),
	}
	w.claim <- struct{}{}
	return w
}

// Done returns the channel that closes when the pause flag transitions
// back to false. Comparing handles by pointer identity is the intended
// way to observe coalescing.
func (w *PendingWait) Done() <-chan struct{} {
	return w.unpaused
}

// resolve records the claiming step's outcome and releases coalesced
// callers. Must be called at most once.
func (w *PendingWait) resolve(out StepOutcome, err error) {
	w.outcome = out
	w.err = err
	close(w.resolved)
}
