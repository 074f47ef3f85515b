package step

import "sync/atomic"

// PauseState is the shared pause flag gating whether stepping proceeds.
// It is created by the embedding host and handed to every collaborator
// that needs to observe or change it (the controller, a control UI, an
// automation harness). The controller itself only reads it when deciding
// whether a step may advance, and writes it through Pause/Unpause.
type PauseState struct {
	flag atomic.Bool
}

// NewPauseState creates a pause state that starts unpaused.
func NewPauseState() *PauseState {
	return &PauseState{}
}

// Paused reports whether stepping is currently paused.
func (p *PauseState) Paused() bool {
	return p.flag.Load()
}

// Set updates the pause flag. Setting the current value is a no-op.
func (p *PauseState) Set(paused bool) {
	p.flag.Store(paused)
}
