// Package host wires a step controller into an embedding environment:
// a named-component registry the external driver uses to locate the
// source and the stepper, plus an optional pointer injector primed once
// at initialization.
package host

import (
	"fmt"

	"stepbot/internal/step"
)

// Well-known component names drivers look up on the environment.
const (
	SourceName  = "behavior.source"
	StepperName = "behavior.stepper"
)

// PointerEvent is a synthetic pointer-movement event in the three
// coordinate spaces the environment distinguishes.
type PointerEvent struct {
	PageX   int
	PageY   int
	ClientX int
	ClientY int
	ScreenX int
	ScreenY int
}

// PrimingEvent is the fixed pointer movement emitted once during Init.
var PrimingEvent = PointerEvent{
	PageX:   15,
	PageY:   15,
	ClientX: 150,
	ClientY: 150,
	ScreenX: 500,
	ScreenY: 250,
}

// Environment is the host handle components register themselves on.
type Environment interface {
	Register(name string, component any)
}

// PointerInjector is implemented by environments that accept synthetic
// pointer events. Environments without one simply skip priming.
type PointerInjector interface {
	InjectPointerMove(ev PointerEvent) error
}

// PointerMover is the device-level movement primitive (satisfied by
// adb.Controller).
type PointerMover interface {
	MovePointer(x, y int) error
}

// Init constructs a controller over the given source and pause state,
// registers the source and the controller on the environment under the
// well-known names, emits the one-time priming pointer event if the
// environment supports injection, and returns the controller. A nil
// policy keeps the default.
func Init(env Environment, source step.ActionSource, policy step.ResultPolicy, pause *step.PauseState) (*step.Controller, error) {
	ctrl := step.NewController(pause, source)
	if policy != nil {
		ctrl.WithPolicy(policy)
	}

	env.Register(SourceName, source)
	env.Register(StepperName, ctrl)

	if injector, ok := env.(PointerInjector); ok {
		if err := injector.InjectPointerMove(PrimingEvent); err != nil {
			return nil, fmt.Errorf("failed to emit priming pointer event: %w", err)
		}
	}

	return ctrl, nil
}

// DeviceEnvironment is an Environment backed by a plain component map
// and a device-level pointer mover. Pointer events are forwarded using
// their screen coordinates; the page and client coordinates have no
// device equivalent.
type DeviceEnvironment struct {
	components map[string]any
	mover      PointerMover
}

// NewDeviceEnvironment creates an environment targeting the given
// pointer mover. A nil mover disables injection.
func NewDeviceEnvironment(mover PointerMover) *DeviceEnvironment {
	return &DeviceEnvironment{
		components: make(map[string]any),
		mover:      mover,
	}
}

// Register stores a component under the given name, replacing any
// previous registration.
func (e *DeviceEnvironment) Register(name string, component any) {
	e.components[name] = component
}

// Lookup returns a registered component by name.
func (e *DeviceEnvironment) Lookup(name string) (any, bool) {
	c, ok := e.components[name]
	return c, ok
}

// InjectPointerMove forwards the event's screen coordinates to the
// device.
func (e *DeviceEnvironment) InjectPointerMove(ev PointerEvent) error {
	if e.mover == nil {
		return nil
	}
	return e.mover.MovePointer(ev.ScreenX, ev.ScreenY)
}
