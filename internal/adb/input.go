package adb

import (
	"fmt"
	"strings"
)

// Input commands implementing behavior.Device.

// Tap performs a tap at the given screen coordinates.
func (c *Controller) Tap(x, y int) error {
	_, err := c.Shell(fmt.Sprintf("input tap %d %d", x, y))
	return err
}

// Swipe performs a swipe gesture.
func (c *Controller) Swipe(x1, y1, x2, y2 int, durationMs int) error {
	_, err := c.Shell(fmt.Sprintf("input swipe %d %d %d %d %d", x1, y1, x2, y2, durationMs))
	return err
}

// SendKey sends a key event (e.g., "KEYCODE_BACK", "KEYCODE_HOME").
func (c *Controller) SendKey(key string) error {
	_, err := c.Shell(fmt.Sprintf("input keyevent %s", key))
	return err
}

// InputText types text on the device. Spaces need escaping for the
// input tool.
func (c *Controller) InputText(text string) error {
	escaped := strings.ReplaceAll(text, " ", "%s")
	_, err := c.Shell(fmt.Sprintf("input text %s", escaped))
	return err
}

// MovePointer injects a pointer-movement motion event at the given
// screen coordinates. Used by the host integration as its one-time
// priming event.
func (c *Controller) MovePointer(x, y int) error {
	_, err := c.Shell(fmt.Sprintf("input motionevent MOVE %d %d", x, y))
	return err
}
