package adb

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Controller drives a single Android device or emulator instance over
// adb. It implements behavior.Device and the host pointer injector.
type Controller struct {
	mu        sync.Mutex
	path      string // adb binary
	device    string // device serial, e.g. "127.0.0.1:5555"
	connected bool
}

// NewController creates a controller for the given device serial using
// the adb binary at adbPath. An empty adbPath searches $PATH.
func NewController(adbPath, device string) (*Controller, error) {
	if adbPath == "" {
		found, err := exec.LookPath("adb")
		if err != nil {
			return nil, fmt.Errorf("adb not found in PATH (set adb_path in config): %w", err)
		}
		adbPath = found
	}
	return &Controller{path: adbPath, device: device}, nil
}

// Connect establishes the adb connection to the device.
func (c *Controller) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cmd := exec.Command(c.path, "connect", c.device)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to connect to device %s: %w, output: %s", c.device, err, output)
	}

	if !strings.Contains(string(output), "connected") {
		return fmt.Errorf("unexpected connect output: %s", output)
	}

	c.connected = true
	return nil
}

// Disconnect drops the adb connection.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cmd := exec.Command(c.path, "disconnect", c.device)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to disconnect from %s: %w, output: %s", c.device, err, output)
	}

	c.connected = false
	return nil
}

// IsConnected reports whether Connect has succeeded.
func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Device returns the device serial this controller targets.
func (c *Controller) Device() string {
	return c.device
}

// Shell executes a shell command on the device and returns its trimmed
// output.
func (c *Controller) Shell(command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cmd := exec.Command(c.path, "-s", c.device, "shell", command)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("shell command failed: %w, output: %s", err, output)
	}
	return strings.TrimSpace(string(output)), nil
}
