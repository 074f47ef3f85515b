package driver

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"stepbot/internal/behavior"
	"stepbot/internal/events"
	"stepbot/internal/logging"
)

// Watcher hot-reloads behavior files. When the file backing the active
// behavior changes on disk, the driver's source is swapped so the next
// step runs the edited behavior.
type Watcher struct {
	fsw      *fsnotify.Watcher
	registry *behavior.Registry
	driver   *Driver
	bus      events.EventBus
	logger   *logging.Logger
	done     chan struct{}
}

// NewWatcher watches the behaviors directory and reloads changed files.
func NewWatcher(dir string, registry *behavior.Registry, drv *Driver, bus events.EventBus) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch '%s': %w", dir, err)
	}

	w := &Watcher{
		fsw:      fsw,
		registry: registry,
		driver:   drv,
		bus:      bus,
		logger:   logging.NewLogger("Watcher"),
		done:     make(chan struct{}),
	}

	go w.loop()
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.handleChange(event.Name)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", err)
		}
	}
}

// handleChange reloads a changed behavior file and swaps the driver's
// source when the active behavior was edited.
func (w *Watcher) handleChange(path string) {
	ext := filepath.Ext(path)
	if ext != ".yaml" && ext != ".yml" {
		return
	}
	name := strings.TrimSuffix(filepath.Base(path), ext)

	_, err := w.registry.Reload(name)
	if w.bus != nil {
		w.bus.Publish(events.NewBehaviorReloadedEvent(name, err == nil))
	}
	if err != nil {
		w.logger.ErrorWithContext("Behavior failed to reload", err, map[string]any{"behavior": name})
		return
	}

	w.logger.InfoWithContext("Behavior reloaded", map[string]any{"behavior": name})

	if w.driver != nil && w.driver.ActiveBehavior() == name {
		if err := w.driver.SwapBehavior(name); err != nil {
			w.logger.Error("Failed to swap reloaded behavior", err)
		}
	}
}
