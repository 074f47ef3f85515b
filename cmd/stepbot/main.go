package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stepbot/internal/adb"
	"stepbot/internal/behavior"
	"stepbot/internal/config"
	"stepbot/internal/driver"
	"stepbot/internal/events"
	"stepbot/internal/history"
	"stepbot/internal/host"
	"stepbot/internal/logging"
	"stepbot/internal/step"
)

func main() {
	configPath := flag.String("config", "Settings.ini", "path to the settings file")
	behaviorName := flag.String("behavior", "", "behavior to run (overrides config)")
	startPaused := flag.Bool("paused", false, "start with the pause flag set")
	flag.Parse()

	if err := run(*configPath, *behaviorName, *startPaused); err != nil {
		fmt.Fprintf(os.Stderr, "stepbot: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, behaviorOverride string, startPaused bool) error {
	logger := logging.NewLogger("Main")

	cfg, err := config.LoadFromINI(configPath)
	if err != nil {
		logger.Warn(fmt.Sprintf("Failed to load config, using defaults: %v", err))
		cfg = config.NewDefaultConfig()
	}
	if behaviorOverride != "" {
		cfg.Behavior = behaviorOverride
	}
	if startPaused {
		cfg.StartPaused = true
	}
	logger.SetMinLevel(logging.LogLevel(cfg.LogLevel))

	// Event bus and file event log
	bus := events.NewEventBus(64)
	defer bus.Stop()

	if cfg.LoggingEnabled {
		eventLogger, err := logging.NewEventLogger(bus, cfg.LogDir)
		if err != nil {
			return fmt.Errorf("failed to set up event log: %w", err)
		}
		defer eventLogger.Close()
	}

	// Behaviors
	registry := behavior.NewRegistry(cfg.BehaviorsDir)
	for _, name := range registry.ListInvalid() {
		logger.WarnWithContext("Skipping invalid behavior", map[string]any{
			"behavior": name,
			"error":    registry.ValidationError(name),
		})
	}

	name := cfg.Behavior
	if name == "" {
		valid := registry.ListValid()
		if len(valid) == 0 {
			return fmt.Errorf("no valid behaviors in '%s'", cfg.BehaviorsDir)
		}
		name = valid[0]
	}
	b, err := registry.Get(name)
	if err != nil {
		return err
	}

	reporter := logging.NewErrorReporter()

	// Device
	dev, err := adb.NewController(cfg.ADBPath, cfg.Device)
	if err != nil {
		return err
	}
	if err := dev.Connect(); err != nil {
		reporter.ReportCritical(logging.ErrorCategoryDevice, "main", "Device connection failed", err,
			map[string]any{"device": cfg.Device})
		return err
	}
	defer dev.Disconnect()
	logger.InfoWithContext("Connected to device", map[string]any{"device": dev.Device()})

	// Controller, registered on the host environment
	pause := step.NewPauseState()
	pause.Set(cfg.StartPaused)

	env := host.NewDeviceEnvironment(dev)
	ctrl, err := host.Init(env, behavior.NewSource(b, dev), nil, pause)
	if err != nil {
		return err
	}
	ctrl.WithPollInterval(time.Duration(cfg.PollIntervalMs) * time.Millisecond)

	// History
	var db *history.DB
	if cfg.HistoryEnabled {
		db, err = history.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			return err
		}
	}

	// Driver
	drv := driver.NewDriver(ctrl, registry, dev, name, time.Duration(cfg.StepIntervalMs)*time.Millisecond)
	drv.WithEventBus(bus).WithDeviceName(cfg.Device).WithErrorReporter(reporter)
	if db != nil {
		drv.WithHistory(db)
	}

	if cfg.WatchBehaviors {
		watcher, err := driver.NewWatcher(cfg.BehaviorsDir, registry, drv, bus)
		if err != nil {
			logger.Warn(fmt.Sprintf("Behavior watching disabled: %v", err))
		} else {
			defer watcher.Close()
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return drv.Run(ctx)
}
