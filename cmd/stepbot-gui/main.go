package main

import (
	"log"
	"time"

	"fyne.io/fyne/v2/app"

	"stepbot/internal/adb"
	"stepbot/internal/behavior"
	"stepbot/internal/config"
	"stepbot/internal/driver"
	"stepbot/internal/events"
	"stepbot/internal/gui"
	"stepbot/internal/history"
	"stepbot/internal/host"
	"stepbot/internal/logging"
	"stepbot/internal/step"
)

func main() {
	myApp := app.NewWithID("io.stepbot.control")

	mainWindow := myApp.NewWindow("Stepbot Control")
	mainWindow.Resize(gui.DefaultWindowSize)

	cfg, err := config.LoadFromINI("Settings.ini")
	if err != nil {
		log.Printf("Warning: Failed to load config: %v", err)
		cfg = config.NewDefaultConfig()
	}

	bus := events.NewEventBus(64)
	defer bus.Stop()

	registry := behavior.NewRegistry(cfg.BehaviorsDir)

	dev, err := adb.NewController(cfg.ADBPath, cfg.Device)
	if err != nil {
		log.Fatalf("Failed to set up adb: %v", err)
	}
	if err := dev.Connect(); err != nil {
		log.Printf("Warning: device not connected yet: %v", err)
	}
	defer dev.Disconnect()

	pause := step.NewPauseState()
	pause.Set(cfg.StartPaused)

	behaviorName := cfg.Behavior
	if behaviorName == "" {
		if valid := registry.ListValid(); len(valid) > 0 {
			behaviorName = valid[0]
		}
	}

	var source step.ActionSource = step.NewSliceSource()
	if b, err := registry.Get(behaviorName); err == nil {
		source = behavior.NewSource(b, dev)
	}

	env := host.NewDeviceEnvironment(dev)
	ctrl, err := host.Init(env, source, nil, pause)
	if err != nil {
		log.Printf("Warning: environment priming failed: %v", err)
		ctrl = step.NewController(pause, source)
	}
	ctrl.WithPollInterval(time.Duration(cfg.PollIntervalMs) * time.Millisecond)

	var db *history.DB
	if cfg.HistoryEnabled {
		db, err = history.Open(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to open history database: %v", err)
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			log.Fatalf("Failed to migrate history database: %v", err)
		}
	}

	drv := driver.NewDriver(ctrl, registry, dev, behaviorName, time.Duration(cfg.StepIntervalMs)*time.Millisecond)
	drv.WithEventBus(bus).WithDeviceName(cfg.Device).WithErrorReporter(logging.NewErrorReporter())
	if db != nil {
		drv.WithHistory(db)
	}

	if cfg.WatchBehaviors {
		if watcher, err := driver.NewWatcher(cfg.BehaviorsDir, registry, drv, bus); err == nil {
			defer watcher.Close()
		} else {
			log.Printf("Warning: behavior watching disabled: %v", err)
		}
	}

	controller := gui.NewController(cfg, myApp, mainWindow, drv, registry, db, bus)

	mainWindow.SetContent(controller.BuildUI())
	mainWindow.SetMaster()
	mainWindow.ShowAndRun()

	controller.Shutdown()
}
