package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Settings.ini")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadFromINI(t *testing.T) {
	path := writeConfigFile(t, `[Settings]
adbPath = /usr/local/bin/adb
device = 127.0.0.1:16384
behaviorsDir = my-behaviors
behavior = daily
watchBehaviors = false
stepIntervalMs = 500
pollIntervalMs = 1000
startPaused = true
databasePath = runs.db
logLevel = DEBUG
`)

	config, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.ADBPath != "/usr/local/bin/adb" {
		t.Errorf("Expected adbPath '/usr/local/bin/adb', got '%s'", config.ADBPath)
	}
	if config.Device != "127.0.0.1:16384" {
		t.Errorf("Expected device '127.0.0.1:16384', got '%s'", config.Device)
	}
	if config.Behavior != "daily" {
		t.Errorf("Expected behavior 'daily', got '%s'", config.Behavior)
	}
	if config.WatchBehaviors {
		t.Error("Expected watchBehaviors false")
	}
	if config.StepIntervalMs != 500 {
		t.Errorf("Expected stepIntervalMs 500, got %d", config.StepIntervalMs)
	}
	if config.PollIntervalMs != 1000 {
		t.Errorf("Expected pollIntervalMs 1000, got %d", config.PollIntervalMs)
	}
	if !config.StartPaused {
		t.Error("Expected startPaused true")
	}
	if config.LogLevel != "DEBUG" {
		t.Errorf("Expected logLevel 'DEBUG', got '%s'", config.LogLevel)
	}
}

func TestLoadFromINIDefaults(t *testing.T) {
	path := writeConfigFile(t, "[Settings]\n")

	config, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	defaults := NewDefaultConfig()
	if config.Device != defaults.Device {
		t.Errorf("Expected default device '%s', got '%s'", defaults.Device, config.Device)
	}
	if config.StepIntervalMs != defaults.StepIntervalMs {
		t.Errorf("Expected default stepIntervalMs %d, got %d", defaults.StepIntervalMs, config.StepIntervalMs)
	}
	if config.PollIntervalMs != 2000 {
		t.Errorf("Expected default pollIntervalMs 2000, got %d", config.PollIntervalMs)
	}
	if !config.LoggingEnabled {
		t.Error("Expected loggingEnabled default true")
	}
}

func TestLoadFromINIMissingFile(t *testing.T) {
	_, err := LoadFromINI(filepath.Join(t.TempDir(), "nope.ini"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestValidateRejectsBadIntervals(t *testing.T) {
	path := writeConfigFile(t, `[Settings]
stepIntervalMs = 0
`)

	_, err := LoadFromINI(path)
	if err == nil || !strings.Contains(err.Error(), "stepIntervalMs") {
		t.Fatalf("Expected stepIntervalMs validation error, got %v", err)
	}
}

func TestSaveAndReload(t *testing.T) {
	config := NewDefaultConfig()
	config.Device = "127.0.0.1:16416"
	config.Behavior = "smoke"
	config.StartPaused = true

	path := filepath.Join(t.TempDir(), "Settings.ini")
	if err := SaveToINI(config, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}

	if loaded.Device != config.Device {
		t.Errorf("Expected device '%s', got '%s'", config.Device, loaded.Device)
	}
	if loaded.Behavior != "smoke" {
		t.Errorf("Expected behavior 'smoke', got '%s'", loaded.Behavior)
	}
	if !loaded.StartPaused {
		t.Error("Expected startPaused to round-trip")
	}
}
