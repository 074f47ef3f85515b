package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Config holds all runtime settings for the stepper and its
// collaborators.
type Config struct {
	// Device
	ADBPath string
	Device  string

	// Behaviors
	BehaviorsDir   string
	Behavior       string
	WatchBehaviors bool

	// Controller
	StepIntervalMs int
	PollIntervalMs int
	StartPaused    bool

	// Database
	DatabasePath   string
	HistoryEnabled bool

	// Logging
	LogDir         string
	LogLevel       string
	LoggingEnabled bool
}

// NewDefaultConfig creates a config with default values
func NewDefaultConfig() *Config {
	return &Config{
		ADBPath:        "",
		Device:         "127.0.0.1:5555",
		BehaviorsDir:   "behaviors",
		Behavior:       "",
		WatchBehaviors: true,
		StepIntervalMs: 250,
		PollIntervalMs: 2000,
		StartPaused:    false,
		DatabasePath:   "stepbot.db",
		HistoryEnabled: true,
		LogDir:         "logs",
		LogLevel:       "INFO",
		LoggingEnabled: true,
	}
}

// LoadFromINI loads configuration from a Settings.ini file
func LoadFromINI(path string) (*Config, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	section := cfg.Section("Settings")
	defaults := NewDefaultConfig()

	config := &Config{}

	// Device
	config.ADBPath = section.Key("adbPath").MustString(defaults.ADBPath)
	config.Device = section.Key("device").MustString(defaults.Device)

	// Behaviors
	config.BehaviorsDir = section.Key("behaviorsDir").MustString(defaults.BehaviorsDir)
	config.Behavior = section.Key("behavior").MustString(defaults.Behavior)
	config.WatchBehaviors = section.Key("watchBehaviors").MustBool(defaults.WatchBehaviors)

	// Controller
	config.StepIntervalMs = section.Key("stepIntervalMs").MustInt(defaults.StepIntervalMs)
	config.PollIntervalMs = section.Key("pollIntervalMs").MustInt(defaults.PollIntervalMs)
	config.StartPaused = section.Key("startPaused").MustBool(defaults.StartPaused)

	// Database
	config.DatabasePath = section.Key("databasePath").MustString(defaults.DatabasePath)
	config.HistoryEnabled = section.Key("historyEnabled").MustBool(defaults.HistoryEnabled)

	// Logging
	config.LogDir = section.Key("logDir").MustString(defaults.LogDir)
	config.LogLevel = section.Key("logLevel").MustString(defaults.LogLevel)
	config.LoggingEnabled = section.Key("loggingEnabled").MustBool(defaults.LoggingEnabled)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("device must not be empty")
	}
	if c.StepIntervalMs <= 0 {
		return fmt.Errorf("stepIntervalMs must be greater than 0, got %d", c.StepIntervalMs)
	}
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("pollIntervalMs must be greater than 0, got %d", c.PollIntervalMs)
	}
	return nil
}

// SaveToINI saves configuration to an INI file
func SaveToINI(config *Config, path string) error {
	cfg := ini.Empty()
	section := cfg.Section("Settings")

	// Device
	section.Key("adbPath").SetValue(config.ADBPath)
	section.Key("device").SetValue(config.Device)

	// Behaviors
	section.Key("behaviorsDir").SetValue(config.BehaviorsDir)
	section.Key("behavior").SetValue(config.Behavior)
	section.Key("watchBehaviors").SetValue(fmt.Sprintf("%t", config.WatchBehaviors))

	// Controller
	section.Key("stepIntervalMs").SetValue(fmt.Sprintf("%d", config.StepIntervalMs))
	section.Key("pollIntervalMs").SetValue(fmt.Sprintf("%d", config.PollIntervalMs))
	section.Key("startPaused").SetValue(fmt.Sprintf("%t", config.StartPaused))

	// Database
	section.Key("databasePath").SetValue(config.DatabasePath)
	section.Key("historyEnabled").SetValue(fmt.Sprintf("%t", config.HistoryEnabled))

	// Logging
	section.Key("logDir").SetValue(config.LogDir)
	section.Key("logLevel").SetValue(config.LogLevel)
	section.Key("loggingEnabled").SetValue(fmt.Sprintf("%t", config.LoggingEnabled))

	return cfg.SaveTo(path)
}
