// Package cliconfig holds the CLI configuration layering for the acquire
// binary: defaults, TOML config file, ACQUIRE_* environment variables and
// command-line flags, in increasing precedence.
package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Config holds CLI configuration for the acquire binary.
type Config struct {
	SpecPath  string
	OutputDir string

	StageTimeout    time.Duration
	FilterTimeout   time.Duration
	ExposureTimeout time.Duration
	CaptureTimeout  time.Duration

	QueueCapacity int
	WriteRetries  int
	OnError       string
	CancelGrace   time.Duration

	// Simulated hardware knobs.
	SimStageLatency time.Duration
	SimFailEvery    int
	SimWidth        int
	SimHeight       int

	Verbose bool
	Watch   bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		OutputDir:       "acquire-out",
		StageTimeout:    10 * time.Second,
		FilterTimeout:   2 * time.Second,
		ExposureTimeout: time.Second,
		CaptureTimeout:  5 * time.Second,
		QueueCapacity:   8,
		WriteRetries:    3,
		OnError:         "halt",
		CancelGrace:     5 * time.Second,
		SimStageLatency: 20 * time.Millisecond,
		SimWidth:        64,
		SimHeight:       64,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SpecPath == "" {
		return fmt.Errorf("spec file is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir is required")
	}
	if c.OnError != "halt" && c.OnError != "skip" {
		return fmt.Errorf("on-error must be halt or skip, got %q", c.OnError)
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue capacity must be positive")
	}
	return nil
}

var logger zerolog.Logger

func init() {
	logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// Logger returns the package logger.
func Logger() zerolog.Logger {
	return logger
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

// ApplyEnvConfig applies configuration from environment variables
// (ACQUIRE_*). It respects flags that have been explicitly set.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("spec", os.Getenv("ACQUIRE_SPEC"), &cfg.SpecPath)
	s.setString("output", os.Getenv("ACQUIRE_OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("on-error", os.Getenv("ACQUIRE_ON_ERROR"), &cfg.OnError)

	if err := s.setDuration("stage-timeout", os.Getenv("ACQUIRE_STAGE_TIMEOUT"), &cfg.StageTimeout); err != nil {
		return err
	}
	if err := s.setDuration("filter-timeout", os.Getenv("ACQUIRE_FILTER_TIMEOUT"), &cfg.FilterTimeout); err != nil {
		return err
	}
	if err := s.setDuration("exposure-timeout", os.Getenv("ACQUIRE_EXPOSURE_TIMEOUT"), &cfg.ExposureTimeout); err != nil {
		return err
	}
	if err := s.setDuration("capture-timeout", os.Getenv("ACQUIRE_CAPTURE_TIMEOUT"), &cfg.CaptureTimeout); err != nil {
		return err
	}
	if err := s.setDuration("cancel-grace", os.Getenv("ACQUIRE_CANCEL_GRACE"), &cfg.CancelGrace); err != nil {
		return err
	}

	if err := s.setIntFromString("queue", os.Getenv("ACQUIRE_QUEUE_CAPACITY"), &cfg.QueueCapacity); err != nil {
		return err
	}
	if err := s.setIntFromString("write-retries", os.Getenv("ACQUIRE_WRITE_RETRIES"), &cfg.WriteRetries); err != nil {
		return err
	}
	if err := s.setIntFromString("sim-fail-every", os.Getenv("ACQUIRE_SIM_FAIL_EVERY"), &cfg.SimFailEvery); err != nil {
		return err
	}

	s.setBoolFromString("verbose", os.Getenv("ACQUIRE_VERBOSE"), &cfg.Verbose)
	s.setBoolFromString("watch", os.Getenv("ACQUIRE_WATCH"), &cfg.Watch)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
