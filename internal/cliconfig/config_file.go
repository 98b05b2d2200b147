package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	SpecPath  string `toml:"spec"`
	OutputDir string `toml:"output_dir"`

	StageTimeout    string `toml:"stage_timeout"`
	FilterTimeout   string `toml:"filter_timeout"`
	ExposureTimeout string `toml:"exposure_timeout"`
	CaptureTimeout  string `toml:"capture_timeout"`
	CancelGrace     string `toml:"cancel_grace"`

	QueueCapacity int    `toml:"queue_capacity"`
	WriteRetries  int    `toml:"write_retries"`
	OnError       string `toml:"on_error"`

	SimStageLatency string `toml:"sim_stage_latency"`
	SimFailEvery    int    `toml:"sim_fail_every"`
	SimWidth        int    `toml:"sim_width"`
	SimHeight       int    `toml:"sim_height"`

	Verbose *bool `toml:"verbose"`
	Watch   *bool `toml:"watch"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.acquire/config.toml if the user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".acquire", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("spec", fc.SpecPath, &cfg.SpecPath)
	s.setString("output", fc.OutputDir, &cfg.OutputDir)
	s.setString("on-error", fc.OnError, &cfg.OnError)

	if err := s.setDuration("stage-timeout", fc.StageTimeout, &cfg.StageTimeout); err != nil {
		return err
	}
	if err := s.setDuration("filter-timeout", fc.FilterTimeout, &cfg.FilterTimeout); err != nil {
		return err
	}
	if err := s.setDuration("exposure-timeout", fc.ExposureTimeout, &cfg.ExposureTimeout); err != nil {
		return err
	}
	if err := s.setDuration("capture-timeout", fc.CaptureTimeout, &cfg.CaptureTimeout); err != nil {
		return err
	}
	if err := s.setDuration("cancel-grace", fc.CancelGrace, &cfg.CancelGrace); err != nil {
		return err
	}
	if err := s.setDuration("sim-stage-latency", fc.SimStageLatency, &cfg.SimStageLatency); err != nil {
		return err
	}

	s.setInt("queue", fc.QueueCapacity, &cfg.QueueCapacity)
	s.setInt("write-retries", fc.WriteRetries, &cfg.WriteRetries)
	s.setInt("sim-fail-every", fc.SimFailEvery, &cfg.SimFailEvery)
	s.setInt("sim-width", fc.SimWidth, &cfg.SimWidth)
	s.setInt("sim-height", fc.SimHeight, &cfg.SimHeight)

	s.setBool("verbose", fc.Verbose, &cfg.Verbose)
	s.setBool("watch", fc.Watch, &cfg.Watch)

	return nil
}
