package cliconfig

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) { c.SpecPath = "spec.toml" }, ""},
		{"missing spec", func(c *Config) {}, "spec file"},
		{"missing output", func(c *Config) {
			c.SpecPath = "spec.toml"
			c.OutputDir = ""
		}, "output dir"},
		{"bad policy", func(c *Config) {
			c.SpecPath = "spec.toml"
			c.OnError = "retry"
		}, "on-error"},
		{"bad queue", func(c *Config) {
			c.SpecPath = "spec.toml"
			c.QueueCapacity = 0
		}, "queue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvConfig(t *testing.T) {
	t.Setenv("ACQUIRE_SPEC", "env-spec.toml")
	t.Setenv("ACQUIRE_OUTPUT_DIR", "/env/out")
	t.Setenv("ACQUIRE_STAGE_TIMEOUT", "42s")
	t.Setenv("ACQUIRE_QUEUE_CAPACITY", "16")
	t.Setenv("ACQUIRE_ON_ERROR", "skip")
	t.Setenv("ACQUIRE_VERBOSE", "true")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err != nil {
		t.Fatalf("ApplyEnvConfig() error = %v", err)
	}

	if cfg.SpecPath != "env-spec.toml" {
		t.Errorf("SpecPath = %q, want env-spec.toml", cfg.SpecPath)
	}
	if cfg.OutputDir != "/env/out" {
		t.Errorf("OutputDir = %q, want /env/out", cfg.OutputDir)
	}
	if cfg.StageTimeout != 42*time.Second {
		t.Errorf("StageTimeout = %v, want 42s", cfg.StageTimeout)
	}
	if cfg.QueueCapacity != 16 {
		t.Errorf("QueueCapacity = %d, want 16", cfg.QueueCapacity)
	}
	if cfg.OnError != "skip" {
		t.Errorf("OnError = %q, want skip", cfg.OnError)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}
}

func TestApplyEnvConfig_FlagsWin(t *testing.T) {
	t.Setenv("ACQUIRE_OUTPUT_DIR", "/env/out")

	cfg := DefaultConfig()
	cfg.OutputDir = "/flag/out"
	if err := ApplyEnvConfig(&cfg, map[string]bool{"output": true}); err != nil {
		t.Fatalf("ApplyEnvConfig() error = %v", err)
	}

	if cfg.OutputDir != "/flag/out" {
		t.Errorf("OutputDir = %q, want flag value kept", cfg.OutputDir)
	}
}

func TestApplyEnvConfig_BadDuration(t *testing.T) {
	t.Setenv("ACQUIRE_STAGE_TIMEOUT", "soon")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err == nil {
		t.Error("ApplyEnvConfig() with bad duration succeeded, want error")
	}
}
