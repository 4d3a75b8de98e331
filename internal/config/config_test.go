package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Capture.Duration != 30 {
		t.Errorf("Capture.Duration = %d, want 30", cfg.Capture.Duration)
	}
	if cfg.Capture.Window() != 30*time.Second {
		t.Errorf("Capture.Window() = %v, want 30s", cfg.Capture.Window())
	}
	if cfg.Trigger.Chord != "ctrl+alt|option+s" {
		t.Errorf("Trigger.Chord = %q", cfg.Trigger.Chord)
	}
	if cfg.Trigger.PollInterval() != 100*time.Millisecond {
		t.Errorf("Trigger.PollInterval() = %v, want 100ms", cfg.Trigger.PollInterval())
	}
	if cfg.Clip.SilenceThreshold != 1e-6 {
		t.Errorf("Clip.SilenceThreshold = %g, want 1e-6", cfg.Clip.SilenceThreshold)
	}
	if cfg.Output.DateFormat != "%Y%m%d_%H%M%S" {
		t.Errorf("Output.DateFormat = %q", cfg.Output.DateFormat)
	}
	if cfg.Output.BitDepth != 0 {
		t.Errorf("Output.BitDepth = %d, want 0 (stream format)", cfg.Output.BitDepth)
	}
	if !cfg.UI.Enabled {
		t.Error("UI.Enabled should be true by default")
	}

	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default() does not validate: %v", errs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero duration", func(c *Config) { c.Capture.Duration = 0 }, "capture.duration"},
		{"negative channels", func(c *Config) { c.Capture.Channels = -1 }, "capture.channels"},
		{"negative frames", func(c *Config) { c.Capture.FramesPerBuffer = -5 }, "capture.frames_per_buffer"},
		{"bad chord", func(c *Config) { c.Trigger.Chord = "ctrl++" }, "trigger.chord"},
		{"zero poll", func(c *Config) { c.Trigger.PollIntervalMs = 0 }, "trigger.poll_interval_ms"},
		{"threshold too high", func(c *Config) { c.Clip.SilenceThreshold = 1 }, "clip.silence_threshold"},
		{"zero queue", func(c *Config) { c.Clip.QueueSize = 0 }, "clip.queue_size"},
		{"empty date format", func(c *Config) { c.Output.DateFormat = "" }, "output.date_format"},
		{"odd bit depth", func(c *Config) { c.Output.BitDepth = 12 }, "output.bit_depth"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"zero stats interval", func(c *Config) { c.UI.StatsIntervalMs = 0 }, "ui.stats_interval_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if len(errs) != 1 {
				t.Fatalf("Validate() returned %d errors, want 1: %v", len(errs), errs)
			}
			if !strings.Contains(errs[0].Error(), tt.field) {
				t.Errorf("error %q does not mention %s", errs[0], tt.field)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `capture:
  device: "BlackHole 2ch"
  duration: 45
output:
  dir: /tmp/clips
  bit_depth: 24
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	SetDefaults()
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Capture.Device != "BlackHole 2ch" || cfg.Capture.Duration != 45 {
		t.Errorf("Capture = %+v", cfg.Capture)
	}
	if cfg.Output.ResolveDir() != "/tmp/clips" || cfg.Output.BitDepth != 24 {
		t.Errorf("Output = %+v", cfg.Output)
	}
	// Untouched keys keep their defaults
	if cfg.Trigger.PollIntervalMs != 100 || cfg.Clip.QueueSize != 8 {
		t.Errorf("defaults lost: %+v %+v", cfg.Trigger, cfg.Clip)
	}
}

func TestLoad_Invalid(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	SetDefaults()
	viper.Set("capture.duration", -1)
	viper.Set("output.bit_depth", 7)

	_, err := Load()
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Load() error = %v, want ValidationErrors", err)
	}
	if len(verrs) != 2 {
		t.Errorf("got %d validation errors, want 2", len(verrs))
	}
	if !strings.HasPrefix(err.Error(), "invalid configuration: ") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestResolvePaths(t *testing.T) {
	out := OutputConfig{}
	if got := out.ResolveDir(); filepath.Base(got) != "clipr" {
		t.Errorf("ResolveDir() = %q, want a clipr folder", got)
	}

	logs := LoggingConfig{}
	if got := logs.ResolveFile(false); got != "" {
		t.Errorf("ResolveFile(false) = %q, want stderr", got)
	}
	if got := logs.ResolveFile(true); got != filepath.Join(ConfigDir(), "clipr.log") {
		t.Errorf("ResolveFile(true) = %q", got)
	}
	logs.File = "/var/log/clipr.log"
	if got := logs.ResolveFile(true); got != "/var/log/clipr.log" {
		t.Errorf("ResolveFile with explicit file = %q", got)
	}

	if filepath.Base(ConfigFile()) != "config.yaml" {
		t.Errorf("ConfigFile() = %q", ConfigFile())
	}
}
