package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/viper"

	"github.com/0xlemi/clipr/internal/logging"
	"github.com/0xlemi/clipr/internal/trigger"
)

const appName = "clipr"

// Config represents the complete clipr configuration
type Config struct {
	Capture CaptureConfig `mapstructure:"capture"`
	Trigger TriggerConfig `mapstructure:"trigger"`
	Clip    ClipConfig    `mapstructure:"clip"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
	UI      UIConfig      `mapstructure:"ui"`
}

// CaptureConfig controls the input device and the rolling window
type CaptureConfig struct {
	// Device is the exact device name; empty selects the default input
	Device string `mapstructure:"device"`
	// Duration is the rolling window length in seconds (default: 30)
	Duration int `mapstructure:"duration"`
	// Channels limits captured channels, 0 = every input channel of the device
	Channels int `mapstructure:"channels"`
	// FramesPerBuffer is the callback size requested from the device (default: 1024)
	FramesPerBuffer int `mapstructure:"frames_per_buffer"`
}

// TriggerConfig controls hotkey detection
type TriggerConfig struct {
	// Chord is the key combination that saves a clip, e.g. "ctrl+alt|option+s"
	Chord string `mapstructure:"chord"`
	// PollIntervalMs is how often held keys are checked (default: 100)
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
}

// ClipConfig controls extraction
type ClipConfig struct {
	// SilenceThreshold is the magnitude below which samples count as silence
	SilenceThreshold float64 `mapstructure:"silence_threshold"`
	// QueueSize is how many clips may wait for the writer (default: 8)
	QueueSize int `mapstructure:"queue_size"`
}

// OutputConfig controls where and how clips are written
type OutputConfig struct {
	// Dir is the output directory; empty uses <music dir>/clipr
	Dir string `mapstructure:"dir"`
	// DateFormat is the strftime pattern in filenames (default: "%Y%m%d_%H%M%S")
	DateFormat string `mapstructure:"date_format"`
	// BitDepth forces integer PCM output at 16, 24 or 32 bits; 0 writes the
	// captured stream format unchanged (default: 0)
	BitDepth int `mapstructure:"bit_depth"`
}

// LoggingConfig controls the log output
type LoggingConfig struct {
	// Level is debug, info, warn or error (default: "info")
	Level string `mapstructure:"level"`
	// File is the log file; empty logs to the config dir while the UI runs and to stderr otherwise
	File string `mapstructure:"file"`
	// MaxSizeMB is the size at which the log file rotates (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is how many rotated files are kept (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// UIConfig controls the terminal status view
type UIConfig struct {
	// Enabled shows the status view instead of plain log output (default: true)
	Enabled bool `mapstructure:"enabled"`
	// StatsIntervalMs is how often capture counters are refreshed (default: 500)
	StatsIntervalMs int `mapstructure:"stats_interval_ms"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			Device:          "",
			Duration:        30,
			Channels:        0,
			FramesPerBuffer: 1024,
		},
		Trigger: TriggerConfig{
			Chord:          "ctrl+alt|option+s",
			PollIntervalMs: 100,
		},
		Clip: ClipConfig{
			SilenceThreshold: 1e-6,
			QueueSize:        8,
		},
		Output: OutputConfig{
			Dir:        "",
			DateFormat: "%Y%m%d_%H%M%S",
			BitDepth:   0,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		UI: UIConfig{
			Enabled:         true,
			StatsIntervalMs: 500,
		},
	}
}

// Window returns the rolling window length
func (c *CaptureConfig) Window() time.Duration {
	return time.Duration(c.Duration) * time.Second
}

// PollInterval returns the key polling interval
func (c *TriggerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// StatsInterval returns the counter refresh interval
func (c *UIConfig) StatsInterval() time.Duration {
	return time.Duration(c.StatsIntervalMs) * time.Millisecond
}

// ResolveDir returns the output directory, falling back to <music dir>/clipr
func (c *OutputConfig) ResolveDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	return filepath.Join(xdg.UserDirs.Music, appName)
}

// ResolveFile returns the log file path. With the UI on, logs go to the
// config dir so they do not draw over the view.
func (c *LoggingConfig) ResolveFile(uiEnabled bool) string {
	if c.File != "" || !uiEnabled {
		return c.File
	}
	return filepath.Join(ConfigDir(), appName+".log")
}

// Validate checks the configuration and returns every problem found
func (c *Config) Validate() []error {
	var errs []error

	if c.Capture.Duration <= 0 {
		errs = append(errs, fmt.Errorf("capture.duration must be positive, got %d", c.Capture.Duration))
	}
	if c.Capture.Channels < 0 {
		errs = append(errs, fmt.Errorf("capture.channels must not be negative, got %d", c.Capture.Channels))
	}
	if c.Capture.FramesPerBuffer < 0 {
		errs = append(errs, fmt.Errorf("capture.frames_per_buffer must not be negative, got %d", c.Capture.FramesPerBuffer))
	}
	if _, err := trigger.ParseChord(c.Trigger.Chord); err != nil {
		errs = append(errs, fmt.Errorf("trigger.chord: %w", err))
	}
	if c.Trigger.PollIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("trigger.poll_interval_ms must be positive, got %d", c.Trigger.PollIntervalMs))
	}
	if c.Clip.SilenceThreshold <= 0 || c.Clip.SilenceThreshold >= 1 {
		errs = append(errs, fmt.Errorf("clip.silence_threshold must be in (0, 1), got %g", c.Clip.SilenceThreshold))
	}
	if c.Clip.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("clip.queue_size must be positive, got %d", c.Clip.QueueSize))
	}
	if _, err := strftime.New(c.Output.DateFormat); err != nil || c.Output.DateFormat == "" {
		errs = append(errs, fmt.Errorf("output.date_format %q is not a valid strftime pattern", c.Output.DateFormat))
	}
	switch c.Output.BitDepth {
	case 0, 16, 24, 32:
	default:
		errs = append(errs, fmt.Errorf("output.bit_depth must be 0, 16, 24 or 32, got %d", c.Output.BitDepth))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.UI.StatsIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("ui.stats_interval_ms must be positive, got %d", c.UI.StatsIntervalMs))
	}

	return errs
}

// ValidationErrors joins several validation failures into one error
type ValidationErrors []error

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, err := range v {
		msgs[i] = err.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// SetDefaults registers every default with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("capture.device", defaults.Capture.Device)
	viper.SetDefault("capture.duration", defaults.Capture.Duration)
	viper.SetDefault("capture.channels", defaults.Capture.Channels)
	viper.SetDefault("capture.frames_per_buffer", defaults.Capture.FramesPerBuffer)

	viper.SetDefault("trigger.chord", defaults.Trigger.Chord)
	viper.SetDefault("trigger.poll_interval_ms", defaults.Trigger.PollIntervalMs)

	viper.SetDefault("clip.silence_threshold", defaults.Clip.SilenceThreshold)
	viper.SetDefault("clip.queue_size", defaults.Clip.QueueSize)

	viper.SetDefault("output.dir", defaults.Output.Dir)
	viper.SetDefault("output.date_format", defaults.Output.DateFormat)
	viper.SetDefault("output.bit_depth", defaults.Output.BitDepth)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	viper.SetDefault("ui.enabled", defaults.UI.Enabled)
	viper.SetDefault("ui.stats_interval_ms", defaults.UI.StatsIntervalMs)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
