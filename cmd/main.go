package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/0xlemi/clipr/internal/audio"
	"github.com/0xlemi/clipr/internal/config"
	"github.com/0xlemi/clipr/internal/logging"
	"github.com/0xlemi/clipr/internal/persist"
	"github.com/0xlemi/clipr/internal/recorder"
	"github.com/0xlemi/clipr/internal/trigger"
	"github.com/0xlemi/clipr/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "clipr",
	Short: "Save the last few seconds of audio with a hotkey",
	Long: `clipr keeps a rolling window of recent audio from an input device in
memory. Pressing the hotkey writes that window, with leading and trailing
silence removed, to recorded_<timestamp>.wav in the output directory.`,
	SilenceUsage: true,
	RunE:         runRecord,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $XDG_CONFIG_HOME/clipr/config.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))

	local := rootCmd.Flags()
	local.IntP("duration", "d", 0, "seconds of audio to keep (default 30)")
	local.StringP("date-format", "f", "", "strftime pattern for filenames (default \"%Y%m%d_%H%M%S\")")
	local.String("device", "", "input device name (default: system default input)")
	local.StringP("output-dir", "o", "", "directory for saved clips (default: <music dir>/clipr)")
	local.String("chord", "", "hotkey chord, e.g. \"ctrl+alt|option+s\"")
	local.Bool("no-ui", false, "log to stderr instead of showing the status view")

	_ = viper.BindPFlag("capture.duration", local.Lookup("duration"))
	_ = viper.BindPFlag("output.date_format", local.Lookup("date-format"))
	_ = viper.BindPFlag("capture.device", local.Lookup("device"))
	_ = viper.BindPFlag("output.dir", local.Lookup("output-dir"))
	_ = viper.BindPFlag("trigger.chord", local.Lookup("chord"))

	rootCmd.AddCommand(devicesCmd)
}

func initConfig() {
	// Defaults first so they apply without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	// e.g. CLIPR_CAPTURE_DURATION for capture.duration
	viper.AutomaticEnv()
	viper.SetEnvPrefix("CLIPR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine
	_ = viper.ReadInConfig()
}

func runRecord(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if _, err := logging.Init(logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.ResolveFile(cfg.UI.Enabled),
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}); err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer logging.Sync()

	outDir := cfg.Output.ResolveDir()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	device, err := audio.OpenPortAudio(cfg.Capture.Device, cfg.Capture.Channels, cfg.Capture.FramesPerBuffer)
	if err != nil {
		return fmt.Errorf("open input device: %w", err)
	}
	defer func() {
		if err := device.Close(); err != nil {
			logging.Warnw("release audio device", "error", err)
		}
	}()
	fmt.Printf("Using device: %s (%s)\n", device.Name(), device.Format())

	encoder, err := persist.NewWAVEncoder(cfg.Output.BitDepth)
	if err != nil {
		return err
	}
	namer, err := persist.NewNamer(outDir, cfg.Output.DateFormat, encoder.Extension())
	if err != nil {
		return err
	}
	chord, err := trigger.ParseChord(cfg.Trigger.Chord)
	if err != nil {
		return err
	}

	keys := trigger.StartHookKeys()
	defer keys.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := recorder.Options{
		Window:           cfg.Capture.Window(),
		Chord:            chord,
		PollInterval:     cfg.Trigger.PollInterval(),
		Keys:             keys,
		SilenceThreshold: cfg.Clip.SilenceThreshold,
		QueueSize:        cfg.Clip.QueueSize,
		Namer:            namer,
		Encoder:          encoder,
		StatsInterval:    cfg.UI.StatsInterval(),
	}

	if !cfg.UI.Enabled {
		rec, err := recorder.New(device, opts)
		if err != nil {
			return err
		}
		fmt.Printf("Recording the last %v. Press %s to save, Ctrl+C to quit.\n", cfg.Capture.Window(), chord)
		return rec.Run(ctx)
	}

	return runWithUI(ctx, device, opts, ui.Session{
		Device:    device.Name(),
		Format:    device.Format().String(),
		Window:    cfg.Capture.Window(),
		Chord:     chord.String(),
		OutputDir: outDir,
	})
}

// runWithUI runs the recorder behind the status view. Quitting the view stops
// the recorder and a failing recorder closes the view.
func runWithUI(ctx context.Context, device audio.Device, opts recorder.Options, session ui.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(ui.NewModel(session), tea.WithAltScreen(), tea.WithContext(ctx))
	relay := ui.NewRelay(p, ui.DefaultRelaySize)
	opts.Notify = relay.Notify
	go relay.Run(ctx)

	rec, err := recorder.New(device, opts)
	if err != nil {
		return err
	}

	recErr := make(chan error, 1)
	go func() {
		err := rec.Run(ctx)
		cancel()
		recErr <- err
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		cancel()
		<-recErr
		return fmt.Errorf("status view: %w", err)
	}
	cancel()
	return <-recErr
}

// loadConfig applies flags that need more than a viper binding and loads
// the configuration
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
		viper.Set("ui.enabled", false)
	}
	return config.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
