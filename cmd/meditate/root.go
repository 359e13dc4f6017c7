package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/meditate/internal/audio"
	"github.com/jmylchreest/meditate/internal/config"
	"github.com/jmylchreest/meditate/internal/core"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitCancelled = 130
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		debug      bool
		configPath string
	}
	sessionOpts struct {
		sessionDuration  string
		intervalDuration string
		startStopSound   string
		intervalSound    string
		closingBells     int
		output           string
		tui              bool
		notify           bool
		silent           bool
		noHistory        bool
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "meditate",
	Short: "Meditation timer with interval bells",
	Long: `meditate is a meditation timer for the terminal.

It rings a bell to start, rings an interval bell after every whole interval,
lets a trailing partial interval run out silently and closes the session
with a final bell. Interrupting a session still rings the closing bell.

Durations accept patterns like ` + core.DurationExamples + `
or a bare number of seconds.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Flags parsed fine; later errors are not usage errors
		cmd.SilenceUsage = true
		setupLogger()

		var err error
		cfg, err = config.NewBuilder(logger).
			WithFile(globalOpts.configPath).
			WithEnv().
			WithOverrides(flagOverrides(cmd)).
			Build()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	RunE: runSession,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitCancelled
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitError
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.debug, "debug", false,
		"Enable debug logging with source locations")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/meditate/config.toml)")

	// Session flags
	f := rootCmd.Flags()
	f.StringVarP(&sessionOpts.sessionDuration, "session-duration", "s", "",
		"Total session length, e.g. 20m or 1200 (default 1200s)")
	f.StringVarP(&sessionOpts.intervalDuration, "interval-duration", "i", "",
		"Interval length, e.g. 5m or 300 (default 400s)")
	f.StringVar(&sessionOpts.startStopSound, "start-stop-sound", "",
		"Sound file played at the start and end (default: bundled bell)")
	f.StringVar(&sessionOpts.intervalSound, "interval-sound", "",
		"Sound file played between intervals (default: bundled bell)")
	f.IntVar(&sessionOpts.closingBells, "closing-bells", 0,
		"Number of bells rung at the end (default 1)")
	f.StringVarP(&sessionOpts.output, "output", "o", "",
		"Progress output format (plain, json)")
	f.BoolVar(&sessionOpts.tui, "tui", false,
		"Show a live progress view")
	f.BoolVar(&sessionOpts.notify, "notify", false,
		"Send desktop notifications")
	f.BoolVar(&sessionOpts.silent, "silent", false,
		"Do not play any sound")
	f.BoolVar(&sessionOpts.noHistory, "no-history", false,
		"Do not record the session in the history journal")
}

// flagOverrides collects the session flags the user set explicitly.
// Flags not defined on cmd are never reported as changed.
func flagOverrides(cmd *cobra.Command) *config.Config {
	f := cmd.Flags()
	o := &config.Config{}

	if f.Changed("session-duration") {
		o.SessionDuration = config.Duration(sessionOpts.sessionDuration)
	}
	if f.Changed("interval-duration") {
		o.IntervalDuration = config.Duration(sessionOpts.intervalDuration)
	}
	if f.Changed("start-stop-sound") {
		o.StartStopSoundPath = sessionOpts.startStopSound
	}
	if f.Changed("interval-sound") {
		o.IntervalSoundPath = sessionOpts.intervalSound
	}
	if f.Changed("closing-bells") {
		o.ClosingBells = sessionOpts.closingBells
	}
	if f.Changed("output") {
		o.Output = sessionOpts.output
	}
	if f.Changed("notify") {
		o.Notify.Enabled = config.Ptr(sessionOpts.notify)
	}
	if sessionOpts.silent {
		o.Audio.Backend = config.BackendSilent
	}
	if f.Changed("no-history") {
		o.History.Disabled = config.Ptr(sessionOpts.noHistory)
	}
	return o
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose || globalOpts.debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: globalOpts.debug,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM. After the
// first signal the default handlers are restored, so a second one kills the
// process while the closing bell is still playing.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}

// newAudioManager creates the audio manager for the loaded configuration.
func newAudioManager() (*audio.Manager, error) {
	manager, err := audio.NewManager(cfg.Audio, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio: %w", err)
	}
	return manager, nil
}
