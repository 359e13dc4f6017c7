package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/meditate/internal/adapter/output"
	"github.com/jmylchreest/meditate/internal/dbus"
	"github.com/jmylchreest/meditate/internal/model"
	"github.com/jmylchreest/meditate/internal/session"
	"github.com/jmylchreest/meditate/internal/tui"
)

// tuiEventBuffer bounds the events queued for the progress view.
const tuiEventBuffer = 64

func runSession(cmd *cobra.Command, args []string) error {
	// Validate everything before a single sound plays
	sessionCfg, err := cfg.Resolve()
	if err != nil {
		return err
	}

	var formatter output.Formatter
	if !sessionOpts.tui {
		formatter, err = output.NewFormatter(output.FormatType(cfg.Output), output.DefaultFormatterOptions())
		if err != nil {
			return err
		}
	}

	manager, err := newAudioManager()
	if err != nil {
		return err
	}
	defer manager.Stop()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if err := manager.Start(ctx, sessionCfg.StartStopSound(), sessionCfg.IntervalSound()); err != nil {
		logger.Warn("failed to start sound file watcher", "error", err)
	}

	opts := []session.Option{session.WithLogger(logger)}
	if formatter != nil {
		opts = append(opts, session.WithObserver(output.Observer(os.Stdout, formatter, logger)))
	}

	if cfg.Notify.IsEnabled() {
		notifier, err := dbus.NewNotifier(logger)
		if err != nil {
			logger.Warn("desktop notifications unavailable", "error", err)
		} else {
			defer func() { _ = notifier.Close() }()
			opts = append(opts, session.WithObserver(notifier.Observer()))
		}
	}

	if !cfg.History.IsDisabled() {
		journal, err := openJournal()
		if err != nil {
			logger.Warn("session history unavailable", "error", err)
		} else {
			plan := session.NewPlan(sessionCfg.SessionDuration(), sessionCfg.IntervalDuration())
			opts = append(opts, session.WithObserver(journal.Recorder(plan)))
		}
	}

	logger.Debug("starting session",
		"session", sessionCfg.SessionDuration(),
		"interval", sessionCfg.IntervalDuration(),
		"backend", cfg.Audio.Backend)

	if sessionOpts.tui {
		return runWithTUI(ctx, sessionCfg, manager, opts)
	}

	s := session.New(sessionCfg, manager, opts...)
	return s.Run(ctx)
}

// runWithTUI runs the session in the background while the progress view
// owns the terminal. Quitting the view cancels the session; the view stays
// up until the closing bell has played.
func runWithTUI(parent context.Context, sessionCfg *model.Configuration, player session.Player, opts []session.Option) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	events := make(chan session.Event, tuiEventBuffer)
	opts = append(opts, session.WithObserver(tui.ChannelObserver(events)))
	s := session.New(sessionCfg, player, opts...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
		close(events)
	}()

	if err := tui.Run(context.WithoutCancel(ctx), tui.New(s.Plan(), events, cancel)); err != nil {
		logger.Warn("progress view failed, session continues", "error", err)
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("session %s: %w", s.ID(), err)
	}
	return nil
}
