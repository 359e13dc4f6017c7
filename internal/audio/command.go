package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/jmylchreest/meditate/internal/model"
)

// CommandPlayer plays sounds by running an external program such as
// "mpv --no-resume-playback" with the sound path appended. Arguments are
// split on whitespace; quoting is not supported.
type CommandPlayer struct {
	logger *slog.Logger
	argv   []string

	// The bundled bell is written to a temp file on first use.
	bellOnce sync.Once
	bellPath string
	bellErr  error

	wg sync.WaitGroup
}

// NewCommandPlayer creates a player running command for each sound.
func NewCommandPlayer(command string, logger *slog.Logger) (*CommandPlayer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, errors.New("audio command is empty")
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("audio command %q not found: %w", argv[0], err)
	}

	return &CommandPlayer{logger: logger, argv: argv}, nil
}

// Play starts the command and returns without waiting for it.
func (c *CommandPlayer) Play(ref model.SoundRef) error {
	cmd, err := c.command(context.Background(), ref)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPlaybackFailure, ref.String(), err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := cmd.Wait(); err != nil {
			c.logger.Warn("audio command failed", "sound", ref.String(), "error", err)
		}
	}()
	return nil
}

// PlayAndWait runs the command to completion. The process is killed if ctx
// ends first.
func (c *CommandPlayer) PlayAndWait(ctx context.Context, ref model.SoundRef) error {
	cmd, err := c.command(ctx, ref)
	if err != nil {
		return err
	}
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %w", ErrPlaybackFailure, ref.String(), err)
	}
	return nil
}

// Preload materialises the bundled bell so the first Play does not pay for it.
func (c *CommandPlayer) Preload(ref model.SoundRef) error {
	_, err := c.resolve(ref)
	return err
}

// Close waits for running commands and removes the temporary bell file.
func (c *CommandPlayer) Close() {
	c.wg.Wait()
	if c.bellPath != "" {
		_ = os.Remove(c.bellPath)
	}
}

func (c *CommandPlayer) command(ctx context.Context, ref model.SoundRef) (*exec.Cmd, error) {
	path, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}

	args := append(append([]string{}, c.argv[1:]...), path)
	cmd := exec.CommandContext(ctx, c.argv[0], args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd, nil
}

// resolve returns a filesystem path for ref.
func (c *CommandPlayer) resolve(ref model.SoundRef) (string, error) {
	if !ref.IsBuiltin() {
		return ref.Path(), nil
	}

	c.bellOnce.Do(func() {
		f, err := os.CreateTemp("", "meditate-bell-*.wav")
		if err != nil {
			c.bellErr = err
			return
		}
		defer func() { _ = f.Close() }()

		if _, err := f.Write(bellWAV); err != nil {
			c.bellErr = err
			_ = os.Remove(f.Name())
			return
		}
		c.bellPath = f.Name()
	})

	if c.bellErr != nil {
		return "", fmt.Errorf("%w: failed to write bundled bell: %w", ErrPlaybackFailure, c.bellErr)
	}
	return c.bellPath, nil
}

// SilentPlayer discards every sound.
type SilentPlayer struct {
	logger *slog.Logger
}

// NewSilentPlayer creates a player that only logs what it would play.
func NewSilentPlayer(logger *slog.Logger) *SilentPlayer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SilentPlayer{logger: logger}
}

// Play logs and returns.
func (s *SilentPlayer) Play(ref model.SoundRef) error {
	s.logger.Debug("silent playback", "sound", ref.String())
	return nil
}

// PlayAndWait logs and returns.
func (s *SilentPlayer) PlayAndWait(_ context.Context, ref model.SoundRef) error {
	s.logger.Debug("silent playback", "sound", ref.String(), "wait", true)
	return nil
}

// Preload does nothing.
func (s *SilentPlayer) Preload(model.SoundRef) error { return nil }

// Close does nothing.
func (s *SilentPlayer) Close() {}
