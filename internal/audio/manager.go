package audio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/meditate/internal/config"
	"github.com/jmylchreest/meditate/internal/model"
)

// Backend plays sounds.
type Backend interface {
	Play(ref model.SoundRef) error
	PlayAndWait(ctx context.Context, ref model.SoundRef) error
	Preload(ref model.SoundRef) error
	Close()
}

// Manager owns the configured backend and, for the beep backend, the file
// watcher keeping its cache fresh.
type Manager struct {
	logger  *slog.Logger
	backend Backend
	watcher *Watcher
	config  config.AudioConfig
}

// NewManager creates the backend selected by cfg.
func NewManager(cfg config.AudioConfig, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{logger: logger, config: cfg}

	switch cfg.Backend {
	case "", config.BackendBeep:
		volume := cfg.VolumePercent()
		if volume == 0 {
			logger.Debug("volume is 0, using silent backend")
			m.backend = NewSilentPlayer(logger)
			break
		}
		player := NewPlayer(logger)
		// config uses 0-100, player uses 0.0-1.0
		player.SetVolume(float64(volume) / 100.0)
		m.backend = player
		if cfg.WatchEnabled() {
			m.watcher = NewWatcher(player, logger)
		}
	case config.BackendCommand:
		player, err := NewCommandPlayer(cfg.Command, logger)
		if err != nil {
			logger.Warn("audio command unavailable, continuing without sound", "command", cfg.Command, "error", err)
			m.backend = NewSilentPlayer(logger)
			break
		}
		m.backend = player
	case config.BackendSilent:
		m.backend = NewSilentPlayer(logger)
	default:
		return nil, fmt.Errorf("unknown audio backend %q (want %s, %s or %s)",
			cfg.Backend, config.BackendBeep, config.BackendCommand, config.BackendSilent)
	}

	return m, nil
}

// NewManagerWithBackend wraps an existing backend.
func NewManagerWithBackend(backend Backend, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger, backend: backend}
}

// Start preloads the given sounds and starts the file watcher if enabled.
// Preload failures are logged; the sound is retried on first play.
func (m *Manager) Start(ctx context.Context, sounds ...model.SoundRef) error {
	for _, ref := range sounds {
		if err := m.backend.Preload(ref); err != nil {
			m.logger.Warn("failed to preload sound", "sound", ref.String(), "error", err)
		}
		if m.watcher != nil && !ref.IsBuiltin() {
			m.watcher.Watch(ref.Path())
		}
	}

	if m.watcher != nil {
		if err := m.watcher.Start(ctx); err != nil {
			return err
		}
	}

	m.logger.Debug("audio manager started", "backend", m.config.Backend, "sounds", len(sounds))
	return nil
}

// Stop shuts down the watcher and the backend.
func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Stop()
	}
	m.backend.Close()
	m.logger.Debug("audio manager stopped")
}

// Play triggers a sound without waiting for it.
func (m *Manager) Play(ref model.SoundRef) error {
	return m.backend.Play(ref)
}

// PlayAndWait plays a sound and waits for it to finish.
func (m *Manager) PlayAndWait(ctx context.Context, ref model.SoundRef) error {
	return m.backend.PlayAndWait(ctx, ref)
}
