package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/meditate/internal/core"
	"github.com/jmylchreest/meditate/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, Duration("1200s"), cfg.SessionDuration)
	assert.Equal(t, Duration("400s"), cfg.IntervalDuration)
	assert.Equal(t, model.BuiltinBell, cfg.StartStopSoundPath)
	assert.Equal(t, model.BuiltinBell, cfg.IntervalSoundPath)
	assert.Equal(t, 1, cfg.ClosingBells)
	assert.Equal(t, "plain", cfg.Output)
	assert.Equal(t, BackendBeep, cfg.Audio.Backend)
	assert.Equal(t, 100, cfg.Audio.VolumePercent())
	assert.NotEmpty(t, cfg.Audio.Command)
	assert.False(t, cfg.Notify.IsEnabled())
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
session_duration = "30m"
interval_duration = "10m"
start_stop_sound_path = "~/bells/start.wav"
interval_sound_path = "/usr/share/sounds/tick.ogg"
closing_bells = 3
closing_bell_gap = "5"
output = "json"

[audio]
backend = "command"
volume = 40
command = "paplay"
watch = true

[notify]
enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, Duration("30m"), cfg.SessionDuration)
	assert.Equal(t, Duration("10m"), cfg.IntervalDuration)
	assert.Equal(t, "~/bells/start.wav", cfg.StartStopSoundPath)
	assert.Equal(t, "/usr/share/sounds/tick.ogg", cfg.IntervalSoundPath)
	assert.Equal(t, 3, cfg.ClosingBells)
	assert.Equal(t, Duration("5"), cfg.ClosingBellGap)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "command", cfg.Audio.Backend)
	assert.Equal(t, 40, cfg.Audio.VolumePercent())
	assert.Equal(t, "paplay", cfg.Audio.Command)
	assert.True(t, cfg.Audio.WatchEnabled())
	assert.True(t, cfg.Notify.IsEnabled())
}

func TestLoadConfig_ParsesLegacyJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meditate.json")

	content := `{"interval_duration": 300, "session_duration": "1h", "interval_sound_path": "/tmp/x.wav"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Duration("300"), cfg.IntervalDuration)
	assert.Equal(t, Duration("1h"), cfg.SessionDuration)
	assert.Equal(t, "/tmp/x.wav", cfg.IntervalSoundPath)
	assert.Equal(t, model.BuiltinBell, cfg.StartStopSoundPath)
}

func TestLoadConfig_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := "session_duration: 900\ninterval_duration: 5m\naudio:\n  volume: 70\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Duration("900"), cfg.SessionDuration)
	assert.Equal(t, Duration("5m"), cfg.IntervalDuration)
	assert.Equal(t, 70, cfg.Audio.VolumePercent())
	assert.Equal(t, BackendBeep, cfg.Audio.Backend)
}

func TestLoadConfig_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
interval_duration = "1m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, Duration("1m"), cfg.IntervalDuration)
	assert.Equal(t, Duration(DefaultSessionDuration), cfg.SessionDuration)
	assert.Equal(t, DefaultVolume, cfg.Audio.VolumePercent())
}

func TestLoadConfig_InvalidFiles(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "config.toml", `this is not valid toml [`},
		{"json", "meditate.json", `{"interval_duration": [1]}`},
		{"yaml", "config.yml", "interval_duration: [1, 2]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestConfig_Save(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.toml")

	cfg := DefaultConfig()
	cfg.SessionDuration = "45m"
	cfg.Audio.Volume = Ptr(55)

	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Duration("45m"), loaded.SessionDuration)
	assert.Equal(t, 55, loaded.Audio.VolumePercent())
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/meditate/config.toml", ConfigPath())
	assert.Equal(t, "/custom/config/meditate/meditate.json", LegacyConfigPath())
}

func TestConfigPathDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Contains(t, ConfigPath(), filepath.Join(".config", "meditate", "config.toml"))
}

func TestDefaultPath_PrefersTOMLThenLegacy(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "meditate"), 0755))

	assert.Equal(t, ConfigPath(), DefaultPath())

	require.NoError(t, os.WriteFile(LegacyConfigPath(), []byte(`{}`), 0644))
	assert.Equal(t, LegacyConfigPath(), DefaultPath())

	require.NoError(t, os.WriteFile(ConfigPath(), []byte(``), 0644))
	assert.Equal(t, ConfigPath(), DefaultPath())
}

func TestConfig_Resolve(t *testing.T) {
	sound := filepath.Join(t.TempDir(), "bell.wav")
	require.NoError(t, os.WriteFile(sound, []byte("RIFF"), 0644))

	cfg := DefaultConfig()
	cfg.SessionDuration = "1000"
	cfg.IntervalDuration = "5m"
	cfg.IntervalSoundPath = sound
	cfg.ClosingBells = 3
	cfg.ClosingBellGap = "2s"

	resolved, err := cfg.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 1000*time.Second, resolved.SessionDuration())
	assert.Equal(t, 5*time.Minute, resolved.IntervalDuration())
	assert.True(t, resolved.StartStopSound().IsBuiltin())
	assert.Equal(t, sound, resolved.IntervalSound().Path())
	assert.Equal(t, 3, resolved.ClosingBells())
	assert.Equal(t, 2*time.Second, resolved.ClosingBellGap())
}

func TestConfig_ResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"bad session", func(c *Config) { c.SessionDuration = "5s2h" }, core.ErrInvalidDurationFormat},
		{"bad interval", func(c *Config) { c.IntervalDuration = "" }, core.ErrInvalidDurationFormat},
		{"bad gap", func(c *Config) { c.ClosingBellGap = "soon" }, core.ErrInvalidDurationFormat},
		{"zero interval", func(c *Config) { c.IntervalDuration = "0s" }, model.ErrInvalidConfiguration},
		{"missing sound", func(c *Config) { c.StartStopSoundPath = "/nonexistent/bell.wav" }, model.ErrSoundFileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			_, err := cfg.Resolve()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
