// Package config handles configuration file loading and parsing.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/meditate/internal/core"
	"github.com/jmylchreest/meditate/internal/model"
)

// Default configuration values.
const (
	DefaultSessionDuration  = "1200s"
	DefaultIntervalDuration = "400s"
	DefaultClosingBellGap   = "5s"
	DefaultBackend          = BackendBeep
	DefaultVolume           = 100
	DefaultCommand          = "mpv --no-resume-playback --really-quiet"
	DefaultOutput           = "plain"
)

// Audio backends.
const (
	BackendBeep    = "beep"
	BackendCommand = "command"
	BackendSilent  = "silent"
)

// Duration is a duration as typed by the user: a pattern like "20m" or a
// bare number of seconds. The empty string means unset.
type Duration string

// UnmarshalJSON accepts both JSON strings and numbers.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = Duration(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid duration %s: must be a string like \"20m\" or a number of seconds", data)
	}
	*d = Duration(n.String())
	return nil
}

// UnmarshalYAML accepts any scalar.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("invalid duration at line %d: must be a scalar", value.Line)
	}
	*d = Duration(value.Value)
	return nil
}

// Seconds parses the duration into seconds.
func (d Duration) Seconds() (float64, error) {
	return core.ParseSeconds(string(d))
}

// Config represents the meditate configuration file.
type Config struct {
	SessionDuration    Duration      `toml:"session_duration" json:"session_duration" yaml:"session_duration" env:"SESSION_DURATION"`
	IntervalDuration   Duration      `toml:"interval_duration" json:"interval_duration" yaml:"interval_duration" env:"INTERVAL_DURATION"`
	StartStopSoundPath string        `toml:"start_stop_sound_path" json:"start_stop_sound_path" yaml:"start_stop_sound_path" env:"START_STOP_SOUND_PATH"`
	IntervalSoundPath  string        `toml:"interval_sound_path" json:"interval_sound_path" yaml:"interval_sound_path" env:"INTERVAL_SOUND_PATH"`
	ClosingBells       int           `toml:"closing_bells" json:"closing_bells" yaml:"closing_bells" env:"CLOSING_BELLS"`
	ClosingBellGap     Duration      `toml:"closing_bell_gap" json:"closing_bell_gap" yaml:"closing_bell_gap" env:"CLOSING_BELL_GAP"`
	Output             string        `toml:"output" json:"output" yaml:"output" env:"OUTPUT"` // plain, json
	Audio              AudioConfig   `toml:"audio" json:"audio" yaml:"audio" envPrefix:"AUDIO_"`
	Notify             NotifyConfig  `toml:"notify" json:"notify" yaml:"notify" envPrefix:"NOTIFY_"`
	History            HistoryConfig `toml:"history" json:"history" yaml:"history" envPrefix:"HISTORY_"`
}

// AudioConfig contains audio settings.
// Pointer fields distinguish an explicit false or 0 from unset, so any layer
// can switch a setting off.
type AudioConfig struct {
	Backend string `toml:"backend" json:"backend" yaml:"backend" env:"BACKEND"` // beep, command, silent
	Volume  *int   `toml:"volume" json:"volume" yaml:"volume" env:"VOLUME"`     // 0-100, 0 is silent
	Command string `toml:"command" json:"command" yaml:"command" env:"COMMAND"` // used by the command backend
	Watch   *bool  `toml:"watch" json:"watch" yaml:"watch" env:"WATCH"`         // re-read sound files changed on disk
}

// VolumePercent returns the volume clamped to 0-100, DefaultVolume when unset.
func (a AudioConfig) VolumePercent() int {
	if a.Volume == nil {
		return DefaultVolume
	}
	return min(max(*a.Volume, 0), 100)
}

// WatchEnabled reports whether sound files are watched for changes.
func (a AudioConfig) WatchEnabled() bool {
	return a.Watch != nil && *a.Watch
}

// NotifyConfig contains desktop notification settings.
type NotifyConfig struct {
	Enabled *bool `toml:"enabled" json:"enabled" yaml:"enabled" env:"ENABLED"`
}

// IsEnabled reports whether desktop notifications are sent.
func (n NotifyConfig) IsEnabled() bool {
	return n.Enabled != nil && *n.Enabled
}

// HistoryConfig contains session journal settings.
type HistoryConfig struct {
	Disabled *bool  `toml:"disabled" json:"disabled" yaml:"disabled" env:"DISABLED"`
	Path     string `toml:"path" json:"path" yaml:"path" env:"PATH"` // default: ~/.local/share/meditate/history.jsonl
}

// IsDisabled reports whether finished sessions are left out of the journal.
func (h HistoryConfig) IsDisabled() bool {
	return h.Disabled != nil && *h.Disabled
}

// Ptr returns a pointer to v, for setting optional fields.
func Ptr[T any](v T) *T {
	return &v
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		SessionDuration:    DefaultSessionDuration,
		IntervalDuration:   DefaultIntervalDuration,
		StartStopSoundPath: model.BuiltinBell,
		IntervalSoundPath:  model.BuiltinBell,
		ClosingBells:       model.DefaultClosingBells,
		ClosingBellGap:     DefaultClosingBellGap,
		Output:             DefaultOutput,
		Audio: AudioConfig{
			Backend: DefaultBackend,
			Volume:  Ptr(DefaultVolume),
			Command: DefaultCommand,
			Watch:   Ptr(false),
		},
		Notify:  NotifyConfig{Enabled: Ptr(false)},
		History: HistoryConfig{Disabled: Ptr(false)},
	}
}

// configHome returns $XDG_CONFIG_HOME/meditate, falling back to ~/.config.
func configHome() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "meditate")
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	return filepath.Join(configHome(), "config.toml")
}

// LegacyConfigPath returns the path of the older JSON config file.
func LegacyConfigPath() string {
	return filepath.Join(configHome(), "meditate.json")
}

// DefaultPath returns the config file to read when none is given: the TOML
// file, or the legacy JSON file when only that one exists.
func DefaultPath() string {
	path := ConfigPath()
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if legacy := LegacyConfigPath(); legacy != "" {
		if _, err := os.Stat(legacy); err == nil {
			return legacy
		}
	}
	return path
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// decode unmarshals data into cfg based on the file extension.
func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return toml.Unmarshal(data, cfg)
	}
}

// Save writes the configuration to the specified path as TOML.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := c.Encode()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Resolve parses durations and sound paths and returns the validated
// session configuration.
func (c *Config) Resolve() (*model.Configuration, error) {
	interval, err := c.IntervalDuration.Seconds()
	if err != nil {
		return nil, fmt.Errorf("interval duration: %w", err)
	}
	session, err := c.SessionDuration.Seconds()
	if err != nil {
		return nil, fmt.Errorf("session duration: %w", err)
	}

	params := model.ConfigurationParams{
		IntervalDuration: core.ToDuration(interval),
		SessionDuration:  core.ToDuration(session),
		ClosingBells:     c.ClosingBells,
	}

	if c.ClosingBellGap != "" {
		gap, err := c.ClosingBellGap.Seconds()
		if err != nil {
			return nil, fmt.Errorf("closing bell gap: %w", err)
		}
		d := core.ToDuration(gap)
		params.ClosingBellGap = &d
	}

	if params.StartStopSound, err = model.NewSoundRef(c.StartStopSoundPath); err != nil {
		return nil, err
	}
	if params.IntervalSound, err = model.NewSoundRef(c.IntervalSoundPath); err != nil {
		return nil, err
	}

	return model.NewConfiguration(params)
}
