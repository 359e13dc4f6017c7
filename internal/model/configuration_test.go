package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSound(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bell.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0644))
	return path
}

func TestNewSoundRef(t *testing.T) {
	ref, err := NewSoundRef("")
	require.NoError(t, err)
	assert.True(t, ref.IsBuiltin())
	assert.Equal(t, BuiltinBell, ref.String())

	ref, err = NewSoundRef(BuiltinBell)
	require.NoError(t, err)
	assert.True(t, ref.IsBuiltin())

	ref, err = NewSoundRef("/tmp/bell.wav")
	require.NoError(t, err)
	assert.False(t, ref.IsBuiltin())
	assert.Equal(t, "/tmp/bell.wav", ref.Path())
}

func TestNewSoundRef_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	ref, err := NewSoundRef("~/sounds/bell.wav")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "sounds", "bell.wav"), ref.Path())
}

func TestNewSoundRef_MakesAbsolute(t *testing.T) {
	ref, err := NewSoundRef("bell.wav")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(ref.Path()))
}

func TestNewConfiguration(t *testing.T) {
	path := writeSound(t)
	sound, err := NewSoundRef(path)
	require.NoError(t, err)

	cfg, err := NewConfiguration(ConfigurationParams{
		IntervalDuration: 400 * time.Second,
		SessionDuration:  1200 * time.Second,
		StartStopSound:   sound,
	})
	require.NoError(t, err)

	assert.Equal(t, 400*time.Second, cfg.IntervalDuration())
	assert.Equal(t, 1200*time.Second, cfg.SessionDuration())
	assert.Equal(t, path, cfg.StartStopSound().Path())
	assert.True(t, cfg.IntervalSound().IsBuiltin())
	assert.Equal(t, DefaultClosingBells, cfg.ClosingBells())
	assert.Equal(t, DefaultClosingBellGap, cfg.ClosingBellGap())
	assert.Contains(t, cfg.String(), "interval=6m40s")
}

func TestNewConfiguration_ClosingBells(t *testing.T) {
	gap := time.Duration(0)
	cfg, err := NewConfiguration(ConfigurationParams{
		IntervalDuration: time.Second,
		ClosingBells:     3,
		ClosingBellGap:   &gap,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.ClosingBells())
	assert.Equal(t, time.Duration(0), cfg.ClosingBellGap())
}

func TestNewConfiguration_Validation(t *testing.T) {
	missing, err := NewSoundRef(filepath.Join(t.TempDir(), "missing.wav"))
	require.NoError(t, err)
	dir, err := NewSoundRef(t.TempDir())
	require.NoError(t, err)
	negative := -time.Second

	tests := []struct {
		name    string
		params  ConfigurationParams
		wantErr error
	}{
		{
			name:    "zero interval",
			params:  ConfigurationParams{SessionDuration: time.Minute},
			wantErr: ErrInvalidConfiguration,
		},
		{
			name:    "negative session",
			params:  ConfigurationParams{IntervalDuration: time.Minute, SessionDuration: -time.Second},
			wantErr: ErrInvalidConfiguration,
		},
		{
			name:    "negative closing bells",
			params:  ConfigurationParams{IntervalDuration: time.Minute, ClosingBells: -1},
			wantErr: ErrInvalidConfiguration,
		},
		{
			name:    "negative gap",
			params:  ConfigurationParams{IntervalDuration: time.Minute, ClosingBellGap: &negative},
			wantErr: ErrInvalidConfiguration,
		},
		{
			name:    "missing start sound",
			params:  ConfigurationParams{IntervalDuration: time.Minute, StartStopSound: missing},
			wantErr: ErrSoundFileNotFound,
		},
		{
			name:    "missing interval sound",
			params:  ConfigurationParams{IntervalDuration: time.Minute, IntervalSound: missing},
			wantErr: ErrSoundFileNotFound,
		},
		{
			name:    "directory as sound",
			params:  ConfigurationParams{IntervalDuration: time.Minute, IntervalSound: dir},
			wantErr: ErrSoundFileNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewConfiguration(tt.params)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewConfiguration_ZeroSessionAllowed(t *testing.T) {
	cfg, err := NewConfiguration(ConfigurationParams{IntervalDuration: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.SessionDuration())
}

func TestNewSessionID(t *testing.T) {
	id, err := NewSessionID()
	require.NoError(t, err)
	_, err = ulid.Parse(id)
	assert.NoError(t, err)

	other, err := NewSessionID()
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}
