// Package model defines the core data structures for meditate.
package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// BuiltinBell is the sound reference naming the bundled bell recording.
const BuiltinBell = "builtin:bell"

// Default closing bell settings.
const (
	DefaultClosingBells   = 1
	DefaultClosingBellGap = 5 * time.Second
)

// Validation errors.
var (
	ErrSoundFileNotFound    = errors.New("sound file not found")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// SoundRef references an audio resource: either a file on disk or the
// bundled bell. The zero value is the bundled bell.
type SoundRef struct {
	path string
}

// NewSoundRef builds a SoundRef from user input. An empty string or
// BuiltinBell selects the bundled bell; anything else is treated as a path,
// with a leading ~ expanded and the result made absolute.
func NewSoundRef(input string) (SoundRef, error) {
	input = strings.TrimSpace(input)
	if input == "" || input == BuiltinBell {
		return SoundRef{}, nil
	}

	path := expandPath(input)
	abs, err := filepath.Abs(path)
	if err != nil {
		return SoundRef{}, fmt.Errorf("failed to resolve sound path %q: %w", input, err)
	}
	return SoundRef{path: abs}, nil
}

// IsBuiltin reports whether the reference is the bundled bell.
func (r SoundRef) IsBuiltin() bool {
	return r.path == ""
}

// Path returns the absolute file path, or "" for the bundled bell.
func (r SoundRef) Path() string {
	return r.path
}

// String returns the path or BuiltinBell.
func (r SoundRef) String() string {
	if r.IsBuiltin() {
		return BuiltinBell
	}
	return r.path
}

// Validate checks the referenced file exists and is readable.
func (r SoundRef) Validate() error {
	return r.validate("sound")
}

// validate checks the referenced file exists and is readable.
func (r SoundRef) validate(field string) error {
	if r.IsBuiltin() {
		return nil
	}

	info, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrSoundFileNotFound, field, r.path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s %q is a directory", ErrSoundFileNotFound, field, r.path)
	}

	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrSoundFileNotFound, field, r.path, err)
	}
	_ = f.Close()
	return nil
}

// ConfigurationParams holds the raw values used to build a Configuration.
type ConfigurationParams struct {
	IntervalDuration time.Duration
	SessionDuration  time.Duration
	StartStopSound   SoundRef
	IntervalSound    SoundRef

	// ClosingBells is the number of bells rung at the end (0 = default).
	ClosingBells int
	// ClosingBellGap separates consecutive closing bells (nil = default).
	ClosingBellGap *time.Duration
}

// Configuration is the validated, read-only description of one session.
type Configuration struct {
	intervalDuration time.Duration
	sessionDuration  time.Duration
	startStopSound   SoundRef
	intervalSound    SoundRef
	closingBells     int
	closingBellGap   time.Duration
}

// NewConfiguration validates params and returns an immutable Configuration.
// The interval must be positive, the session non-negative and every file
// sound reference must point at a readable file.
func NewConfiguration(params ConfigurationParams) (*Configuration, error) {
	if params.IntervalDuration <= 0 {
		return nil, fmt.Errorf("%w: interval duration must be positive, got %s",
			ErrInvalidConfiguration, params.IntervalDuration)
	}
	if params.SessionDuration < 0 {
		return nil, fmt.Errorf("%w: session duration must not be negative, got %s",
			ErrInvalidConfiguration, params.SessionDuration)
	}
	if params.ClosingBells < 0 {
		return nil, fmt.Errorf("%w: closing bells must not be negative, got %d",
			ErrInvalidConfiguration, params.ClosingBells)
	}

	gap := DefaultClosingBellGap
	if params.ClosingBellGap != nil {
		gap = *params.ClosingBellGap
	}
	if gap < 0 {
		return nil, fmt.Errorf("%w: closing bell gap must not be negative, got %s",
			ErrInvalidConfiguration, gap)
	}

	bells := params.ClosingBells
	if bells == 0 {
		bells = DefaultClosingBells
	}

	if err := params.StartStopSound.validate("start_stop_sound_path"); err != nil {
		return nil, err
	}
	if err := params.IntervalSound.validate("interval_sound_path"); err != nil {
		return nil, err
	}

	return &Configuration{
		intervalDuration: params.IntervalDuration,
		sessionDuration:  params.SessionDuration,
		startStopSound:   params.StartStopSound,
		intervalSound:    params.IntervalSound,
		closingBells:     bells,
		closingBellGap:   gap,
	}, nil
}

// IntervalDuration returns the length of one interval.
func (c *Configuration) IntervalDuration() time.Duration { return c.intervalDuration }

// SessionDuration returns the total session length.
func (c *Configuration) SessionDuration() time.Duration { return c.sessionDuration }

// StartStopSound returns the sound marking the start and end of the session.
func (c *Configuration) StartStopSound() SoundRef { return c.startStopSound }

// IntervalSound returns the sound marking the end of each whole interval.
func (c *Configuration) IntervalSound() SoundRef { return c.intervalSound }

// ClosingBells returns how many times the start/stop sound rings at the end.
func (c *Configuration) ClosingBells() int { return c.closingBells }

// ClosingBellGap returns the pause between closing bells.
func (c *Configuration) ClosingBellGap() time.Duration { return c.closingBellGap }

// String returns a one-line description for debug logging.
func (c *Configuration) String() string {
	return fmt.Sprintf("Configuration{interval=%s session=%s start_stop=%s interval_sound=%s closing_bells=%d gap=%s}",
		c.intervalDuration, c.sessionDuration, c.startStopSound, c.intervalSound, c.closingBells, c.closingBellGap)
}

// NewSessionID generates a ULID identifying one session run.
func NewSessionID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
