package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/meditate/internal/session"
)

var eventTime = time.Date(2026, 3, 1, 6, 30, 0, 0, time.UTC)

func testEvent(kind session.EventKind) session.Event {
	return session.Event{
		Kind:      kind,
		SessionID: "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Time:      eventTime,
		State:     session.StateRunning,
		Intervals: 3,
	}
}

func TestMessage(t *testing.T) {
	starting := testEvent(session.EventSessionStarting)
	starting.Duration = 20 * time.Minute

	interval := testEvent(session.EventIntervalStarting)
	interval.Interval = 2
	interval.Duration = 400 * time.Second

	ending := testEvent(session.EventIntervalEnding)
	ending.Interval = 2

	partial := testEvent(session.EventPartialStarting)
	partial.Duration = 100 * time.Second

	aborted := testEvent(session.EventSessionAborted)
	aborted.Reason = session.AbortCancelled
	deadline := testEvent(session.EventSessionAborted)
	deadline.Reason = session.AbortDeadline

	ended := testEvent(session.EventSessionEnded)
	ended.Elapsed = 1000 * time.Second

	failed := testEvent(session.EventPlaybackFailed)
	failed.Cue = session.CueInterval
	failed.Sound = "/tmp/tick.wav"
	failed.Err = errors.New("no device")

	tests := []struct {
		name     string
		event    session.Event
		expected string
	}{
		{"starting", starting, "Starting a 20m meditation, 3 intervals, ends 20 minutes from now."},
		{"interval starting", interval, "Interval 2/3 starts (6m40s)."},
		{"interval ending", ending, "Interval 2/3 ends."},
		{"partial starting", partial, "Final partial interval starts (1m40s)."},
		{"partial ending", testEvent(session.EventPartialEnding), "Final partial interval ends."},
		{"aborted", aborted, "Session stopped early (cancelled)."},
		{"deadline", deadline, "Session time is up."},
		{"session ending", testEvent(session.EventSessionEnding), "End meditation."},
		{"ended", ended, "Meditation ended after 16m40s."},
		{"playback failed", failed, "Could not play interval sound /tmp/tick.wav: no device."},
		{"unknown", testEvent("custom"), "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Message(tt.event))
		})
	}
}

func TestMessage_IntervalCounts(t *testing.T) {
	e := testEvent(session.EventSessionStarting)
	e.Intervals = 0
	assert.Contains(t, Message(e), "no whole intervals")
	e.Intervals = 1
	assert.Contains(t, Message(e), "1 interval,")
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.UTC = true
	f, err := NewPlainFormatter(opts)
	require.NoError(t, err)

	require.NoError(t, f.Format(&buf, testEvent(session.EventSessionEnding)))
	assert.Equal(t, "2026-03-01 06:30:00: End meditation.\n", buf.String())
}

func TestPlainFormatter_NoTime(t *testing.T) {
	var buf bytes.Buffer

	f, err := NewPlainFormatter(FormatterOptions{})
	require.NoError(t, err)

	require.NoError(t, f.Format(&buf, testEvent(session.EventPartialEnding)))
	assert.Equal(t, "Final partial interval ends.\n", buf.String())
}

func TestPlainFormatter_CustomTemplate(t *testing.T) {
	var buf bytes.Buffer

	e := testEvent(session.EventIntervalStarting)
	e.Interval = 1
	e.Duration = 5 * time.Minute

	f, err := NewPlainFormatter(FormatterOptions{Template: "{{.Kind | printf \"%s\" | upper}} {{.Interval}} {{seconds .Duration}} {{.Message}}"})
	require.NoError(t, err)

	require.NoError(t, f.Format(&buf, e))
	assert.Equal(t, "INTERVAL_STARTING 1 5m Interval 1/3 starts (5m).\n", buf.String())
}

func TestPlainFormatter_InvalidTemplate(t *testing.T) {
	_, err := NewPlainFormatter(FormatterOptions{Template: "{{.Kind"})
	assert.Error(t, err)
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	e := testEvent(session.EventPlaybackFailed)
	e.Duration = 90 * time.Second
	e.Elapsed = 1500 * time.Millisecond
	e.Cue = session.CueStart
	e.Sound = "builtin:bell"
	e.Err = errors.New("decode error")

	f := NewJSONFormatter(FormatterOptions{UTC: true})
	require.NoError(t, f.Format(&buf, e))
	require.NoError(t, f.Format(&buf, testEvent(session.EventSessionEnded)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, "playback_failed", decoded["kind"])
	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", decoded["session_id"])
	assert.Equal(t, "running", decoded["state"])
	assert.Equal(t, 90.0, decoded["duration"])
	assert.Equal(t, 1.5, decoded["elapsed"])
	assert.Equal(t, "start", decoded["cue"])
	assert.Equal(t, "decode error", decoded["error"])
	assert.Equal(t, "2026-03-01T06:30:00Z", decoded["time"])
	assert.NotContains(t, decoded, "interval")
}

func TestNewFormatter(t *testing.T) {
	f, err := NewFormatter(FormatJSON, FormatterOptions{})
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, f)

	f, err = NewFormatter(FormatPlain, FormatterOptions{})
	require.NoError(t, err)
	assert.IsType(t, &PlainFormatter{}, f)

	f, err = NewFormatter("", FormatterOptions{})
	require.NoError(t, err)
	assert.IsType(t, &PlainFormatter{}, f)

	_, err = NewFormatter("xml", FormatterOptions{})
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestObserver(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewPlainFormatter(FormatterOptions{})
	require.NoError(t, err)

	observe := Observer(&buf, f, nil)
	observe(testEvent(session.EventSessionEnding))
	assert.Equal(t, "End meditation.\n", buf.String())

	// Write failures must not panic.
	Observer(failingWriter{}, f, nil)(testEvent(session.EventSessionEnding))
}
