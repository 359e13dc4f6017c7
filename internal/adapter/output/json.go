package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jmylchreest/meditate/internal/session"
)

// JSONFormatter formats events as JSON lines.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// jsonEvent is the wire shape of an event. Durations are in seconds.
type jsonEvent struct {
	Kind      string    `json:"kind"`
	SessionID string    `json:"session_id"`
	Time      time.Time `json:"time"`
	State     string    `json:"state"`
	Interval  int       `json:"interval,omitempty"`
	Intervals int       `json:"intervals"`
	Duration  float64   `json:"duration"`
	Elapsed   float64   `json:"elapsed"`
	Cue       string    `json:"cue,omitempty"`
	Sound     string    `json:"sound,omitempty"`
	Error     string    `json:"error,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// Format writes the event as a single JSON object followed by a newline.
func (f *JSONFormatter) Format(w io.Writer, e session.Event) error {
	ts := e.Time
	if f.opts.UTC {
		ts = ts.UTC()
	}

	out := jsonEvent{
		Kind:      string(e.Kind),
		SessionID: e.SessionID,
		Time:      ts,
		State:     e.State.String(),
		Interval:  e.Interval,
		Intervals: e.Intervals,
		Duration:  e.Duration.Seconds(),
		Elapsed:   e.Elapsed.Seconds(),
		Cue:       e.Cue,
		Sound:     e.Sound,
		Reason:    e.Reason,
	}
	if e.Err != nil {
		out.Error = e.Err.Error()
	}

	return json.NewEncoder(w).Encode(out)
}
