package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Outcome describes how a session finished.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
)

// SessionRecord is a finished session as kept in the history journal.
type SessionRecord struct {
	ID        string  `json:"id"`
	StartedAt int64   `json:"started_at"` // Unix seconds
	EndedAt   int64   `json:"ended_at"`   // Unix seconds
	Planned   float64 `json:"planned_seconds"`
	Interval  float64 `json:"interval_seconds"`
	Elapsed   float64 `json:"elapsed_seconds"`
	Intervals int     `json:"intervals"` // whole intervals planned
	Outcome   Outcome `json:"outcome"`
}

// Started returns the start time. Records written without started_at fall back
// to the timestamp embedded in the ULID.
func (r SessionRecord) Started() time.Time {
	if r.StartedAt > 0 {
		return time.Unix(r.StartedAt, 0)
	}
	if id, err := ulid.ParseStrict(r.ID); err == nil {
		return ulid.Time(id.Time())
	}
	return time.Time{}
}

// Duration returns how long the session actually lasted.
func (r SessionRecord) Duration() time.Duration {
	return time.Duration(r.Elapsed * float64(time.Second))
}

// Completed reports whether the session ran to its deadline.
func (r SessionRecord) Completed() bool {
	return r.Outcome == OutcomeCompleted
}
