package session

import (
	"time"
)

// State is a session lifecycle state.
type State int32

const (
	StateNotStarted State = iota
	StateRunning          // whole intervals
	StateDraining         // trailing partial interval
	StateEnding           // closing bells
	StateEnded
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateEnding:
		return "ending"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// EventKind identifies an observable session event.
type EventKind string

const (
	EventSessionStarting  EventKind = "session_starting"
	EventIntervalStarting EventKind = "interval_starting"
	EventIntervalEnding   EventKind = "interval_ending"
	EventPartialStarting  EventKind = "partial_interval_starting"
	EventPartialEnding    EventKind = "partial_interval_ending"
	EventSessionAborted   EventKind = "session_aborted"
	EventSessionEnding    EventKind = "session_ending"
	EventSessionEnded     EventKind = "session_ended"
	EventPlaybackFailed   EventKind = "playback_failed"
)

// Abort reasons.
const (
	AbortDeadline  = "deadline"
	AbortCancelled = "cancelled"
)

// Sound cues.
const (
	CueStart    = "start"
	CueInterval = "interval"
	CueEnd      = "end"
)

// Event is emitted to observers as the session progresses.
type Event struct {
	Kind      EventKind
	SessionID string
	Time      time.Time
	State     State

	// Interval is the 1-based whole interval index for interval events.
	Interval int
	// Intervals is the number of whole intervals in the session.
	Intervals int
	// Duration is the length of the segment the event refers to: the whole
	// session for session events, the interval or remainder otherwise.
	Duration time.Duration
	// Elapsed is the time since the session started.
	Elapsed time.Duration

	// Cue and Sound are set on playback failures.
	Cue   string
	Sound string
	Err   error

	// Reason is set on EventSessionAborted.
	Reason string
}

// Observer receives session events. Observers are called synchronously from
// the session loop and must not block.
type Observer func(Event)
