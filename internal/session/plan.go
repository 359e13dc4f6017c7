package session

import (
	"time"
)

// Plan is the interval breakdown of a session.
type Plan struct {
	Session        time.Duration
	Interval       time.Duration
	WholeIntervals int
	// Remainder is the trailing partial interval, shorter than Interval.
	Remainder time.Duration
}

// NewPlan splits session into whole intervals and a remainder. Integer
// nanosecond arithmetic keeps the split exact. A non-positive interval or
// session yields an empty plan.
func NewPlan(session, interval time.Duration) Plan {
	p := Plan{Session: session, Interval: interval}
	if session <= 0 || interval <= 0 {
		return p
	}

	p.WholeIntervals = int(session / interval)
	p.Remainder = session - time.Duration(p.WholeIntervals)*interval
	return p
}

// Segments returns the number of sleeps the plan performs.
func (p Plan) Segments() int {
	if p.Remainder > 0 {
		return p.WholeIntervals + 1
	}
	return p.WholeIntervals
}
