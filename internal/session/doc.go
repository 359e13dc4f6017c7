// Package session runs a timed meditation session: a start bell, a sequence
// of interval sleeps each followed by an interval bell, and closing bells.
// Sleeping is bounded by a deadline of one session duration from the start.
package session
