// Package core provides duration parsing for session and interval lengths.
package core

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDurationFormat is returned when a duration string cannot be parsed.
var ErrInvalidDurationFormat = errors.New("invalid duration format")

// DurationExamples lists accepted duration inputs, shown to users on parse errors.
const DurationExamples = "1h4m2s, 4m3s, 1h4m, 2h4s, 1h, 60m, 3600s"

// maxSeconds is the exclusive upper bound on seconds representable as a
// time.Duration.
var maxSeconds = float64(math.MaxInt64) / float64(time.Second)

// durationPattern matches optional hours, minutes and seconds in that fixed order.
var durationPattern = regexp.MustCompile(`^(?:([0-9]+)h)?(?:([0-9]+)m)?(?:([0-9]+)s)?$`)

// ParseDuration parses a duration like "1h4m2s" into a number of seconds.
// Each unit is optional but at least one must be present, units must appear
// in hours-minutes-seconds order and values are non-negative integers.
// Surrounding whitespace is ignored. "0s" is valid and returns 0.
func ParseDuration(input string) (float64, error) {
	s := strings.TrimSpace(input)

	match := durationPattern.FindStringSubmatch(s)
	if match == nil || (match[1] == "" && match[2] == "" && match[3] == "") {
		return 0, invalidDuration(input)
	}

	var total float64
	for i, unit := range []float64{3600, 60, 1} {
		part := match[i+1]
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return 0, invalidDuration(input)
		}
		total += float64(n) * unit
	}

	if total >= maxSeconds {
		return 0, invalidDuration(input)
	}
	return total, nil
}

// ParseSeconds parses either a duration pattern accepted by ParseDuration or a
// bare non-negative number of seconds such as "1200" or "90.5".
func ParseSeconds(input string) (float64, error) {
	s := strings.TrimSpace(input)

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) || n >= maxSeconds {
			return 0, invalidDuration(input)
		}
		return n, nil
	}

	return ParseDuration(s)
}

// ToDuration converts a number of seconds into a time.Duration, saturating at
// math.MaxInt64 nanoseconds.
func ToDuration(seconds float64) time.Duration {
	ns := math.Round(seconds * float64(time.Second))
	if ns >= float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// FormatSeconds renders d in the format accepted by ParseDuration, rounded
// to the nearest second. Zero renders as "0s".
func FormatSeconds(d time.Duration) string {
	total := int64(d.Round(time.Second) / time.Second)
	if total <= 0 {
		return "0s"
	}

	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var sb strings.Builder
	if hours > 0 {
		fmt.Fprintf(&sb, "%dh", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&sb, "%dm", minutes)
	}
	if seconds > 0 {
		fmt.Fprintf(&sb, "%ds", seconds)
	}
	return sb.String()
}

func invalidDuration(input string) error {
	return fmt.Errorf("%w: received %q, input must be non-negative and in the shape of the following examples: %s",
		ErrInvalidDurationFormat, input, DurationExamples)
}
