package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/meditate/internal/core"
	"github.com/jmylchreest/meditate/internal/session"
)

// PlainFormatter formats events as human-readable lines.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// templateData is passed to custom templates.
type templateData struct {
	session.Event
	Message string
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) (*PlainFormatter, error) {
	if opts.TimeFormat == "" {
		opts.TimeFormat = time.DateTime
	}
	f := &PlainFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err != nil {
			return nil, fmt.Errorf("invalid output template: %w", err)
		}
		f.template = tmpl
	}

	return f, nil
}

// Format writes one line for the event.
func (f *PlainFormatter) Format(w io.Writer, e session.Event) error {
	if f.template != nil {
		if err := f.template.Execute(w, templateData{Event: e, Message: Message(e)}); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder
	if f.opts.ShowTime {
		ts := e.Time
		if f.opts.UTC {
			ts = ts.UTC()
		}
		sb.WriteString(ts.Format(f.opts.TimeFormat))
		sb.WriteString(": ")
	}
	sb.WriteString(Message(e))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// Message returns the human-readable description of an event.
func Message(e session.Event) string {
	switch e.Kind {
	case session.EventSessionStarting:
		end := e.Time.Add(e.Duration)
		return fmt.Sprintf("Starting a %s meditation, %s, ends %s.",
			core.FormatSeconds(e.Duration), describeIntervals(e.Intervals),
			humanize.RelTime(end, e.Time, "ago", "from now"))
	case session.EventIntervalStarting:
		return fmt.Sprintf("Interval %d/%d starts (%s).", e.Interval, e.Intervals, core.FormatSeconds(e.Duration))
	case session.EventIntervalEnding:
		return fmt.Sprintf("Interval %d/%d ends.", e.Interval, e.Intervals)
	case session.EventPartialStarting:
		return fmt.Sprintf("Final partial interval starts (%s).", core.FormatSeconds(e.Duration))
	case session.EventPartialEnding:
		return "Final partial interval ends."
	case session.EventSessionAborted:
		if e.Reason == session.AbortDeadline {
			return "Session time is up."
		}
		return fmt.Sprintf("Session stopped early (%s).", e.Reason)
	case session.EventSessionEnding:
		return "End meditation."
	case session.EventSessionEnded:
		return fmt.Sprintf("Meditation ended after %s.", core.FormatSeconds(e.Elapsed))
	case session.EventPlaybackFailed:
		return fmt.Sprintf("Could not play %s sound %s: %v.", e.Cue, e.Sound, e.Err)
	default:
		return string(e.Kind)
	}
}

func describeIntervals(n int) string {
	switch n {
	case 0:
		return "no whole intervals"
	case 1:
		return "1 interval"
	default:
		return fmt.Sprintf("%d intervals", n)
	}
}

// templateFuncs returns functions available to custom templates.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"seconds": core.FormatSeconds,
		"formatTime": func(t time.Time) string {
			return t.Format(time.DateTime)
		},
		"upper": strings.ToUpper,
	}
}
