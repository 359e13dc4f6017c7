// Package output provides output formatters for session events.
package output

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/jmylchreest/meditate/internal/session"
)

// Formatter formats session events for output.
type Formatter interface {
	// Format writes one formatted event to the writer.
	Format(w io.Writer, e session.Event) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatJSON  FormatType = "json"
	FormatPlain FormatType = "plain"
)

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template   string // Custom template for plain format
	ShowTime   bool   // Prefix plain lines with the event time
	TimeFormat string // Layout for ShowTime (default time.DateTime)
	UTC        bool   // Render times in UTC
}

// DefaultFormatterOptions returns sensible defaults for terminal output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowTime: true,
	}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts), nil
	case FormatPlain, "":
		return NewPlainFormatter(opts)
	default:
		return nil, fmt.Errorf("unknown output format %q (want %s or %s)", format, FormatPlain, FormatJSON)
	}
}

// Observer returns a session observer writing every event through f.
// Write errors are logged and otherwise ignored.
func Observer(w io.Writer, f Formatter, logger *slog.Logger) session.Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return func(e session.Event) {
		if err := f.Format(w, e); err != nil {
			logger.Warn("failed to write event", "kind", e.Kind, "error", err)
		}
	}
}
