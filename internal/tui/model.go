// Package tui provides the optional live progress view for a running
// meditation session.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/meditate/internal/adapter/output"
	"github.com/jmylchreest/meditate/internal/core"
	"github.com/jmylchreest/meditate/internal/session"
)

// maxLogLines is the number of recent event messages kept on screen.
const maxLogLines = 5

// tickInterval is how often the countdown is redrawn.
const tickInterval = time.Second

// ChannelObserver returns a session observer that forwards events to ch.
// Events are dropped when ch is full so a stalled UI never blocks the session.
func ChannelObserver(ch chan<- session.Event) session.Observer {
	return func(e session.Event) {
		select {
		case ch <- e:
		default:
		}
	}
}

type eventMsg session.Event

type sessionDoneMsg struct{}

type tickMsg time.Time

// Model is the bubbletea model for the progress view.
type Model struct {
	events <-chan session.Event
	cancel context.CancelFunc
	plan   session.Plan
	now    func() time.Time

	keys     KeyMap
	help     help.Model
	segment  progress.Model
	overall  progress.Model
	width    int
	stopping bool

	state     session.State
	title     string
	start     time.Time
	segStart  time.Time
	segLength time.Duration
	current   time.Time
	log       []string
}

// New creates a progress view fed by events. cancel is invoked when the
// user asks to stop; the view keeps running until events is closed.
func New(plan session.Plan, events <-chan session.Event, cancel context.CancelFunc) Model {
	return Model{
		events:  events,
		cancel:  cancel,
		plan:    plan,
		now:     time.Now,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		segment: progress.New(progress.WithDefaultGradient()),
		overall: progress.New(progress.WithSolidFill("8")),
		title:   "Preparing",
	}
}

// Run starts the program and blocks until the session event stream closes.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init initializes the view.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent, tick())
}

// waitForEvent blocks for the next session event.
func (m Model) waitForEvent() tea.Msg {
	e, ok := <-m.events
	if !ok {
		return sessionDoneMsg{}
	}
	return eventMsg(e)
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if !m.stopping {
				m.stopping = true
				if m.cancel != nil {
					m.cancel()
				}
			}
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		barWidth := max(msg.Width-4, 10)
		m.segment.Width = barWidth
		m.overall.Width = barWidth
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		m.apply(session.Event(msg))
		return m, m.waitForEvent

	case tickMsg:
		m.current = m.now()
		return m, tick()

	case sessionDoneMsg:
		return m, tea.Quit
	}

	return m, nil
}

// apply folds a session event into the view state.
func (m *Model) apply(e session.Event) {
	m.state = e.State
	m.current = e.Time

	switch e.Kind {
	case session.EventSessionStarting:
		m.start = e.Time
		m.title = "Meditating"
	case session.EventIntervalStarting:
		m.title = fmt.Sprintf("Interval %d of %d", e.Interval, e.Intervals)
		m.segStart, m.segLength = e.Time, e.Duration
	case session.EventPartialStarting:
		m.title = "Final partial interval"
		m.segStart, m.segLength = e.Time, e.Duration
	case session.EventSessionEnding:
		m.title = "Closing bells"
		m.segLength = 0
	case session.EventSessionEnded:
		m.title = "Ended"
	}

	m.log = append(m.log, output.Message(e))
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

// segmentPercent returns how far the current interval has progressed.
func (m Model) segmentPercent() float64 {
	if m.segLength <= 0 || m.segStart.IsZero() {
		if m.state == session.StateEnding || m.state == session.StateEnded {
			return 1
		}
		return 0
	}
	return ratio(m.current.Sub(m.segStart), m.segLength)
}

// overallPercent returns how far the whole session has progressed.
func (m Model) overallPercent() float64 {
	if m.state == session.StateEnding || m.state == session.StateEnded {
		return 1
	}
	if m.start.IsZero() || m.plan.Session <= 0 {
		return 0
	}
	return ratio(m.current.Sub(m.start), m.plan.Session)
}

func ratio(part, whole time.Duration) float64 {
	r := float64(part) / float64(whole)
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}

// remaining returns the time left in the session, clamped at zero.
func (m Model) remaining() time.Duration {
	if m.start.IsZero() {
		return m.plan.Session
	}
	left := m.plan.Session - m.current.Sub(m.start)
	if left < 0 {
		return 0
	}
	return left
}

// View renders the progress view.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Padding(0, 1)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	b.WriteString("  " + m.segment.ViewAs(m.segmentPercent()) + "\n")
	b.WriteString("  " + m.overall.ViewAs(m.overallPercent()) + "\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("  %s remaining of %s",
		core.FormatSeconds(m.remaining()), core.FormatSeconds(m.plan.Session))))
	b.WriteString("\n\n")

	for _, line := range m.log {
		b.WriteString(labelStyle.Render("  "+line) + "\n")
	}

	if m.stopping && m.state != session.StateEnded {
		b.WriteString("\n" + warnStyle.Render("  Stopping, waiting for the closing bell...") + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}
