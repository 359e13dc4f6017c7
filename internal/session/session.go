package session

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/meditate/internal/model"
)

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("session already started")

// OverrunTolerance is how far a segment may run past the session deadline
// before it is cut short. It absorbs event and playback-trigger overhead, so
// a whole interval always completes and rings its bell.
const OverrunTolerance = time.Second

// Player plays session sounds.
type Player interface {
	// Play starts a sound and returns without waiting for it.
	Play(ref model.SoundRef) error
	// PlayAndWait blocks until the sound has finished playing.
	PlayAndWait(ctx context.Context, ref model.SoundRef) error
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the real clock.
func WithClock(clock Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithObserver adds an event observer. May be given more than once.
func WithObserver(observer Observer) Option {
	return func(s *Session) {
		if observer != nil {
			s.observers = append(s.observers, observer)
		}
	}
}

// WithID sets the session ID instead of generating one.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// Session is a single meditation run.
type Session struct {
	id        string
	cfg       *model.Configuration
	player    Player
	clock     Clock
	logger    *slog.Logger
	observers []Observer
	plan      Plan

	state   atomic.Int32
	started time.Time
}

// New creates a session for cfg playing sounds through player.
func New(cfg *model.Configuration, player Player, opts ...Option) *Session {
	s := &Session{
		cfg:    cfg,
		player: player,
		clock:  RealClock{},
		logger: slog.Default(),
		plan:   NewPlan(cfg.SessionDuration(), cfg.IntervalDuration()),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.id == "" {
		id, err := model.NewSessionID()
		if err != nil {
			s.logger.Warn("failed to generate session id", "error", err)
		}
		s.id = id
	}
	s.logger = s.logger.With("session", s.id)

	return s
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Plan returns the interval breakdown.
func (s *Session) Plan() Plan {
	return s.plan
}

// State returns the current state. Safe to call from any goroutine.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Run plays the session to completion. Reaching the deadline ends the loop
// normally; cancelling ctx ends it early and Run returns ctx.Err(). In both
// cases the closing bells are still played and awaited.
func (s *Session) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateNotStarted), int32(StateRunning)) {
		return ErrAlreadyStarted
	}

	s.started = s.clock.Now()
	deadline := s.started.Add(s.plan.Session)

	s.logger.Info("session starting",
		"duration", s.plan.Session,
		"interval", s.plan.Interval,
		"intervals", s.plan.WholeIntervals,
		"remainder", s.plan.Remainder)
	s.emit(Event{Kind: EventSessionStarting, Duration: s.plan.Session})
	s.play(CueStart, s.cfg.StartStopSound())

	if reason := s.intervals(ctx, deadline); reason != "" {
		s.logger.Info("session aborted", "reason", reason)
		s.emit(Event{Kind: EventSessionAborted, Reason: reason})
	}

	s.close(context.WithoutCancel(ctx))

	return ctx.Err()
}

// intervals runs the interval loop and returns a non-empty abort reason if
// it stopped early.
func (s *Session) intervals(ctx context.Context, deadline time.Time) string {
	for i := 1; i <= s.plan.WholeIntervals; i++ {
		s.emit(Event{Kind: EventIntervalStarting, Interval: i, Duration: s.plan.Interval})
		if reason := s.sleep(ctx, deadline, s.plan.Interval); reason != "" {
			return reason
		}
		s.emit(Event{Kind: EventIntervalEnding, Interval: i, Duration: s.plan.Interval})
		s.play(CueInterval, s.cfg.IntervalSound())
	}

	if s.plan.Remainder <= 0 {
		return ""
	}

	s.setState(StateDraining)
	s.emit(Event{Kind: EventPartialStarting, Duration: s.plan.Remainder})
	if reason := s.sleep(ctx, deadline, s.plan.Remainder); reason != "" {
		return reason
	}
	// No bell after the trailing partial interval: the closing bell follows.
	s.emit(Event{Kind: EventPartialEnding, Duration: s.plan.Remainder})
	return ""
}

// sleep suspends for d. A segment that would overrun the deadline by more
// than OverrunTolerance is clipped to the deadline. It returns an abort
// reason when the segment was clipped or ctx was cancelled.
func (s *Session) sleep(ctx context.Context, deadline time.Time, d time.Duration) string {
	remaining := deadline.Sub(s.clock.Now())
	clipped := d-remaining > OverrunTolerance
	if clipped {
		d = remaining
	}

	if d > 0 {
		if err := s.clock.Sleep(ctx, d); err != nil {
			return AbortCancelled
		}
	} else if ctx.Err() != nil {
		return AbortCancelled
	}

	if clipped {
		return AbortDeadline
	}
	return ""
}

// close rings the closing bells and waits for the last one.
func (s *Session) close(ctx context.Context) {
	s.setState(StateEnding)
	s.emit(Event{Kind: EventSessionEnding, Duration: s.plan.Session})

	ref := s.cfg.StartStopSound()
	for bell := 1; bell < s.cfg.ClosingBells(); bell++ {
		s.play(CueEnd, ref)
		if err := s.clock.Sleep(ctx, s.cfg.ClosingBellGap()); err != nil {
			break
		}
	}

	if err := s.player.PlayAndWait(ctx, ref); err != nil {
		s.playbackFailed(CueEnd, ref, err)
	}

	s.setState(StateEnded)
	s.logger.Info("session ended", "elapsed", s.clock.Now().Sub(s.started))
	s.emit(Event{Kind: EventSessionEnded, Duration: s.plan.Session})
}

// play triggers a sound without waiting. Failures are logged and reported
// but never interrupt the session.
func (s *Session) play(cue string, ref model.SoundRef) {
	if err := s.player.Play(ref); err != nil {
		s.playbackFailed(cue, ref, err)
	}
}

func (s *Session) playbackFailed(cue string, ref model.SoundRef, err error) {
	s.logger.Warn("failed to play sound", "cue", cue, "sound", ref.String(), "error", err)
	s.emit(Event{Kind: EventPlaybackFailed, Cue: cue, Sound: ref.String(), Err: err})
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
	s.logger.Debug("session state changed", "state", state.String())
}

// emit fills common fields and notifies observers.
func (s *Session) emit(e Event) {
	now := s.clock.Now()
	e.SessionID = s.id
	e.Time = now
	e.State = s.State()
	e.Intervals = s.plan.WholeIntervals
	e.Elapsed = now.Sub(s.started)

	for _, observer := range s.observers {
		observer(e)
	}
}
