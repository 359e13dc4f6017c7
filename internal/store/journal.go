package store

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jmylchreest/meditate/internal/model"
	"github.com/jmylchreest/meditate/internal/session"
)

// Filter selects journal records.
type Filter struct {
	Since   time.Time     // zero means no lower bound
	Outcome model.Outcome // empty matches every outcome
	Limit   int           // 0 means no limit
}

// Summary aggregates a set of records.
type Summary struct {
	Sessions  int
	Completed int
	Total     time.Duration
}

// Journal records finished sessions.
type Journal struct {
	log    *RecordLog
	logger *slog.Logger
}

// NewJournal creates a journal backed by l.
func NewJournal(l *RecordLog, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{log: l, logger: logger}
}

// Open opens the JSONL journal at path, or HistoryPath when path is empty.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	if path == "" {
		var err error
		if path, err = HistoryPath(); err != nil {
			return nil, fmt.Errorf("failed to get history path: %w", err)
		}
	}

	l, err := OpenRecordLog(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return NewJournal(l, logger), nil
}

// Recorder returns a session observer that appends a record when the
// session ends. Write failures are logged.
func (j *Journal) Recorder(plan session.Plan) session.Observer {
	var rec model.SessionRecord

	return func(e session.Event) {
		switch e.Kind {
		case session.EventSessionStarting:
			rec = model.SessionRecord{
				ID:        e.SessionID,
				StartedAt: e.Time.Unix(),
				Planned:   plan.Session.Seconds(),
				Interval:  plan.Interval.Seconds(),
				Intervals: plan.WholeIntervals,
				Outcome:   model.OutcomeCompleted,
			}
		case session.EventSessionAborted:
			if e.Reason == session.AbortCancelled {
				rec.Outcome = model.OutcomeCancelled
			}
		case session.EventSessionEnded:
			if rec.ID == "" {
				return
			}
			rec.EndedAt = e.Time.Unix()
			rec.Elapsed = e.Elapsed.Seconds()
			if err := j.log.Append(rec); err != nil {
				j.logger.Warn("failed to record session", "id", rec.ID, "error", err)
				return
			}
			j.logger.Debug("recorded session", "id", rec.ID, "outcome", rec.Outcome)
		}
	}
}

// Records returns matching records, newest first.
func (j *Journal) Records(f Filter) ([]model.SessionRecord, error) {
	all, err := j.log.ReadAll()
	if err != nil {
		return nil, err
	}

	var out []model.SessionRecord
	for _, r := range all {
		if !f.Since.IsZero() && r.Started().Before(f.Since) {
			continue
		}
		if f.Outcome != "" && r.Outcome != f.Outcome {
			continue
		}
		out = append(out, r)
	}

	slices.SortStableFunc(out, func(a, b model.SessionRecord) int {
		return b.Started().Compare(a.Started())
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Prune removes records started before cutoff and returns how many were removed.
func (j *Journal) Prune(cutoff time.Time) (int, error) {
	all, err := j.log.ReadAll()
	if err != nil {
		return 0, err
	}

	kept := slices.DeleteFunc(slices.Clone(all), func(r model.SessionRecord) bool {
		return r.Started().Before(cutoff)
	})
	removed := len(all) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := j.log.Replace(kept); err != nil {
		return 0, fmt.Errorf("failed to rewrite history: %w", err)
	}
	return removed, nil
}

// Summarize aggregates records.
func Summarize(rs []model.SessionRecord) Summary {
	var s Summary
	for _, r := range rs {
		s.Sessions++
		if r.Completed() {
			s.Completed++
		}
		s.Total += r.Duration()
	}
	return s
}
