package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/meditate/internal/core"
	"github.com/jmylchreest/meditate/internal/model"
	"github.com/jmylchreest/meditate/internal/store"
)

var historyOpts struct {
	since     string
	limit     int
	outcome   string
	json      bool
	olderThan string
	dryRun    bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past meditation sessions",
	Long: `List finished sessions from the history journal, newest first.

Examples:
  # Sessions from the last week
  meditate history --since 168h

  # The last five completed sessions as JSON
  meditate history --limit 5 --outcome completed --json`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old sessions from history",
	Long: `Remove sessions started before the given age.

Examples:
  # Remove sessions older than 90 days
  meditate history prune --older-than 2160h

  # Preview what would be removed (dry run)
  meditate history prune --older-than 720h --dry-run`,
	Args: cobra.NoArgs,
	RunE: runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyCmd.Flags().StringVar(&historyOpts.since, "since", "",
		"Only show sessions started within this duration (e.g., 24h, 168h)")
	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 0,
		"Show at most N sessions (0=unlimited)")
	historyCmd.Flags().StringVar(&historyOpts.outcome, "outcome", "",
		"Only show sessions with this outcome (completed, cancelled)")
	historyCmd.Flags().BoolVar(&historyOpts.json, "json", false,
		"Output as JSON")

	historyPruneCmd.Flags().StringVar(&historyOpts.olderThan, "older-than", "",
		"Remove sessions older than this duration (e.g., 720h)")
	historyPruneCmd.Flags().BoolVar(&historyOpts.dryRun, "dry-run", false,
		"Show what would be removed without actually removing")
}

func openJournal() (*store.Journal, error) {
	return store.Open(cfg.History.Path, logger)
}

// cutoff returns now minus the duration in s.
func cutoff(s string, now time.Time) (time.Time, error) {
	seconds, err := core.ParseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid duration: %w", err)
	}
	return now.Add(-core.ToDuration(seconds)), nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	filter := store.Filter{
		Outcome: model.Outcome(historyOpts.outcome),
		Limit:   historyOpts.limit,
	}
	switch filter.Outcome {
	case "", model.OutcomeCompleted, model.OutcomeCancelled:
	default:
		return fmt.Errorf("invalid outcome %q (want %s or %s)",
			historyOpts.outcome, model.OutcomeCompleted, model.OutcomeCancelled)
	}
	if historyOpts.since != "" {
		since, err := cutoff(historyOpts.since, time.Now())
		if err != nil {
			return err
		}
		filter.Since = since
	}

	journal, err := openJournal()
	if err != nil {
		return err
	}

	records, err := journal.Records(filter)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	w := cmd.OutOrStdout()
	if historyOpts.json {
		if records == nil {
			records = []model.SessionRecord{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No sessions in history")
		return nil
	}

	for _, r := range records {
		fmt.Fprintln(w, formatRecord(r))
	}

	summary := store.Summarize(records)
	fmt.Fprintf(w, "\n%d session(s), %d completed, %s in total\n",
		summary.Sessions, summary.Completed, core.FormatSeconds(summary.Total))
	return nil
}

// formatRecord renders one history line.
func formatRecord(r model.SessionRecord) string {
	started := r.Started()
	return fmt.Sprintf("%s  %-9s  %s of %s  (%s)",
		started.Format("2006-01-02 15:04"),
		r.Outcome,
		core.FormatSeconds(r.Duration()),
		core.FormatSeconds(core.ToDuration(r.Planned)),
		humanize.Time(started))
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	if historyOpts.olderThan == "" {
		return fmt.Errorf("specify --older-than")
	}

	before, err := cutoff(historyOpts.olderThan, time.Now())
	if err != nil {
		return err
	}

	journal, err := openJournal()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if historyOpts.dryRun {
		all, err := journal.Records(store.Filter{})
		if err != nil {
			return err
		}
		n := 0
		for _, r := range all {
			if r.Started().Before(before) {
				n++
			}
		}
		fmt.Fprintf(w, "Would remove %d session(s)\n", n)
		return nil
	}

	removed, err := journal.Prune(before)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Removed %d session(s)\n", removed)
	return nil
}
