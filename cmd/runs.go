package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/hoopline/statline-cli/internal/model"
	"github.com/hoopline/statline-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:     "runs",
	Aliases: []string{"status"},
	Short:   "Inspect pipeline run history",
	Long:  "Commands for listing and summarizing ingestion runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pipeline runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		pipelineName, _ := cmd.Flags().GetString("pipeline")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Pipeline: pipelineName,
			Status:   model.RunStatus(status),
			Limit:    limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics per pipeline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.ListRuns(ctx, store.RunFilter{Limit: limit})
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatRunStats(os.Stdout, computeRunStats(runs))
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("pipeline", "", "filter by pipeline name")
	runsListCmd.Flags().String("status", "", "filter by run status (running, success, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsStatsCmd.Flags().Int("limit", 1000, "max number of runs to aggregate over")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// runStats holds per-pipeline aggregates computed from the run log.
type runStats struct {
	Pipeline   string
	Total      int
	Succeeded  int
	Failed     int
	Records    int
	AvgDurSecs float64
}

// computeRunStats aggregates runs per pipeline, preserving first-seen order.
func computeRunStats(runs []model.RunRecord) []runStats {
	byName := make(map[string]*runStats)
	durTotals := make(map[string]time.Duration)
	durCounts := make(map[string]int)
	var order []string

	for _, r := range runs {
		s, ok := byName[r.Pipeline]
		if !ok {
			s = &runStats{Pipeline: r.Pipeline}
			byName[r.Pipeline] = s
			order = append(order, r.Pipeline)
		}
		s.Total++
		s.Records += r.Records
		switch r.Status {
		case model.RunStatusSuccess:
			s.Succeeded++
		case model.RunStatusFailed:
			s.Failed++
		}
		if r.CompletedAt != nil {
			durTotals[r.Pipeline] += r.CompletedAt.Sub(r.StartedAt)
			durCounts[r.Pipeline]++
		}
	}

	out := make([]runStats, 0, len(order))
	for _, name := range order {
		s := byName[name]
		if n := durCounts[name]; n > 0 {
			s.AvgDurSecs = durTotals[name].Seconds() / float64(n)
		}
		out = append(out, *s)
	}
	return out
}

// formatRunsList writes a tabular list of runs to out.
func formatRunsList(out io.Writer, runs []model.RunRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPIPELINE\tSTATUS\tRECORDS\tSTARTED\tDURATION")

	for _, r := range runs {
		dur := ""
		if r.CompletedAt != nil {
			dur = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(r.ID),
			r.Pipeline,
			r.Status,
			r.Records,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatRunStats writes the per-pipeline aggregates to out.
func formatRunStats(out io.Writer, stats []runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PIPELINE\tRUNS\tSUCCEEDED\tFAILED\tRECORDS\tAVG_DURATION")
	for _, s := range stats {
		avg := ""
		if s.AvgDurSecs > 0 {
			avg = fmt.Sprintf("%.1fs", s.AvgDurSecs)
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
			s.Pipeline, s.Total, s.Succeeded, s.Failed, s.Records, avg)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a run id for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
