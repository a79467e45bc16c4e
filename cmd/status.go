package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pricefeed-cli/internal/state"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show reconciliation markers and recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		states, err := openState(ctx)
		if err != nil {
			return err
		}
		defer states.Close() //nolint:errcheck

		st, err := states.Load(ctx)
		if err != nil {
			return err
		}
		runs, err := states.ListRuns(ctx, statusLimit)
		if err != nil {
			return err
		}

		if st.LatestURL != "" {
			fmt.Printf("latest circular: %s\n", st.LatestURL)
		}
		if st.LastProcessed != "" {
			fmt.Printf("last processed:  %s\n", st.LastProcessed)
		}
		fmt.Printf("processed files: %d\n\n", len(st.Processed))

		if len(runs) == 0 {
			zap.L().Info("no runs recorded, use 'run' or 'backfill' first")
			return nil
		}

		formatRuns(os.Stdout, runs)
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "number of runs to show")
	rootCmd.AddCommand(statusCmd)
}

// formatRuns writes a tabular representation of run records to w.
func formatRuns(out io.Writer, runs []state.RunRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tMODE\tSTATUS\tSTARTED\tDURATION\tEVENTS\tERROR")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-------\t--------\t------\t-----")

	for _, r := range runs {
		dur := "-"
		if r.CompletedAt != nil {
			dur = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}

		errMsg := ""
		if r.Error != "" {
			errMsg = truncate(r.Error, 60)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			shortID(r.ID),
			r.Mode,
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
			r.EventsAdded,
			errMsg,
		)
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
