package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/pricefeed-cli/internal/reconcile"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Ingest every local circular PDF not yet processed",
	Long:  "Walks the PDF directory oldest first, extracts events from documents not yet in the processed set, and rebuilds the daily table once at the end. Unreadable documents are logged and skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd.Context(), reconcile.ModeBackfill)
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}
