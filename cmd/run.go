package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/pricefeed-cli/internal/reconcile"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest the newest circular and update the daily table",
	Long:  "Checks the publisher's page for a circular newer than the last one seen, ingests it if present, and rebuilds the forward-filled daily table either way.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd.Context(), reconcile.ModeNormal)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
