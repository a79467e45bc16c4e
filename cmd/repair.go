package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/pricefeed-cli/internal/reconcile"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Rebuild the daily table from stored events",
	Long:  "Regenerates the forward-filled daily table from the events already in the workbook, applying manual overrides. No network or PDF access.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd.Context(), reconcile.ModeRepair)
	},
}

func init() {
	rootCmd.AddCommand(repairCmd)
}
