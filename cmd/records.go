package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/enrollcast/core"
	"github.com/huangsam/enrollcast/internal/contract"
)

// recordsCmd prints the rows a persisted forecast would write.
var recordsCmd = &cobra.Command{
	Use:   "records [input-file]",
	Short: "Show the actual and forecast rows that --persist would store.",
	Long: `Build the store rows without writing them.

Every history point becomes an actual row. Forecast rows cover the years
after the latest year found anywhere in the input, with their interval
bounds attached.

Examples:
  # Inspect the rows before persisting
  enrollcast records history.csv

  # Hand them to another tool as CSV
  enrollcast records history.csv --output csv --output-file rows.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRecords(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot build records", err)
		}
	},
}
