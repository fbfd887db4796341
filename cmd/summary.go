package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/enrollcast/core"
	"github.com/huangsam/enrollcast/internal/contract"
)

// summaryCmd prints the forecast years after the current year.
var summaryCmd = &cobra.Command{
	Use:   "summary [input-file]",
	Short: "Summarize forecast years after the current year.",
	Long: `Run the forecast and keep only the years after --current-year.

For each program the summary lists Year, Predicted, Lower and Upper.
When --current-year is 0 the wall-clock year is used.

Examples:
  # Upcoming years for every program
  enrollcast summary history.csv

  # Pretend it is 2025 and write JSON
  enrollcast summary history.csv --current-year 2025 --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSummary(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run summary", err)
		}
	},
}
