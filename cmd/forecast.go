package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/enrollcast/core"
	"github.com/huangsam/enrollcast/internal/contract"
)

// forecastCmd fits every program and prints the projected years.
var forecastCmd = &cobra.Command{
	Use:   "forecast [input-file]",
	Short: "Forecast enrollment per program up to the target year.",
	Long: `Fit a bounded logistic trend to each program's history and project
enrollment through --target-year with a prediction interval.

The GRAND_TOTAL series is always forecast. Other programs need at least
three years of history; shorter series are listed as skipped.

Each program gets:
- A floor and cap derived from its dampened growth rate
- Predictions clipped into that range and smoothed, oldest year first
- Lower and upper interval bounds that always contain the prediction

Examples:
  # Forecast every program through 2029
  enrollcast forecast history.csv

  # Forecast one program by code or display name
  enrollcast forecast history.csv --program "All Colleges" --target-year 2030

  # Save the rows to the store after forecasting
  enrollcast forecast history.csv --persist

  # Export the forecast to Parquet
  enrollcast forecast history.parquet --output parquet --output-file forecast.parquet`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteForecast(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run forecast", err)
		}
	},
}
