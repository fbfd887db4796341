// Package outwriter renders forecasts, summaries and store rows as text tables, CSV, JSON or Parquet.
package outwriter

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/huangsam/enrollcast/internal/contract"
	"github.com/huangsam/enrollcast/schema"
)

// OutWriter is the output facade held by core. Each method dispatches on cfg.Output.
type OutWriter struct{}

// NewOutWriter returns an OutWriter.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteForecast prints forecast results using the configured output format.
func (ow *OutWriter) WriteForecast(outcome *schema.ForecastOutcome, cfg *contract.Config, duration time.Duration) error {
	return PrintForecastResults(outcome, cfg, duration)
}

// WriteSummary prints future-only summaries using the configured output format.
func (ow *OutWriter) WriteSummary(summaries map[string]schema.ForecastSummary, order []string, cfg *contract.Config, duration time.Duration) error {
	return PrintSummaryResults(summaries, order, cfg, duration)
}

// WriteRecords prints the rows destined for the store using the configured output format.
func (ow *OutWriter) WriteRecords(records []schema.PersistedRecord, cfg *contract.Config, duration time.Duration) error {
	return PrintRecords(records, cfg, duration)
}

// WriteStoredRecords prints rows read back from the store using the configured output format.
func (ow *OutWriter) WriteStoredRecords(records []schema.StoredRecord, cfg *contract.Config) error {
	return PrintStoredRecords(records, cfg)
}

// LogForecastHeader prints a concise, 2-line header before a forecast run.
func LogForecastHeader(w io.Writer, cfg *contract.Config, programs int) {
	input, target := "📄 Input", "🎯 Horizon"
	if !cfg.UseEmojis {
		input, target = "Input", "Horizon"
	}
	_, _ = fmt.Fprintf(w, "%s: %s (%d programs)\n", input, cfg.InputPath, programs)
	_, _ = fmt.Fprintf(w, "%s: through %d (interval %.0f%%)\n", target, cfg.TargetYear, cfg.IntervalWidth*100)
}

// Column budget for program names in the forecast table.
const (
	fallbackTermWidth = 80 // used when stdout is not a terminal
	fixedColumnsWidth = 70 // trend, year, predicted, lower, upper and borders
	minNameWidth      = 10
	maxNameWidth      = 40
)

// GetMaxTableNameWidth returns how many characters a program name may use
// in the forecast table. --width overrides the detected terminal width.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	width := cfg.Width
	if width <= 0 {
		width = fallbackTermWidth
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	return min(max(width-fixedColumnsWidth, minNameWidth), maxNameWidth)
}
