package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/enrollcast/internal/contract"
	"github.com/huangsam/enrollcast/internal/parquet"
	"github.com/huangsam/enrollcast/schema"
)

// forecastJSON is the JSON shape of one program forecast.
type forecastJSON struct {
	schema.ForecastResult
	DisplayName string `json:"display_name"`
	Trend       string `json:"trend"`
}

// forecastOutcomeJSON is the JSON shape of a full forecast run.
type forecastOutcomeJSON struct {
	Forecasts []forecastJSON    `json:"forecasts"`
	Skipped   []string          `json:"skipped,omitempty"`
	Failures  map[string]string `json:"failures,omitempty"`
}

// PrintForecastResults outputs the forecast, dispatching based on the output format configured.
func PrintForecastResults(outcome *schema.ForecastOutcome, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.ParquetOut:
		rows := parquet.FromPersistedRecords(futureRecords(outcome))
		if err := parquet.WriteEnrollmentRecordsParquet(rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		return nil
	default:
		return writeToTarget(cfg.OutputFile, func(w io.Writer) error {
			return WriteForecastResults(w, outcome, cfg, duration)
		}, "Wrote "+string(cfg.Output)+" forecast")
	}
}

// WriteForecastResults writes the forecast to w in the configured text, CSV or JSON format.
func WriteForecastResults(w io.Writer, outcome *schema.ForecastOutcome, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := floatFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, buildForecastJSON(outcome)); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeForecastCSV(w, outcome, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := writeForecastTable(w, outcome, cfg, fmtFloat, duration); err != nil {
			return fmt.Errorf("error writing forecast table output: %w", err)
		}
	}
	return nil
}

func buildForecastJSON(outcome *schema.ForecastOutcome) forecastOutcomeJSON {
	out := forecastOutcomeJSON{Forecasts: []forecastJSON{}, Skipped: outcome.Skipped}
	for _, r := range outcome.OrderedResults() {
		out.Forecasts = append(out.Forecasts, forecastJSON{
			ForecastResult: r,
			DisplayName:    schema.ProgramDisplayName(r.ProgramCode),
			Trend:          contract.GetPlainTrendLabel(r.WeightedGrowth),
		})
	}
	if len(outcome.Failures) > 0 {
		out.Failures = make(map[string]string, len(outcome.Failures))
		for _, f := range outcome.Failures {
			out.Failures[f.ProgramCode] = f.Err.Error()
		}
	}
	return out
}

// writeForecastCSV writes every point, fitted and future, one row per program and year.
func writeForecastCSV(w io.Writer, outcome *schema.ForecastOutcome, fmtFloat func(float64) string) error {
	header := []string{"program_code", "year", "predicted", "lower_bound", "upper_bound", "is_future", "floor", "cap", "trend"}
	return writeCSV(w, header, func(cw *csv.Writer) error {
		for _, r := range outcome.OrderedResults() {
			trend := contract.GetPlainTrendLabel(r.WeightedGrowth)
			for _, p := range r.Points {
				row := []string{
					r.ProgramCode,
					strconv.Itoa(p.Year),
					fmtFloat(p.Predicted),
					fmtFloat(p.LowerBound),
					fmtFloat(p.UpperBound),
					strconv.FormatBool(p.IsFuture),
					fmtFloat(r.Bounds.Floor),
					fmtFloat(r.Bounds.Cap),
					trend,
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeForecastTable prints future points for every program in one table.
func writeForecastTable(w io.Writer, outcome *schema.ForecastOutcome, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Program", "Trend", "Year", "Predicted", "Lower", "Upper"}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := GetMaxTableNameWidth(cfg)
	var data [][]string
	for _, r := range outcome.OrderedResults() {
		name := contract.TruncateText(schema.ProgramDisplayName(r.ProgramCode), nameWidth)
		trend := trendLabel(r.WeightedGrowth, cfg.UseColors)
		for _, p := range r.FuturePoints() {
			data = append(data, []string{
				name,
				trend,
				strconv.Itoa(p.Year),
				fmtFloat(p.Predicted),
				fmtFloat(p.LowerBound),
				fmtFloat(p.UpperBound),
			})
		}
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(outcome.Skipped) > 0 {
		_, _ = fmt.Fprintf(w, "Skipped %d programs with fewer than %d years of history: %v\n", len(outcome.Skipped), schema.MinProgramPoints, outcome.Skipped)
	}
	if len(outcome.Failures) > 0 {
		_, _ = fmt.Fprintf(w, "Failed to forecast %d programs, see warnings above\n", len(outcome.Failures))
	}
	_, err := fmt.Fprintf(w, "Forecast of %d programs through %d completed in %v with %d workers.\n", len(outcome.Results), cfg.TargetYear, duration, cfg.Workers)
	return err
}

// futureRecords converts the future points of every result into store rows.
func futureRecords(outcome *schema.ForecastOutcome) []schema.PersistedRecord {
	var records []schema.PersistedRecord
	for _, r := range outcome.OrderedResults() {
		for _, p := range r.FuturePoints() {
			lower, upper := p.LowerBound, p.UpperBound
			records = append(records, schema.PersistedRecord{
				CourseCode: r.ProgramCode,
				Year:       p.Year,
				Enrollment: p.Predicted,
				LowerBound: &lower,
				UpperBound: &upper,
			})
		}
	}
	return records
}
