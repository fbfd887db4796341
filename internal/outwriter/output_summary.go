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
	"github.com/huangsam/enrollcast/schema"
)

// PrintSummaryResults outputs the future-only summaries, dispatching based on the output format configured.
func PrintSummaryResults(summaries map[string]schema.ForecastSummary, order []string, cfg *contract.Config, duration time.Duration) error {
	if cfg.Output == schema.ParquetOut {
		return fmt.Errorf("parquet output is not supported for summaries")
	}
	return writeToTarget(cfg.OutputFile, func(w io.Writer) error {
		return WriteSummaryResults(w, summaries, order, cfg, duration)
	}, "Wrote "+string(cfg.Output)+" summary")
}

// WriteSummaryResults writes the summaries to w following order.
func WriteSummaryResults(w io.Writer, summaries map[string]schema.ForecastSummary, order []string, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := floatFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, summaries); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeSummaryCSV(w, summaries, order, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := writeSummaryTables(w, summaries, order, cfg, fmtFloat, duration); err != nil {
			return fmt.Errorf("error writing summary table output: %w", err)
		}
	}
	return nil
}

func writeSummaryCSV(w io.Writer, summaries map[string]schema.ForecastSummary, order []string, fmtFloat func(float64) string) error {
	header := []string{"program_code", "year", "predicted", "lower_bound", "upper_bound"}
	return writeCSV(w, header, func(cw *csv.Writer) error {
		for _, code := range order {
			s := summaries[code]
			for i := range s.Years {
				row := []string{code, strconv.Itoa(s.Years[i]), fmtFloat(s.Predicted[i]), fmtFloat(s.Lower[i]), fmtFloat(s.Upper[i])}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeSummaryTables prints one four-column table per program.
func writeSummaryTables(w io.Writer, summaries map[string]schema.ForecastSummary, order []string, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	for _, code := range order {
		s, ok := summaries[code]
		if !ok {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n%s (%s)\n", schema.ProgramDisplayName(code), code)
		if s.Len() == 0 {
			_, _ = fmt.Fprintf(w, "No forecast years after %d\n", cfg.CurrentYear)
			continue
		}

		table := tablewriter.NewWriter(w)
		table.Header([]string{"Year", "Predicted", "Lower", "Upper"})
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})

		data := make([][]string, s.Len())
		for i := range s.Years {
			data[i] = []string{strconv.Itoa(s.Years[i]), fmtFloat(s.Predicted[i]), fmtFloat(s.Lower[i]), fmtFloat(s.Upper[i])}
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Summary of %d programs after %d completed in %v.\n", len(summaries), cfg.CurrentYear, duration)
	return err
}
