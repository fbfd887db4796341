package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/huangsam/enrollcast/internal/contract"
)

// writeToTarget sends render to stdout, or to path when one is given.
// File targets are closed afterwards and announced on stderr.
func writeToTarget(path string, render func(io.Writer) error, label string) error {
	out, err := contract.SelectOutputFile(path)
	if err != nil {
		return err
	}
	if out == os.Stdout {
		return render(out)
	}
	defer func() { _ = out.Close() }()

	if err := render(out); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 %s to %s\n", label, path)
	return nil
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("cannot encode JSON output: %w", err)
	}
	return nil
}

// writeCSV writes header, lets rows fill the body, then flushes.
func writeCSV(w io.Writer, header []string, rows func(*csv.Writer) error) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}
	if err := rows(cw); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// floatFormatter renders numbers with a fixed number of decimals.
func floatFormatter(precision int) func(float64) string {
	return func(v float64) string {
		return strconv.FormatFloat(v, 'f', precision, 64)
	}
}

// formatOptional renders a nullable number, or an empty string.
func formatOptional(v *float64, fmtFloat func(float64) string) string {
	if v == nil {
		return ""
	}
	return fmtFloat(*v)
}

// trendLabel picks the colored or plain trend label.
func trendLabel(weightedGrowth float64, useColors bool) string {
	if useColors {
		return contract.GetColorTrendLabel(weightedGrowth)
	}
	return contract.GetPlainTrendLabel(weightedGrowth)
}
