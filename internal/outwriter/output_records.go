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

// PrintRecords outputs the rows that a forecast run persists.
func PrintRecords(records []schema.PersistedRecord, cfg *contract.Config, duration time.Duration) error {
	if cfg.Output == schema.ParquetOut {
		if err := parquet.WriteEnrollmentRecordsParquet(parquet.FromPersistedRecords(records), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		return nil
	}
	return writeToTarget(cfg.OutputFile, func(w io.Writer) error {
		return WriteRecords(w, records, cfg, duration)
	}, "Wrote "+string(cfg.Output)+" records")
}

// WriteRecords writes records to w in the configured text, CSV or JSON format.
func WriteRecords(w io.Writer, records []schema.PersistedRecord, cfg *contract.Config, duration time.Duration) error {
	stored := make([]schema.StoredRecord, len(records))
	for i, r := range records {
		stored[i] = schema.StoredRecord{PersistedRecord: r}
	}

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, records)
	default:
		if err := writeRecordRows(w, stored, cfg, false); err != nil {
			return err
		}
	}
	if cfg.Output == schema.TextOut {
		_, err := fmt.Fprintf(w, "Built %d records in %v.\n", len(records), duration)
		return err
	}
	return nil
}

// PrintStoredRecords outputs rows read back from the store, including timestamps.
func PrintStoredRecords(records []schema.StoredRecord, cfg *contract.Config) error {
	if cfg.Output == schema.ParquetOut {
		if err := parquet.WriteEnrollmentRecordsParquet(parquet.FromStoredRecords(records), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		return nil
	}
	return writeToTarget(cfg.OutputFile, func(w io.Writer) error {
		return WriteStoredRecords(w, records, cfg)
	}, "Wrote "+string(cfg.Output)+" stored records")
}

// WriteStoredRecords writes stored rows to w in the configured text, CSV or JSON format.
func WriteStoredRecords(w io.Writer, records []schema.StoredRecord, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeJSON(w, records)
	}
	return writeRecordRows(w, records, cfg, true)
}

// writeRecordRows renders records as CSV or as a table.
func writeRecordRows(w io.Writer, records []schema.StoredRecord, cfg *contract.Config, withTimestamps bool) error {
	fmtFloat := floatFormatter(cfg.Precision)

	header := []string{"course_code", "year", "enrollment", "is_actual", "lower_bound", "upper_bound"}
	if withTimestamps {
		header = append(header, "created_at", "updated_at")
	}
	toRow := func(r schema.StoredRecord) []string {
		row := []string{
			r.CourseCode,
			strconv.Itoa(r.Year),
			fmtFloat(r.Enrollment),
			strconv.FormatBool(r.IsActual),
			formatOptional(r.LowerBound, fmtFloat),
			formatOptional(r.UpperBound, fmtFloat),
		}
		if withTimestamps {
			row = append(row, r.CreatedAt.Format(time.RFC3339), r.UpdatedAt.Format(time.RFC3339))
		}
		return row
	}

	if cfg.Output == schema.CSVOut {
		return writeCSV(w, header, func(cw *csv.Writer) error {
			for _, r := range records {
				if err := cw.Write(toRow(r)); err != nil {
					return err
				}
			}
			return nil
		})
	}

	table := tablewriter.NewWriter(w)
	table.Header(header)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	data := make([][]string, len(records))
	for i, r := range records {
		data[i] = toRow(r)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
