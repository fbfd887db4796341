// Package parquet provides data structures and functions for reading enrollment
// history from and exporting forecast records to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/enrollcast/schema"
)

// EnrollmentRecord represents one actual or forecast row for one program and year.
// This struct maps to the enrollment_data database table.
type EnrollmentRecord struct {
	// CourseCode is the program code, GRAND_TOTAL for the aggregate
	CourseCode string `parquet:"course_code,snappy"`

	// Year is the academic year
	Year int32 `parquet:"year,snappy"`

	// Enrollment is the observed count for actual rows and the prediction otherwise
	Enrollment float64 `parquet:"enrollment,snappy"`

	// IsActual is true for observed history
	IsActual bool `parquet:"is_actual,snappy"`

	// LowerBound and UpperBound are only set on forecast rows
	LowerBound *float64 `parquet:"lower_bound,optional,snappy"`
	UpperBound *float64 `parquet:"upper_bound,optional,snappy"`

	// CreatedAt and UpdatedAt are only set on rows read back from the store
	CreatedAt *time.Time `parquet:"created_at,optional,snappy"`
	UpdatedAt *time.Time `parquet:"updated_at,optional,snappy"`
}

// InputRow is the flat row layout accepted as Parquet input.
type InputRow struct {
	ProgramCode string  `parquet:"program_code"`
	Year        int32   `parquet:"year"`
	Enrollment  float64 `parquet:"enrollment"`
}

// FromPersistedRecords converts records built by the forecaster into Parquet rows.
func FromPersistedRecords(records []schema.PersistedRecord) []EnrollmentRecord {
	out := make([]EnrollmentRecord, len(records))
	for i, r := range records {
		out[i] = EnrollmentRecord{
			CourseCode: r.CourseCode,
			Year:       int32(r.Year),
			Enrollment: r.Enrollment,
			IsActual:   r.IsActual,
			LowerBound: r.LowerBound,
			UpperBound: r.UpperBound,
		}
	}
	return out
}

// FromStoredRecords converts rows read from the store into Parquet rows.
func FromStoredRecords(records []schema.StoredRecord) []EnrollmentRecord {
	out := make([]EnrollmentRecord, len(records))
	for i, r := range records {
		createdAt, updatedAt := r.CreatedAt, r.UpdatedAt
		row := FromPersistedRecords([]schema.PersistedRecord{r.PersistedRecord})[0]
		row.CreatedAt = &createdAt
		row.UpdatedAt = &updatedAt
		out[i] = row
	}
	return out
}

// WriteEnrollmentRecordsParquet writes a slice of EnrollmentRecord structs to a Parquet file.
func WriteEnrollmentRecordsParquet(data []EnrollmentRecord, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// WriteInputRowsParquet writes enrollment history rows in the input layout.
func WriteInputRowsParquet(data []InputRow, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// ReadInputRows reads every InputRow from a Parquet file.
func ReadInputRows(inputPath string) ([]InputRow, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[InputRow](file)
	defer func() { _ = reader.Close() }()

	rows := make([]InputRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}
	return rows[:n], nil
}

// writeParquetFile writes rows using a schema derived from the struct tags of T.
func writeParquetFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
