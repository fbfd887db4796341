// Package loader reads enrollment history from CSV or Parquet files and
// groups it into one series per program.
package loader

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/huangsam/enrollcast/internal/contract"
	"github.com/huangsam/enrollcast/internal/parquet"
	"github.com/huangsam/enrollcast/schema"
)

// ErrNoRows is returned when an input yields no usable rows.
var ErrNoRows = errors.New("input contains no enrollment rows")

// FileLoader loads series from a path, picking the reader by file extension.
type FileLoader struct{}

var _ contract.SeriesLoader = FileLoader{} // Compile-time check

// Load implements contract.SeriesLoader.
func (FileLoader) Load(ctx context.Context, path string) (map[string]schema.Series, error) {
	return LoadFile(ctx, path)
}

// LoadFile reads path as CSV or Parquet and returns series keyed by program code.
func LoadFile(ctx context.Context, path string) (map[string]schema.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		rows []schema.EnrollmentRow
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = readCSVFile(path)
	case ".parquet":
		rows, err = readParquetFile(path)
	default:
		return nil, fmt.Errorf("unsupported input format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	return BuildSeries(rows)
}

func readCSVFile(path string) ([]schema.EnrollmentRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return ParseCSV(file)
}

func readParquetFile(path string) ([]schema.EnrollmentRow, error) {
	inputRows, err := parquet.ReadInputRows(path)
	if err != nil {
		return nil, err
	}
	rows := make([]schema.EnrollmentRow, len(inputRows))
	for i, r := range inputRows {
		rows[i] = schema.EnrollmentRow{
			ProgramCode: strings.TrimSpace(r.ProgramCode),
			Year:        int(r.Year),
			Enrollment:  r.Enrollment,
		}
	}
	return rows, nil
}

// BuildSeries groups rows by program code and orders each series by year.
// Rows with an empty code, a negative or non-finite enrollment, or a year
// repeated within a program are rejected.
func BuildSeries(rows []schema.EnrollmentRow) (map[string]schema.Series, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	grouped := make(map[string][]schema.HistoricalPoint)
	for i, r := range rows {
		code := strings.TrimSpace(r.ProgramCode)
		if code == "" {
			return nil, fmt.Errorf("row %d: empty program code", i+1)
		}
		if math.IsNaN(r.Enrollment) || math.IsInf(r.Enrollment, 0) || r.Enrollment < 0 {
			return nil, fmt.Errorf("row %d: invalid enrollment %v for %s", i+1, r.Enrollment, code)
		}
		grouped[code] = append(grouped[code], schema.HistoricalPoint{Year: r.Year, Enrollment: r.Enrollment})
	}

	result := make(map[string]schema.Series, len(grouped))
	for code, points := range grouped {
		slices.SortFunc(points, func(a, b schema.HistoricalPoint) int { return a.Year - b.Year })
		for i := 1; i < len(points); i++ {
			if points[i].Year == points[i-1].Year {
				return nil, fmt.Errorf("duplicate year %d for %s", points[i].Year, code)
			}
		}
		result[code] = schema.Series{ProgramCode: code, Points: points}
	}
	return result, nil
}
