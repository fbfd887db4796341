package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/enrollcast/schema"
)

// Accepted header names, compared case-insensitively after trimming.
var (
	programHeaders    = []string{"course code", "programcode", "program_code", "program code", "course_code", "coursecode"}
	yearHeaders       = []string{"year"}
	enrollmentHeaders = []string{"enrollment", "enrollees", "count"}
)

// ParseCSV reads enrollment rows from r. The first record is the header.
func ParseCSV(r io.Reader) ([]schema.EnrollmentRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	programIdx, yearIdx, enrollmentIdx, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []schema.EnrollmentRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}

		year, err := parseYear(record[yearIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid year %q: %w", line, record[yearIdx], err)
		}
		enrollment, err := strconv.ParseFloat(strings.TrimSpace(record[enrollmentIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid enrollment %q: %w", line, record[enrollmentIdx], err)
		}

		rows = append(rows, schema.EnrollmentRow{
			ProgramCode: strings.TrimSpace(record[programIdx]),
			Year:        year,
			Enrollment:  enrollment,
		})
	}

	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

// locateColumns finds the program, year and enrollment column indexes.
func locateColumns(header []string) (program, year, enrollment int, err error) {
	program, year, enrollment = -1, -1, -1
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch {
		case program < 0 && slices.Contains(programHeaders, name):
			program = i
		case year < 0 && slices.Contains(yearHeaders, name):
			year = i
		case enrollment < 0 && slices.Contains(enrollmentHeaders, name):
			enrollment = i
		}
	}

	var missing []string
	if program < 0 {
		missing = append(missing, "program code")
	}
	if year < 0 {
		missing = append(missing, "year")
	}
	if enrollment < 0 {
		missing = append(missing, "enrollment")
	}
	if len(missing) > 0 {
		return 0, 0, 0, fmt.Errorf("csv header is missing columns: %s", strings.Join(missing, ", "))
	}
	return program, year, enrollment, nil
}

// parseYear accepts integer years and float renderings such as "2021.0".
func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if year, err := strconv.Atoi(s); err == nil {
		return year, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("year must be a whole number")
	}
	return int(f), nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
