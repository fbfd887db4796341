package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/enrollcast/internal/parquet"
	"github.com/huangsam/enrollcast/schema"
)

const sampleCSV = `Course Code,Year,Enrollment
GRAND_TOTAL,2020,1000
GRAND_TOTAL,2021,1100
 BSCS ,2022,150
BSCS,2020,100
BSCS,2021,120
BSIT,2021.0,80
`

func TestParseCSV(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, schema.EnrollmentRow{ProgramCode: "BSCS", Year: 2022, Enrollment: 150}, rows[2])
	assert.Equal(t, 2021, rows[5].Year)
}

func TestParseCSVHeaderVariants(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"camel case", "programCode,year,enrollment"},
		{"snake case", "program_code,YEAR,Enrollment"},
		{"reordered", "Enrollment,Year,Course Code"},
		{"byte order mark", "\ufeffCourse Code,Year,Enrollment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body string
			if strings.HasPrefix(tt.name, "reordered") {
				body = "10,2020,BSA\n"
			} else {
				body = "BSA,2020,10\n"
			}
			rows, err := ParseCSV(strings.NewReader(tt.header + "\n" + body))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "BSA", rows[0].ProgramCode)
			assert.Equal(t, 2020, rows[0].Year)
			assert.Equal(t, 10.0, rows[0].Enrollment)
		})
	}
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"header only", "Course Code,Year,Enrollment\n"},
		{"missing column", "Course Code,Year\nBSA,2020\n"},
		{"bad year", "Course Code,Year,Enrollment\nBSA,twenty,10\n"},
		{"fractional year", "Course Code,Year,Enrollment\nBSA,2020.5,10\n"},
		{"bad enrollment", "Course Code,Year,Enrollment\nBSA,2020,many\n"},
		{"ragged row", "Course Code,Year,Enrollment\nBSA,2020\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestBuildSeries(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	series, err := BuildSeries(rows)
	require.NoError(t, err)
	require.Len(t, series, 3)

	bscs := series["BSCS"]
	assert.Equal(t, "BSCS", bscs.ProgramCode)
	assert.Equal(t, []float64{100, 120, 150}, bscs.Values())
	assert.Equal(t, 2022, bscs.LastYear())
	assert.Equal(t, 2, series[schema.GrandTotal].Len())
}

func TestBuildSeriesErrors(t *testing.T) {
	tests := []struct {
		name string
		rows []schema.EnrollmentRow
	}{
		{"no rows", nil},
		{"duplicate year", []schema.EnrollmentRow{{ProgramCode: "A", Year: 2020, Enrollment: 1}, {ProgramCode: "A", Year: 2020, Enrollment: 2}}},
		{"negative", []schema.EnrollmentRow{{ProgramCode: "A", Year: 2020, Enrollment: -1}}},
		{"empty code", []schema.EnrollmentRow{{ProgramCode: " ", Year: 2020, Enrollment: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildSeries(tt.rows)
			assert.Error(t, err)
		})
	}
}

func TestLoadFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrollment.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	series, err := FileLoader{}.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, series, 3)
}

func TestLoadFileParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrollment.parquet")
	require.NoError(t, parquet.WriteInputRowsParquet([]parquet.InputRow{
		{ProgramCode: "BSN", Year: 2021, Enrollment: 300},
		{ProgramCode: "BSN", Year: 2020, Enrollment: 280},
		{ProgramCode: " BSN", Year: 2022, Enrollment: 310},
	}, path))

	series, err := LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Contains(t, series, "BSN")
	assert.Equal(t, []float64{280, 300, 310}, series["BSN"].Values())
}

func TestLoadFileUnsupported(t *testing.T) {
	_, err := LoadFile(context.Background(), "enrollment.xlsx")
	assert.Error(t, err)
}

func TestLoadFileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadFile(ctx, "enrollment.csv")
	assert.ErrorIs(t, err, context.Canceled)
}
