package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/enrollcast/schema"
)

func TestBuildRecords(t *testing.T) {
	seriesByProgram := map[string]schema.Series{
		schema.GrandTotal: makeSeries(schema.GrandTotal, 2021, 900, 950, 1000),
		"BSCS":            makeSeries("BSCS", 2020, 100, 120),
	}
	outcome := &schema.ForecastOutcome{
		Results: map[string]schema.ForecastResult{
			schema.GrandTotal: {Points: []schema.ForecastPoint{
				{Year: 2023, Predicted: 990},
				{Year: 2024, Predicted: 1010, LowerBound: 980, UpperBound: 1040, IsFuture: true},
			}},
			// BSCS ends in 2021, so its 2022 and 2023 forecasts overlap the input years
			"BSCS": {Points: []schema.ForecastPoint{
				{Year: 2021, Predicted: 121},
				{Year: 2022, Predicted: 130, IsFuture: true},
				{Year: 2023, Predicted: 140, IsFuture: true},
				{Year: 2024, Predicted: 150, LowerBound: 120, UpperBound: 170, IsFuture: true},
			}},
		},
	}

	records := BuildRecords(seriesByProgram, outcome)

	var actual, forecast []schema.PersistedRecord
	for _, r := range records {
		if r.IsActual {
			actual = append(actual, r)
		} else {
			forecast = append(forecast, r)
		}
	}
	assert.Len(t, actual, 5)
	require.Len(t, forecast, 2)

	// GrandTotal first, then programs ascending
	assert.Equal(t, schema.GrandTotal, records[0].CourseCode)
	assert.Equal(t, 2021, records[0].Year)

	for _, r := range actual {
		assert.Nil(t, r.LowerBound)
		assert.Nil(t, r.UpperBound)
	}

	assert.Equal(t, schema.PersistedRecord{CourseCode: schema.GrandTotal, Year: 2024, Enrollment: 1010, LowerBound: ptr(980), UpperBound: ptr(1040)}, forecast[0])
	assert.Equal(t, "BSCS", forecast[1].CourseCode)
	assert.Equal(t, 2024, forecast[1].Year)
	assert.Equal(t, 150.0, forecast[1].Enrollment)
}

func TestBuildRecordsWithoutOutcome(t *testing.T) {
	seriesByProgram := map[string]schema.Series{"BSCS": makeSeries("BSCS", 2020, 100, 120, 150)}
	records := BuildRecords(seriesByProgram, nil)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.True(t, r.IsActual)
	}
}

func TestBuildRecordsUniqueKeys(t *testing.T) {
	outcome, err := ForecastAll(t.Context(), sampleSeries(), Options{TargetYear: 2026})
	require.NoError(t, err)

	type key struct {
		code string
		year int
	}
	seen := make(map[key]bool)
	for _, r := range BuildRecords(sampleSeries(), outcome) {
		k := key{r.CourseCode, r.Year}
		assert.False(t, seen[k], "duplicate key %s %d", r.CourseCode, r.Year)
		seen[k] = true
	}
}

func ptr(v float64) *float64 { return &v }
