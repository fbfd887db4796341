package core

import "github.com/huangsam/enrollcast/schema"

// BuildRecords flattens the input history and the forecasts into rows for the
// store. Every observed point becomes an actual row. Forecast rows are the
// points after the latest year seen anywhere in the input. Rows follow
// program order, then year.
func BuildRecords(seriesByProgram map[string]schema.Series, outcome *schema.ForecastOutcome) []schema.PersistedRecord {
	maxYear := 0
	for _, s := range seriesByProgram {
		maxYear = max(maxYear, s.LastYear())
	}

	var records []schema.PersistedRecord
	for _, code := range orderPrograms(seriesByProgram) {
		for _, p := range seriesByProgram[code].Points {
			records = append(records, schema.PersistedRecord{
				CourseCode: code,
				Year:       p.Year,
				Enrollment: p.Enrollment,
				IsActual:   true,
			})
		}

		if outcome == nil {
			continue
		}
		result, ok := outcome.Results[code]
		if !ok {
			continue
		}
		for _, p := range result.Points {
			if p.Year <= maxYear {
				continue
			}
			lower, upper := p.LowerBound, p.UpperBound
			records = append(records, schema.PersistedRecord{
				CourseCode: code,
				Year:       p.Year,
				Enrollment: p.Predicted,
				IsActual:   false,
				LowerBound: &lower,
				UpperBound: &upper,
			})
		}
	}
	return records
}
