package core

import "github.com/huangsam/enrollcast/schema"

// Summarize keeps only the points after currentYear for every result.
// Programs with nothing after currentYear map to an empty summary.
func Summarize(results map[string]schema.ForecastResult, currentYear int) map[string]schema.ForecastSummary {
	summaries := make(map[string]schema.ForecastSummary, len(results))
	for code, r := range results {
		var s schema.ForecastSummary
		for _, p := range r.Points {
			if p.Year <= currentYear {
				continue
			}
			s.Years = append(s.Years, p.Year)
			s.Predicted = append(s.Predicted, p.Predicted)
			s.Lower = append(s.Lower, p.LowerBound)
			s.Upper = append(s.Upper, p.UpperBound)
		}
		summaries[code] = s
	}
	return summaries
}
