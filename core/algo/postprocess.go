package algo

import (
	"math"

	"github.com/huangsam/enrollcast/schema"
)

// SmoothingSpan is the EWM span applied to predictions (alpha = 2/(span+1)).
const SmoothingSpan = 3

// PostProcess turns raw fitter output into a ForecastResult. It clips to the
// bounds, reshapes the future with logarithmic growth from the last fitted
// historical value, smooths predictions and keeps every interval around its
// prediction.
func PostProcess(programCode string, raw []RawPoint, bounds schema.Bounds, weightedGrowth float64, lastHistoricalYear int) schema.ForecastResult {
	points := make([]schema.ForecastPoint, len(raw))
	base, hasBase := 0.0, false
	var futureIdx []int

	for i, r := range raw {
		points[i] = schema.ForecastPoint{
			Year:       r.Year,
			Predicted:  bounds.Clamp(r.Yhat),
			LowerBound: math.Max(r.YhatLower, bounds.Floor),
			UpperBound: math.Min(r.YhatUpper, bounds.Cap),
			IsFuture:   r.Year > lastHistoricalYear,
		}
		if points[i].IsFuture {
			futureIdx = append(futureIdx, i)
		} else {
			base, hasBase = points[i].Predicted, true
		}
	}

	if hasBase && len(futureIdx) > 0 {
		reshaped := ReshapeFuture(base, weightedGrowth, len(futureIdx))
		for k, idx := range futureIdx {
			points[idx].Predicted = bounds.Clamp(reshaped[k])
		}
	}

	predicted := make([]float64, len(points))
	for i := range points {
		predicted[i] = points[i].Predicted
	}
	for i, v := range ExponentialSmooth(predicted, SmoothingSpan) {
		p := &points[i]
		p.Predicted = v
		p.LowerBound = bounds.Clamp(math.Min(p.LowerBound, v))
		p.UpperBound = bounds.Clamp(math.Max(p.UpperBound, v))
	}

	return schema.ForecastResult{
		ProgramCode:        programCode,
		Bounds:             bounds,
		WeightedGrowth:     weightedGrowth,
		LastHistoricalYear: lastHistoricalYear,
		Points:             points,
	}
}

// ExponentialSmooth applies a recursive exponentially weighted mean seeded
// with the first value: s[0] = v[0], s[i] = a*v[i] + (1-a)*s[i-1].
func ExponentialSmooth(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2 / (float64(span) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}
