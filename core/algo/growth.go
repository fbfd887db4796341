package algo

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/huangsam/enrollcast/schema"
)

// Growth weighting constants.
const (
	RecentWindow    = 3   // trailing points used for recent growth
	RecentWeight    = 0.7 // share of recent growth in the blend
	OverallWeight   = 0.3 // share of overall growth in the blend
	DampeningFactor = 0.5 // applied to the blend to avoid runaway projections
)

// ComputeWeightedGrowth blends recent and overall mean relative change and
// dampens the result. A single-point series has zero growth.
func ComputeWeightedGrowth(series schema.Series) float64 {
	values := series.Values()
	if len(values) < 2 {
		return 0
	}

	overall := meanRelativeChange(values)
	recent := meanRelativeChange(values[max(0, len(values)-RecentWindow):])

	return (recent*RecentWeight + overall*OverallWeight) * DampeningFactor
}

// meanRelativeChange averages (v[i]-v[i-1])/v[i-1]. Steps from a zero value
// are undefined and left out.
func meanRelativeChange(values []float64) float64 {
	deltas := make([]float64, 0, len(values))
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		deltas = append(deltas, (values[i]-prev)/prev)
	}
	if len(deltas) == 0 {
		return 0
	}
	return stat.Mean(deltas, nil)
}

// LogGrowthFactor returns sign(w)*ln(1+k*|w|), the compounded growth applied
// k years past the last observation.
func LogGrowthFactor(k int, weightedGrowth float64) float64 {
	if weightedGrowth == 0 {
		return 0
	}
	return math.Copysign(math.Log1p(float64(k)*math.Abs(weightedGrowth)), weightedGrowth)
}

// ReshapeFuture projects horizon values from base using the logarithmic
// growth factor. The result is not clipped.
func ReshapeFuture(base, weightedGrowth float64, horizon int) []float64 {
	out := make([]float64, horizon)
	for k := 1; k <= horizon; k++ {
		out[k-1] = base * (1 + LogGrowthFactor(k, weightedGrowth))
	}
	return out
}
