// Package algo contains the numeric pieces of the enrollment forecast:
// bound heuristics, growth dampening, the trend fit and post-processing.
package algo

import (
	"math"
	"slices"

	"github.com/huangsam/enrollcast/schema"
)

// Multipliers applied to the history when deriving bounds. The aggregate is
// tighter because it is more stable than any single program.
const (
	aggregateCapMax     = 1.15
	aggregateCapCurrent = 1.2
	aggregateFloorMin   = 0.95
	aggregateFloorCur   = 0.8

	growingCapMax     = 1.25
	growingCapCurrent = 1.3
	growingFloorMin   = 0.9
	growingFloorCur   = 0.75

	shrinkingCapMax     = 1.1
	shrinkingCapCurrent = 1.15
	shrinkingFloorMin   = 0.95
	shrinkingFloorCur   = 0.85
)

// boundsEpsilon is the relative gap enforced between floor and cap.
const boundsEpsilon = 1e-6

// ComputeBounds derives the floor and cap for a program from its history and
// its weighted growth. A non-negative growth selects the wider band.
func ComputeBounds(series schema.Series, programCode string, weightedGrowth float64) schema.Bounds {
	values := series.Values()
	if len(values) == 0 {
		return separate(0, 0)
	}

	historicalMax := slices.Max(values)
	historicalMin := slices.Min(values)
	current := values[len(values)-1]

	var floor, capacity float64
	switch {
	case programCode == schema.GrandTotal:
		capacity = math.Min(historicalMax*aggregateCapMax, current*aggregateCapCurrent)
		floor = math.Max(historicalMin*aggregateFloorMin, current*aggregateFloorCur)
	case weightedGrowth >= 0:
		capacity = math.Min(historicalMax*growingCapMax, current*growingCapCurrent)
		floor = math.Max(historicalMin*growingFloorMin, current*growingFloorCur)
	default:
		capacity = math.Min(historicalMax*shrinkingCapMax, current*shrinkingCapCurrent)
		floor = math.Max(historicalMin*shrinkingFloorMin, current*shrinkingFloorCur)
	}

	return separate(floor, capacity)
}

// separate guarantees floor < cap by lifting the cap when the pair collapses.
func separate(floor, capacity float64) schema.Bounds {
	if floor < capacity {
		return schema.Bounds{Floor: floor, Cap: capacity}
	}
	gap := math.Max(math.Abs(floor), 1) * boundsEpsilon
	return schema.Bounds{Floor: floor, Cap: floor + gap}
}
