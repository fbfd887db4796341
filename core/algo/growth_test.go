package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeWeightedGrowth(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"single point", []float64{100}, 0},
		{"flat", []float64{100, 100, 100}, 0},
		{"three points", []float64{100, 120, 150}, 0.1125},
		// overall: mean(0.1, 0.1, 0.5) = 0.2333; recent: mean(0.1, 0.5) = 0.3
		{"recent window differs", []float64{100, 110, 121, 181.5}, (0.3*0.7 + (0.7/3)*0.3) * 0.5},
		{"declining", []float64{200, 100}, -0.25},
		{"zero predecessor skipped", []float64{0, 100, 110}, 0.05},
		{"no defined delta", []float64{0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeWeightedGrowth(makeSeries("P", 2000, tt.values...))
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestLogGrowthFactor(t *testing.T) {
	assert.Equal(t, 0.0, LogGrowthFactor(3, 0))
	assert.Greater(t, LogGrowthFactor(1, 0.1), 0.0)
	assert.Less(t, LogGrowthFactor(1, -0.1), 0.0)
	assert.InDelta(t, -LogGrowthFactor(2, 0.2), LogGrowthFactor(2, -0.2), 1e-12)
	// Compounding is sub-linear in k.
	assert.Less(t, LogGrowthFactor(4, 0.1), 4*LogGrowthFactor(1, 0.1))
}

func TestReshapeFuture(t *testing.T) {
	t.Run("positive growth increases with horizon", func(t *testing.T) {
		values := ReshapeFuture(150, 0.1125, 5)
		assert.Len(t, values, 5)
		for i := 1; i < len(values); i++ {
			assert.Greater(t, values[i], values[i-1])
		}
		assert.Greater(t, values[0], 150.0)
	})

	t.Run("negative growth decreases with horizon", func(t *testing.T) {
		values := ReshapeFuture(150, -0.05, 4)
		for i := 1; i < len(values); i++ {
			assert.Less(t, values[i], values[i-1])
		}
	})

	t.Run("zero growth stays at base", func(t *testing.T) {
		assert.Equal(t, []float64{80, 80}, ReshapeFuture(80, 0, 2))
	})

	t.Run("empty horizon", func(t *testing.T) {
		assert.Empty(t, ReshapeFuture(80, 0.1, 0))
	})
}
