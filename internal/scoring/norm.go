package scoring

import (
	"math"
	"sort"
)

// LogNorm maps x into [0,1] on a log scale between min and max:
// clamp((ln(1+x) − ln(1+min)) / (ln(1+max) − ln(1+min)), 0, 1).
// Defined as exactly 0.5 when max <= min so a degenerate single-point
// batch scores neutrally instead of dividing by zero.
func LogNorm(x, min, max float64) float64 {
	if max <= min {
		return 0.5
	}
	numerator := math.Log(1+x) - math.Log(1+min)
	denominator := math.Log(1+max) - math.Log(1+min)
	return clamp(numerator/denominator, 0, 1)
}

func clamp(value, min, max float64) float64 {
	return math.Max(min, math.Min(max, value))
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
