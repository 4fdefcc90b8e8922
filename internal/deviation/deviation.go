package deviation

import "math"

// #region percent

// Percent computes the percentage deviation of current from base.
// Negative means a decrease. Returns 0 when base is 0.
func Percent(current, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (current - base) / base * 100
}

// #endregion percent

// #region stats

// Mean computes the arithmetic mean. Empty input yields 0.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev computes the population standard deviation (divide by N).
// Fewer than 2 values yields 0.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// #endregion stats
