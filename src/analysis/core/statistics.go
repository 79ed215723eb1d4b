package core

import "math"

// -----------------------------------------------------------------------------

// CalculateMeanStd computes mean and population standard deviation.
func CalculateMeanStd(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(len(data))

	if len(data) == 1 {
		return mean, 0
	}

	varianceSum := 0.0
	for _, v := range data {
		varianceSum += (v - mean) * (v - mean)
	}
	std := math.Sqrt(varianceSum / float64(len(data)))
	return mean, std
}

// -----------------------------------------------------------------------------

// Mean is CalculateMeanStd without the deviation.
func Mean(data []float64) float64 {
	mean, _ := CalculateMeanStd(data)
	return mean
}

// -----------------------------------------------------------------------------

// RoundPct converts a 0..1 rate to a whole percentage.
func RoundPct(rate float64) int {
	return int(math.Round(rate * 100))
}
