package engine

import (
	"math"
	"math/rand"
)

// Baseline stochastic drift, independent of news.
const (
	Drift     = 0.001 // slight upward bias, percent points
	WalkSigma = 0.015
)

// -----------------------------------------------------------------------------

// Gaussian draws from Normal(mu, sigma) using the Box-Muller transform.
// Uniform draws of exactly 0 are rejected so log(0) can never occur.
func Gaussian(rng *rand.Rand, mu, sigma float64) float64 {
	var u, v float64
	for u == 0 {
		u = rng.Float64()
	}
	for v == 0 {
		v = rng.Float64()
	}
	z0 := math.Sqrt(-2.0*math.Log(u)) * math.Cos(2.0*math.Pi*v)
	return z0*sigma + mu
}

// -----------------------------------------------------------------------------

// BasePriceChange returns the drift + random walk component for one symbol
// tick, as a price fraction.
func BasePriceChange(rng *rand.Rand) float64 {
	return (Drift + Gaussian(rng, 0, WalkSigma)) / 100
}
