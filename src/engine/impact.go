package engine

import (
	"market-sim/src/models"
)

// Behavioral parameters of the price impact model.
const (
	ImpactCap           = 0.02 // one fully decayed, fully prominent item moves price at most 2%
	GainDamping         = 0.7  // loss aversion: gains dampened
	LossAmplification   = 1.3  // losses hit harder
	MeanReversionFactor = 0.95
	AttentionFloor      = 0.3
	LagRealization      = 0.6 // 60% of the reaction lands this tick; the rest is lost to friction, not deferred
)

// -----------------------------------------------------------------------------

// Impact is the per-symbol output of the news impact model.
type Impact struct {
	Lagged    float64 // price contribution realized this tick
	Sentiment float64 // display sentiment in [-1, 1]
}

// -----------------------------------------------------------------------------

// PriceImpact converts the active news set into a bounded price contribution
// for one symbol. Items targeting the whole market or this symbol contribute
// sentiment * decay * optics * cap; loss aversion is applied once to the
// aggregate, and only the lag-realized fraction reaches the price.
func PriceImpact(symbol string, news []models.MNewsItem) Impact {
	total := 0.0

	for _, item := range news {
		if item.Archived || item.Decay <= 0 {
			continue
		}
		if item.Target != models.NewsTargetMarket && item.Target != symbol {
			continue
		}
		total += item.Sentiment * item.Decay * item.Optics * ImpactCap
	}

	if total > 0 {
		total *= GainDamping
	} else if total < 0 {
		total *= LossAmplification
	}

	return Impact{
		Lagged:    total * LagRealization,
		Sentiment: clamp(total*10, -1, 1),
	}
}

// -----------------------------------------------------------------------------

// AttentionFaded reports whether no news item retains meaningful attention
// (decay above the floor). The tick engine then scales the whole per-tick
// change toward the pre-news trajectory.
func AttentionFaded(news []models.MNewsItem) bool {
	for _, item := range news {
		if item.Decay > AttentionFloor {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
