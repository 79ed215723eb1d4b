package engine

import (
	"math"

	"market-sim/src/models"
)

// Exponential half-life decay of news influence.
const (
	NewsHalfLifeMs   = 120000 // 2 minutes
	NewsArchiveFloor = 0.01
)

// -----------------------------------------------------------------------------

// RecomputeDecay returns the news set with each item's decay recomputed from
// its age: decay = 0.5^(age/halfLife). Items below the archive floor are
// pinned to 0 and flagged archived. Pure and idempotent given the same
// timestamps, so a missed tick never drifts the model.
func RecomputeDecay(items []models.MNewsItem, nowMs int64) []models.MNewsItem {
	updated := make([]models.MNewsItem, len(items))

	for i, item := range items {
		age := nowMs - item.Timestamp
		if age < 0 {
			age = 0
		}

		decay := math.Pow(0.5, float64(age)/float64(NewsHalfLifeMs))
		if decay < NewsArchiveFloor {
			item.Decay = 0
			item.Archived = true
		} else {
			item.Decay = decay
		}
		updated[i] = item
	}

	return updated
}
