package engine

import (
	"math"
	"testing"

	"market-sim/src/models"
)

// -----------------------------------------------------------------------------

func TestRecomputeDecayHalfLife(t *testing.T) {
	now := int64(1700000000000)

	items := []models.MNewsItem{
		{ID: "fresh", Timestamp: now, Decay: 1},
		{ID: "one-half-life", Timestamp: now - NewsHalfLifeMs, Decay: 1},
		{ID: "two-half-lives", Timestamp: now - 2*NewsHalfLifeMs, Decay: 1},
	}

	updated := RecomputeDecay(items, now)

	if math.Abs(updated[0].Decay-1) > 1e-9 {
		t.Fatalf("fresh item decay = %v, want 1", updated[0].Decay)
	}
	if math.Abs(updated[1].Decay-0.5) > 1e-9 {
		t.Fatalf("one half-life decay = %v, want 0.5", updated[1].Decay)
	}
	if math.Abs(updated[2].Decay-0.25) > 1e-9 {
		t.Fatalf("two half-lives decay = %v, want 0.25", updated[2].Decay)
	}
}

// -----------------------------------------------------------------------------

func TestRecomputeDecayArchivesBelowFloor(t *testing.T) {
	now := int64(1700000000000)
	// Seven half-lives: 0.5^7 < 0.01.
	old := models.MNewsItem{ID: "stale", Timestamp: now - 7*NewsHalfLifeMs, Decay: 0.02}

	updated := RecomputeDecay([]models.MNewsItem{old}, now)

	if !updated[0].Archived {
		t.Fatal("expected item below the floor to be archived")
	}
	if updated[0].Decay != 0 {
		t.Fatalf("archived decay should be pinned to 0, got %v", updated[0].Decay)
	}
}

// -----------------------------------------------------------------------------

func TestRecomputeDecayIdempotent(t *testing.T) {
	now := int64(1700000000000)
	items := []models.MNewsItem{
		{ID: "a", Timestamp: now - 90000, Decay: 1},
		{ID: "b", Timestamp: now - 7*NewsHalfLifeMs, Decay: 1},
	}

	once := RecomputeDecay(items, now)
	twice := RecomputeDecay(once, now)

	for i := range once {
		if once[i].Decay != twice[i].Decay || once[i].Archived != twice[i].Archived {
			t.Fatalf("recompute not idempotent for %s: %+v vs %+v", once[i].ID, once[i], twice[i])
		}
	}
}

// -----------------------------------------------------------------------------

func TestRecomputeDecayFutureTimestampClamped(t *testing.T) {
	now := int64(1700000000000)
	// Clock skew: a timestamp slightly in the future must not boost decay
	// above 1.
	updated := RecomputeDecay([]models.MNewsItem{{ID: "skew", Timestamp: now + 5000, Decay: 1}}, now)

	if updated[0].Decay != 1 {
		t.Fatalf("expected decay clamped to 1, got %v", updated[0].Decay)
	}
}
