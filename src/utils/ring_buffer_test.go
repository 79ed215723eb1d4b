package utils

import (
	"testing"

	"market-sim/src/models"
)

// -----------------------------------------------------------------------------

func point(ts int64, price float64) models.MPricePoint {
	return models.MPricePoint{Symbol: "TECH", Timestamp: ts, Price: price}
}

// -----------------------------------------------------------------------------

func TestRingBufferWrapAround(t *testing.T) {
	rb := NewRingBuffer("TECH", 3)

	for i := 1; i <= 5; i++ {
		rb.Append(point(int64(i), float64(i)*10))
	}

	if !rb.IsFull() || rb.Size() != 3 {
		t.Fatalf("expected full buffer of 3, got size %d", rb.Size())
	}

	all := rb.GetAll()
	if len(all) != 3 {
		t.Fatalf("expected 3 points, got %d", len(all))
	}
	// Oldest two were overwritten.
	for i, wantTs := range []int64{3, 4, 5} {
		if all[i].Timestamp != wantTs {
			t.Fatalf("position %d: expected ts %d, got %d", i, wantTs, all[i].Timestamp)
		}
	}
}

// -----------------------------------------------------------------------------

func TestRingBufferGetLatest(t *testing.T) {
	rb := NewRingBuffer("TECH", 5)
	for i := 1; i <= 4; i++ {
		rb.Append(point(int64(i), float64(i)))
	}

	latest := rb.GetLatest(2)
	if len(latest) != 2 {
		t.Fatalf("expected 2 points, got %d", len(latest))
	}
	if latest[0].Timestamp != 3 || latest[1].Timestamp != 4 {
		t.Fatalf("expected [3 4], got [%d %d]", latest[0].Timestamp, latest[1].Timestamp)
	}

	// Asking for more than stored returns what exists.
	if got := rb.GetLatest(10); len(got) != 4 {
		t.Fatalf("expected 4 points, got %d", len(got))
	}
	if got := rb.GetLatest(0); len(got) != 0 {
		t.Fatalf("expected empty result for n=0, got %d", len(got))
	}
}

// -----------------------------------------------------------------------------

func TestRingBufferClear(t *testing.T) {
	rb := NewRingBuffer("TECH", 3)
	rb.Append(point(1, 1))
	rb.Clear()

	if rb.Size() != 0 {
		t.Fatalf("expected empty after clear, got %d", rb.Size())
	}
	if got := rb.GetAll(); len(got) != 0 {
		t.Fatalf("expected no points after clear, got %d", len(got))
	}
}

// -----------------------------------------------------------------------------

func TestHistoryCachePerSymbolWindows(t *testing.T) {
	hc := NewHistoryCache(3)

	for i := 1; i <= 5; i++ {
		hc.Add(models.MPricePoint{Symbol: "TECH", Timestamp: int64(i), Price: float64(i)})
	}
	hc.Add(models.MPricePoint{Symbol: "ENERGY", Timestamp: 1, Price: 80})

	recent := hc.Recent(3)
	if len(recent["TECH"]) != 3 {
		t.Fatalf("expected 3 TECH points, got %d", len(recent["TECH"]))
	}
	if recent["TECH"][0].Timestamp != 3 {
		t.Fatalf("expected oldest kept point ts 3, got %d", recent["TECH"][0].Timestamp)
	}
	if len(recent["ENERGY"]) != 1 {
		t.Fatalf("expected 1 ENERGY point, got %d", len(recent["ENERGY"]))
	}

	hc.Reset()
	for _, points := range hc.Recent(3) {
		if len(points) != 0 {
			t.Fatal("expected empty windows after reset")
		}
	}
}
