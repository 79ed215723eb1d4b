package utils

import (
	"sync"

	"market-sim/src/models"
)

// -----------------------------------------------------------------------------
// HistoryCache keeps the recent price history per symbol in memory so the
// broadcast payload never has to hit the durable store.
// -----------------------------------------------------------------------------

type HistoryCache struct {
	Streams   map[string]*RingBuffer
	MaxPoints int
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewHistoryCache(maxPoints int) *HistoryCache {
	if maxPoints <= 0 {
		maxPoints = HistoryWindowPoints
	}
	return &HistoryCache{
		Streams:   make(map[string]*RingBuffer),
		MaxPoints: maxPoints,
	}
}

// -----------------------------------------------------------------------------

// Add appends a point to the symbol's buffer, creating it on first use.
func (hc *HistoryCache) Add(point models.MPricePoint) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	rb, ok := hc.Streams[point.Symbol]
	if !ok {
		rb = NewRingBuffer(point.Symbol, hc.MaxPoints)
		hc.Streams[point.Symbol] = rb
	}
	rb.Append(point)
}

// -----------------------------------------------------------------------------

// Recent returns up to n latest points for every tracked symbol.
func (hc *HistoryCache) Recent(n int) map[string][]models.MPricePoint {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	result := make(map[string][]models.MPricePoint, len(hc.Streams))
	for sym, rb := range hc.Streams {
		result[sym] = rb.GetLatest(n)
	}
	return result
}

// -----------------------------------------------------------------------------

// Reset drops all buffered history (session reset).
func (hc *HistoryCache) Reset() {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	for _, rb := range hc.Streams {
		rb.Clear()
	}
}
