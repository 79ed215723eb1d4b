package utils

import (
	"sync"
	"time"

	"market-sim/src/logger"
)

// MarketScheduler decides whether the scheduled tick should fire when the
// simulation is gated to real market hours. A manual tick bypasses it.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Enabled   bool
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(enabled bool, referenceSymbols []string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Enabled:   enabled,
		Logger:    l,
	}
	if enabled {
		ms.MapSymbolsToCalendars(referenceSymbols)
	}
	return ms
}

// -----------------------------------------------------------------------------

// MapSymbolsToCalendars maps a list of reference symbols to their calendars.
func (ms *MarketScheduler) MapSymbolsToCalendars(symbols []string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.Calendars = make(map[string]*TradingCalendar)

	for _, symbol := range symbols {
		cal := GetCalendar(symbol)
		if cal != nil {
			ms.Calendars[symbol] = cal
		}
	}

	ms.Logger.Info("MarketScheduler: Mapped %d reference symbols to calendars.", len(ms.Calendars))
}

// -----------------------------------------------------------------------------

// ShouldTick reports whether the scheduled tick may run now. Without gating
// it always fires; with gating it fires only while any reference market is
// open.
func (ms *MarketScheduler) ShouldTick(now time.Time) bool {
	if !ms.Enabled {
		return true
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if len(ms.Calendars) == 0 {
		return false
	}

	for _, cal := range ms.Calendars {
		if cal.IsOpenOnMinute(now) {
			return true
		}
	}

	return false
}
