package core

import (
	"math"
	"sort"

	"market-sim/src/models"
)

// -----------------------------------------------------------------------------

// position tracks a running long position at average cost.
type position struct {
	quantity float64
	avgCost  float64
}

// -----------------------------------------------------------------------------

// WinRate computes a trader's realized win rate: sells against an open
// position realize (sellPrice - avgCost), and the rate is winning sells over
// realizing sells, as a whole percentage. A trader who never realizes scores
// 0. Trades are evaluated in timestamp order.
func WinRate(trades []models.MTrade) int {
	sorted := make([]models.MTrade, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	positions := make(map[string]*position)
	realizing := 0
	winning := 0

	for _, t := range sorted {
		pos, ok := positions[t.Symbol]
		if !ok {
			pos = &position{}
			positions[t.Symbol] = pos
		}

		switch t.Type {
		case models.TradeBuy:
			total := pos.avgCost*pos.quantity + t.Price*t.Quantity
			pos.quantity += t.Quantity
			if pos.quantity > 0 {
				pos.avgCost = total / pos.quantity
			}

		case models.TradeSell:
			// A sell with no accumulated position has no cost basis and
			// realizes nothing.
			if pos.quantity <= 0 {
				continue
			}
			realizing++
			if t.Price > pos.avgCost {
				winning++
			}
			pos.quantity -= t.Quantity
			if pos.quantity < 0 {
				pos.quantity = 0
			}
		}
	}

	if realizing == 0 {
		return 0
	}
	return int(math.Round(100 * float64(winning) / float64(realizing)))
}

// -----------------------------------------------------------------------------

// AverageGain is the average sell price over the average buy price, as a
// percentage rounded to two decimals.
func AverageGain(trades []models.MTrade) float64 {
	var buySum, sellSum float64
	var buyCount, sellCount int

	for _, t := range trades {
		switch t.Type {
		case models.TradeBuy:
			buySum += t.Price
			buyCount++
		case models.TradeSell:
			sellSum += t.Price
			sellCount++
		}
	}

	if buyCount == 0 {
		return 0
	}
	avgBuy := buySum / float64(buyCount)
	avgSell := 0.0
	if sellCount > 0 {
		avgSell = sellSum / float64(sellCount)
	}

	gain := (avgSell - avgBuy) / avgBuy * 100
	return math.Round(gain*100) / 100
}
