package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"market-sim/src/analysis/core"
	"market-sim/src/models"
)

// -----------------------------------------------------------------------------

// Analyze turns an exported {trades, news} batch into a behavioral report.
// Pure: same export, same report (timestamps aside). Nil slices are treated
// as empty, so a partial export degrades to a zero report instead of failing.
func Analyze(export models.MExport, sourceName string) models.MAnalysisReport {
	trades := export.Trades
	news := export.News

	report := models.MAnalysisReport{
		ExportFile:  sourceName,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Summary:     summarize(trades),
		Trades:      tradeMetrics(trades),
		Behavioral:  behavioral(trades, news),
		NewsImpact:  core.NewsImpact(trades, news),
		Traders:     traderStats(trades),
	}

	return report
}

// -----------------------------------------------------------------------------

func summarize(trades []models.MTrade) models.MSummaryStats {
	stats := models.MSummaryStats{
		TotalTrades:     len(trades),
		TradingDuration: "0s",
	}
	if len(trades) == 0 {
		return stats
	}

	traders := make(map[string]struct{})
	quantities := make([]float64, len(trades))
	start, end := trades[0].Timestamp, trades[0].Timestamp

	for i, t := range trades {
		traders[t.UserID] = struct{}{}
		quantities[i] = t.Quantity
		stats.TotalVolume += t.Quantity * t.Price
		if t.Timestamp < start {
			start = t.Timestamp
		}
		if t.Timestamp > end {
			end = t.Timestamp
		}
	}

	durationMs := end - start
	stats.UniqueTraders = len(traders)
	stats.TradingDuration = fmt.Sprintf("%dm %ds", durationMs/60000, (durationMs%60000)/1000)
	stats.AverageTradeSize = core.Mean(quantities)

	return stats
}

// -----------------------------------------------------------------------------

func tradeMetrics(trades []models.MTrade) models.MTradeMetrics {
	var metrics models.MTradeMetrics
	var buyPriceSum, sellPriceSum float64

	for _, t := range trades {
		switch t.Type {
		case models.TradeBuy:
			metrics.BuyCount++
			metrics.TotalBuys += t.Quantity
			buyPriceSum += t.Price
		case models.TradeSell:
			metrics.SellCount++
			metrics.TotalSells += t.Quantity
			sellPriceSum += t.Price
		}
	}

	if metrics.BuyCount > 0 {
		metrics.AverageBuyPrice = buyPriceSum / float64(metrics.BuyCount)
	}
	if metrics.SellCount > 0 {
		metrics.AverageSellPrice = sellPriceSum / float64(metrics.SellCount)
	}

	return metrics
}

// -----------------------------------------------------------------------------

func behavioral(trades []models.MTrade, news []models.MNewsItem) models.MBehavioralMetrics {
	return models.MBehavioralMetrics{
		SentimentBias:    core.RoundPct(core.SentimentBias(trades)),
		OverreactionRate: core.RoundPct(core.OverreactionRate(trades, news)),
		HerdingBehavior:  core.RoundPct(core.HerdingScore(trades)),
		ReactionLag:      int(math.Round(core.ReactionLag(trades, news) / 1000)),
	}
}

// -----------------------------------------------------------------------------

func traderStats(trades []models.MTrade) []models.MTraderStats {
	byTrader := make(map[string][]models.MTrade)
	for _, t := range trades {
		byTrader[t.UserID] = append(byTrader[t.UserID], t)
	}

	stats := make([]models.MTraderStats, 0, len(byTrader))
	for userID, userTrades := range byTrader {
		followRate := core.FollowRate(userTrades)

		display := userID
		if len(display) > 8 {
			display = display[:8]
		}

		stats = append(stats, models.MTraderStats{
			UserID:          display + "...",
			Trades:          len(userTrades),
			WinRate:         core.WinRate(userTrades),
			AverageGain:     core.AverageGain(userTrades),
			BehaviorPattern: core.ClassifyTrader(followRate, len(userTrades)),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Trades != stats[j].Trades {
			return stats[i].Trades > stats[j].Trades
		}
		return stats[i].UserID < stats[j].UserID
	})

	return stats
}
