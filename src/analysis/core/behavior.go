package core

import (
	"math"
	"sort"

	"market-sim/src/models"
)

// Behavioral metric thresholds.
const (
	HighOpticsThreshold = 0.8
	OverreactionWindow  = 30000 // ms around a high-optics item
	LargeTradeQuantity  = 100.0
	HerdingGapMs        = 5000
	NewsImpactWindowMs  = 300000 // ±5 minutes

	FollowerThreshold   = 0.7
	ContrarianThreshold = 0.3
	ActiveTraderTrades  = 50
)

// -----------------------------------------------------------------------------

// followsSentiment reports whether a trade moves with its stamped sentiment:
// buying good news or selling bad news.
func followsSentiment(t models.MTrade) bool {
	bullish := t.Sentiment > 0 && t.Type == models.TradeBuy
	bearish := t.Sentiment < 0 && t.Type == models.TradeSell
	return bullish || bearish
}

// -----------------------------------------------------------------------------

// SentimentBias is the fraction of sentiment-stamped trades that move with
// that sentiment. Trades with zero sentiment carry no signal and are excluded.
func SentimentBias(trades []models.MTrade) float64 {
	withSentiment := 0
	following := 0

	for _, t := range trades {
		if t.Sentiment == 0 {
			continue
		}
		withSentiment++
		if followsSentiment(t) {
			following++
		}
	}

	if withSentiment == 0 {
		return 0
	}
	return float64(following) / float64(withSentiment)
}

// -----------------------------------------------------------------------------

// OverreactionRate is the fraction of trades near a high-optics news item
// that are large. "Near" is within the overreaction window in either
// direction.
func OverreactionRate(trades []models.MTrade, news []models.MNewsItem) float64 {
	var highOptics []models.MNewsItem
	for _, n := range news {
		if n.Optics > HighOpticsThreshold {
			highOptics = append(highOptics, n)
		}
	}

	near := 0
	large := 0
	for _, t := range trades {
		for _, n := range highOptics {
			if abs64(t.Timestamp-n.Timestamp) < OverreactionWindow {
				near++
				if t.Quantity > LargeTradeQuantity {
					large++
				}
				break
			}
		}
	}

	if near == 0 {
		return 0
	}
	return float64(large) / float64(near)
}

// -----------------------------------------------------------------------------

// HerdingScore counts 3-trade same-symbol clusters with consecutive gaps
// under the herding gap, normalized by tradeCount/3 and capped at 1.
func HerdingScore(trades []models.MTrade) float64 {
	if len(trades) == 0 {
		return 0
	}

	bySymbol := make(map[string][]models.MTrade)
	for _, t := range trades {
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
	}

	clusters := 0
	for _, symbolTrades := range bySymbol {
		sort.Slice(symbolTrades, func(i, j int) bool {
			return symbolTrades[i].Timestamp < symbolTrades[j].Timestamp
		})
		for i := 0; i+2 < len(symbolTrades); i++ {
			if symbolTrades[i+1].Timestamp-symbolTrades[i].Timestamp < HerdingGapMs &&
				symbolTrades[i+2].Timestamp-symbolTrades[i+1].Timestamp < HerdingGapMs {
				clusters++
			}
		}
	}

	score := float64(clusters) / (float64(len(trades)) / 3.0)
	return math.Min(score, 1)
}

// -----------------------------------------------------------------------------

// ReactionLag is the mean delay, in ms, between the newest referenced news
// item published before a trade and the trade itself. Trades with no usable
// news context contribute nothing.
func ReactionLag(trades []models.MTrade, news []models.MNewsItem) float64 {
	newsByID := make(map[string]models.MNewsItem, len(news))
	for _, n := range news {
		newsByID[n.ID] = n
	}

	totalLag := int64(0)
	lagCount := 0

	for _, t := range trades {
		newest := int64(-1)
		for _, id := range t.NewsContext {
			n, ok := newsByID[id]
			if !ok || n.Timestamp >= t.Timestamp {
				continue
			}
			if n.Timestamp > newest {
				newest = n.Timestamp
			}
		}
		if newest >= 0 {
			totalLag += t.Timestamp - newest
			lagCount++
		}
	}

	if lagCount == 0 {
		return 0
	}
	return float64(totalLag) / float64(lagCount)
}

// -----------------------------------------------------------------------------

// NewsImpact correlates the 10 most recent news items with trades inside the
// impact window. Price change per trade is the rough sentiment * direction
// estimate; zero-sentiment items report no related trades.
func NewsImpact(trades []models.MTrade, news []models.MNewsItem) []models.MNewsImpactRow {
	sorted := make([]models.MNewsItem, len(news))
	copy(sorted, news)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	if len(sorted) > 10 {
		sorted = sorted[len(sorted)-10:]
	}

	rows := make([]models.MNewsImpactRow, 0, len(sorted))
	for _, n := range sorted {
		row := models.MNewsImpactRow{
			Headline:  n.Headline,
			Sentiment: n.Sentiment,
		}

		if n.Sentiment != 0 {
			sum := 0.0
			for _, t := range trades {
				if abs64(t.Timestamp-n.Timestamp) < NewsImpactWindowMs {
					direction := 1.0
					if t.Type == models.TradeSell {
						direction = -1.0
					}
					sum += t.Sentiment * direction * 0.01
					row.TradesWithin5Min++
				}
			}
			if row.TradesWithin5Min > 0 {
				row.AveragePriceChange = sum / float64(row.TradesWithin5Min)
			}
		}

		rows = append(rows, row)
	}
	return rows
}

// -----------------------------------------------------------------------------

// FollowRate is the per-trader fraction of trades moving with sentiment.
func FollowRate(trades []models.MTrade) float64 {
	if len(trades) == 0 {
		return 0
	}
	following := 0
	for _, t := range trades {
		if followsSentiment(t) {
			following++
		}
	}
	return float64(following) / float64(len(trades))
}

// -----------------------------------------------------------------------------

// ClassifyTrader labels a trader from their follow rate and activity.
func ClassifyTrader(followRate float64, tradeCount int) string {
	switch {
	case followRate > FollowerThreshold:
		return "Sentiment Follower"
	case followRate < ContrarianThreshold:
		return "Contrarian"
	case tradeCount > ActiveTraderTrades:
		return "Active Trader"
	default:
		return "Rational"
	}
}

// -----------------------------------------------------------------------------

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
