package analysis

import (
	"fmt"
	"strings"

	"market-sim/src/models"
)

const lineWidth = 60

// -----------------------------------------------------------------------------

// Render formats a report for the terminal.
func Render(report models.MAnalysisReport) string {
	var b strings.Builder
	heavy := strings.Repeat("=", lineWidth)
	light := strings.Repeat("-", lineWidth)

	fmt.Fprintf(&b, "\n%s\n", heavy)
	fmt.Fprintf(&b, "           MARKET SIMULATION - ANALYSIS REPORT\n")
	fmt.Fprintf(&b, "%s\n\n", heavy)

	fmt.Fprintf(&b, "File: %s\n", report.ExportFile)
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt)

	fmt.Fprintf(&b, "SUMMARY STATISTICS\n%s\n", light)
	fmt.Fprintf(&b, "  Total Trades: %d\n", report.Summary.TotalTrades)
	fmt.Fprintf(&b, "  Unique Traders: %d\n", report.Summary.UniqueTraders)
	fmt.Fprintf(&b, "  Duration: %s\n", report.Summary.TradingDuration)
	fmt.Fprintf(&b, "  Total Volume: $%.1fk\n", report.Summary.TotalVolume/1000)
	fmt.Fprintf(&b, "  Average Trade Size: %.1f shares\n\n", report.Summary.AverageTradeSize)

	fmt.Fprintf(&b, "TRADE METRICS\n%s\n", light)
	fmt.Fprintf(&b, "  Buy Orders: %d (%.0f shares)\n", report.Trades.BuyCount, report.Trades.TotalBuys)
	fmt.Fprintf(&b, "  Sell Orders: %d (%.0f shares)\n", report.Trades.SellCount, report.Trades.TotalSells)
	fmt.Fprintf(&b, "  Avg Buy Price: $%.2f\n", report.Trades.AverageBuyPrice)
	fmt.Fprintf(&b, "  Avg Sell Price: $%.2f\n\n", report.Trades.AverageSellPrice)

	fmt.Fprintf(&b, "BEHAVIORAL METRICS\n%s\n", light)
	fmt.Fprintf(&b, "  Sentiment Bias: %d%%\n", report.Behavioral.SentimentBias)
	fmt.Fprintf(&b, "    -> Traders follow news sentiment %d%% of the time\n", report.Behavioral.SentimentBias)
	fmt.Fprintf(&b, "  Overreaction Rate: %d%%\n", report.Behavioral.OverreactionRate)
	fmt.Fprintf(&b, "    -> After high-optics news, %d%% place large trades\n", report.Behavioral.OverreactionRate)
	fmt.Fprintf(&b, "  Herding Behavior: %d%%\n", report.Behavioral.HerdingBehavior)
	fmt.Fprintf(&b, "    -> Likelihood of clustering trades in same stock\n")
	fmt.Fprintf(&b, "  Reaction Lag: %ds average\n\n", report.Behavioral.ReactionLag)

	if len(report.NewsImpact) > 0 {
		fmt.Fprintf(&b, "TOP NEWS EVENTS & IMPACT\n%s\n", light)
		for _, impact := range report.NewsImpact {
			fmt.Fprintf(&b, "  %q\n", impact.Headline)
			fmt.Fprintf(&b, "    Sentiment: %.0f%% | Trades: %d\n", impact.Sentiment*100, impact.TradesWithin5Min)
			fmt.Fprintf(&b, "    Avg Price Move: %.2f%%\n\n", impact.AveragePriceChange*100)
		}
	}

	fmt.Fprintf(&b, "TOP TRADERS\n%s\n", light)
	top := report.Traders
	if len(top) > 5 {
		top = top[:5]
	}
	for i, trader := range top {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, trader.UserID)
		sign := ""
		if trader.AverageGain > 0 {
			sign = "+"
		}
		fmt.Fprintf(&b, "     Trades: %d | Win Rate: %d%% | Gain: %s%.2f%%\n", trader.Trades, trader.WinRate, sign, trader.AverageGain)
		fmt.Fprintf(&b, "     Pattern: %s\n\n", trader.BehaviorPattern)
	}

	fmt.Fprintf(&b, "%s\n", heavy)
	fmt.Fprintf(&b, "Data analysis complete. Use for research and behavioral study.\n")

	return b.String()
}
