package models

// -----------------------------------------------------------------------------
// Analyzer report structures
// -----------------------------------------------------------------------------

// MAnalysisReport is the full output of the offline behavioral analyzer.
type MAnalysisReport struct {
	ExportFile  string              `json:"export_file"`
	GeneratedAt string              `json:"generated_at"`
	Summary     MSummaryStats       `json:"summary"`
	Trades      MTradeMetrics       `json:"trade_metrics"`
	Behavioral  MBehavioralMetrics  `json:"behavioral_metrics"`
	NewsImpact  []MNewsImpactRow    `json:"news_by_impact"`
	Traders     []MTraderStats      `json:"trader_stats"`
}

type MSummaryStats struct {
	TotalTrades      int     `json:"total_trades"`
	UniqueTraders    int     `json:"unique_traders"`
	TradingDuration  string  `json:"trading_duration"` // "<m>m <s>s"
	TotalVolume      float64 `json:"total_volume"`     // Σ quantity*price
	AverageTradeSize float64 `json:"average_trade_size"`
}

type MTradeMetrics struct {
	TotalBuys        float64 `json:"total_buys"`  // shares
	TotalSells       float64 `json:"total_sells"` // shares
	BuyCount         int     `json:"buy_count"`
	SellCount        int     `json:"sell_count"`
	AverageBuyPrice  float64 `json:"average_buy_price"`
	AverageSellPrice float64 `json:"average_sell_price"`
}

// MBehavioralMetrics holds the aggregate signatures, each rounded to a whole
// percentage (lag in whole seconds).
type MBehavioralMetrics struct {
	SentimentBias    int `json:"sentiment_bias"`
	OverreactionRate int `json:"overreaction_rate"`
	HerdingBehavior  int `json:"herding_behavior"`
	ReactionLag      int `json:"reaction_lag"`
}

type MNewsImpactRow struct {
	Headline           string  `json:"headline"`
	Sentiment          float64 `json:"sentiment"`
	TradesWithin5Min   int     `json:"trades_within_5min"`
	AveragePriceChange float64 `json:"average_price_change"`
}

type MTraderStats struct {
	UserID          string  `json:"user_id"`
	Trades          int     `json:"trades"`
	WinRate         int     `json:"win_rate"` // whole percent of realized-gain sells
	AverageGain     float64 `json:"average_gain"`
	BehaviorPattern string  `json:"behavior_pattern"`
}
