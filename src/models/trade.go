package models

// Trade directions.
const (
	TradeBuy  = "buy"
	TradeSell = "sell"
)

// MTrade is a write-once participant trade. Archived by retention policy,
// never deleted. Sentiment and NewsContext are stamped from the market state
// at submission time so the analyzer can reconstruct the news environment.
type MTrade struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	Symbol      string   `json:"symbol"`
	Quantity    float64  `json:"quantity"`
	Price       float64  `json:"price"`
	Type        string   `json:"type"` // buy | sell
	Timestamp   int64    `json:"timestamp"` // unix ms
	Sentiment   float64  `json:"sentiment"`
	NewsContext []string `json:"newsContext,omitempty"` // ids of news live at submission
	Archived    bool     `json:"archived,omitempty"`
}
