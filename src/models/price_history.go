package models

// MPricePoint is one row of the append-only price history log, written per
// symbol per tick. Used for charting and for news-impact correlation.
type MPricePoint struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // unix ms
	Sentiment float64 `json:"sentiment"`
}
