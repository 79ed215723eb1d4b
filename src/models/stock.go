package models

// MStock represents one simulated security inside the market state.
// Price is the only authoritative field; the rest are display values
// recomputed on every tick.
type MStock struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Sentiment     float64 `json:"sentiment"` // [-1, 1]
	Optics        float64 `json:"optics"`    // [0, 1]
}
