package models

// News targets: either the whole market or one sector symbol.
const NewsTargetMarket = "market"

// MNewsItem is an operator-injected news event. Decay starts at 1 and is
// recomputed from age on every tick; once it drops below the archive floor
// the item is pinned at 0 and excluded from impact sums, but kept for audit.
type MNewsItem struct {
	ID          string  `json:"id"`
	Headline    string  `json:"headline"`
	Description string  `json:"description,omitempty"`
	Source      string  `json:"source,omitempty"` // breaking | analysis | rumor | earnings | economic
	Sentiment   float64 `json:"sentiment"`        // [-1, 1]
	Optics      float64 `json:"optics"`           // [0, 1] prominence weight
	Target      string  `json:"target"`           // "market" or a sector symbol
	Timestamp   int64   `json:"timestamp"`        // unix ms
	Decay       float64 `json:"decay"`            // [0, 1]
	Archived    bool    `json:"archived,omitempty"`
}
