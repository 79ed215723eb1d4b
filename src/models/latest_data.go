package models

// -----------------------------------------------------------------------------
// Server State Structure (pushed to websocket subscribers)
// -----------------------------------------------------------------------------

type MLatestData struct {
	Type      string                   `json:"type"` // "INITIAL" or "UPDATE"
	State     *MMarketState            `json:"state"`
	News      []MNewsItem              `json:"news"`
	History   map[string][]MPricePoint `json:"history"` // recent points per symbol
	Timestamp int64                    `json:"timestamp"`
}

// -----------------------------------------------------------------------------
// SubscribeCommand for client messages
// -----------------------------------------------------------------------------

type MSubscribeCommand struct {
	Command string   `json:"command"`
	Symbols []string `json:"symbols"`
}
