package models

// MExport is the batch export consumed by the offline analyzer.
// Missing arrays unmarshal to nil and are treated as empty, not fatal.
type MExport struct {
	Trades []MTrade    `json:"trades"`
	News   []MNewsItem `json:"news"`
}
