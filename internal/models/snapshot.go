package models

import "time"

// SnapshotKind identifies what a cached source payload contains.
type SnapshotKind string

const (
	SnapshotQuote      SnapshotKind = "quote"
	SnapshotHistory    SnapshotKind = "history"
	SnapshotForecast   SnapshotKind = "forecast"
	SnapshotFinancials SnapshotKind = "financials"
	SnapshotNews       SnapshotKind = "news"
)

// SourceSnapshot caches one fetched payload so repeated analyses within the
// freshness window skip the network round trip.
type SourceSnapshot struct {
	Key       string       `json:"key" badgerhold:"key"`
	Symbol    string       `json:"symbol" badgerholdIndex:"Symbol"`
	Kind      SnapshotKind `json:"kind"`
	Payload   []byte       `json:"payload"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// SnapshotKey builds the storage key for a symbol/kind pair.
func SnapshotKey(symbol string, kind SnapshotKind) string {
	return symbol + ":" + string(kind)
}
