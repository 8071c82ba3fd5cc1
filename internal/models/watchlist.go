package models

import "time"

// WatchlistEntry is a symbol tracked by the scheduled scanner.
type WatchlistEntry struct {
	Symbol      string     `json:"symbol" yaml:"symbol" badgerhold:"key"`
	CompanyName string     `json:"company_name,omitempty" yaml:"company_name,omitempty"`
	AddedAt     time.Time  `json:"added_at" yaml:"-"`
	LastScanned *time.Time `json:"last_scanned,omitempty" yaml:"-"`
	LastRisk    string     `json:"last_risk,omitempty" yaml:"-"`
}

// WatchlistSeed is the shape of the optional YAML seed file loaded on first
// start when the stored watchlist is empty.
type WatchlistSeed struct {
	Symbols []WatchlistEntry `yaml:"symbols"`
}
