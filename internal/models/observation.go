package models

// DailyObservation is a single day of price/volume data exactly as supplied
// by a data source. Fields are kept as raw text: scraped tables carry values
// like "$1,234.56", "1,234,567" or "N/A", and parsing is deferred to the
// consumers that define what parseable means for them.
//
// Date is an opaque, stable string label. It is compared with plain string
// equality and is never parsed into a calendar type - two different
// formattings of the same calendar day are different labels.
type DailyObservation struct {
	Date   string `json:"date"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

// ObservationSeries is a most-recent-first sequence of daily observations.
type ObservationSeries []DailyObservation
