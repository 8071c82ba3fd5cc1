package models

import "time"

// Quote is a point-in-time snapshot scraped from a quote page or returned by
// a market-data API. String fields keep the source's display formatting.
type Quote struct {
	Symbol        string    `json:"symbol"`
	CompanyName   string    `json:"company_name,omitempty"`
	Price         string    `json:"price"`
	Change        string    `json:"change,omitempty"`
	PreviousClose string    `json:"previous_close,omitempty"`
	DayRange      string    `json:"day_range,omitempty"`
	YearRange     string    `json:"year_range,omitempty"`
	MarketCap     string    `json:"market_cap,omitempty"`
	PERatio       string    `json:"pe_ratio,omitempty"`
	DividendYield string    `json:"dividend_yield,omitempty"`
	Exchange      string    `json:"exchange,omitempty"`
	Source        string    `json:"source,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// Forecast holds analyst consensus data scraped from a forecast page.
// Money and growth fields keep the page's display strings; PriceTarget is
// the parsed numeric form of PriceTargetText when parseable.
type Forecast struct {
	Symbol          string  `json:"symbol"`
	PriceTarget     float64 `json:"price_target,omitempty"`
	PriceTargetText string  `json:"price_target_text,omitempty"`
	LowTarget       string  `json:"low_target,omitempty"`
	HighTarget      string  `json:"high_target,omitempty"`
	Consensus       string  `json:"consensus,omitempty"`
	AnalystCount    int     `json:"analyst_count,omitempty"`
	UpsidePercent   string  `json:"upside_percent,omitempty"`
	RevenueThisYear string  `json:"revenue_this_year,omitempty"`
	RevenueNextYear string  `json:"revenue_next_year,omitempty"`
	EPSThisYear     string  `json:"eps_this_year,omitempty"`
	EPSNextYear     string  `json:"eps_next_year,omitempty"`
	Summary         string  `json:"summary,omitempty"`
}

// FinancialRow is one labelled line of a scraped financial statement. Value
// is the most recent period's cell, kept as the page displays it.
type FinancialRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Financials bundles the three statement tables scraped for a symbol.
type Financials struct {
	Symbol       string         `json:"symbol"`
	Income       []FinancialRow `json:"income,omitempty"`
	BalanceSheet []FinancialRow `json:"balance_sheet,omitempty"`
	Ratios       []FinancialRow `json:"ratios,omitempty"`
}

// NewsItem is a headline scraped from a news listing, optionally enriched
// with extracted article content.
type NewsItem struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Source    string `json:"source,omitempty"`
	Published string `json:"published,omitempty"`
	Content   string `json:"content,omitempty"`
}
