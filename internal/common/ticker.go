// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// Ticker represents a parsed exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "NASDAQ:AAPL", "ASX:GNP")
type Ticker struct {
	// Exchange is the exchange code (e.g., "NASDAQ", "NYSE", "ASX")
	Exchange string
	// Code is the stock/security code (e.g., "AAPL", "GNP")
	Code string
	// Raw is the original ticker string
	Raw string
}

// ExchangeToSuffix maps exchange codes to EODHD API suffixes.
var ExchangeToSuffix = map[string]string{
	"NYSE":   ".US",
	"NASDAQ": ".US",
	"AMEX":   ".US",
	"ASX":    ".AU",
	"LSE":    ".LSE",
	"TSX":    ".TO",
	"XETRA":  ".XETRA",
}

// usExchanges are the exchanges StockAnalysis serves under its short
// /stocks/{code} path. Everything else uses the /quote/{exchange}/{code} path.
var usExchanges = map[string]bool{
	"NYSE":   true,
	"NASDAQ": true,
	"AMEX":   true,
}

// DefaultExchange is the default exchange used when parsing tickers without an exchange prefix.
// Can be overridden via [market] default_exchange config in TOML.
var DefaultExchange = "NASDAQ"

// QuoteExchangeCandidates are the exchanges tried in order when validating
// a bare symbol against Google Finance.
var QuoteExchangeCandidates = []string{"NASDAQ", "NYSE"}

// SetDefaultExchange sets the default exchange for parsing tickers.
// Called during app initialization from config.
func SetDefaultExchange(exchange string) {
	if exchange != "" {
		DefaultExchange = strings.ToUpper(exchange)
	}
}

// ParseTicker parses an exchange-qualified ticker string.
// Supports formats:
//   - "NASDAQ:AAPL" -> Exchange="NASDAQ", Code="AAPL" (colon separator)
//   - "NASDAQ.AAPL" -> Exchange="NASDAQ", Code="AAPL" (dot separator)
//   - "AAPL" -> Exchange=DefaultExchange (default), Code="AAPL"
//   - "aapl" -> Exchange=DefaultExchange, Code="AAPL" (normalized to uppercase)
//
// Note: EODHD uses CODE.EXCHANGE (e.g., "AAPL.US"), while our format uses EXCHANGE.CODE.
// Use EODHDSymbol() to convert to EODHD format.
func ParseTicker(ticker string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	// Check for exchange prefix with colon separator (EXCHANGE:CODE)
	if idx := strings.Index(ticker, ":"); idx > 0 {
		exchange := strings.ToUpper(ticker[:idx])
		code := strings.ToUpper(ticker[idx+1:])
		return Ticker{
			Exchange: exchange,
			Code:     code,
			Raw:      ticker,
		}
	}

	// Check for exchange prefix with dot separator (EXCHANGE.CODE)
	// Only match if the prefix is a known exchange to avoid conflicts with codes containing dots
	if idx := strings.Index(ticker, "."); idx > 0 {
		possibleExchange := strings.ToUpper(ticker[:idx])
		// Check if this is a known exchange
		if _, ok := ExchangeToSuffix[possibleExchange]; ok {
			code := strings.ToUpper(ticker[idx+1:])
			return Ticker{
				Exchange: possibleExchange,
				Code:     code,
				Raw:      ticker,
			}
		}
	}

	// No exchange prefix - use default exchange
	return Ticker{
		Exchange: DefaultExchange,
		Code:     strings.ToUpper(ticker),
		Raw:      ticker,
	}
}

// String returns the full exchange-qualified ticker string.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// GoogleFinanceSlug returns the path segment Google Finance uses for quote pages.
// Example: "NASDAQ:AAPL" -> "AAPL:NASDAQ" (https://www.google.com/finance/quote/AAPL:NASDAQ)
func (t Ticker) GoogleFinanceSlug() string {
	if t.Code == "" {
		return ""
	}
	exchange := t.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}
	return t.Code + ":" + exchange
}

// StockAnalysisPath returns the URL path StockAnalysis uses for a symbol,
// without leading or trailing slash.
// US-listed symbols use the short form: "AAPL" -> "stocks/aapl"
// Other exchanges use the quote form: "ASX:GNP" -> "quote/asx/GNP"
func (t Ticker) StockAnalysisPath() string {
	if t.Code == "" {
		return ""
	}
	if t.Exchange == "" || usExchanges[t.Exchange] {
		return "stocks/" + strings.ToLower(t.Code)
	}
	return "quote/" + strings.ToLower(t.Exchange) + "/" + t.Code
}

// EODHDSymbol returns the EODHD API symbol format.
// Example: "NASDAQ:AAPL" -> "AAPL.US"
func (t Ticker) EODHDSymbol() string {
	if t.Code == "" {
		return ""
	}
	suffix, ok := ExchangeToSuffix[t.Exchange]
	if !ok {
		// Default to US for unknown exchanges
		suffix = ".US"
	}
	return t.Code + suffix
}

// EODHDSuffixToExchange maps EODHD API suffixes back to exchange-details API codes.
// These are the suffixes used in EODHD symbols (e.g., "AAPL.US" -> "US").
var EODHDSuffixToExchange = map[string]string{
	"US":    "US",    // United States (NYSE, NASDAQ, AMEX)
	"AU":    "AU",    // Australia (ASX)
	"LSE":   "LSE",   // London Stock Exchange
	"XETRA": "XETRA", // Frankfurt Stock Exchange
	"TO":    "TO",    // Toronto Stock Exchange
}

// DetailsExchangeCode returns the exchange code to use with the EODHD
// exchange-details API endpoint.
func (t Ticker) DetailsExchangeCode() string {
	suffix, ok := ExchangeToSuffix[t.Exchange]
	if !ok {
		suffix = ".US"
	}
	suffix = strings.TrimPrefix(suffix, ".")
	if mapped, ok := EODHDSuffixToExchange[suffix]; ok {
		return mapped
	}
	return suffix
}

// ParseTickers parses a list of ticker strings.
func ParseTickers(tickers []string) []Ticker {
	result := make([]Ticker, 0, len(tickers))
	for _, t := range tickers {
		if parsed := ParseTicker(t); parsed.Code != "" {
			result = append(result, parsed)
		}
	}
	return result
}
