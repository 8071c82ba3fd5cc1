package common

import (
	"testing"
)

func TestParseTicker(t *testing.T) {
	// Ensure default exchange is NASDAQ for these tests
	originalDefault := DefaultExchange
	DefaultExchange = "NASDAQ"
	defer func() { DefaultExchange = originalDefault }()

	tests := []struct {
		input        string
		wantExchange string
		wantCode     string
		wantString   string
		wantEODHD    string
	}{
		// Exchange-qualified format with colon separator
		{"NASDAQ:AAPL", "NASDAQ", "AAPL", "NASDAQ:AAPL", "AAPL.US"},
		{"NYSE:IBM", "NYSE", "IBM", "NYSE:IBM", "IBM.US"},
		{"ASX:GNP", "ASX", "GNP", "ASX:GNP", "GNP.AU"},
		{"LSE:VOD", "LSE", "VOD", "LSE:VOD", "VOD.LSE"},

		// Exchange-qualified format with dot separator (EXCHANGE.CODE)
		{"NASDAQ.MSFT", "NASDAQ", "MSFT", "NASDAQ:MSFT", "MSFT.US"},
		{"NYSE.AAPL", "NYSE", "AAPL", "NYSE:AAPL", "AAPL.US"},
		{"ASX.GNP", "ASX", "GNP", "ASX:GNP", "GNP.AU"},

		// Bare symbol (no exchange - defaults to NASDAQ)
		{"AAPL", "NASDAQ", "AAPL", "NASDAQ:AAPL", "AAPL.US"},
		{"TSLA", "NASDAQ", "TSLA", "NASDAQ:TSLA", "TSLA.US"},

		// Case normalization
		{"nasdaq:aapl", "NASDAQ", "AAPL", "NASDAQ:AAPL", "AAPL.US"},
		{"nasdaq.aapl", "NASDAQ", "AAPL", "NASDAQ:AAPL", "AAPL.US"},
		{"aapl", "NASDAQ", "AAPL", "NASDAQ:AAPL", "AAPL.US"},

		// Whitespace handling
		{"  NASDAQ:AAPL  ", "NASDAQ", "AAPL", "NASDAQ:AAPL", "AAPL.US"},
		{"  AAPL  ", "NASDAQ", "AAPL", "NASDAQ:AAPL", "AAPL.US"},

		// Empty input
		{"", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseTicker(tt.input)

			if result.Exchange != tt.wantExchange {
				t.Errorf("Exchange = %q, want %q", result.Exchange, tt.wantExchange)
			}
			if result.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", result.Code, tt.wantCode)
			}
			if result.String() != tt.wantString {
				t.Errorf("String() = %q, want %q", result.String(), tt.wantString)
			}
			if result.EODHDSymbol() != tt.wantEODHD {
				t.Errorf("EODHDSymbol() = %q, want %q", result.EODHDSymbol(), tt.wantEODHD)
			}
		})
	}
}

func TestTicker_GoogleFinanceSlug(t *testing.T) {
	originalDefault := DefaultExchange
	DefaultExchange = "NASDAQ"
	defer func() { DefaultExchange = originalDefault }()

	tests := []struct {
		ticker string
		want   string
	}{
		{"NASDAQ:AAPL", "AAPL:NASDAQ"},
		{"NYSE:IBM", "IBM:NYSE"},
		{"ASX:GNP", "GNP:ASX"},
		{"AAPL", "AAPL:NASDAQ"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			result := ParseTicker(tt.ticker).GoogleFinanceSlug()

			if result != tt.want {
				t.Errorf("GoogleFinanceSlug() = %q, want %q", result, tt.want)
			}
		})
	}
}

func TestTicker_StockAnalysisPath(t *testing.T) {
	originalDefault := DefaultExchange
	DefaultExchange = "NASDAQ"
	defer func() { DefaultExchange = originalDefault }()

	tests := []struct {
		ticker string
		want   string
	}{
		// US exchanges use the short /stocks path
		{"NASDAQ:AAPL", "stocks/aapl"},
		{"NYSE:IBM", "stocks/ibm"},
		{"AAPL", "stocks/aapl"},
		// Other exchanges use the /quote path
		{"ASX:GNP", "quote/asx/GNP"},
		{"LSE:VOD", "quote/lse/VOD"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			result := ParseTicker(tt.ticker).StockAnalysisPath()

			if result != tt.want {
				t.Errorf("StockAnalysisPath() = %q, want %q", result, tt.want)
			}
		})
	}
}

func TestTicker_DetailsExchangeCode(t *testing.T) {
	tests := []struct {
		ticker string
		want   string
	}{
		{"NASDAQ:AAPL", "US"},
		{"NYSE:IBM", "US"},
		{"ASX:GNP", "AU"},
		{"LSE:VOD", "LSE"},
		// Unknown exchange falls back to US
		{"UNKNOWN:ABC", "US"},
	}

	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			parsed := ParseTicker(tt.ticker)
			result := parsed.DetailsExchangeCode()

			if result != tt.want {
				t.Errorf("DetailsExchangeCode() = %q, want %q", result, tt.want)
			}
		})
	}
}

func TestParseTickers(t *testing.T) {
	originalDefault := DefaultExchange
	DefaultExchange = "NASDAQ"
	defer func() { DefaultExchange = originalDefault }()

	input := []string{"NASDAQ:AAPL", "NYSE:IBM", "TSLA", "  ", ""}
	result := ParseTickers(input)

	if len(result) != 3 {
		t.Errorf("ParseTickers returned %d tickers, want 3", len(result))
	}

	expected := []string{"AAPL", "IBM", "TSLA"}
	for i, ticker := range result {
		if ticker.Code != expected[i] {
			t.Errorf("result[%d].Code = %q, want %q", i, ticker.Code, expected[i])
		}
	}
}

func TestSetDefaultExchange(t *testing.T) {
	originalDefault := DefaultExchange
	defer func() { DefaultExchange = originalDefault }()

	SetDefaultExchange("asx")
	if DefaultExchange != "ASX" {
		t.Errorf("DefaultExchange = %q, want %q", DefaultExchange, "ASX")
	}

	parsed := ParseTicker("GNP")
	if parsed.Exchange != "ASX" {
		t.Errorf("Exchange = %q, want %q", parsed.Exchange, "ASX")
	}

	// Empty input leaves the default untouched
	SetDefaultExchange("")
	if DefaultExchange != "ASX" {
		t.Errorf("DefaultExchange = %q, want %q", DefaultExchange, "ASX")
	}
}
