package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
)

const quotePageHTML = `<html>
<head><title>Apple Inc (AAPL) Stock Price &amp; News - Google Finance</title></head>
<body>
  <div class="YMlKec fxKbKc">$150.25</div>
  <div class="JwB6zf">1.25%</div>
  <div>
    <div class="P6K39c">Previous close</div><div>$148.50</div>
    <div class="P6K39c">Day range</div><div>$147.80 - $151.00</div>
    <div class="P6K39c">Year range</div><div>$120.00 - $199.00</div>
    <div class="P6K39c">Market cap</div><div>2.40T USD</div>
    <div class="P6K39c">P/E ratio</div><div>28.91</div>
    <div class="P6K39c">Dividend yield</div><div>0.55%</div>
  </div>
</body>
</html>`

func TestGoogleFinanceFetchQuote(t *testing.T) {
	server, fetcher := serveHTML(t, quotePageHTML)
	source := NewGoogleFinance(fetcher, server.URL, arbor.NewLogger())

	quote, err := source.FetchQuote(context.Background(), common.ParseTicker("NASDAQ:AAPL"))
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, "NASDAQ", quote.Exchange)
	assert.Equal(t, "$150.25", quote.Price)
	assert.Equal(t, "1.25%", quote.Change)
	assert.Equal(t, "$148.50", quote.PreviousClose)
	assert.Equal(t, "$147.80 - $151.00", quote.DayRange)
	assert.Equal(t, "$120.00 - $199.00", quote.YearRange)
	assert.Equal(t, "2.40T USD", quote.MarketCap)
	assert.Equal(t, "28.91", quote.PERatio)
	assert.Equal(t, "0.55%", quote.DividendYield)
	assert.Equal(t, "Apple Inc", quote.CompanyName)
	assert.Equal(t, "googlefinance", quote.Source)
	assert.False(t, quote.FetchedAt.IsZero())
}

func TestGoogleFinanceMissingPrice(t *testing.T) {
	server, fetcher := serveHTML(t, `<html><head><title>Not found</title></head><body></body></html>`)
	source := NewGoogleFinance(fetcher, server.URL, arbor.NewLogger())

	_, err := source.FetchQuote(context.Background(), common.ParseTicker("NASDAQ:ZZZZ"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no price found")
}
