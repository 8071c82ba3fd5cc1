package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
)

// DocumentFetcher retrieves a URL as a parsed HTML document. Both the plain
// fetcher and the browser renderer satisfy it.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error)
}

// GoogleFinance scrapes quote pages from Google Finance.
type GoogleFinance struct {
	fetcher DocumentFetcher
	baseURL string
	logger  arbor.ILogger
}

// NewGoogleFinance creates a Google Finance quote source rooted at baseURL
// (normally https://www.google.com/finance).
func NewGoogleFinance(fetcher DocumentFetcher, baseURL string, logger arbor.ILogger) *GoogleFinance {
	return &GoogleFinance{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// quoteURL returns the quote page URL for a ticker, e.g.
// https://www.google.com/finance/quote/AAPL:NASDAQ
func (g *GoogleFinance) quoteURL(ticker common.Ticker) string {
	return g.baseURL + "/quote/" + ticker.GoogleFinanceSlug()
}

// FetchQuote scrapes the quote page for a ticker. Values are kept exactly as
// the page displays them.
func (g *GoogleFinance) FetchQuote(ctx context.Context, ticker common.Ticker) (*models.Quote, error) {
	pageURL := g.quoteURL(ticker)
	doc, err := g.fetcher.FetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote page for %s: %w", ticker.String(), err)
	}

	price := strings.TrimSpace(doc.Find("div.YMlKec.fxKbKc").First().Text())
	if price == "" {
		return nil, fmt.Errorf("no price found on quote page for %s", ticker.String())
	}

	quote := &models.Quote{
		Symbol:      ticker.Code,
		Exchange:    ticker.Exchange,
		Price:       price,
		Change:      strings.TrimSpace(doc.Find("div.JwB6zf").First().Text()),
		CompanyName: companyNameFromTitle(doc, ticker.Code),
		Source:      "googlefinance",
		FetchedAt:   time.Now(),
	}

	// Stat rows are label/value sibling pairs: the label div is followed by
	// its value div.
	doc.Find("div.P6K39c").Each(func(_ int, label *goquery.Selection) {
		text := strings.TrimSpace(label.Next().Text())
		name := strings.TrimSpace(label.Text())
		switch {
		case strings.Contains(name, "Previous close"):
			quote.PreviousClose = text
		case strings.Contains(name, "Day range"):
			quote.DayRange = text
		case strings.Contains(name, "Year range"):
			quote.YearRange = text
		case strings.Contains(name, "Market cap"):
			quote.MarketCap = text
		case strings.Contains(name, "P/E ratio"):
			quote.PERatio = text
		case strings.Contains(name, "Dividend yield"):
			quote.DividendYield = text
		}
	})

	g.logger.Debug().
		Str("symbol", ticker.String()).
		Str("price", quote.Price).
		Msg("Scraped quote")

	return quote, nil
}

// companyNameFromTitle pulls the company name out of the page title, e.g.
// "Apple Inc (AAPL) Stock Price & News - Google Finance".
func companyNameFromTitle(doc *goquery.Document, code string) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return ""
	}
	name := strings.TrimSpace(strings.Split(title, " - ")[0])
	if idx := strings.Index(name, " ("+strings.ToUpper(code)); idx > 0 {
		name = strings.TrimSpace(name[:idx])
	}
	return name
}
