package sources

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
)

// StockAnalysis scrapes price history, analyst forecasts, financial
// statements, and news listings from stockanalysis.com pages.
type StockAnalysis struct {
	fetcher DocumentFetcher
	baseURL string
	logger  arbor.ILogger
}

// NewStockAnalysis creates a StockAnalysis source rooted at baseURL
// (normally https://stockanalysis.com).
func NewStockAnalysis(fetcher DocumentFetcher, baseURL string, logger arbor.ILogger) *StockAnalysis {
	return &StockAnalysis{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

func (s *StockAnalysis) pageURL(ticker common.Ticker, page string) string {
	u := s.baseURL + "/" + ticker.StockAnalysisPath() + "/"
	if page != "" {
		u += page + "/"
	}
	return u
}

var (
	priceTargetPattern  = regexp.MustCompile(`average price target of \$([\d,\.]+)`)
	consensusPattern    = regexp.MustCompile(`consensus rating of "([^"]+)"`)
	analystCountPattern = regexp.MustCompile(`(\d+) analysts?`)
)

// FetchHistory scrapes the daily price history table. Observations come back
// most recent first, matching the page's row order, with every cell kept as
// the raw display string. At most days rows are returned; days <= 0 means no
// limit.
func (s *StockAnalysis) FetchHistory(ctx context.Context, ticker common.Ticker, days int) (models.ObservationSeries, error) {
	pageURL := s.pageURL(ticker, "history")
	doc, err := s.fetcher.FetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history page for %s: %w", ticker.String(), err)
	}

	table := historyTable(doc)
	if table == nil {
		return nil, fmt.Errorf("no history table found for %s", ticker.String())
	}

	columns := map[string]int{}
	table.Find("thead th").Each(func(i int, th *goquery.Selection) {
		header := strings.ToLower(strings.TrimSpace(th.Text()))
		switch {
		case strings.HasPrefix(header, "date"):
			columns["date"] = i
		case strings.HasPrefix(header, "open"):
			columns["open"] = i
		case strings.HasPrefix(header, "high"):
			columns["high"] = i
		case strings.HasPrefix(header, "low"):
			columns["low"] = i
		case header == "close" || strings.HasPrefix(header, "close"):
			columns["close"] = i
		case strings.HasPrefix(header, "volume"):
			columns["volume"] = i
		}
	})
	if _, ok := columns["date"]; !ok {
		return nil, fmt.Errorf("history table for %s has no date column", ticker.String())
	}

	var series models.ObservationSeries
	table.Find("tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td").Map(func(_ int, td *goquery.Selection) string {
			return strings.TrimSpace(td.Text())
		})
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(cells) {
				return ""
			}
			return cells[idx]
		}
		if cell("date") == "" {
			return true
		}
		series = append(series, models.DailyObservation{
			Date:   cell("date"),
			Open:   cell("open"),
			High:   cell("high"),
			Low:    cell("low"),
			Close:  cell("close"),
			Volume: cell("volume"),
		})
		return days <= 0 || len(series) < days
	})

	if len(series) == 0 {
		return nil, fmt.Errorf("history table for %s has no rows", ticker.String())
	}

	s.logger.Debug().
		Str("symbol", ticker.String()).
		Int("rows", len(series)).
		Msg("Scraped price history")

	return series, nil
}

// historyTable picks the table whose header contains a Date column.
func historyTable(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		header := strings.ToLower(table.Find("thead").Text())
		if strings.Contains(header, "date") {
			found = table
			return false
		}
		return true
	})
	return found
}

// FetchForecast scrapes analyst consensus data from the forecast page. The
// headline numbers live in prose, so they are pulled out with regexes over
// the page text.
func (s *StockAnalysis) FetchForecast(ctx context.Context, ticker common.Ticker) (*models.Forecast, error) {
	pageURL := s.pageURL(ticker, "forecast")
	doc, err := s.fetcher.FetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast page for %s: %w", ticker.String(), err)
	}

	text := doc.Find("body").Text()
	forecast := &models.Forecast{Symbol: ticker.Code}

	if m := priceTargetPattern.FindStringSubmatch(text); len(m) == 2 {
		forecast.PriceTargetText = "$" + m[1]
		if target, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			forecast.PriceTarget = target
		}
	}
	if m := consensusPattern.FindStringSubmatch(text); len(m) == 2 {
		forecast.Consensus = m[1]
	}
	if m := analystCountPattern.FindStringSubmatch(text); len(m) == 2 {
		if count, err := strconv.Atoi(m[1]); err == nil {
			forecast.AnalystCount = count
		}
	}

	if forecast.PriceTargetText == "" && forecast.Consensus == "" && forecast.AnalystCount == 0 {
		return nil, fmt.Errorf("no forecast data found for %s", ticker.String())
	}

	// First paragraph mentioning the price target doubles as a prose summary.
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		paragraph := strings.TrimSpace(p.Text())
		if strings.Contains(paragraph, "price target") {
			forecast.Summary = paragraph
			return false
		}
		return true
	})

	s.logger.Debug().
		Str("symbol", ticker.String()).
		Str("target", forecast.PriceTargetText).
		Str("consensus", forecast.Consensus).
		Msg("Scraped analyst forecast")

	return forecast, nil
}

// FetchFinancials scrapes the income statement, balance sheet, and ratios
// pages. Each row keeps the label and the most recent period's value as
// displayed.
func (s *StockAnalysis) FetchFinancials(ctx context.Context, ticker common.Ticker) (*models.Financials, error) {
	financials := &models.Financials{Symbol: ticker.Code}

	pages := []struct {
		page string
		dest *[]models.FinancialRow
	}{
		{"financials", &financials.Income},
		{"financials/balance-sheet", &financials.BalanceSheet},
		{"financials/ratios", &financials.Ratios},
	}

	var lastErr error
	for _, p := range pages {
		rows, err := s.fetchStatementRows(ctx, s.pageURL(ticker, p.page))
		if err != nil {
			lastErr = err
			s.logger.Warn().
				Err(err).
				Str("symbol", ticker.String()).
				Str("page", p.page).
				Msg("Failed to scrape financial statement")
			continue
		}
		*p.dest = rows
	}

	if len(financials.Income) == 0 && len(financials.BalanceSheet) == 0 && len(financials.Ratios) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("no financial data found for %s: %w", ticker.String(), lastErr)
		}
		return nil, fmt.Errorf("no financial data found for %s", ticker.String())
	}

	return financials, nil
}

// fetchStatementRows parses the first statement table on a financials page
// into label/value rows. The value is the first data cell, which the site
// orders most recent first.
func (s *StockAnalysis) fetchStatementRows(ctx context.Context, pageURL string) ([]models.FinancialRow, error) {
	doc, err := s.fetcher.FetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var rows []models.FinancialRow
	doc.Find("table").First().Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := strings.TrimSpace(cells.Eq(0).Text())
		value := strings.TrimSpace(cells.Eq(1).Text())
		if label == "" || value == "" {
			return
		}
		rows = append(rows, models.FinancialRow{Label: label, Value: value})
	})

	if len(rows) == 0 {
		return nil, fmt.Errorf("no statement rows found at %s", pageURL)
	}
	return rows, nil
}

// FetchNews scrapes the news listing on a symbol's overview page. At most
// limit items are returned; limit <= 0 means no limit.
func (s *StockAnalysis) FetchNews(ctx context.Context, ticker common.Ticker, limit int) ([]models.NewsItem, error) {
	pageURL := s.pageURL(ticker, "")
	doc, err := s.fetcher.FetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news for %s: %w", ticker.String(), err)
	}

	var items []models.NewsItem
	doc.Find("h3 a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}

		item := models.NewsItem{Title: title, URL: absoluteURL(s.baseURL, href)}

		// The byline sits next to the headline as "2 hours ago - Reuters".
		meta := strings.TrimSpace(link.Closest("h3").Next().Text())
		if meta == "" {
			meta = strings.TrimSpace(link.Closest("div").Find(".text-faded").First().Text())
		}
		if parts := strings.SplitN(meta, " - ", 2); len(parts) == 2 {
			item.Published = strings.TrimSpace(parts[0])
			item.Source = strings.TrimSpace(parts[1])
		} else if meta != "" {
			item.Published = meta
		}

		items = append(items, item)
		return limit <= 0 || len(items) < limit
	})

	if len(items) == 0 {
		return nil, fmt.Errorf("no news items found for %s", ticker.String())
	}

	s.logger.Debug().
		Str("symbol", ticker.String()).
		Int("items", len(items)).
		Msg("Scraped news listing")

	return items, nil
}

// absoluteURL resolves a possibly relative href against the source base URL.
func absoluteURL(baseURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(href, "/")
}
