package sources

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/eodhd"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// HistorySource supplies daily price observations, most recent first.
type HistorySource interface {
	FetchHistory(ctx context.Context, ticker common.Ticker, days int) (models.ObservationSeries, error)
}

// QuoteSource supplies point-in-time quotes.
type QuoteSource interface {
	FetchQuote(ctx context.Context, ticker common.Ticker) (*models.Quote, error)
}

// Registry bundles the configured data sources behind symbol-level lookups.
// When an EODHD API token is configured the API supplies history and quotes;
// otherwise both fall back to page scraping. Forecasts, financials, and news
// always come from scraping since the API has no equivalent.
type Registry struct {
	history       HistorySource
	quote         QuoteSource
	stockAnalysis *StockAnalysis
	articles      *ArticleExtractor
	renderer      *Renderer
	eodhdClient   *eodhd.Client
	maxArticles   int
	logger        arbor.ILogger
}

// NewRegistry wires up the data sources from configuration. Base URLs come
// from the KV store so tests and deployments can repoint them; the seeded
// defaults cover normal use.
func NewRegistry(ctx context.Context, config *common.Config, kv interfaces.KeyValueStorage, logger arbor.ILogger) *Registry {
	fetcher := NewFetcher(&config.Market, logger)

	var pageFetcher DocumentFetcher = fetcher
	var renderer *Renderer
	if config.Market.EnableJavaScript {
		renderer = NewRenderer(&config.Market, logger)
		pageFetcher = renderer
	}

	googleFinance := NewGoogleFinance(pageFetcher, resolveBaseURL(ctx, kv, "googlefinance_base_url"), logger)
	stockAnalysis := NewStockAnalysis(pageFetcher, resolveBaseURL(ctx, kv, "stockanalysis_base_url"), logger)

	registry := &Registry{
		history: stockAnalysis,
		quote:   googleFinance,
		// Article pages are arbitrary external sites; plain fetches are enough.
		articles:      NewArticleExtractor(fetcher, logger),
		stockAnalysis: stockAnalysis,
		renderer:      renderer,
		maxArticles:   config.Market.MaxArticles,
		logger:        logger,
	}

	if token, err := common.ResolveAPIKey(ctx, kv, "eodhd_api_token", config.EODHD.APIToken); err == nil && token != "" {
		opts := []eodhd.ClientOption{eodhd.WithLogger(logger)}
		if config.EODHD.BaseURL != "" {
			opts = append(opts, eodhd.WithBaseURL(config.EODHD.BaseURL))
		}
		if config.EODHD.RateLimit > 0 {
			rps := int(time.Second / config.EODHD.RateLimit)
			if rps < 1 {
				rps = 1
			}
			opts = append(opts, eodhd.WithRateLimit(rps))
		}
		client := eodhd.NewClient(token, opts...)
		source := NewEODHDSource(client, logger)
		registry.eodhdClient = client
		registry.history = source
		registry.quote = source
		logger.Info().Msg("Using EODHD API for price history and quotes")
	} else {
		logger.Info().Msg("No EODHD API token configured, using page scraping for price data")
	}

	return registry
}

// History returns up to days of daily observations for a symbol, most recent
// first.
func (r *Registry) History(ctx context.Context, symbol string, days int) (models.ObservationSeries, error) {
	return r.history.FetchHistory(ctx, common.ParseTicker(symbol), days)
}

// Quote returns the latest quote for a symbol.
func (r *Registry) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	return r.quote.FetchQuote(ctx, common.ParseTicker(symbol))
}

// Forecast returns scraped analyst consensus data for a symbol.
func (r *Registry) Forecast(ctx context.Context, symbol string) (*models.Forecast, error) {
	return r.stockAnalysis.FetchForecast(ctx, common.ParseTicker(symbol))
}

// Financials returns scraped financial statement rows for a symbol.
func (r *Registry) Financials(ctx context.Context, symbol string) (*models.Financials, error) {
	return r.stockAnalysis.FetchFinancials(ctx, common.ParseTicker(symbol))
}

// News returns recent headlines for a symbol, with article bodies fetched
// for the first maxArticles items. A headline whose article cannot be fetched
// is kept without content.
func (r *Registry) News(ctx context.Context, symbol string) ([]models.NewsItem, error) {
	items, err := r.stockAnalysis.FetchNews(ctx, common.ParseTicker(symbol), r.maxArticles)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if r.maxArticles > 0 && i >= r.maxArticles {
			break
		}
		content, err := r.articles.FetchContent(ctx, items[i].URL)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Str("url", items[i].URL).
				Msg("Failed to fetch article content")
			continue
		}
		items[i].Content = content
	}

	return items, nil
}

// ArticleMarkdown fetches a single article as markdown for LLM context.
func (r *Registry) ArticleMarkdown(ctx context.Context, articleURL string) (string, error) {
	return r.articles.FetchMarkdown(ctx, articleURL)
}

// ExchangeMetadata exposes the EODHD client's exchange-details lookup for
// schedule-aware cache freshness. Nil when no API token is configured.
func (r *Registry) ExchangeMetadata() *eodhd.Client {
	return r.eodhdClient
}

// Close releases the browser render pool if one was started.
func (r *Registry) Close() {
	if r.renderer != nil {
		r.renderer.Close()
	}
}

// resolveBaseURL reads a base URL from the KV store, falling back to the
// seeded default for the key.
func resolveBaseURL(ctx context.Context, kv interfaces.KeyValueStorage, key string) string {
	if kv != nil {
		if value, err := kv.Get(ctx, key); err == nil && value != "" {
			return value
		}
	}
	for _, def := range common.GetDefaultKVValues() {
		if def.Key == key {
			return def.Value
		}
	}
	return ""
}
