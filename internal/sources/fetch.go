// Package sources fetches market data from public pages and APIs and maps it
// into the raw string observations the rest of the application consumes.
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/vigil/internal/common"
)

// Fetcher performs polite HTTP GETs against public market pages: browser-like
// headers, a per-host rate limiter, and a size-capped body read.
type Fetcher struct {
	client      *http.Client
	config      *common.MarketConfig
	logger      arbor.ILogger
	mu          sync.Mutex
	hostLimiter map[string]*rate.Limiter
}

// NewFetcher creates a fetcher from the market page settings.
func NewFetcher(config *common.MarketConfig, logger arbor.ILogger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: config.RequestTimeout,
		},
		config:      config,
		logger:      logger,
		hostLimiter: make(map[string]*rate.Limiter),
	}
}

// limiterFor returns the rate limiter for a host, creating one on first use.
// Each host gets one request per configured delay, with a burst of one.
func (f *Fetcher) limiterFor(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	limiter, ok := f.hostLimiter[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(f.config.RequestDelay), 1)
		f.hostLimiter[host] = limiter
	}
	return limiter
}

// Fetch GETs a URL and returns the response body, capped at the configured
// maximum size. Non-2xx statuses are errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %s: %w", rawURL, err)
	}

	if delay := f.config.RequestDelay; delay > 0 {
		if err := f.limiterFor(parsed.Host).Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled for %s: %w", parsed.Host, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	reader := io.Reader(resp.Body)
	if f.config.MaxBodySize > 0 {
		reader = io.LimitReader(resp.Body, int64(f.config.MaxBodySize))
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read body from %s: %w", rawURL, err)
	}

	f.logger.Debug().
		Str("url", rawURL).
		Int("bytes", len(body)).
		Msg("Fetched page")

	return body, nil
}

// FetchDocument GETs a URL and parses the body as an HTML document.
func (f *Fetcher) FetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", rawURL, err)
	}
	return doc, nil
}
