package sources

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
)

// Renderer fetches JavaScript-heavy pages through a pool of headless browser
// contexts. Instances are created lazily on first use and handed out
// round-robin; callers share contexts, so navigation runs in fresh tabs.
type Renderer struct {
	config *common.MarketConfig
	logger arbor.ILogger

	mu          sync.Mutex
	browsers    []context.Context
	cancels     []context.CancelFunc
	nextBrowser int
	initialized bool
}

// renderPoolSize is the number of browser instances kept alive. Analysis runs
// touch one page at a time per symbol, so a small pool is enough.
const renderPoolSize = 2

// NewRenderer creates a renderer. Browsers are not started until the first
// Fetch call, so constructing one is cheap even when rendering is disabled.
func NewRenderer(config *common.MarketConfig, logger arbor.ILogger) *Renderer {
	return &Renderer{
		config: config,
		logger: logger,
	}
}

// init starts the browser pool. Must be called with the mutex held.
func (r *Renderer) init() error {
	if r.initialized {
		return nil
	}

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(r.config.UserAgent),
	)

	for i := 0; i < renderPoolSize; i++ {
		allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
		browserCtx, browserCancel := chromedp.NewContext(allocCtx)

		testCtx, testCancel := context.WithTimeout(browserCtx, 30*time.Second)
		err := chromedp.Run(testCtx, chromedp.Navigate("about:blank"))
		testCancel()
		if err != nil {
			browserCancel()
			allocCancel()
			if len(r.browsers) == 0 {
				return fmt.Errorf("failed to start browser: %w", err)
			}
			r.logger.Warn().Err(err).Int("index", i).Msg("Failed to start browser instance, continuing with smaller pool")
			break
		}

		r.browsers = append(r.browsers, browserCtx)
		r.cancels = append(r.cancels, browserCancel, allocCancel)
	}

	r.initialized = true
	r.logger.Info().Int("pool_size", len(r.browsers)).Msg("Browser render pool started")
	return nil
}

// browser returns a browser context round-robin, starting the pool if needed.
func (r *Renderer) browser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.init(); err != nil {
		return nil, err
	}
	if len(r.browsers) == 0 {
		return nil, fmt.Errorf("no browser instances available")
	}

	browserCtx := r.browsers[r.nextBrowser%len(r.browsers)]
	r.nextBrowser++
	return browserCtx, nil
}

// Fetch navigates to a URL, waits for JavaScript to settle, and returns the
// rendered HTML.
func (r *Renderer) Fetch(ctx context.Context, rawURL string) (string, error) {
	browserCtx, err := r.browser()
	if err != nil {
		return "", err
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()

	timeout := r.config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, runCancel := context.WithTimeout(tabCtx, timeout)
	defer runCancel()

	wait := r.config.RenderWaitTime
	if wait <= 0 {
		wait = 2 * time.Second
	}

	started := time.Now()
	var html string
	err = chromedp.Run(runCtx,
		chromedp.Navigate(rawURL),
		chromedp.Sleep(wait),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		// Surface the caller's cancellation rather than the tab's.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("failed to render %s: %w", rawURL, err)
	}

	r.logger.Debug().
		Str("url", rawURL).
		Dur("duration", time.Since(started)).
		Int("bytes", len(html)).
		Msg("Rendered page")

	return html, nil
}

// FetchDocument renders a URL and parses the result as an HTML document.
func (r *Renderer) FetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	html, err := r.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered HTML from %s: %w", rawURL, err)
	}
	return doc, nil
}

// Close shuts down the browser pool.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cancel := range r.cancels {
		cancel()
	}
	r.browsers = nil
	r.cancels = nil
	r.initialized = false
}
