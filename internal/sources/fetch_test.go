package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
)

func testMarketConfig() *common.MarketConfig {
	return &common.MarketConfig{
		UserAgent:      "test-agent",
		RequestTimeout: 5 * time.Second,
		RequestDelay:   time.Millisecond,
		MaxBodySize:    1024 * 1024,
		MaxArticles:    3,
	}
}

func TestFetcherSendsBrowserHeaders(t *testing.T) {
	var gotAgent, gotLanguage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotLanguage = r.Header.Get("Accept-Language")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	fetcher := NewFetcher(testMarketConfig(), arbor.NewLogger())
	body, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ok")
	assert.Equal(t, "test-agent", gotAgent)
	assert.NotEmpty(t, gotLanguage)
}

func TestFetcherRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(testMarketConfig(), arbor.NewLogger())
	_, err := fetcher.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetcherCapsBodySize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 1000; i++ {
			w.Write([]byte("0123456789"))
		}
	}))
	defer server.Close()

	config := testMarketConfig()
	config.MaxBodySize = 100
	fetcher := NewFetcher(config, arbor.NewLogger())

	body, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, body, 100)
}

func TestFetcherHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	fetcher := NewFetcher(testMarketConfig(), arbor.NewLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := fetcher.Fetch(ctx, server.URL)
	assert.Error(t, err)
}

// serveHTML returns a test server that serves fixed HTML for every path and a
// fetcher pointed at it.
func serveHTML(t *testing.T, html string) (*httptest.Server, *Fetcher) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server, NewFetcher(testMarketConfig(), arbor.NewLogger())
}
