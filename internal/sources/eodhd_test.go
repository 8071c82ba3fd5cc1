package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/eodhd"
)

const eodResponseJSON = `[
  {"date":"2024-01-05","open":181.99,"high":182.76,"low":180.17,"close":181.18,"adjusted_close":181.18,"volume":62303300},
  {"date":"2024-01-04","open":182.15,"high":183.09,"low":180.88,"close":181.91,"adjusted_close":181.91,"volume":71983600},
  {"date":"2024-01-03","open":184.22,"high":185.88,"low":183.43,"close":184.25,"adjusted_close":184.25,"volume":58414500}
]`

func newEODHDTestSource(t *testing.T, handler http.HandlerFunc) *EODHDSource {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := eodhd.NewClient("test-token",
		eodhd.WithBaseURL(server.URL),
		eodhd.WithLogger(arbor.NewLogger()),
		eodhd.WithRateLimit(100),
	)
	return NewEODHDSource(client, arbor.NewLogger())
}

func TestEODHDSourceFetchHistory(t *testing.T) {
	source := newEODHDTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/eod/AAPL.US"))
		assert.Equal(t, "d", r.URL.Query().Get("order"), "most recent first")
		w.Write([]byte(eodResponseJSON))
	})

	series, err := source.FetchHistory(context.Background(), common.ParseTicker("NASDAQ:AAPL"), 90)
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, "2024-01-05", series[0].Date)
	assert.Equal(t, "181.99", series[0].Open)
	assert.Equal(t, "181.18", series[0].Close)
	assert.Equal(t, "62303300", series[0].Volume)
	assert.Equal(t, "2024-01-03", series[2].Date)
}

func TestEODHDSourceFetchHistoryTruncates(t *testing.T) {
	source := newEODHDTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(eodResponseJSON))
	})

	series, err := source.FetchHistory(context.Background(), common.ParseTicker("AAPL"), 2)
	require.NoError(t, err)
	assert.Len(t, series, 2)
}

func TestEODHDSourceFetchHistoryEmpty(t *testing.T) {
	source := newEODHDTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := source.FetchHistory(context.Background(), common.ParseTicker("AAPL"), 90)
	assert.Error(t, err)
}

func TestEODHDSourceFetchQuote(t *testing.T) {
	source := newEODHDTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/real-time/AAPL.US"))
		w.Write([]byte(`{"date":"2024-01-05","close":181.18,"volume":62303300}`))
	})

	quote, err := source.FetchQuote(context.Background(), common.ParseTicker("NASDAQ:AAPL"))
	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, "181.18", quote.Price)
	assert.Equal(t, "eodhd", quote.Source)
}
