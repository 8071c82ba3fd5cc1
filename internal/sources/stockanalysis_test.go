package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/common"
)

const historyPageHTML = `<html><body>
<table>
  <thead>
    <tr><th>Date</th><th>Open</th><th>High</th><th>Low</th><th>Close</th><th>Adj. Close</th><th>Change</th><th>Volume</th></tr>
  </thead>
  <tbody>
    <tr><td>Jan 5, 2024</td><td>181.99</td><td>182.76</td><td>180.17</td><td>181.18</td><td>181.18</td><td>-0.40%</td><td>62,303,300</td></tr>
    <tr><td>Jan 4, 2024</td><td>182.15</td><td>183.09</td><td>180.88</td><td>181.91</td><td>181.91</td><td>-1.27%</td><td>71,983,600</td></tr>
    <tr><td>Jan 3, 2024</td><td>184.22</td><td>185.88</td><td>183.43</td><td>184.25</td><td>184.25</td><td>-0.75%</td><td>58,414,500</td></tr>
  </tbody>
</table>
</body></html>`

func TestStockAnalysisFetchHistory(t *testing.T) {
	server, fetcher := serveHTML(t, historyPageHTML)
	source := NewStockAnalysis(fetcher, server.URL, arbor.NewLogger())

	series, err := source.FetchHistory(context.Background(), common.ParseTicker("AAPL"), 0)
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, "Jan 5, 2024", series[0].Date, "most recent row first")
	assert.Equal(t, "181.99", series[0].Open)
	assert.Equal(t, "182.76", series[0].High)
	assert.Equal(t, "180.17", series[0].Low)
	assert.Equal(t, "181.18", series[0].Close)
	assert.Equal(t, "62,303,300", series[0].Volume, "cells kept as raw display strings")
	assert.Equal(t, "Jan 3, 2024", series[2].Date)
}

func TestStockAnalysisFetchHistoryLimitsRows(t *testing.T) {
	server, fetcher := serveHTML(t, historyPageHTML)
	source := NewStockAnalysis(fetcher, server.URL, arbor.NewLogger())

	series, err := source.FetchHistory(context.Background(), common.ParseTicker("AAPL"), 2)
	require.NoError(t, err)
	assert.Len(t, series, 2)
}

func TestStockAnalysisFetchHistoryNoTable(t *testing.T) {
	server, fetcher := serveHTML(t, `<html><body><p>nothing here</p></body></html>`)
	source := NewStockAnalysis(fetcher, server.URL, arbor.NewLogger())

	_, err := source.FetchHistory(context.Background(), common.ParseTicker("AAPL"), 0)
	assert.Error(t, err)
}

const forecastPageHTML = `<html><body>
<p>According to 32 analysts, the average price target of $210.50 implies upside.
The consensus rating of "Buy" reflects analyst sentiment.</p>
</body></html>`

func TestStockAnalysisFetchForecast(t *testing.T) {
	server, fetcher := serveHTML(t, forecastPageHTML)
	source := NewStockAnalysis(fetcher, server.URL, arbor.NewLogger())

	forecast, err := source.FetchForecast(context.Background(), common.ParseTicker("AAPL"))
	require.NoError(t, err)

	assert.Equal(t, "AAPL", forecast.Symbol)
	assert.Equal(t, "$210.50", forecast.PriceTargetText)
	assert.InDelta(t, 210.50, forecast.PriceTarget, 0.001)
	assert.Equal(t, "Buy", forecast.Consensus)
	assert.Equal(t, 32, forecast.AnalystCount)
	assert.Contains(t, forecast.Summary, "price target")
}

func TestStockAnalysisFetchForecastEmpty(t *testing.T) {
	server, fetcher := serveHTML(t, `<html><body><p>no data</p></body></html>`)
	source := NewStockAnalysis(fetcher, server.URL, arbor.NewLogger())

	_, err := source.FetchForecast(context.Background(), common.ParseTicker("AAPL"))
	assert.Error(t, err)
}

const financialsPageHTML = `<html><body>
<table>
  <thead><tr><th>Fiscal Year</th><th>FY 2023</th><th>FY 2022</th></tr></thead>
  <tbody>
    <tr><td>Revenue</td><td>383,285</td><td>394,328</td></tr>
    <tr><td>Net Income</td><td>96,995</td><td>99,803</td></tr>
  </tbody>
</table>
</body></html>`

func TestStockAnalysisFetchFinancials(t *testing.T) {
	server, fetcher := serveHTML(t, financialsPageHTML)
	source := NewStockAnalysis(fetcher, server.URL, arbor.NewLogger())

	financials, err := source.FetchFinancials(context.Background(), common.ParseTicker("AAPL"))
	require.NoError(t, err)

	require.NotEmpty(t, financials.Income)
	assert.Equal(t, "Revenue", financials.Income[0].Label)
	assert.Equal(t, "383,285", financials.Income[0].Value, "most recent period's value")
}

const newsPageHTML = `<html><body>
<div>
  <h3><a href="https://example.com/apple-earnings">Apple beats earnings expectations</a></h3>
  <div>2 hours ago - Reuters</div>
</div>
<div>
  <h3><a href="/news/apple-supply-chain">Apple supply chain update</a></h3>
  <div>5 hours ago - Bloomberg</div>
</div>
</body></html>`

func TestStockAnalysisFetchNews(t *testing.T) {
	server, fetcher := serveHTML(t, newsPageHTML)
	source := NewStockAnalysis(fetcher, server.URL, arbor.NewLogger())

	items, err := source.FetchNews(context.Background(), common.ParseTicker("AAPL"), 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Apple beats earnings expectations", items[0].Title)
	assert.Equal(t, "https://example.com/apple-earnings", items[0].URL)
	assert.Equal(t, "2 hours ago", items[0].Published)
	assert.Equal(t, "Reuters", items[0].Source)

	assert.Equal(t, server.URL+"/news/apple-supply-chain", items[1].URL, "relative links resolved against base URL")
	assert.Equal(t, "Bloomberg", items[1].Source)
}

func TestStockAnalysisFetchNewsLimit(t *testing.T) {
	server, fetcher := serveHTML(t, newsPageHTML)
	source := NewStockAnalysis(fetcher, server.URL, arbor.NewLogger())

	items, err := source.FetchNews(context.Background(), common.ParseTicker("AAPL"), 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
