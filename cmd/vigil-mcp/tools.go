package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createAnalyzeStockTool returns the analyze_stock tool definition
func createAnalyzeStockTool() mcp.Tool {
	return mcp.NewTool("analyze_stock",
		mcp.WithDescription("Run a full analysis for a stock symbol: scrape market data, compute anomaly indicators, and generate the LLM narrative. Slow (minutes); the report is persisted."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Stock symbol, optionally exchange-prefixed (BHP or ASX:BHP)"),
		),
		mcp.WithString("company_name",
			mcp.Description("Company name hint when the symbol is ambiguous"),
		),
	)
}

// createGetQuoteTool returns the get_quote tool definition
func createGetQuoteTool() mcp.Tool {
	return mcp.NewTool("get_quote",
		mcp.WithDescription("Fetch the current quote for a stock symbol from the live sources"),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Stock symbol, optionally exchange-prefixed (BHP or ASX:BHP)"),
		),
	)
}

// createDetectAnomaliesTool returns the detect_anomalies tool definition
func createDetectAnomaliesTool() mcp.Tool {
	return mcp.NewTool("detect_anomalies",
		mcp.WithDescription("Fetch recent price history and compute anomaly indicators: volume spikes, abnormal returns, cumulative abnormal return, and red flags. No LLM involved."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Stock symbol, optionally exchange-prefixed (BHP or ASX:BHP)"),
		),
		mcp.WithNumber("days",
			mcp.Description("Trading days of history to analyze (default from config, minimum 20)"),
		),
	)
}

// createGetLatestReportTool returns the get_latest_report tool definition
func createGetLatestReportTool() mcp.Tool {
	return mcp.NewTool("get_latest_report",
		mcp.WithDescription("Retrieve the most recent stored analysis report for a symbol as markdown"),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Stock symbol, optionally exchange-prefixed (BHP or ASX:BHP)"),
		),
	)
}

// createListWatchlistTool returns the list_watchlist tool definition
func createListWatchlistTool() mcp.Tool {
	return mcp.NewTool("list_watchlist",
		mcp.WithDescription("List the symbols on the scan watchlist with their last scan time and risk level"),
	)
}
