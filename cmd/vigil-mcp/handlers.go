package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/handlers"
	"github.com/ternarybob/vigil/internal/indicators"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/services/analysis"
	"github.com/ternarybob/vigil/internal/sources"
)

func errorResult(format string, args ...interface{}) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf(format, args...)),
		},
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// requireSymbol extracts and validates the symbol parameter shared by most tools.
func requireSymbol(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	raw, err := request.RequireString("symbol")
	if err != nil || raw == "" {
		return "", errorResult("Error: symbol parameter is required")
	}

	symbol, err := handlers.CleanSymbol(raw)
	if err != nil {
		return "", errorResult("Invalid symbol %q: %v", raw, err)
	}
	return symbol, nil
}

// handleAnalyzeStock implements the analyze_stock tool
func handleAnalyzeStock(analysisService *analysis.Service, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, errRes := requireSymbol(request)
		if errRes != nil {
			return errRes, nil
		}

		companyName := request.GetString("company_name", "")

		report, err := analysisService.Analyze(ctx, symbol, companyName)
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("Analysis failed")
			return errorResult("Analysis failed: %v", err), nil
		}

		return textResult(analysis.BuildReportMarkdown(report)), nil
	}
}

// handleGetQuote implements the get_quote tool
func handleGetQuote(registry *sources.Registry, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, errRes := requireSymbol(request)
		if errRes != nil {
			return errRes, nil
		}

		quote, err := registry.Quote(ctx, symbol)
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("Quote fetch failed")
			return errorResult("Quote fetch failed: %v", err), nil
		}

		return textResult(formatQuote(quote)), nil
	}
}

// handleDetectAnomalies implements the detect_anomalies tool
func handleDetectAnomalies(registry *sources.Registry, engine *indicators.Engine, defaultDays int, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, errRes := requireSymbol(request)
		if errRes != nil {
			return errRes, nil
		}

		days := request.GetInt("days", defaultDays)
		if days < 20 {
			days = 20
		}

		history, err := registry.History(ctx, symbol, days)
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("History fetch failed")
			return errorResult("History fetch failed: %v", err), nil
		}

		report, err := engine.Compute(history)
		if err != nil {
			if errors.Is(err, indicators.ErrInsufficientData) {
				return errorResult("Not enough history for %s: %v", symbol, err), nil
			}
			logger.Error().Err(err).Str("symbol", symbol).Msg("Indicator computation failed")
			return errorResult("Indicator computation failed: %v", err), nil
		}

		return textResult(formatAnomalyReport(symbol, report)), nil
	}
}

// handleGetLatestReport implements the get_latest_report tool
func handleGetLatestReport(storageManager interfaces.StorageManager, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, errRes := requireSymbol(request)
		if errRes != nil {
			return errRes, nil
		}

		report, err := storageManager.ReportStorage().GetLatestReport(ctx, symbol)
		if err != nil {
			return errorResult("No stored report for %s: %v", symbol, err), nil
		}

		return textResult(analysis.BuildReportMarkdown(report)), nil
	}
}

// handleListWatchlist implements the list_watchlist tool
func handleListWatchlist(storageManager interfaces.StorageManager, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries, err := storageManager.WatchlistStorage().List(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Watchlist list failed")
			return errorResult("Watchlist list failed: %v", err), nil
		}

		return textResult(formatWatchlist(entries)), nil
	}
}
