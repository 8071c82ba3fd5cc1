package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (events and log streaming)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Analysis
	mux.HandleFunc("/api/analyze", s.handleAnalyzeRoute)            // POST - run full analysis
	mux.HandleFunc("/api/analyze/", s.handleAnalyzeSymbolRoutes)    // GET /{symbol}/pdf
	mux.HandleFunc("/api/quick-summary/", s.app.AnalysisHandler.QuickSummaryHandler)

	// API routes - Agents (single-section runs)
	mux.HandleFunc("/api/agents", s.app.AgentsHandler.ListHandler)
	mux.HandleFunc("/api/agents/", s.app.AgentsHandler.RunHandler)

	// API routes - Watchlist
	mux.HandleFunc("/api/watchlist", s.app.WatchlistHandler.CollectionHandler) // GET (list), POST (add)
	mux.HandleFunc("/api/watchlist/", s.app.WatchlistHandler.RemoveHandler)    // DELETE /{symbol}

	// API routes - Stored reports
	mux.HandleFunc("/api/reports/", s.app.ReportsHandler.SymbolHandler) // GET /{symbol}, /{symbol}/latest

	// API routes - Scheduled scans
	mux.HandleFunc("/api/scan/status", s.app.SchedulerHandler.StatusHandler)
	mux.HandleFunc("/api/scan/trigger", s.app.SchedulerHandler.TriggerHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleAnalyzeRoute routes /api/analyze requests
func (s *Server) handleAnalyzeRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"POST": s.app.AnalysisHandler.AnalyzeHandler,
	})
}

// handleAnalyzeSymbolRoutes routes /api/analyze/{symbol}/... requests
func (s *Server) handleAnalyzeSymbolRoutes(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/pdf") {
		s.app.AnalysisHandler.PDFHandler(w, r)
		return
	}
	http.Error(w, "Not found", http.StatusNotFound)
}
