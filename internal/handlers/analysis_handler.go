package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/services/analysis"
)

// AnalysisHandler serves analysis runs, quick summaries and PDF reports.
type AnalysisHandler struct {
	analysis *analysis.Service
	pdf      interfaces.PDFService
	storage  interfaces.StorageManager
	logger   arbor.ILogger
}

func NewAnalysisHandler(analysisService *analysis.Service, pdfService interfaces.PDFService, storage interfaces.StorageManager, logger arbor.ILogger) *AnalysisHandler {
	return &AnalysisHandler{
		analysis: analysisService,
		pdf:      pdfService,
		storage:  storage,
		logger:   logger,
	}
}

type analyzeRequest struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name,omitempty"`
}

// AnalyzeHandler handles POST /api/analyze. Runs the full pipeline and
// returns the stored report.
func (h *AnalysisHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	symbol, err := CleanSymbol(req.Symbol)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.analysis.Analyze(r.Context(), symbol, req.CompanyName)
	if err != nil {
		h.logger.Warn().Err(err).Str("symbol", symbol).Msg("Analysis request failed")
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// PDFHandler handles GET /api/analyze/{symbol}/pdf. Renders the latest stored
// report, running a fresh analysis when none exists.
func (h *AnalysisHandler) PDFHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	raw := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/analyze/"), "/pdf")
	symbol, err := CleanSymbol(raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.storage.ReportStorage().GetLatestReport(r.Context(), symbol)
	if err != nil {
		h.logger.Info().Str("symbol", symbol).Msg("No stored report, running fresh analysis")
		report, err = h.analysis.Analyze(r.Context(), symbol, "")
		if err != nil {
			WriteError(w, http.StatusBadGateway, err.Error())
			return
		}
	}

	title := fmt.Sprintf("%s Analysis Report", symbol)
	data, err := h.pdf.ConvertMarkdownToPDF(analysis.BuildReportMarkdown(report), title)
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("PDF rendering failed")
		WriteError(w, http.StatusInternalServerError, "failed to render PDF")
		return
	}

	filename := fmt.Sprintf("%s_%s.pdf", symbol, report.CreatedAt.Format("20060102"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// QuickSummaryHandler handles GET /api/quick-summary/{symbol}.
func (h *AnalysisHandler) QuickSummaryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	symbol, err := CleanSymbol(strings.TrimPrefix(r.URL.Path, "/api/quick-summary/"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.analysis.QuickSummary(r.Context(), symbol)
	if err != nil {
		h.logger.Warn().Err(err).Str("symbol", symbol).Msg("Quick summary failed")
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, summary)
}
