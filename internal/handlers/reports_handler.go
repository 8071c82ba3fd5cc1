package handlers

import (
	"math"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// ReportsHandler serves stored analysis reports.
type ReportsHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

func NewReportsHandler(storage interfaces.StorageManager, logger arbor.ILogger) *ReportsHandler {
	return &ReportsHandler{
		storage: storage,
		logger:  logger,
	}
}

// SymbolHandler routes GET /api/reports/{symbol} and
// GET /api/reports/{symbol}/latest.
func (h *ReportsHandler) SymbolHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/reports/")
	if latest := strings.TrimSuffix(path, "/latest"); latest != path {
		h.latest(w, r, latest)
		return
	}
	h.listBySymbol(w, r, path)
}

func (h *ReportsHandler) latest(w http.ResponseWriter, r *http.Request, raw string) {
	symbol, err := CleanSymbol(raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.storage.ReportStorage().GetLatestReport(r.Context(), symbol)
	if err != nil {
		WriteError(w, http.StatusNotFound, "no reports for "+symbol)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (h *ReportsHandler) listBySymbol(w http.ResponseWriter, r *http.Request, raw string) {
	symbol, err := CleanSymbol(raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, pageSize := GetPaginationParams(r)

	total, err := h.storage.ReportStorage().CountReportsBySymbol(r.Context(), symbol)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to count reports")
		return
	}

	reports, err := h.storage.ReportStorage().GetReportsBySymbol(r.Context(), symbol, pageSize, page*pageSize)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	if reports == nil {
		reports = []*models.AnalysisReport{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"pagination": PaginationResponse{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
		},
	})
}
