package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// WatchlistHandler manages the scheduled-scan watchlist.
type WatchlistHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

func NewWatchlistHandler(storage interfaces.StorageManager, logger arbor.ILogger) *WatchlistHandler {
	return &WatchlistHandler{
		storage: storage,
		logger:  logger,
	}
}

type watchlistAddRequest struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name,omitempty"`
}

// CollectionHandler handles GET (list) and POST (add) on /api/watchlist.
func (h *WatchlistHandler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.list(w, r)
	case "POST":
		h.add(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *WatchlistHandler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.storage.WatchlistStorage().List(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list watchlist")
		return
	}
	if entries == nil {
		entries = []*models.WatchlistEntry{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": entries,
		"count":   len(entries),
	})
}

func (h *WatchlistHandler) add(w http.ResponseWriter, r *http.Request) {
	var req watchlistAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	symbol, err := CleanSymbol(req.Symbol)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry := &models.WatchlistEntry{
		Symbol:      symbol,
		CompanyName: strings.TrimSpace(req.CompanyName),
		AddedAt:     time.Now(),
	}
	if err := h.storage.WatchlistStorage().Add(r.Context(), entry); err != nil {
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to add watchlist entry")
		WriteError(w, http.StatusInternalServerError, "failed to add symbol")
		return
	}

	h.logger.Info().Str("symbol", symbol).Msg("Watchlist entry added")
	WriteJSON(w, http.StatusCreated, entry)
}

// RemoveHandler handles DELETE /api/watchlist/{symbol}.
func (h *WatchlistHandler) RemoveHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	symbol, err := CleanSymbol(strings.TrimPrefix(r.URL.Path, "/api/watchlist/"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storage.WatchlistStorage().Remove(r.Context(), symbol); err != nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("symbol %s not in watchlist", symbol))
		return
	}

	h.logger.Info().Str("symbol", symbol).Msg("Watchlist entry removed")
	WriteSuccess(w, fmt.Sprintf("%s removed from watchlist", symbol))
}
