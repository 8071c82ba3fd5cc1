package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/services/analysis"
)

// AgentsHandler serves the single-agent operations under /api/agents/.
type AgentsHandler struct {
	analysis *analysis.Service
	logger   arbor.ILogger
}

func NewAgentsHandler(analysisService *analysis.Service, logger arbor.ILogger) *AgentsHandler {
	return &AgentsHandler{
		analysis: analysisService,
		logger:   logger,
	}
}

type agentRequest struct {
	Symbol string `json:"symbol"`
}

// ListHandler handles GET /api/agents, returning the available agent names.
func (h *AgentsHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"agents": h.analysis.Agents()})
}

// RunHandler handles POST /api/agents/{agent}.
func (h *AgentsHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	agent := strings.TrimPrefix(r.URL.Path, "/api/agents/")
	if agent == "" {
		WriteError(w, http.StatusBadRequest, "agent name is required")
		return
	}

	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	symbol, err := CleanSymbol(req.Symbol)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.analysis.RunAgent(r.Context(), agent, symbol)
	if err != nil {
		if strings.Contains(err.Error(), "unknown agent") {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Warn().Err(err).Str("agent", agent).Str("symbol", symbol).Msg("Agent request failed")
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
