package handlers

import (
	"net/http"

	"github.com/ternarybob/vigil/internal/interfaces"
)

// SchedulerHandler exposes the watchlist scan schedule.
type SchedulerHandler struct {
	scheduler interfaces.SchedulerService
}

func NewSchedulerHandler(scheduler interfaces.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler}
}

// StatusHandler handles GET /api/scan/status.
func (h *SchedulerHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, h.scheduler.Status())
}

// TriggerHandler handles POST /api/scan/trigger. Starts a scan unless one is
// already running.
func (h *SchedulerHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.scheduler.TriggerScanNow(); err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "started",
		"message": "watchlist scan started",
	})
}
