package handlers

import (
	"net/http"
	"time"

	"github.com/ndewijer/stock-tracker/internal/api/response"
	"github.com/ndewijer/stock-tracker/internal/apperrors"
	"github.com/ndewijer/stock-tracker/internal/service"
)

// CronHandler exposes the notification run to an external scheduler.
type CronHandler struct {
	notificationService *service.NotificationService
	now                 func() time.Time
}

// NewCronHandler creates a new CronHandler. A nil now uses time.Now.
func NewCronHandler(notificationService *service.NotificationService, now func() time.Time) *CronHandler {
	if now == nil {
		now = time.Now
	}
	return &CronHandler{
		notificationService: notificationService,
		now:                 now,
	}
}

// TriggerResponse reports how many notifications were delivered.
type TriggerResponse struct {
	Sent int `json:"sent"`
}

// Trigger runs the notification job once. The route must be guarded by
// middleware.RequireCronSecret.
//
// Endpoint: GET /cron/trigger?secret=...
// Response: 200 OK with TriggerResponse
// Error: 401 Unauthorized on a wrong secret (middleware)
func (h *CronHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	sent, err := h.notificationService.RunTrigger(r.Context(), h.now())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRunTrigger)
		return
	}

	response.RespondJSON(w, http.StatusOK, TriggerResponse{Sent: sent})
}
