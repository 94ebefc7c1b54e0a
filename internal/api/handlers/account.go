package handlers

import (
	"net/http"

	"github.com/ndewijer/stock-tracker/internal/api/middleware"
	"github.com/ndewijer/stock-tracker/internal/api/request"
	"github.com/ndewijer/stock-tracker/internal/api/response"
	"github.com/ndewijer/stock-tracker/internal/apperrors"
	"github.com/ndewijer/stock-tracker/internal/model"
	"github.com/ndewijer/stock-tracker/internal/service"
	"github.com/ndewijer/stock-tracker/internal/validation"
)

// AccountHandler handles settings and account management of the signed-in user.
type AccountHandler struct {
	userService         *service.UserService
	notificationService *service.NotificationService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(userService *service.UserService, notificationService *service.NotificationService) *AccountHandler {
	return &AccountHandler{
		userService:         userService,
		notificationService: notificationService,
	}
}

// TestNotificationResponse reports whether the test message was delivered.
type TestNotificationResponse struct {
	Sent bool `json:"sent"`
}

// GetSettings handles GET requests for the user's Pushover key and
// notification frequency.
//
// Endpoint: GET /api/account/settings
// Response: 200 OK with model.Settings
// Error: 404 Not Found if the account no longer exists
func (h *AccountHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.userService.GetSettings(r.Context(), middleware.Username(r.Context()))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveSettings)
		return
	}

	response.RespondJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT requests to change settings. Omitted fields keep
// their stored value.
//
// Endpoint: PUT /api/account/settings
// Request Body: UpdateSettingsRequest (pushoverKey, notifyFreq)
// Response: 200 OK with the updated model.Settings
// Error: 400 Bad Request if validation fails
func (h *AccountHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpdateSettingsRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateSettings(req); err != nil {
		respondServiceError(w, err, apperrors.ErrInvalidInput)
		return
	}

	var freq *model.NotifyFrequency
	if req.NotifyFreq != nil {
		f := model.NotifyFrequency(*req.NotifyFreq)
		freq = &f
	}

	settings, err := h.userService.UpdateSettings(r.Context(), middleware.Username(r.Context()), req.PushoverKey, freq)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToUpdateSettings)
		return
	}

	response.RespondJSON(w, http.StatusOK, settings)
}

// TestNotification sends a test message to the configured Pushover key.
//
// Endpoint: POST /api/account/notifications/test
// Response: 200 OK with TestNotificationResponse
func (h *AccountHandler) TestNotification(w http.ResponseWriter, r *http.Request) {
	sent, err := h.notificationService.SendTest(r.Context(), middleware.Username(r.Context()))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSendNotification)
		return
	}

	response.RespondJSON(w, http.StatusOK, TestNotificationResponse{Sent: sent})
}

// DeleteAccount removes the user, their ledger and their session cookie.
//
// Endpoint: DELETE /api/account
// Response: 204 No Content
// Error: 404 Not Found if the account no longer exists
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.DeleteAccount(r.Context(), middleware.Username(r.Context())); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToDeleteAccount)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: middleware.SessionCookie, Value: "", Path: "/", MaxAge: -1})
	response.RespondNoContent(w)
}
