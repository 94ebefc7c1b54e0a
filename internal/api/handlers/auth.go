package handlers

import (
	"net/http"
	"time"

	"github.com/ndewijer/stock-tracker/internal/api/middleware"
	"github.com/ndewijer/stock-tracker/internal/api/request"
	"github.com/ndewijer/stock-tracker/internal/api/response"
	"github.com/ndewijer/stock-tracker/internal/apperrors"
	"github.com/ndewijer/stock-tracker/internal/service"
	"github.com/ndewijer/stock-tracker/internal/validation"
)

// AuthHandler handles account creation and sessions.
type AuthHandler struct {
	userService  *service.UserService
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. secureCookie sets the Secure flag
// on the session cookie and should be true outside local development.
func NewAuthHandler(userService *service.UserService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		secureCookie: secureCookie,
	}
}

// SessionResponse is returned after a successful login.
type SessionResponse struct {
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Register handles POST requests to create an account.
//
// Endpoint: POST /api/auth/register
// Request Body: RegisterRequest (username, password, optional pushoverKey)
// Response: 201 Created with the new user
// Error: 400 Bad Request if validation fails
// Error: 409 Conflict if the username is taken
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.RegisterRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateRegister(req); err != nil {
		respondServiceError(w, err, apperrors.ErrInvalidInput)
		return
	}

	user, err := h.userService.Register(r.Context(), req.Username, req.Password, req.PushoverKey)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRegister)
		return
	}

	response.RespondJSON(w, http.StatusCreated, user)
}

// Login handles POST requests to start a session. The token is returned in the
// body and set as an HTTP-only cookie.
//
// Endpoint: POST /api/auth/login
// Request Body: LoginRequest
// Response: 200 OK with SessionResponse
// Error: 401 Unauthorized on wrong username or password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.LoginRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateLogin(req); err != nil {
		respondServiceError(w, err, apperrors.ErrInvalidInput)
		return
	}

	token, err := h.userService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToLogin)
		return
	}

	expires := time.Now().Add(h.userService.SessionTTL())
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	response.RespondJSON(w, http.StatusOK, SessionResponse{
		Username:  req.Username,
		Token:     token,
		ExpiresAt: expires.UTC(),
	})
}

// Logout clears the session cookie.
//
// Endpoint: POST /api/auth/logout
// Response: 204 No Content
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	response.RespondNoContent(w)
}
