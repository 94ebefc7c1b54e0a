package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/ndewijer/stock-tracker/internal/api/response"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

type contextKey string

const usernameKey contextKey = "username"

// Authenticator resolves a session token to a username.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// RequireSession rejects requests without a valid session with 401 Unauthorized.
// The token is read from the session cookie or an "Authorization: Bearer" header.
// The resolved username is available to handlers through Username.
//
// Example usage in router:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(middleware.RequireSession(userService))
//	    r.Get("/portfolio", handler.Dashboard)
//	})
func RequireSession(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing session")
				return
			}

			username, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Session is invalid or expired")
				return
			}

			ctx := WithUsername(r.Context(), username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}

	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// WithUsername returns a copy of ctx carrying username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// Username returns the authenticated username, or "" outside RequireSession.
func Username(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}

// RequireCronSecret guards the notification trigger. The secret is accepted
// from the "secret" query parameter or the X-Cron-Secret header.
func RequireCronSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.URL.Query().Get("secret")
			if provided == "" {
				provided = r.Header.Get("X-Cron-Secret")
			}

			if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid cron secret")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
