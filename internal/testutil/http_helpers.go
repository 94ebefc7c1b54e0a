package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/stock-tracker/internal/api/middleware"
)

// NewUserRequest creates an HTTP request as if middleware.RequireSession had
// already authenticated username. A non-nil body is encoded as JSON.
//
// Example:
//
//	req := testutil.NewUserRequest(t, http.MethodPost, "/api/portfolio/trade", "alice",
//	    map[string]any{"action": "buy", "symbol": "AAPL", "qty": 1, "price": 100})
func NewUserRequest(t *testing.T, method, path, username string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithUsername(req.Context(), username))
}

// NewRequestWithQueryParams creates an HTTP request with query parameters.
// This helper simplifies testing handlers that use r.URL.Query() to extract query string parameters.
//
// Example:
//
//	req := testutil.NewRequestWithQueryParams(
//	    testutil.NewUserRequest(t, http.MethodGet, "/api/portfolio/export", "alice", nil),
//	    map[string]string{"format": "xlsx"},
//	)
func NewRequestWithQueryParams(req *http.Request, queryParams map[string]string) *http.Request {
	if len(queryParams) > 0 {
		q := req.URL.Query()
		for key, value := range queryParams {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	return req
}
