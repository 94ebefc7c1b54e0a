package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ndewijer/stock-tracker/internal/api"
	"github.com/ndewijer/stock-tracker/internal/config"
	"github.com/ndewijer/stock-tracker/internal/model"
	"github.com/ndewijer/stock-tracker/internal/testutil"
)

const cronSecret = "cron-secret"

type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func (c *client) do(method, target string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	return w
}

func newServer(t *testing.T, now time.Time) (*testutil.Env, *client) {
	t.Helper()

	env := testutil.NewEnv(t)
	cfg := &config.Config{Debug: true}
	cfg.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Security.CronSecret = cronSecret

	router := api.NewRouter(api.Services{
		System:        env.System,
		Users:         env.Users,
		Portfolio:     env.Portfolio,
		Trades:        env.Trades,
		Exports:       env.Exports,
		Notifications: env.Notifications,
		Now:           func() time.Time { return now },
	}, cfg)

	return env, &client{t: t, handler: router}
}

func (c *client) login(username, password string) {
	c.t.Helper()

	w := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": username, "password": password, "pushoverKey": "key-" + username,
	})
	if w.Code != http.StatusCreated {
		c.t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = c.do(http.MethodPost, "/api/auth/login", map[string]string{"username": username, "password": password})
	if w.Code != http.StatusOK {
		c.t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	c.cookies = w.Result().Cookies()
}

// TestRouter_PortfolioFlow drives the API the way the web client does.
//
// WHY: Routing, session handling and error mapping only prove themselves end
// to end; a unit test per handler would not catch a route outside the
// session group.
func TestRouter_PortfolioFlow(t *testing.T) {
	env, c := newServer(t, time.Now())
	env.Yahoo.WithQuote("AAPL", 150, 145)

	t.Run("portfolio requires a session", func(t *testing.T) {
		anon := &client{t: t, handler: c.handler}
		if w := anon.do(http.MethodGet, "/api/portfolio", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})

	c.login("alice", "s3cret-pass")

	t.Run("trades", func(t *testing.T) {
		tests := []struct {
			name string
			body map[string]any
			want int
		}{
			{"buy", map[string]any{"action": "buy", "symbol": "aapl", "qty": 10, "price": 100}, http.StatusCreated},
			{"second buy", map[string]any{"action": "buy", "symbol": "AAPL", "qty": 10, "price": 120}, http.StatusCreated},
			{"sell", map[string]any{"action": "sell", "symbol": "AAPL", "qty": 5, "price": 150}, http.StatusCreated},
			{"oversell", map[string]any{"action": "sell", "symbol": "AAPL", "qty": 500, "price": 150}, http.StatusBadRequest},
			{"unknown symbol", map[string]any{"action": "buy", "symbol": "ZZZZ", "qty": 1, "price": 1}, http.StatusBadRequest},
			{"validation", map[string]any{"action": "hold", "symbol": "AAPL", "qty": 1, "price": 1}, http.StatusBadRequest},
			{"unknown field", map[string]any{"action": "buy", "symbol": "AAPL", "qty": 1, "price": 1, "fee": 1}, http.StatusBadRequest},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := c.do(http.MethodPost, "/api/portfolio/trade", tt.body)
				if w.Code != tt.want {
					t.Errorf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
				}
			})
		}
	})

	t.Run("dashboard", func(t *testing.T) {
		w := c.do(http.MethodGet, "/api/portfolio", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var dash model.Dashboard
		if err := json.NewDecoder(w.Body).Decode(&dash); err != nil {
			t.Fatalf("Failed to decode dashboard: %v", err)
		}
		if len(dash.Snapshot.Holdings) != 1 || dash.Snapshot.Holdings[0].Quantity != 15 {
			t.Errorf("Expected one AAPL holding of 15, got %+v", dash.Snapshot.Holdings)
		}
		if dash.Snapshot.TotalRealized != 200 || len(dash.History) != 3 {
			t.Errorf("Expected realized 200 over 3 trades, got %v over %d", dash.Snapshot.TotalRealized, len(dash.History))
		}
	})

	t.Run("export", func(t *testing.T) {
		w := c.do(http.MethodGet, "/api/portfolio/export?format=csv", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if !strings.Contains(w.Header().Get("Content-Disposition"), "portfolio.csv") {
			t.Errorf("Expected attachment header, got %q", w.Header().Get("Content-Disposition"))
		}
		if !strings.HasPrefix(w.Body.String(), "--- CURRENT HOLDINGS ---") {
			t.Errorf("Unexpected CSV body: %q", w.Body.String())
		}

		if w := c.do(http.MethodGet, "/api/portfolio/export?format=pdf", nil); w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for unknown format, got %d", w.Code)
		}
	})

	t.Run("settings", func(t *testing.T) {
		w := c.do(http.MethodPut, "/api/account/settings", map[string]string{"notifyFreq": "hourly"})
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		w = c.do(http.MethodGet, "/api/account/settings", nil)
		var s model.Settings
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&s)
		if s.NotifyFreq != model.NotifyHourly || s.PushoverKey != "key-alice" {
			t.Errorf("Unexpected settings: %+v", s)
		}

		if w := c.do(http.MethodPut, "/api/account/settings", map[string]string{"notifyFreq": "weekly"}); w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for invalid frequency, got %d", w.Code)
		}
	})

	t.Run("test notification", func(t *testing.T) {
		w := c.do(http.MethodPost, "/api/account/notifications/test", nil)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"sent":true`) {
			t.Errorf("Expected sent notification, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("wipe", func(t *testing.T) {
		if w := c.do(http.MethodDelete, "/api/portfolio", nil); w.Code != http.StatusNoContent {
			t.Fatalf("Expected 204, got %d", w.Code)
		}
		testutil.AssertRowCount(t, env.DB, "lot", 0)
		testutil.AssertRowCount(t, env.DB, "trade", 0)
	})

	t.Run("delete account", func(t *testing.T) {
		if w := c.do(http.MethodDelete, "/api/account", nil); w.Code != http.StatusNoContent {
			t.Fatalf("Expected 204, got %d", w.Code)
		}
		if w := c.do(http.MethodGet, "/api/portfolio", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 after account deletion, got %d", w.Code)
		}
	})
}

// TestRouter_Auth tests registration and login failures.
func TestRouter_Auth(t *testing.T) {
	_, c := newServer(t, time.Now())
	c.login("alice", "s3cret-pass")

	tests := []struct {
		name   string
		target string
		body   map[string]string
		want   int
	}{
		{"duplicate username", "/api/auth/register", map[string]string{"username": "alice", "password": "another-pass"}, http.StatusConflict},
		{"short password", "/api/auth/register", map[string]string{"username": "bob", "password": "short"}, http.StatusBadRequest},
		{"wrong password", "/api/auth/login", map[string]string{"username": "alice", "password": "wrong-pass"}, http.StatusUnauthorized},
		{"missing fields", "/api/auth/login", map[string]string{"username": "alice"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := c.do(http.MethodPost, tt.target, tt.body); w.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}

	t.Run("logout clears the cookie", func(t *testing.T) {
		w := c.do(http.MethodPost, "/api/auth/logout", nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("Expected 204, got %d", w.Code)
		}
		cookies := w.Result().Cookies()
		if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
			t.Errorf("Expected an expiring session cookie, got %+v", cookies)
		}
	})
}

// TestRouter_CronTrigger tests the external notification trigger.
func TestRouter_CronTrigger(t *testing.T) {
	// Friday 2024-03-15 09:35 in New York.
	env, c := newServer(t, time.Date(2024, 3, 15, 13, 35, 0, 0, time.UTC))
	env.Yahoo.WithQuote("AAPL", 150, 145)
	testutil.NewUser().WithUsername("alice").
		WithPushoverKey(t, env.Box, "key-alice").
		WithNotifyFreq(model.NotifyOpen).
		Build(t, env.DB)
	testutil.NewLedger("alice").WithLot("AAPL", 10, 100).Build(t, env.DB)

	if w := c.do(http.MethodGet, "/cron/trigger?secret=wrong", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong secret, got %d", w.Code)
	}

	w := c.do(http.MethodGet, "/cron/trigger?secret="+cronSecret, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"sent":1`) {
		t.Errorf("Expected one notification sent, got %d: %s", w.Code, w.Body.String())
	}
	if msgs := env.Pushover.Messages(); len(msgs) != 1 {
		t.Errorf("Expected 1 pushover message, got %d", len(msgs))
	}
}

// TestRouter_System tests the unauthenticated system endpoints.
func TestRouter_System(t *testing.T) {
	_, c := newServer(t, time.Now())

	for _, target := range []string{"/api/system/health", "/api/system/version"} {
		if w := c.do(http.MethodGet, target, nil); w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", target, w.Code)
		}
	}
}
