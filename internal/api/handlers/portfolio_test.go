package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ndewijer/stock-tracker/internal/api/response"
	"github.com/ndewijer/stock-tracker/internal/model"
	"github.com/ndewijer/stock-tracker/internal/repository"
	"github.com/ndewijer/stock-tracker/internal/testutil"
)

func newPortfolioHandler(env *testutil.Env) *PortfolioHandler {
	return NewPortfolioHandler(env.Portfolio, env.Trades, env.Exports)
}

func TestPortfolioHandler_Trade(t *testing.T) {
	t.Run("records a buy and returns the transaction", func(t *testing.T) {
		// Setup
		env := testutil.NewEnv(t)
		env.Yahoo.WithQuote("AAPL", 150, 145)
		testutil.CreateUser(t, env.DB, "alice")
		handler := newPortfolioHandler(env)

		req := testutil.NewUserRequest(t, http.MethodPost, "/api/portfolio/trade", "alice",
			map[string]any{"action": "BUY", "symbol": " aapl ", "qty": 2.5, "price": 100})
		w := httptest.NewRecorder()

		// Execute
		handler.Trade(w, req)

		// Assert
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}

		var tx model.Transaction
		if err := json.NewDecoder(w.Body).Decode(&tx); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if tx.Kind != model.KindBuy || tx.Symbol != "AAPL" || tx.Quantity != 2.5 || tx.RealizedGain != nil {
			t.Errorf("Unexpected transaction: %+v", tx)
		}
		testutil.AssertRowCount(t, env.DB, "lot", 1)
	})

	// WHY: The status code is the only signal the web client gets about why a
	// trade was refused, so each rejection class must keep its mapping.
	t.Run("maps rejections to status codes", func(t *testing.T) {
		env := testutil.NewEnv(t)
		env.Yahoo.WithQuote("AAPL", 150, 145)
		testutil.CreateUser(t, env.DB, "alice")
		testutil.NewLedger("alice").WithLot("AAPL", 1, 100).Build(t, env.DB)
		handler := newPortfolioHandler(env)

		tests := []struct {
			name    string
			body    any
			want    int
			message string
		}{
			{"malformed json", "not an object", http.StatusBadRequest, "invalid request body"},
			{"missing qty", map[string]any{"action": "buy", "symbol": "AAPL", "price": 1}, http.StatusBadRequest, "validation failed"},
			{"negative price", map[string]any{"action": "buy", "symbol": "AAPL", "qty": 1, "price": -1}, http.StatusBadRequest, "validation failed"},
			{"oversell", map[string]any{"action": "sell", "symbol": "AAPL", "qty": 2, "price": 1}, http.StatusBadRequest, "insufficient quantity"},
			{"sell without lot", map[string]any{"action": "sell", "symbol": "MSFT", "qty": 1, "price": 1}, http.StatusBadRequest, "insufficient quantity"},
			{"unknown symbol", map[string]any{"action": "buy", "symbol": "NOPE", "qty": 1, "price": 1}, http.StatusBadRequest, "unknown symbol"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := testutil.NewUserRequest(t, http.MethodPost, "/api/portfolio/trade", "alice", tt.body)
				w := httptest.NewRecorder()

				handler.Trade(w, req)

				if w.Code != tt.want {
					t.Fatalf("Expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
				}

				var body response.ErrorResponse
				//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
				json.NewDecoder(w.Body).Decode(&body)
				if body.Error != tt.message {
					t.Errorf("Expected error %q, got %q", tt.message, body.Error)
				}
			})
		}

		lots, _, err := repository.NewLedgerRepository(env.DB).Load(t.Context(), "alice")
		if err != nil {
			t.Fatalf("Failed to load ledger: %v", err)
		}
		if len(lots) != 1 || lots[0].Quantity != 1 {
			t.Errorf("Expected ledger to be unchanged, got %+v", lots)
		}
	})
}

func TestPortfolioHandler_Dashboard(t *testing.T) {
	t.Run("returns an empty dashboard for a new user", func(t *testing.T) {
		env := testutil.NewEnv(t)
		testutil.CreateUser(t, env.DB, "alice")
		handler := newPortfolioHandler(env)

		w := httptest.NewRecorder()
		handler.Dashboard(w, testutil.NewUserRequest(t, http.MethodGet, "/api/portfolio", "alice", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}

		var dash model.Dashboard
		if err := json.NewDecoder(w.Body).Decode(&dash); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(dash.Snapshot.Holdings) != 0 || len(dash.History) != 0 || dash.Snapshot.TotalValue != 0 {
			t.Errorf("Expected empty dashboard, got %+v", dash)
		}
	})

	t.Run("marks holdings without a price", func(t *testing.T) {
		env := testutil.NewEnv(t)
		testutil.CreateUser(t, env.DB, "alice")
		testutil.NewLedger("alice").WithLot("GONE", 3, 10).Build(t, env.DB)
		handler := newPortfolioHandler(env)

		w := httptest.NewRecorder()
		handler.Dashboard(w, testutil.NewUserRequest(t, http.MethodGet, "/api/portfolio", "alice", nil))

		var dash model.Dashboard
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&dash)
		if len(dash.Snapshot.Holdings) != 1 || dash.Snapshot.Holdings[0].PriceAvailable {
			t.Errorf("Expected one unpriced holding, got %+v", dash.Snapshot.Holdings)
		}
	})
}

func TestPortfolioHandler_Export(t *testing.T) {
	env := testutil.NewEnv(t)
	testutil.CreateUser(t, env.DB, "alice")
	testutil.NewLedger("alice").WithLot("AAPL", 10, 100).Build(t, env.DB)
	handler := newPortfolioHandler(env)

	tests := []struct {
		format      string
		want        int
		contentType string
	}{
		{"", http.StatusOK, "text/csv"},
		{"xlsx", http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"pdf", http.StatusBadRequest, "application/json"},
	}

	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			req := testutil.NewRequestWithQueryParams(
				testutil.NewUserRequest(t, http.MethodGet, "/api/portfolio/export", "alice", nil),
				map[string]string{"format": tt.format},
			)
			w := httptest.NewRecorder()

			handler.Export(w, req)

			if w.Code != tt.want {
				t.Fatalf("Expected status %d, got %d", tt.want, w.Code)
			}
			if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, tt.contentType) {
				t.Errorf("Expected content type %q, got %q", tt.contentType, got)
			}
		})
	}
}
