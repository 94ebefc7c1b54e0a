package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ndewijer/stock-tracker/internal/apperrors"
	"github.com/ndewijer/stock-tracker/internal/model"
	"github.com/ndewijer/stock-tracker/internal/repository"
	"github.com/ndewijer/stock-tracker/internal/testutil"
)

// TestLedgerRepository_SaveAndLoad tests persisting a whole ledger.
//
// WHY: Save replaces everything the user has stored. History order and the
// nullable realized gain must survive the round trip exactly.
func TestLedgerRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("missing records read as empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewLedgerRepository(db)

		lots, history, err := repo.Load(ctx, "nobody")

		if err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		if lots == nil || history == nil || len(lots) != 0 || len(history) != 0 {
			t.Errorf("Expected two empty, non-nil slices, got %v and %v", lots, history)
		}
	})

	t.Run("round trip keeps order and gains", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewLedgerRepository(db)
		testutil.CreateUser(t, db, "alice")

		ts := time.Date(2024, 3, 15, 14, 30, 15, 123456789, time.UTC)
		lots := []model.Lot{
			{Symbol: "MSFT", Quantity: 2, AverageCost: 400},
			{Symbol: "AAPL", Quantity: 15, AverageCost: 110},
		}
		history := []model.Transaction{
			{ID: "t-3", Timestamp: ts, Kind: model.KindBuy, Symbol: "MSFT", Quantity: 2, Price: 400},
			{ID: "t-1", Timestamp: ts.Add(time.Minute), Kind: model.KindBuy, Symbol: "AAPL", Quantity: 20, Price: 110},
			{ID: "t-2", Timestamp: ts.Add(2 * time.Minute), Kind: model.KindSell, Symbol: "AAPL", Quantity: 5, Price: 150, RealizedGain: testutil.Float64Ptr(200)},
		}

		// Execute
		if err := repo.Save(ctx, "alice", lots, history); err != nil {
			t.Fatalf("Save() returned unexpected error: %v", err)
		}
		gotLots, gotHistory, err := repo.Load(ctx, "alice")

		// Assert
		if err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		if len(gotLots) != 2 || gotLots[0].Symbol != "AAPL" || gotLots[1].Symbol != "MSFT" {
			t.Errorf("Expected lots ordered by symbol, got %+v", gotLots)
		}

		if len(gotHistory) != 3 {
			t.Fatalf("Expected 3 transactions, got %d", len(gotHistory))
		}
		for i, want := range history {
			got := gotHistory[i]
			if got.ID != want.ID || got.Kind != want.Kind || got.Symbol != want.Symbol ||
				got.Quantity != want.Quantity || got.Price != want.Price || !got.Timestamp.Equal(want.Timestamp) {
				t.Errorf("Transaction %d: got %+v, want %+v", i, got, want)
			}
		}
		if gotHistory[0].RealizedGain != nil {
			t.Errorf("Expected BUY without realized gain, got %v", *gotHistory[0].RealizedGain)
		}
		if gotHistory[2].RealizedGain == nil || *gotHistory[2].RealizedGain != 200 {
			t.Errorf("Expected SELL with realized gain 200, got %v", gotHistory[2].RealizedGain)
		}
	})

	t.Run("save replaces the previous ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewLedgerRepository(db)
		testutil.CreateUser(t, db, "alice")
		testutil.NewLedger("alice").
			WithLot("AAPL", 1, 100).
			WithTrade(model.KindBuy, "AAPL", 1, 100, nil).
			Build(t, db)

		if err := repo.Save(ctx, "alice", nil, nil); err != nil {
			t.Fatalf("Save() returned unexpected error: %v", err)
		}

		testutil.AssertRowCount(t, db, "lot", 0)
		testutil.AssertRowCount(t, db, "trade", 0)
	})

	t.Run("failed save keeps the previous ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewLedgerRepository(db)
		testutil.CreateUser(t, db, "alice")
		testutil.NewLedger("alice").WithLot("AAPL", 1, 100).Build(t, db)

		dup := model.Lot{Symbol: "MSFT", Quantity: 1, AverageCost: 1}
		err := repo.Save(ctx, "alice", []model.Lot{dup, dup}, nil)

		if !errors.Is(err, apperrors.ErrPersistenceFailure) {
			t.Fatalf("Expected ErrPersistenceFailure, got %v", err)
		}
		lots, _, err := repo.Load(ctx, "alice")
		if err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		if len(lots) != 1 || lots[0].Symbol != "AAPL" {
			t.Errorf("Expected the original AAPL lot, got %+v", lots)
		}
	})

	t.Run("ledgers of other users are untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewLedgerRepository(db)
		testutil.CreateUser(t, db, "alice")
		testutil.CreateUser(t, db, "bob")
		testutil.NewLedger("bob").WithLot("AAPL", 1, 100).Build(t, db)

		if err := repo.Save(ctx, "alice", []model.Lot{{Symbol: "MSFT", Quantity: 1, AverageCost: 1}}, nil); err != nil {
			t.Fatalf("Save() returned unexpected error: %v", err)
		}

		lots, _, err := repo.Load(ctx, "bob")
		if err != nil || len(lots) != 1 || lots[0].Symbol != "AAPL" {
			t.Errorf("Expected bob's lot to survive, got %+v, %v", lots, err)
		}
	})

	t.Run("unparseable timestamp is inconsistent data", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewLedgerRepository(db)
		testutil.CreateUser(t, db, "alice")

		_, err := db.Exec(`
			INSERT INTO trade (id, user_id, seq, executed_at, kind, symbol, quantity, price)
			VALUES ('t-1', 'alice', 0, 'yesterday', 'BUY', 'AAPL', 1, 1)
		`)
		if err != nil {
			t.Fatalf("Failed to insert trade: %v", err)
		}

		_, _, err = repo.Load(ctx, "alice")
		if !errors.Is(err, apperrors.ErrDataInconsistency) {
			t.Errorf("Expected ErrDataInconsistency, got %v", err)
		}
	})
}

// TestParseTime tests the timestamp layouts read back from SQLite.
func TestParseTime(t *testing.T) {
	want := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"RFC3339", "2024-03-15T14:30:00Z", want},
		{"RFC3339 with offset", "2024-03-15T10:30:00-04:00", want},
		{"SQLite datetime", "2024-03-15 14:30:00", want},
		{"SQLite with zone", "2024-03-15 14:30:00+00:00", want},
		{"date only", "2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repository.ParseTime(tt.input)
			if err != nil {
				t.Fatalf("ParseTime(%q) returned unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) || got.Location() != time.UTC {
				t.Errorf("ParseTime(%q) = %v, want %v in UTC", tt.input, got, tt.want)
			}
		})
	}

	if _, err := repository.ParseTime("not a date"); err == nil {
		t.Error("Expected error for invalid input")
	}
}
