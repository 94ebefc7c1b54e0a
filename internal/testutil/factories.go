package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ndewijer/stock-tracker/internal/model"
	"github.com/ndewijer/stock-tracker/internal/repository"
	"github.com/ndewijer/stock-tracker/internal/secure"
)

// UserBuilder provides a fluent interface for creating test users.
//
// Example usage:
//
//	// Simple creation with defaults
//	user := testutil.NewUser().Build(t, db)
//
//	// Customized user
//	user := testutil.NewUser().
//	    WithUsername("alice").
//	    WithPushoverKey(t, box, "ukey").
//	    WithNotifyFreq(model.NotifyHourly).
//	    Build(t, db)
type UserBuilder struct {
	Username       string
	Password       string
	PushoverKeyEnc string
	NotifyFreq     model.NotifyFrequency
	CreatedAt      time.Time
}

// NewUser creates a UserBuilder with sensible defaults.
func NewUser() *UserBuilder {
	return &UserBuilder{
		Username:   MakeUsername("user"),
		Password:   DefaultPassword,
		NotifyFreq: model.NotifyNone,
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// WithUsername sets a custom username.
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.Username = username
	return b
}

// WithPassword sets a custom password.
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.Password = password
	return b
}

// WithPushoverKey stores key encrypted with box.
func (b *UserBuilder) WithPushoverKey(t *testing.T, box *secure.Box, key string) *UserBuilder {
	t.Helper()

	enc, err := box.Encrypt(key)
	if err != nil {
		t.Fatalf("Failed to encrypt pushover key: %v", err)
	}
	b.PushoverKeyEnc = enc
	return b
}

// WithNotifyFreq sets the notification frequency.
func (b *UserBuilder) WithNotifyFreq(freq model.NotifyFrequency) *UserBuilder {
	b.NotifyFreq = freq
	return b
}

// Build creates the user in the database and returns it.
func (b *UserBuilder) Build(t *testing.T, db *sql.DB) model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(b.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	u := model.User{
		Username:       b.Username,
		PasswordHash:   string(hash),
		PushoverKeyEnc: b.PushoverKeyEnc,
		NotifyFreq:     b.NotifyFreq,
		CreatedAt:      b.CreatedAt,
	}

	if err := repository.NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return u
}

// CreateUser creates a user with the given name and default values.
//
// Example usage:
//
//	user := testutil.CreateUser(t, db, "alice")
func CreateUser(t *testing.T, db *sql.DB, username string) model.User {
	t.Helper()
	return NewUser().WithUsername(username).Build(t, db)
}

// LedgerBuilder stores lots and trades for a user directly, bypassing the
// ledger rules. Use it to seed state, including inconsistent state.
//
// Example usage:
//
//	testutil.NewLedger("alice").
//	    WithLot("AAPL", 10, 100).
//	    WithTrade(model.KindBuy, "AAPL", 10, 100, nil).
//	    Build(t, db)
type LedgerBuilder struct {
	Username string
	Lots     []model.Lot
	History  []model.Transaction
	clock    time.Time
}

// NewLedger creates a LedgerBuilder for username.
func NewLedger(username string) *LedgerBuilder {
	return &LedgerBuilder{
		Username: username,
		clock:    time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC),
	}
}

// WithLot adds an open lot.
func (b *LedgerBuilder) WithLot(symbol string, qty, avgCost float64) *LedgerBuilder {
	b.Lots = append(b.Lots, model.Lot{Symbol: symbol, Quantity: qty, AverageCost: avgCost})
	return b
}

// WithTrade appends a trade one minute after the previous one.
func (b *LedgerBuilder) WithTrade(kind model.TransactionKind, symbol string, qty, price float64, gain *float64) *LedgerBuilder {
	b.History = append(b.History, model.Transaction{
		ID:           MakeID(),
		Timestamp:    b.clock,
		Kind:         kind,
		Symbol:       symbol,
		Quantity:     qty,
		Price:        price,
		RealizedGain: gain,
	})
	b.clock = b.clock.Add(time.Minute)
	return b
}

// Build saves the ledger and returns the stored lots and history.
func (b *LedgerBuilder) Build(t *testing.T, db *sql.DB) ([]model.Lot, []model.Transaction) {
	t.Helper()

	repo := repository.NewLedgerRepository(db)
	if err := repo.Save(context.Background(), b.Username, b.Lots, b.History); err != nil {
		t.Fatalf("Failed to create test ledger: %v", err)
	}

	return b.Lots, b.History
}

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 {
	return &f
}
