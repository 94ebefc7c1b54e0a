package testutil

import (
	"database/sql"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ndewijer/stock-tracker/internal/ledger"
	"github.com/ndewijer/stock-tracker/internal/market"
	"github.com/ndewijer/stock-tracker/internal/pushover"
	"github.com/ndewijer/stock-tracker/internal/repository"
	"github.com/ndewijer/stock-tracker/internal/schedule"
	"github.com/ndewijer/stock-tracker/internal/secure"
	"github.com/ndewijer/stock-tracker/internal/service"
	"github.com/ndewijer/stock-tracker/internal/yahoo"
)

// DefaultPassword is the password of users created by NewUser.
const DefaultPassword = "correct-horse"

// TestSecret is the application key used by test boxes.
const TestSecret = "test-secret-key"

// Env wires every service against an in-memory database and fake upstreams.
//
// Example usage:
//
//	env := testutil.NewEnv(t)
//	env.Yahoo.WithQuote("AAPL", 150, 145)
//	testutil.CreateUser(t, env.DB, "alice")
//	_, err := env.Trades.Buy(ctx, "alice", "AAPL", 10, 100)
type Env struct {
	DB       *sql.DB
	Box      *secure.Box
	Yahoo    *FakeYahoo
	Pushover *FakePushover
	Locks    *service.UserLocks

	Trades        *service.TradeService
	Portfolio     *service.PortfolioService
	Users         *service.UserService
	Notifications *service.NotificationService
	Exports       *service.ExportService
	System        *service.SystemService
}

// NewEnv builds an Env. ledgerOpts are passed to the trade service.
func NewEnv(t *testing.T, ledgerOpts ...ledger.Option) *Env {
	t.Helper()

	db := SetupTestDB(t)
	box := NewTestBox(t)
	fy := NewFakeYahoo(t)
	fp := NewFakePushover(t)
	locks := service.NewUserLocks()

	yahooClient := yahoo.New(fy.Config())
	ledgerRepo := repository.NewLedgerRepository(db)
	userRepo := repository.NewUserRepository(db)

	portfolio := service.NewPortfolioService(
		ledgerRepo,
		market.NewQuoteFetcher(yahooClient, 4),
		market.NewNewsFetcher(yahooClient, 2),
	)

	return &Env{
		DB:       db,
		Box:      box,
		Yahoo:    fy,
		Pushover: fp,
		Locks:    locks,

		Trades:    service.NewTradeService(ledgerRepo, yahooClient, locks, ledgerOpts...),
		Portfolio: portfolio,
		Users: service.NewUserService(userRepo, box, locks, time.Hour).
			WithBcryptCost(bcrypt.MinCost),
		Notifications: service.NewNotificationService(
			userRepo,
			portfolio,
			pushover.New(fp.Config()),
			box,
			schedule.LoadLocation(schedule.DefaultTimezone),
		),
		Exports: service.NewExportService(ledgerRepo),
		System:  service.NewSystemService(db),
	}
}

// NewTestBox returns a Box keyed with TestSecret.
func NewTestBox(t *testing.T) *secure.Box {
	t.Helper()

	box, err := secure.NewBox(TestSecret)
	if err != nil {
		t.Fatalf("Failed to create box: %v", err)
	}
	return box
}

// FixedClock returns a clock that starts at start and advances one second per call.
func FixedClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Second)
		return now
	}
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeUsername generates a unique, valid username for testing.
//
// Example usage:
//
//	name := testutil.MakeUsername("alice")
//	// Returns: "alice_x7k2q9"
func MakeUsername(base string) string {
	if base == "" {
		base = "user"
	}
	return base + "_" + strings.ToLower(randomAlphanumeric(6))
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
