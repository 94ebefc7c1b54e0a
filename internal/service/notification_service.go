package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ndewijer/stock-tracker/internal/model"
	"github.com/ndewijer/stock-tracker/internal/repository"
	"github.com/ndewijer/stock-tracker/internal/schedule"
	"github.com/ndewijer/stock-tracker/internal/secure"
)

// TestMessage is the text sent by SendTest.
const TestMessage = "Test Notification Success"

// Sender delivers a push message to one recipient and reports success.
type Sender interface {
	Send(ctx context.Context, userKey, message string) bool
}

// NotificationService sends portfolio summaries to users whose notification
// window matches the current market time.
type NotificationService struct {
	users     *repository.UserRepository
	portfolio *PortfolioService
	sender    Sender
	box       *secure.Box
	loc       *time.Location
}

// NewNotificationService creates a new NotificationService. loc is the market
// timezone the frequency windows are evaluated in.
func NewNotificationService(
	users *repository.UserRepository,
	portfolio *PortfolioService,
	sender Sender,
	box *secure.Box,
	loc *time.Location,
) *NotificationService {
	return &NotificationService{
		users:     users,
		portfolio: portfolio,
		sender:    sender,
		box:       box,
		loc:       loc,
	}
}

// RunTrigger notifies every user whose frequency matches now and returns the
// number of messages that were delivered. Users without holdings or without a
// usable Pushover key are skipped.
func (s *NotificationService) RunTrigger(ctx context.Context, now time.Time) (int, error) {
	users, err := s.users.ListNotifiable(ctx)
	if err != nil {
		return 0, err
	}

	marketTime := now.In(s.loc)
	sent := 0

	for _, u := range users {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if !schedule.ShouldNotify(u.NotifyFreq, marketTime) {
			continue
		}

		key, err := s.box.Decrypt(u.PushoverKeyEnc)
		if err != nil || key == "" {
			slog.Debug("skipping user without pushover key", slog.String("user", u.Username))
			continue
		}

		snap, ok := s.portfolio.Snapshot(ctx, u.Username)
		if !ok {
			continue
		}

		if s.sender.Send(ctx, key, FormatMessage(snap)) {
			sent++
		}
	}

	slog.Info("notification trigger finished",
		slog.String("market_time", marketTime.Format("15:04")),
		slog.Int("candidates", len(users)),
		slog.Int("sent", sent),
	)

	return sent, nil
}

// Job adapts RunTrigger to a schedule.Job.
func (s *NotificationService) Job() schedule.Job {
	return func(ctx context.Context, now time.Time) error {
		_, err := s.RunTrigger(ctx, now)
		return err
	}
}

// FormatMessage renders the one-line push summary of a snapshot,
// e.g. "Update: Val $12,345 | P/L $678 | Top: NVDA 3.21%".
func FormatMessage(snap model.ValuationSnapshot) string {
	mover := "N/A"
	if snap.TopMover != nil {
		mover = fmt.Sprintf("%s %.2f%%", snap.TopMover.Symbol, snap.TopMover.Pct)
	}

	return fmt.Sprintf("Update: Val $%s | P/L $%s | Top: %s",
		dollars(snap.TotalValue),
		dollars(snap.TotalUnrealized),
		mover,
	)
}

func dollars(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

// SendTest sends TestMessage to the user's configured Pushover key.
// It reports false when no key is set or delivery failed.
func (s *NotificationService) SendTest(ctx context.Context, username string) (bool, error) {
	u, err := s.users.Get(ctx, username)
	if err != nil {
		return false, err
	}

	key, err := s.box.Decrypt(u.PushoverKeyEnc)
	if err != nil || key == "" {
		return false, nil
	}

	return s.sender.Send(ctx, key, TestMessage), nil
}
