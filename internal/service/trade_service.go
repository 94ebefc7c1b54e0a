package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ndewijer/stock-tracker/internal/api/request"
	"github.com/ndewijer/stock-tracker/internal/apperrors"
	"github.com/ndewijer/stock-tracker/internal/ledger"
	"github.com/ndewijer/stock-tracker/internal/model"
	"github.com/ndewijer/stock-tracker/internal/repository"
)

// QuoteProvider prices a single symbol. It is used to verify that a symbol
// exists before it is bought for the first time.
type QuoteProvider interface {
	FetchQuote(ctx context.Context, symbol string) (model.PriceQuote, error)
}

// TradeService handles buy, sell and wipe operations on a user's ledger.
//
// Every operation loads the stored ledger, mutates it in memory and saves it
// back while holding the user's lock, so concurrent requests of one user never
// overwrite each other. A rejected trade leaves the stored ledger untouched.
type TradeService struct {
	ledgerRepo *repository.LedgerRepository
	quotes     QuoteProvider
	locks      *UserLocks
	ledgerOpts []ledger.Option
}

// NewTradeService creates a new TradeService with the provided dependencies.
// ledgerOpts are passed to every ledger the service builds.
func NewTradeService(
	ledgerRepo *repository.LedgerRepository,
	quotes QuoteProvider,
	locks *UserLocks,
	ledgerOpts ...ledger.Option,
) *TradeService {
	return &TradeService{
		ledgerRepo: ledgerRepo,
		quotes:     quotes,
		locks:      locks,
		ledgerOpts: ledgerOpts,
	}
}

// Execute dispatches a validated trade request to Buy or Sell.
func (s *TradeService) Execute(ctx context.Context, username string, req request.TradeRequest) (model.Transaction, error) {
	if req.Qty == nil || req.Price == nil {
		return model.Transaction{}, fmt.Errorf("%w: qty and price are required", apperrors.ErrInvalidInput)
	}

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "buy":
		return s.Buy(ctx, username, req.Symbol, *req.Qty, *req.Price)
	case "sell":
		return s.Sell(ctx, username, req.Symbol, *req.Qty, *req.Price)
	default:
		return model.Transaction{}, fmt.Errorf("%w: unknown action %q", apperrors.ErrInvalidInput, req.Action)
	}
}

// Buy records a purchase. A symbol the user does not hold yet must be quotable,
// otherwise the buy fails with ErrUnknownSymbol.
func (s *TradeService) Buy(ctx context.Context, username, symbol string, quantity, price float64) (model.Transaction, error) {
	return s.trade(ctx, username, symbol, quantity, price, func(l *ledger.Ledger, sym string) (model.Transaction, error) {
		if !l.HasLot(sym) {
			if _, err := s.quotes.FetchQuote(ctx, sym); err != nil {
				slog.Info("ticker verification failed",
					slog.String("op", "Buy"),
					slog.String("symbol", sym),
					slog.String("err", err.Error()),
				)
				return model.Transaction{}, fmt.Errorf("%w: %s", apperrors.ErrUnknownSymbol, sym)
			}
		}
		return l.ApplyBuy(sym, quantity, price)
	})
}

// Sell records a sale and books its realized gain.
func (s *TradeService) Sell(ctx context.Context, username, symbol string, quantity, price float64) (model.Transaction, error) {
	return s.trade(ctx, username, symbol, quantity, price, func(l *ledger.Ledger, sym string) (model.Transaction, error) {
		return l.ApplySell(sym, quantity, price)
	})
}

func (s *TradeService) trade(
	ctx context.Context,
	username, symbol string,
	quantity, price float64,
	apply func(l *ledger.Ledger, sym string) (model.Transaction, error),
) (model.Transaction, error) {
	sym := model.NormalizeSymbol(symbol)
	if err := ledger.ValidateTrade(sym, quantity, price); err != nil {
		return model.Transaction{}, err
	}

	unlock := s.locks.Lock(username)
	defer unlock()

	l, err := s.load(ctx, username)
	if err != nil {
		return model.Transaction{}, err
	}

	tx, err := apply(l, sym)
	if err != nil {
		return model.Transaction{}, err
	}

	if err := s.ledgerRepo.Save(ctx, username, l.Lots(), l.History()); err != nil {
		return model.Transaction{}, err
	}

	slog.Info("trade executed",
		slog.String("user", username),
		slog.String("type", string(tx.Kind)),
		slog.String("symbol", tx.Symbol),
		slog.Float64("qty", tx.Quantity),
		slog.Float64("price", tx.Price),
	)

	return tx, nil
}

// load reads the stored ledger. Unlike the read-only paths it never degrades
// to an empty ledger: saving that would destroy the user's real data.
func (s *TradeService) load(ctx context.Context, username string) (*ledger.Ledger, error) {
	return loadLedgerStrict(ctx, s.ledgerRepo, username, s.ledgerOpts...)
}

func loadLedgerStrict(ctx context.Context, repo *repository.LedgerRepository, username string, opts ...ledger.Option) (*ledger.Ledger, error) {
	lots, history, err := repo.Load(ctx, username)
	if err != nil {
		return nil, err
	}

	l, err := ledger.New(lots, history, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistenceFailure, err)
	}
	return l, nil
}

// Wipe removes every lot and the whole trade history of a user.
func (s *TradeService) Wipe(ctx context.Context, username string) error {
	unlock := s.locks.Lock(username)
	defer unlock()

	l, err := s.load(ctx, username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrDataInconsistency) {
			return err
		}
		// Unreadable records are exactly what a wipe is for.
		l = ledger.Empty(s.ledgerOpts...)
	}
	l.Wipe()

	if err := s.ledgerRepo.Save(ctx, username, l.Lots(), l.History()); err != nil {
		return err
	}

	slog.Info("portfolio wiped", slog.String("user", username))
	return nil
}
