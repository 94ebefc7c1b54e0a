package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ndewijer/stock-tracker/internal/ledger"
	"github.com/ndewijer/stock-tracker/internal/model"
	"github.com/ndewijer/stock-tracker/internal/repository"
	"github.com/ndewijer/stock-tracker/internal/valuation"
)

// PriceFetcher prices many symbols at once; unpriceable symbols are absent.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, symbols []string) map[string]model.PriceQuote
}

// NewsFetcher collects headlines for many symbols at once.
type NewsFetcher interface {
	FetchNews(ctx context.Context, symbols []string) map[string][]model.NewsItem
}

// PortfolioService builds the read-only views of a user's portfolio.
type PortfolioService struct {
	ledgerRepo *repository.LedgerRepository
	prices     PriceFetcher
	news       NewsFetcher
}

// NewPortfolioService creates a new PortfolioService with the provided dependencies.
func NewPortfolioService(
	ledgerRepo *repository.LedgerRepository,
	prices PriceFetcher,
	news NewsFetcher,
) *PortfolioService {
	return &PortfolioService{
		ledgerRepo: ledgerRepo,
		prices:     prices,
		news:       news,
	}
}

// loadLedger reads the stored ledger of a user. Read failures and corrupt
// records are logged and degrade to an empty ledger so the views stay up.
func (s *PortfolioService) loadLedger(ctx context.Context, username string) *ledger.Ledger {
	lots, history, err := s.ledgerRepo.Load(ctx, username)
	if err != nil {
		slog.Warn("failed to load ledger, showing empty portfolio",
			slog.String("user", username),
			slog.String("err", err.Error()),
		)
		return ledger.Empty()
	}

	l, err := ledger.New(lots, history)
	if err != nil {
		slog.Warn("stored ledger is inconsistent, showing empty portfolio",
			slog.String("user", username),
			slog.String("err", err.Error()),
		)
		return ledger.Empty()
	}

	return l
}

// Snapshot values the user's open lots at current prices.
// It reports false when the user holds nothing.
func (s *PortfolioService) Snapshot(ctx context.Context, username string) (model.ValuationSnapshot, bool) {
	l := s.loadLedger(ctx, username)
	symbols := l.Symbols()
	if len(symbols) == 0 {
		return valuation.Valuate(nil, l.History(), nil), false
	}

	prices := s.prices.FetchPrices(ctx, symbols)
	return valuation.Valuate(l.Lots(), l.History(), prices), true
}

// Dashboard returns the valuation, the chronological history and the news of
// every held symbol. Prices and news are fetched concurrently.
func (s *PortfolioService) Dashboard(ctx context.Context, username string) model.Dashboard {
	l := s.loadLedger(ctx, username)
	symbols := l.Symbols()

	var (
		prices map[string]model.PriceQuote
		news   map[string][]model.NewsItem
		wg     sync.WaitGroup
	)

	if len(symbols) > 0 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			prices = s.prices.FetchPrices(ctx, symbols)
		}()
		go func() {
			defer wg.Done()
			news = s.news.FetchNews(ctx, symbols)
		}()
		wg.Wait()
	}

	if news == nil {
		news = map[string][]model.NewsItem{}
	}

	return model.Dashboard{
		Snapshot: valuation.Valuate(l.Lots(), l.History(), prices),
		History:  l.History(),
		News:     news,
	}
}
