// Package market fans quote and news lookups for many symbols out to the
// upstream with a bounded number of concurrent workers.
//
// Both fetchers tolerate partial failure: a symbol whose lookup fails, times
// out or panics is logged and left out of the result. Callers never see an
// error and must treat a missing key as "unavailable".
package market

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/ndewijer/stock-tracker/internal/model"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultQuoteWorkers = 10
	DefaultNewsWorkers  = 5
)

// QuoteSource prices a single symbol.
type QuoteSource interface {
	FetchQuote(ctx context.Context, symbol string) (model.PriceQuote, error)
}

// NewsSource returns the recent headlines of a single symbol.
type NewsSource interface {
	SearchNews(ctx context.Context, symbol string) ([]model.NewsItem, error)
}

// QuoteCache is an optional short-lived store for quotes.
// Implementations must be safe for concurrent use.
type QuoteCache interface {
	Get(ctx context.Context, symbol string) (model.PriceQuote, bool)
	Set(ctx context.Context, quote model.PriceQuote)
}

// uniqueSymbols normalises symbols and drops blanks and duplicates, keeping
// first-seen order.
func uniqueSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := model.NormalizeSymbol(s)
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

// scatter runs fn once per symbol on at most workers goroutines and blocks
// until all of them return. A panicking fn is recovered and reported as an
// error for its symbol.
func scatter(ctx context.Context, op string, symbols []string, workers int, fn func(ctx context.Context, symbol string) error) {
	if workers <= 0 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for _, sym := range symbols {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
					slog.Error("Panic recovered in fetch worker",
						slog.String("op", op),
						slog.String("symbol", sym),
						slog.Any("panic", r),
						slog.String("stacktrace", string(debug.Stack())),
					)
				}
			}()

			if err := fn(ctx, sym); err != nil {
				slog.Warn("fetch failed, symbol omitted",
					slog.String("op", op),
					slog.String("symbol", sym),
					slog.String("err", err.Error()),
				)
			}
			return nil
		})
	}

	// Workers never fail the group; per-symbol errors are only logged.
	_ = g.Wait()
}

// QuoteFetcher prices many symbols concurrently.
type QuoteFetcher struct {
	source  QuoteSource
	cache   QuoteCache
	workers int
}

// QuoteOption configures a QuoteFetcher.
type QuoteOption func(*QuoteFetcher)

// WithQuoteCache serves quotes from cache when present and stores fresh ones.
func WithQuoteCache(cache QuoteCache) QuoteOption {
	return func(f *QuoteFetcher) {
		f.cache = cache
	}
}

// NewQuoteFetcher creates a fetcher with at most workers concurrent lookups.
// A non-positive workers value selects DefaultQuoteWorkers.
func NewQuoteFetcher(source QuoteSource, workers int, opts ...QuoteOption) *QuoteFetcher {
	if workers <= 0 {
		workers = DefaultQuoteWorkers
	}
	f := &QuoteFetcher{source: source, workers: workers}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchPrices returns the quotes of every symbol that could be priced, keyed
// by normalised symbol. Duplicate symbols are fetched once.
func (f *QuoteFetcher) FetchPrices(ctx context.Context, symbols []string) map[string]model.PriceQuote {
	unique := uniqueSymbols(symbols)
	prices := make(map[string]model.PriceQuote, len(unique))
	if len(unique) == 0 {
		return prices
	}

	var mu sync.Mutex
	scatter(ctx, "FetchPrices", unique, f.workers, func(ctx context.Context, sym string) error {
		if f.cache != nil {
			if q, ok := f.cache.Get(ctx, sym); ok {
				mu.Lock()
				prices[sym] = q
				mu.Unlock()
				return nil
			}
		}

		q, err := f.source.FetchQuote(ctx, sym)
		if err != nil {
			return err
		}
		if q.CurrentPrice <= 0 {
			return fmt.Errorf("non-positive price %v", q.CurrentPrice)
		}
		q.Symbol = sym

		if f.cache != nil {
			f.cache.Set(ctx, q)
		}

		mu.Lock()
		prices[sym] = q
		mu.Unlock()
		return nil
	})

	return prices
}

// NewsFetcher collects headlines for many symbols concurrently.
type NewsFetcher struct {
	source  NewsSource
	workers int
}

// NewNewsFetcher creates a fetcher with at most workers concurrent lookups.
// A non-positive workers value selects DefaultNewsWorkers.
func NewNewsFetcher(source NewsSource, workers int) *NewsFetcher {
	if workers <= 0 {
		workers = DefaultNewsWorkers
	}
	return &NewsFetcher{source: source, workers: workers}
}

// FetchNews returns the headlines per symbol. Symbols without news or whose
// lookup failed are absent from the result.
func (f *NewsFetcher) FetchNews(ctx context.Context, symbols []string) map[string][]model.NewsItem {
	unique := uniqueSymbols(symbols)
	news := make(map[string][]model.NewsItem, len(unique))
	if len(unique) == 0 {
		return news
	}

	var mu sync.Mutex
	scatter(ctx, "FetchNews", unique, f.workers, func(ctx context.Context, sym string) error {
		items, err := f.source.SearchNews(ctx, sym)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		mu.Lock()
		news[sym] = items
		mu.Unlock()
		return nil
	})

	return news
}
