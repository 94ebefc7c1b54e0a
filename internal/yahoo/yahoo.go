package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ndewijer/stock-tracker/internal/apperrors"
	"github.com/ndewijer/stock-tracker/internal/config"
	"github.com/ndewijer/stock-tracker/internal/model"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	chartPath  = "/v8/finance/chart/{symbol}"
	searchPath = "/v1/finance/search"

	// NewsCount is the number of articles requested per symbol.
	NewsCount = 3
)

// Client fetches quotes and news from Yahoo Finance.
//
// The quote and news endpoints live on different hosts, so the client keeps
// one resty client per host. Both share the same timeout and retry policy:
// transport errors, 5xx and 429 responses are retried, anything else fails
// immediately.
type Client struct {
	quotes *resty.Client
	news   *resty.Client
}

// New creates a Yahoo Finance client from the upstream configuration.
//
// Parameters:
//   - cfg: Base URLs, per-request timeout and retry policy
//
// Returns:
//   - *Client: A new client instance ready for use
func New(cfg config.YahooConfig) *Client {
	return &Client{
		quotes: newRestyClient(cfg.QuoteURL, cfg),
		news:   newRestyClient(cfg.NewsURL, cfg),
	}
}

func newRestyClient(baseURL string, cfg config.YahooConfig) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryWait*4).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		AddRetryCondition(retryable)
}

// retryable reports whether a request should be retried.
func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// FetchQuote fetches the current price and the previous close of a symbol.
//
// The previous close is taken from the first usable source in this order:
// meta.previousClose, meta.chartPreviousClose, the second to last close of the
// day series and finally the first open of the day series. When none is usable
// the quote carries a nil PreviousClose.
//
// Parameters:
//   - ctx: Cancels the request including pending retries
//   - symbol: Normalised ticker symbol (e.g., "AAPL")
//
// Returns:
//   - model.PriceQuote: The priced symbol
//   - error: Wrapping ErrUpstreamUnavailable if the request fails, the upstream
//     answers with a non-200 status, the body is not valid JSON or it lacks a
//     positive regular market price
func (c *Client) FetchQuote(ctx context.Context, symbol string) (model.PriceQuote, error) {
	if symbol == "" {
		return model.PriceQuote{}, fmt.Errorf("%w: empty symbol", apperrors.ErrInvalidInput)
	}

	resp, err := c.quotes.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"interval": "1d",
			"range":    "1d",
		}).
		Get(chartPath)
	if err != nil {
		return model.PriceQuote{}, fmt.Errorf("%w: quote %s: %v", apperrors.ErrUpstreamUnavailable, symbol, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return model.PriceQuote{}, fmt.Errorf("%w: quote %s: status %d", apperrors.ErrUpstreamUnavailable, symbol, resp.StatusCode())
	}

	var chart ChartResponse
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return model.PriceQuote{}, fmt.Errorf("%w: quote %s: %v", apperrors.ErrUpstreamUnavailable, symbol, err)
	}

	return ParseQuote(symbol, chart)
}

// ParseQuote extracts a PriceQuote from a chart response.
func ParseQuote(symbol string, chart ChartResponse) (model.PriceQuote, error) {
	if chart.Chart.Error != nil {
		return model.PriceQuote{}, fmt.Errorf("%w: quote %s: yahoo error: %s",
			apperrors.ErrUpstreamUnavailable, symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return model.PriceQuote{}, fmt.Errorf("%w: quote %s: no results returned", apperrors.ErrUpstreamUnavailable, symbol)
	}

	result := chart.Chart.Result[0]
	price := result.Meta.RegularMarketPrice
	if price == nil || *price <= 0 {
		return model.PriceQuote{}, fmt.Errorf("%w: quote %s: no market price", apperrors.ErrUpstreamUnavailable, symbol)
	}

	return model.PriceQuote{
		Symbol:        symbol,
		CurrentPrice:  *price,
		PreviousClose: previousClose(result),
	}, nil
}

// previousClose walks the fallback chain and returns nil when no source has a
// nonzero value.
func previousClose(result ChartResult) *float64 {
	candidates := []*float64{result.Meta.PreviousClose, result.Meta.ChartPreviousClose}

	if len(result.Indicators.Quote) > 0 {
		q := result.Indicators.Quote[0]
		if n := len(q.Close); n >= 2 {
			candidates = append(candidates, q.Close[n-2])
		}
		if len(q.Open) > 0 {
			candidates = append(candidates, q.Open[0])
		}
	}

	for _, v := range candidates {
		if v != nil && *v != 0 {
			prev := *v
			return &prev
		}
	}
	return nil
}

// SearchNews fetches up to NewsCount recent articles about a symbol.
//
// Parameters:
//   - ctx: Cancels the request including pending retries
//   - symbol: Normalised ticker symbol
//
// Returns:
//   - []model.NewsItem: Articles with their publish date formatted as YYYY-MM-DD
//     (UTC); an empty slice when Yahoo has no news for the symbol
//   - error: Wrapping ErrUpstreamUnavailable on transport, status or decoding failures
func (c *Client) SearchNews(ctx context.Context, symbol string) ([]model.NewsItem, error) {
	resp, err := c.news.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":         symbol,
			"newsCount": strconv.Itoa(NewsCount),
		}).
		Get(searchPath)
	if err != nil {
		return nil, fmt.Errorf("%w: news %s: %v", apperrors.ErrUpstreamUnavailable, symbol, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: news %s: status %d", apperrors.ErrUpstreamUnavailable, symbol, resp.StatusCode())
	}

	var search SearchResponse
	if err := json.Unmarshal(resp.Body(), &search); err != nil {
		return nil, fmt.Errorf("%w: news %s: %v", apperrors.ErrUpstreamUnavailable, symbol, err)
	}

	items := make([]model.NewsItem, 0, min(len(search.News), NewsCount))
	for _, n := range search.News {
		if len(items) == NewsCount {
			break
		}
		items = append(items, model.NewsItem{
			Title:     n.Title,
			Link:      n.Link,
			Publisher: n.Publisher,
			Date:      time.Unix(n.ProviderPublishTime, 0).UTC().Format(time.DateOnly),
		})
	}

	return items, nil
}
