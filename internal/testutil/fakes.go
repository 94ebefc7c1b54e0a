package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ndewijer/stock-tracker/internal/config"
	"github.com/ndewijer/stock-tracker/internal/model"
	"github.com/ndewijer/stock-tracker/internal/yahoo"
)

// FakeYahoo is an httptest server speaking the chart and search endpoints.
// Symbols without a configured quote answer 404.
//
// Example usage:
//
//	fy := testutil.NewFakeYahoo(t).
//	    WithQuote("AAPL", 150, 145).
//	    WithNews("AAPL", model.NewsItem{Title: "Apple up"})
//	client := yahoo.New(fy.Config())
type FakeYahoo struct {
	Server *httptest.Server

	mu     sync.Mutex
	quotes map[string]yahoo.ChartMeta
	news   map[string][]model.NewsItem
	calls  map[string]int
}

// NewFakeYahoo starts a fake upstream that is closed when the test completes.
func NewFakeYahoo(t *testing.T) *FakeYahoo {
	t.Helper()

	f := &FakeYahoo{
		quotes: make(map[string]yahoo.ChartMeta),
		news:   make(map[string][]model.NewsItem),
		calls:  make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)

	return f
}

// WithQuote makes symbol quotable at price with the given previous close.
// A zero prev leaves the previous close unset.
func (f *FakeYahoo) WithQuote(symbol string, price, prev float64) *FakeYahoo {
	f.mu.Lock()
	defer f.mu.Unlock()

	meta := yahoo.ChartMeta{Symbol: symbol, Currency: "USD", RegularMarketPrice: &price}
	if prev != 0 {
		meta.PreviousClose = &prev
	}
	f.quotes[symbol] = meta
	return f
}

// WithNews sets the articles returned for symbol.
func (f *FakeYahoo) WithNews(symbol string, items ...model.NewsItem) *FakeYahoo {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.news[symbol] = items
	return f
}

// Calls returns how often symbol was requested on either endpoint.
func (f *FakeYahoo) Calls(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[symbol]
}

// Config points a yahoo client at the fake with retries disabled.
func (f *FakeYahoo) Config() config.YahooConfig {
	return config.YahooConfig{
		QuoteURL:  f.Server.URL,
		NewsURL:   f.Server.URL,
		Timeout:   2 * time.Second,
		Retries:   0,
		RetryWait: time.Millisecond,
	}
}

func (f *FakeYahoo) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/"):
		symbol := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		f.calls[symbol]++

		meta, ok := f.quotes[symbol]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
			return
		}

		var resp yahoo.ChartResponse
		resp.Chart.Result = []yahoo.ChartResult{{Meta: meta}}
		_ = json.NewEncoder(w).Encode(resp)

	case r.URL.Path == "/v1/finance/search":
		symbol := r.URL.Query().Get("q")
		f.calls[symbol]++

		resp := yahoo.SearchResponse{News: []yahoo.SearchNews{}}
		for _, item := range f.news[symbol] {
			published, _ := time.Parse(time.DateOnly, item.Date)
			resp.News = append(resp.News, yahoo.SearchNews{
				Title:               item.Title,
				Link:                item.Link,
				Publisher:           item.Publisher,
				ProviderPublishTime: published.Unix(),
			})
		}
		_ = json.NewEncoder(w).Encode(resp)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// PushoverMessage is one message received by FakePushover.
type PushoverMessage struct {
	Token   string
	User    string
	Message string
}

// FakePushover records messages posted to /1/messages.json.
// Posts for user keys listed in Reject answer 400.
type FakePushover struct {
	Server *httptest.Server

	mu       sync.Mutex
	messages []PushoverMessage
	reject   map[string]bool
}

// NewFakePushover starts a fake Pushover API that is closed when the test completes.
func NewFakePushover(t *testing.T) *FakePushover {
	t.Helper()

	f := &FakePushover{reject: make(map[string]bool)}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1/messages.json" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		user := r.PostForm.Get("user")
		if f.reject[user] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"user":"invalid","errors":["user identifier is invalid"],"status":0}`))
			return
		}

		f.messages = append(f.messages, PushoverMessage{
			Token:   r.PostForm.Get("token"),
			User:    user,
			Message: r.PostForm.Get("message"),
		})
		_, _ = w.Write([]byte(`{"status":1}`))
	}))
	t.Cleanup(f.Server.Close)

	return f
}

// Reject makes every post for userKey fail.
func (f *FakePushover) Reject(userKey string) *FakePushover {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reject[userKey] = true
	return f
}

// Messages returns a copy of the accepted messages.
func (f *FakePushover) Messages() []PushoverMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PushoverMessage(nil), f.messages...)
}

// Config points a pushover client at the fake.
func (f *FakePushover) Config() config.PushoverConfig {
	return config.PushoverConfig{
		URL:      f.Server.URL,
		AppToken: "app-token",
		Timeout:  2 * time.Second,
	}
}
