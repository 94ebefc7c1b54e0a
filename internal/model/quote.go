package model

// PriceQuote is the latest price of a symbol as returned by the quote upstream.
// PreviousClose is nil when the upstream did not provide a usable value, in
// which case no daily change can be computed for the symbol.
type PriceQuote struct {
	Symbol        string   `json:"symbol"`
	CurrentPrice  float64  `json:"price"`
	PreviousClose *float64 `json:"prev"`
}

// HasPreviousClose reports whether a nonzero previous close is available.
func (q PriceQuote) HasPreviousClose() bool {
	return q.PreviousClose != nil && *q.PreviousClose != 0
}

// NewsItem is a single headline for a symbol.
type NewsItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Publisher string `json:"publisher"`
	Date      string `json:"time"` // YYYY-MM-DD
}
