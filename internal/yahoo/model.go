package yahoo

// ChartResponse represents the raw JSON response of the Yahoo Finance chart API.
//
// Only the fields needed to price a symbol are mapped:
//   - Chart.Result[].Meta: regular market price and the previous close variants
//   - Chart.Result[].Indicators.Quote[]: open and close series, which may
//     contain nulls for intervals without trades
//   - Chart.Error: Optional error object returned by Yahoo
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *APIError     `json:"error"`
	} `json:"chart"`
}

// ChartResult is a single symbol's entry in a chart response.
type ChartResult struct {
	Meta       ChartMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open  []*float64 `json:"open"`
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// ChartMeta holds the symbol metadata of a chart result.
type ChartMeta struct {
	Symbol             string   `json:"symbol"`
	Currency           string   `json:"currency"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	PreviousClose      *float64 `json:"previousClose"`
	ChartPreviousClose *float64 `json:"chartPreviousClose"`
}

// APIError is the error object Yahoo embeds in an otherwise valid response.
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// SearchResponse represents the raw JSON response of the Yahoo Finance search API.
// Only the news section is mapped.
type SearchResponse struct {
	News []SearchNews `json:"news"`
}

// SearchNews is one article of a search response.
type SearchNews struct {
	Title               string `json:"title"`
	Link                string `json:"link"`
	Publisher           string `json:"publisher"`
	ProviderPublishTime int64  `json:"providerPublishTime"`
}
