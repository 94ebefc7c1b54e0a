package request

// TradeRequest is the request body for buying or selling shares.
type TradeRequest struct {
	Action string   `json:"action"` // Action is "buy" or "sell" (case-insensitive).
	Symbol string   `json:"symbol"` // Symbol is the ticker symbol; it is upper-cased before use.
	Qty    *float64 `json:"qty"`    // Qty is the number of shares. Required, must be positive.
	Price  *float64 `json:"price"`  // Price is the per-share price. Required, must not be negative.
}
