package model

import "strings"

// Lot is the open position in one symbol at a single weighted-average cost.
type Lot struct {
	Symbol      string  `json:"symbol"`
	Quantity    float64 `json:"qty"`
	AverageCost float64 `json:"averageCost"`
}

// CostBasis returns the total cost of the open quantity.
func (l Lot) CostBasis() float64 {
	return l.AverageCost * l.Quantity
}

// NormalizeSymbol upper-cases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
