package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/ndewijer/stock-tracker/internal/api/request"
)

// ValidTradeAction contains the allowed trade action values.
var ValidTradeAction = map[string]bool{
	"buy": true, "sell": true,
}

// ValidateTrade validates a buy or sell request.
//
// Required fields:
//   - action: Must be one of: buy, sell
//   - symbol: Must not be blank
//   - qty: Must be a positive, finite number
//   - price: Must be a non-negative, finite number
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateTrade(req request.TradeRequest) error {
	errors := make(map[string]string)

	action := strings.ToLower(strings.TrimSpace(req.Action))
	if action == "" {
		errors["action"] = "action is required"
	} else if !ValidTradeAction[action] {
		errors["action"] = fmt.Sprintf("invalid action: %s", req.Action)
	}

	if strings.TrimSpace(req.Symbol) == "" {
		errors["symbol"] = "symbol is required"
	}

	switch {
	case req.Qty == nil:
		errors["qty"] = "qty is required"
	case math.IsNaN(*req.Qty) || math.IsInf(*req.Qty, 0) || *req.Qty <= 0:
		errors["qty"] = "qty must be positive"
	}

	switch {
	case req.Price == nil:
		errors["price"] = "price is required"
	case math.IsNaN(*req.Price) || math.IsInf(*req.Price, 0) || *req.Price < 0:
		errors["price"] = "price cannot be negative"
	}

	return result(errors)
}
