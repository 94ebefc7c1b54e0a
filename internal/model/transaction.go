package model

import "time"

// TransactionKind is the side of a trade.
type TransactionKind string

const (
	KindBuy  TransactionKind = "BUY"
	KindSell TransactionKind = "SELL"
)

// Valid reports whether k is one of the known trade kinds.
func (k TransactionKind) Valid() bool {
	return k == KindBuy || k == KindSell
}

// Transaction is an immutable record of a single trade.
// RealizedGain is only set for SELL transactions.
type Transaction struct {
	ID           string          `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	Kind         TransactionKind `json:"type"`
	Symbol       string          `json:"symbol"`
	Quantity     float64         `json:"qty"`
	Price        float64         `json:"price"`
	RealizedGain *float64        `json:"realizedGain"`
}

// IsSell reports whether the transaction closed (part of) a position.
func (t Transaction) IsSell() bool {
	return t.Kind == KindSell
}
