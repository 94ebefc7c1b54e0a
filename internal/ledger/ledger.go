// Package ledger implements the weighted-average lot accounting for one user.
//
// A Ledger holds at most one open lot per symbol. Every buy of a symbol is
// merged into that lot at a quantity-weighted average cost, and every sell
// books a realized gain against the average cost at the time of the sale. The
// transaction history is append-only; the lot map is maintained incrementally
// and never recomputed from history.
//
// A Ledger is not safe for concurrent use. Callers load it, mutate it and save
// it within a single operation.
package ledger

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/stock-tracker/internal/apperrors"
	"github.com/ndewijer/stock-tracker/internal/model"
	"github.com/shopspring/decimal"
)

// Epsilon is the quantity below which a lot is considered fully closed.
const Epsilon = 1e-6

// averagePrecision is the number of decimal places kept for average costs.
const averagePrecision = 16

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used to timestamp new transactions.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithIDGenerator overrides the generator used for new transaction IDs.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) {
		l.newID = newID
	}
}

// Ledger is the open-lot set plus the trade history of a single user.
type Ledger struct {
	lots    map[string]model.Lot
	history []model.Transaction
	now     func() time.Time
	newID   func() string
}

// Empty returns a ledger without lots or history.
func Empty(opts ...Option) *Ledger {
	l := &Ledger{
		lots:  make(map[string]model.Lot),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// New builds a ledger from persisted records.
//
// Symbols are normalised, duplicate lots of the same symbol are merged at their
// weighted-average cost and lots whose quantity is within Epsilon of zero are
// dropped. Records that cannot be interpreted (non-positive quantity, negative
// cost, unknown transaction kind, ...) are rejected with ErrDataInconsistency.
// A SELL without a realized gain is read as a zero gain and a BUY never carries
// one.
func New(lots []model.Lot, history []model.Transaction, opts ...Option) (*Ledger, error) {
	l := Empty(opts...)

	for i, lot := range lots {
		sym := model.NormalizeSymbol(lot.Symbol)
		switch {
		case sym == "":
			return nil, fmt.Errorf("%w: lot %d has no symbol", apperrors.ErrDataInconsistency, i)
		case !isFinite(lot.Quantity) || lot.Quantity <= 0:
			return nil, fmt.Errorf("%w: lot %s has invalid quantity %v", apperrors.ErrDataInconsistency, sym, lot.Quantity)
		case !isFinite(lot.AverageCost) || lot.AverageCost < 0:
			return nil, fmt.Errorf("%w: lot %s has invalid average cost %v", apperrors.ErrDataInconsistency, sym, lot.AverageCost)
		case lot.Quantity <= Epsilon:
			continue
		}

		if existing, ok := l.lots[sym]; ok {
			l.lots[sym] = mergeLot(existing, lot.Quantity, lot.AverageCost)
			continue
		}
		l.lots[sym] = model.Lot{Symbol: sym, Quantity: lot.Quantity, AverageCost: lot.AverageCost}
	}

	l.history = make([]model.Transaction, 0, len(history))
	for i, tx := range history {
		tx.Symbol = model.NormalizeSymbol(tx.Symbol)
		switch {
		case !tx.Kind.Valid():
			return nil, fmt.Errorf("%w: transaction %d has unknown type %q", apperrors.ErrDataInconsistency, i, tx.Kind)
		case tx.Symbol == "":
			return nil, fmt.Errorf("%w: transaction %d has no symbol", apperrors.ErrDataInconsistency, i)
		case !isFinite(tx.Quantity) || tx.Quantity <= 0:
			return nil, fmt.Errorf("%w: transaction %d has invalid quantity %v", apperrors.ErrDataInconsistency, i, tx.Quantity)
		case !isFinite(tx.Price) || tx.Price < 0:
			return nil, fmt.Errorf("%w: transaction %d has invalid price %v", apperrors.ErrDataInconsistency, i, tx.Price)
		}

		if tx.ID == "" {
			tx.ID = l.newID()
		}
		if tx.IsSell() {
			if tx.RealizedGain == nil {
				tx.RealizedGain = float64Ptr(0)
			}
		} else {
			tx.RealizedGain = nil
		}
		l.history = append(l.history, tx)
	}

	return l, nil
}

// ApplyBuy adds quantity shares bought at price to the lot of symbol.
//
// An existing lot is merged at the weighted-average cost
// (oldQty*oldAvg + quantity*price) / (oldQty+quantity). Verifying that a
// brand-new symbol is quotable is the caller's job and must happen before this
// call.
func (l *Ledger) ApplyBuy(symbol string, quantity, price float64) (model.Transaction, error) {
	sym := model.NormalizeSymbol(symbol)
	if err := ValidateTrade(sym, quantity, price); err != nil {
		return model.Transaction{}, err
	}

	if lot, ok := l.lots[sym]; ok {
		l.lots[sym] = mergeLot(lot, quantity, price)
	} else {
		l.lots[sym] = model.Lot{Symbol: sym, Quantity: quantity, AverageCost: price}
	}

	tx := model.Transaction{
		ID:        l.newID(),
		Timestamp: l.now().UTC(),
		Kind:      model.KindBuy,
		Symbol:    sym,
		Quantity:  quantity,
		Price:     price,
	}
	l.history = append(l.history, tx)

	return tx, nil
}

// ApplySell removes quantity shares of symbol sold at price and books the
// realized gain (price - averageCost) * quantity.
//
// The whole sell is rejected with ErrInsufficientQuantity when no lot exists
// or the lot holds fewer shares. A lot left with Epsilon or fewer shares is
// closed. The average cost of the remaining shares does not change.
func (l *Ledger) ApplySell(symbol string, quantity, price float64) (model.Transaction, error) {
	sym := model.NormalizeSymbol(symbol)
	if err := ValidateTrade(sym, quantity, price); err != nil {
		return model.Transaction{}, err
	}

	lot, ok := l.lots[sym]
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: you don't own any %s", apperrors.ErrInsufficientQuantity, sym)
	}
	if quantity > lot.Quantity {
		return model.Transaction{}, fmt.Errorf("%w: you only own %g of %s", apperrors.ErrInsufficientQuantity, lot.Quantity, sym)
	}

	gain := (price - lot.AverageCost) * quantity

	lot.Quantity -= quantity
	if lot.Quantity <= Epsilon {
		delete(l.lots, sym)
	} else {
		l.lots[sym] = lot
	}

	tx := model.Transaction{
		ID:           l.newID(),
		Timestamp:    l.now().UTC(),
		Kind:         model.KindSell,
		Symbol:       sym,
		Quantity:     quantity,
		Price:        price,
		RealizedGain: float64Ptr(gain),
	}
	l.history = append(l.history, tx)

	return tx, nil
}

// Wipe clears every lot and the whole transaction history.
func (l *Ledger) Wipe() {
	l.lots = make(map[string]model.Lot)
	l.history = nil
}

// HasLot reports whether an open lot exists for symbol.
func (l *Ledger) HasLot(symbol string) bool {
	_, ok := l.lots[model.NormalizeSymbol(symbol)]
	return ok
}

// Lot returns the open lot of symbol.
func (l *Ledger) Lot(symbol string) (model.Lot, bool) {
	lot, ok := l.lots[model.NormalizeSymbol(symbol)]
	return lot, ok
}

// Lots returns the open lots ordered by symbol.
func (l *Ledger) Lots() []model.Lot {
	lots := make([]model.Lot, 0, len(l.lots))
	for _, lot := range l.lots {
		lots = append(lots, lot)
	}
	sort.Slice(lots, func(i, j int) bool { return lots[i].Symbol < lots[j].Symbol })
	return lots
}

// Symbols returns the symbols with an open lot, ordered.
func (l *Ledger) Symbols() []string {
	symbols := make([]string, 0, len(l.lots))
	for sym := range l.lots {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// History returns a copy of the transaction history in chronological order.
func (l *Ledger) History() []model.Transaction {
	history := make([]model.Transaction, len(l.history))
	copy(history, l.history)
	return history
}

// IsEmpty reports whether the ledger has neither lots nor history.
func (l *Ledger) IsEmpty() bool {
	return len(l.lots) == 0 && len(l.history) == 0
}

// ValidateTrade checks the preconditions shared by buys and sells.
// The symbol is expected to be normalised already.
func ValidateTrade(symbol string, quantity, price float64) error {
	if symbol == "" {
		return fmt.Errorf("%w: symbol is required", apperrors.ErrInvalidInput)
	}
	if !isFinite(quantity) || quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", apperrors.ErrInvalidInput)
	}
	if !isFinite(price) || price < 0 {
		return fmt.Errorf("%w: price cannot be negative", apperrors.ErrInvalidInput)
	}
	return nil
}

// mergeLot folds quantity shares at price into lot at the weighted-average cost.
func mergeLot(lot model.Lot, quantity, price float64) model.Lot {
	oldQty := decimal.NewFromFloat(lot.Quantity)
	addQty := decimal.NewFromFloat(quantity)
	totalQty := oldQty.Add(addQty)

	totalCost := oldQty.Mul(decimal.NewFromFloat(lot.AverageCost)).
		Add(addQty.Mul(decimal.NewFromFloat(price)))

	lot.Quantity = totalQty.InexactFloat64()
	lot.AverageCost = totalCost.DivRound(totalQty, averagePrecision).InexactFloat64()
	return lot
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func float64Ptr(f float64) *float64 {
	return &f
}
