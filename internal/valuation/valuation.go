// Package valuation marks open lots to market and aggregates portfolio totals.
package valuation

import (
	"math"
	"sort"

	"github.com/ndewijer/stock-tracker/internal/model"
)

// totals accumulates portfolio-wide figures during a single Valuate call.
type totals struct {
	value     float64
	costBasis float64
	daily     float64
	prevValue float64
	realized  float64
	sellBasis float64
	wins      int
	sells     int
	topMover  *model.Mover
}

// Valuate computes the valuation snapshot of lots at prices.
//
// Lots without an entry in prices are reported with PriceAvailable=false and
// add nothing to any total. The realized figures and the win rate come from
// the SELL transactions in history. Holdings are ordered by market value,
// largest first, with price-less holdings last.
func Valuate(lots []model.Lot, history []model.Transaction, prices map[string]model.PriceQuote) model.ValuationSnapshot {
	ordered := make([]model.Lot, len(lots))
	copy(ordered, lots)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Symbol < ordered[j].Symbol })

	var acc totals
	holdings := make([]model.HoldingValuation, 0, len(ordered))

	for _, lot := range ordered {
		h := model.HoldingValuation{
			Symbol:      lot.Symbol,
			Quantity:    lot.Quantity,
			AverageCost: lot.AverageCost,
			CostBasis:   lot.CostBasis(),
		}

		quote, ok := prices[lot.Symbol]
		if !ok {
			holdings = append(holdings, h)
			continue
		}

		h.PriceAvailable = true
		h.CurrentPrice = quote.CurrentPrice
		h.MarketValue = quote.CurrentPrice * lot.Quantity
		h.UnrealizedPL = h.MarketValue - h.CostBasis
		if lot.AverageCost != 0 {
			h.PctChange = (quote.CurrentPrice - lot.AverageCost) / lot.AverageCost * 100
		}

		acc.value += h.MarketValue
		acc.costBasis += h.CostBasis

		if quote.HasPreviousClose() {
			prev := *quote.PreviousClose
			h.PreviousClose = &prev
			acc.daily += (quote.CurrentPrice - prev) * lot.Quantity
			acc.prevValue += prev * lot.Quantity

			pct := (quote.CurrentPrice - prev) / prev * 100
			h.DailyPct = &pct
			if acc.topMover == nil || math.Abs(pct) > math.Abs(acc.topMover.Pct) {
				acc.topMover = &model.Mover{Symbol: lot.Symbol, Pct: pct}
			}
		}

		holdings = append(holdings, h)
	}

	for _, tx := range history {
		if !tx.IsSell() {
			continue
		}
		acc.sells++
		acc.sellBasis += tx.Price * tx.Quantity
		if tx.RealizedGain != nil {
			acc.realized += *tx.RealizedGain
			if *tx.RealizedGain > 0 {
				acc.wins++
			}
		}
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		if holdings[i].PriceAvailable != holdings[j].PriceAvailable {
			return holdings[i].PriceAvailable
		}
		return holdings[i].MarketValue > holdings[j].MarketValue
	})

	snap := model.ValuationSnapshot{
		Holdings:          holdings,
		TotalValue:        acc.value,
		TotalCostBasis:    acc.costBasis,
		TotalUnrealized:   acc.value - acc.costBasis,
		TotalRealized:     acc.realized,
		RealizedCostBasis: acc.sellBasis,
		DailyDollarChange: acc.daily,
		ClosedTradeCount:  acc.sells,
		TopMover:          acc.topMover,
	}

	snap.TotalUnrealizedPct = percentOf(snap.TotalUnrealized, acc.costBasis)
	snap.LifetimeGrowth = snap.TotalRealized + snap.TotalUnrealized
	snap.LifetimeGrowthPct = percentOf(snap.LifetimeGrowth, acc.costBasis+acc.sellBasis)
	snap.DailyPct = percentOf(acc.daily, acc.prevValue)
	if acc.sells > 0 {
		snap.WinRate = float64(acc.wins) / float64(acc.sells) * 100
	}

	return snap
}

// percentOf returns part/whole*100, or 0 when whole is not positive.
func percentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
