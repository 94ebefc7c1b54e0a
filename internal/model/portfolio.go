package model

// HoldingValuation is one open lot marked to the latest fetched price.
// When PriceAvailable is false the quote fetch failed for the symbol and every
// market-derived field is zero.
type HoldingValuation struct {
	Symbol         string   `json:"symbol"`
	Quantity       float64  `json:"qty"`
	AverageCost    float64  `json:"averageCost"`
	CostBasis      float64  `json:"costBasis"`
	PriceAvailable bool     `json:"priceAvailable"`
	CurrentPrice   float64  `json:"currentPrice"`
	PreviousClose  *float64 `json:"previousClose,omitempty"`
	MarketValue    float64  `json:"marketValue"`
	UnrealizedPL   float64  `json:"unrealizedPL"`
	PctChange      float64  `json:"pctChange"`
	DailyPct       *float64 `json:"dailyPct,omitempty"`
}

// Mover is the holding with the largest absolute daily percent change.
type Mover struct {
	Symbol string  `json:"symbol"`
	Pct    float64 `json:"pct"`
}

// ValuationSnapshot is recomputed on every request and never persisted.
type ValuationSnapshot struct {
	Holdings           []HoldingValuation `json:"holdings"`
	TotalValue         float64            `json:"totalValue"`
	TotalCostBasis     float64            `json:"totalCostBasis"`
	TotalUnrealized    float64            `json:"totalUnrealized"`
	TotalUnrealizedPct float64            `json:"totalUnrealizedPct"`
	TotalRealized      float64            `json:"totalRealized"`
	RealizedCostBasis  float64            `json:"realizedCostBasis"`
	LifetimeGrowth     float64            `json:"lifetimeGrowth"`
	LifetimeGrowthPct  float64            `json:"lifetimeGrowthPct"`
	DailyDollarChange  float64            `json:"dailyDollarChange"`
	DailyPct           float64            `json:"dailyPct"`
	WinRate            float64            `json:"winRate"`
	ClosedTradeCount   int                `json:"closedTradeCount"`
	TopMover           *Mover             `json:"topMover,omitempty"`
}

// Dashboard bundles everything the portfolio view needs in one response.
type Dashboard struct {
	Snapshot ValuationSnapshot     `json:"snapshot"`
	History  []Transaction         `json:"history"`
	News     map[string][]NewsItem `json:"news"`
}
