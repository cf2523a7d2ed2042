package model

// SimulatedTrade is one closed position from a fitness simulation.
type SimulatedTrade struct {
	Action        Action  `json:"action"`
	EntryPrice    float64 `json:"entryPrice"`
	ExitPrice     float64 `json:"exitPrice"`
	EntryIndex    int     `json:"entryIndex"`
	ExitIndex     int     `json:"exitIndex"`
	ProfitPercent float64 `json:"profitPercent"`
	CloseReason   string  `json:"closeReason"`
}

type SimulationResult struct {
	TotalProfit float64          `json:"totalProfit"`
	WinRate     float64          `json:"winRate"`
	TradeCount  int              `json:"tradeCount"`
	MaxDrawdown float64          `json:"maxDrawdown"`
	Sharpe      float64          `json:"sharpe"`
	Trades      []SimulatedTrade `json:"trades"`
}

// Chromosome is one candidate strategy configuration. It is owned by the
// optimizer's population or its hall of fame and copied, never shared, when
// promoted between generations. Fitness stays 0 until the first evaluation.
type Chromosome struct {
	Id          string           `json:"id"`
	Strategy    StrategyParams   `json:"strategy"`
	Fitness     float64          `json:"fitness"`
	Generation  int              `json:"generation"`
	MarketState MarketState      `json:"marketState"`
	Trades      []SimulatedTrade `json:"trades"`
	CreatedAt   int64            `json:"createdAt"`
}

func (c Chromosome) Copy() Chromosome {
	copied := c
	copied.Strategy = c.Strategy.Copy()
	copied.Trades = make([]SimulatedTrade, len(c.Trades))
	copy(copied.Trades, c.Trades)

	return copied
}
