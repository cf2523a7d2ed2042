package model

// GridLevels is an ascending price ladder bounding the current trading
// range. It is fully replaced on every rebalance, never mutated in place.
type GridLevels []float64

func (g GridLevels) IsValid() bool {
	if len(g) < 2 {
		return false
	}

	for i := 1; i < len(g); i++ {
		if g[i] < g[i-1] {
			return false
		}
	}

	return true
}

// CellIndex returns the index of the grid cell containing the price, -1 when
// the price is outside the ladder.
func (g GridLevels) CellIndex(price float64) int {
	for i := 0; i < len(g)-1; i++ {
		if price >= g[i] && price < g[i+1] {
			return i
		}
	}

	return -1
}

type GridState struct {
	Symbol        string      `json:"symbol"`
	Levels        GridLevels  `json:"levels"`
	CenterPrice   float64     `json:"centerPrice"`
	HalfWidth     float64     `json:"halfWidth"`
	MarketState   MarketState `json:"marketState"`
	RebalancedAt  int64       `json:"rebalancedAt"`
	RebalanceMode string      `json:"rebalanceMode"`
}

type GridSignal struct {
	Symbol    string  `json:"symbol"`
	Action    Action  `json:"action"`
	Level     float64 `json:"level"`
	CellIndex int     `json:"cellIndex"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}
