package model

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

func Actions() []Action {
	return []Action{ActionBuy, ActionSell, ActionHold}
}

type StrategyType string

const (
	StrategyGrid           StrategyType = "grid"
	StrategyTrendFollowing StrategyType = "trend_following"
	StrategyCounterTrend   StrategyType = "counter_trend"
	StrategyBreakout       StrategyType = "breakout"
)

func StrategyTypes() []StrategyType {
	return []StrategyType{StrategyGrid, StrategyTrendFollowing, StrategyCounterTrend, StrategyBreakout}
}

type GridStrategyParams struct {
	GridCount          int     `json:"gridCount"`
	GridSpacingPercent float64 `json:"gridSpacingPercent"`
}

type TrendStrategyParams struct {
	SmaPeriod             int     `json:"smaPeriod"`
	EntryThresholdPercent float64 `json:"entryThresholdPercent"`
}

type CounterTrendStrategyParams struct {
	RsiBuyLevel  float64 `json:"rsiBuyLevel"`
	RsiSellLevel float64 `json:"rsiSellLevel"`
}

type BreakoutStrategyParams struct {
	LookbackPeriod   int     `json:"lookbackPeriod"`
	VolumeMultiplier float64 `json:"volumeMultiplier"`
}

// StrategyParams is a closed set of per-strategy variants. Exactly one
// variant pointer is set and it always matches Type. Stop-loss and
// take-profit are shared across every strategy type and survive a genetic
// type switch.
type StrategyParams struct {
	Type              StrategyType                `json:"type"`
	StopLossPercent   float64                     `json:"stopLossPercent"`
	TakeProfitPercent float64                     `json:"takeProfitPercent"`
	Grid              *GridStrategyParams         `json:"grid,omitempty"`
	Trend             *TrendStrategyParams        `json:"trend,omitempty"`
	CounterTrend      *CounterTrendStrategyParams `json:"counterTrend,omitempty"`
	Breakout          *BreakoutStrategyParams     `json:"breakout,omitempty"`
}

// IsValid reports whether the variant pointer matches the declared type.
func (s *StrategyParams) IsValid() bool {
	switch s.Type {
	case StrategyGrid:
		return s.Grid != nil
	case StrategyTrendFollowing:
		return s.Trend != nil
	case StrategyCounterTrend:
		return s.CounterTrend != nil
	case StrategyBreakout:
		return s.Breakout != nil
	}

	return false
}

func (s StrategyParams) Copy() StrategyParams {
	copied := StrategyParams{
		Type:              s.Type,
		StopLossPercent:   s.StopLossPercent,
		TakeProfitPercent: s.TakeProfitPercent,
	}

	if s.Grid != nil {
		grid := *s.Grid
		copied.Grid = &grid
	}
	if s.Trend != nil {
		trend := *s.Trend
		copied.Trend = &trend
	}
	if s.CounterTrend != nil {
		counterTrend := *s.CounterTrend
		copied.CounterTrend = &counterTrend
	}
	if s.Breakout != nil {
		breakout := *s.Breakout
		copied.Breakout = &breakout
	}

	return copied
}

// DefaultMediumGridParams is the documented substitute for a missing or
// invalid strategy configuration.
func DefaultMediumGridParams() StrategyParams {
	return StrategyParams{
		Type:              StrategyGrid,
		StopLossPercent:   3.00,
		TakeProfitPercent: 5.00,
		Grid: &GridStrategyParams{
			GridCount:          7,
			GridSpacingPercent: 1.50,
		},
	}
}
