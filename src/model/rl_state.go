package model

import "fmt"

// RLState is the discretized learning state. It is used only as a lookup
// key, equality is structural.
type RLState struct {
	MarketState      MarketState `json:"marketState"`
	VolatilityBucket int         `json:"volatilityBucket"`
	TrendBucket      int         `json:"trendBucket"`
	RsiRounded       int         `json:"rsiRounded"`
	MacdSign         int         `json:"macdSign"`
	VolumeSign       int         `json:"volumeSign"`
	LastAction       Action      `json:"lastAction"`

	// Raw values kept alongside the buckets for strategy derivation,
	// they are not part of the key.
	Volatility    float64 `json:"volatility"`
	TrendStrength float64 `json:"trendStrength"`
	Rsi           float64 `json:"rsi"`
}

func (s *RLState) Key() string {
	return fmt.Sprintf(
		"%s|%d|%d|%d|%d|%d|%s",
		s.MarketState,
		s.VolatilityBucket,
		s.TrendBucket,
		s.RsiRounded,
		s.MacdSign,
		s.VolumeSign,
		s.LastAction,
	)
}

// PolicyEntry is the derived view over one QTable row. Every policy entry
// has a QTable row behind it, not the other way around.
type PolicyEntry struct {
	Action        Action         `json:"action"`
	Strategy      StrategyParams `json:"strategy"`
	ExpectedValue float64        `json:"expectedValue"`
	VisitCount    int64          `json:"visitCount"`
	UpdatedAt     int64          `json:"updatedAt"`
}

type ActionRecord struct {
	StateKey     string  `json:"stateKey"`
	Action       Action  `json:"action"`
	NextStateKey string  `json:"nextStateKey"`
	Reward       float64 `json:"reward"`
	Timestamp    int64   `json:"timestamp"`
}
