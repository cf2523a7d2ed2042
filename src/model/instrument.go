package model

const RiskLevelLow = "low"
const RiskLevelMedium = "medium"
const RiskLevelHigh = "high"

const GridModeFixed = "fixed"
const GridModeVolatility = "volatility"
const GridModeMarketState = "market_state"

type SymbolInterface interface {
	GetSymbol() string
}

// Instrument is the per-symbol engine configuration, stored in MySQL and
// cached in Redis.
type Instrument struct {
	Id                        int64   `json:"id"`
	Symbol                    string  `json:"symbol"`
	IsEnabled                 bool    `json:"isEnabled"`
	RiskLevel                 string  `json:"riskLevel"`
	GridMode                  string  `json:"gridMode"`
	GridMinWidthPercent       float64 `json:"gridMinWidthPercent"`
	GridMaxWidthPercent       float64 `json:"gridMaxWidthPercent"`
	GridUpdateIntervalSeconds int64   `json:"gridUpdateIntervalSeconds"`
	ForcedTradeIntervalHours  float64 `json:"forcedTradeIntervalHours"`
	MinConfidence             float64 `json:"minConfidence"`
	HistoryCandleLimit        int64   `json:"historyCandleLimit"`
}

func (i Instrument) GetSymbol() string {
	return i.Symbol
}

// GridCount derives the ladder size from the risk level.
func (i Instrument) GridCount() int {
	switch i.RiskLevel {
	case RiskLevelLow:
		return 5
	case RiskLevelHigh:
		return 10
	}

	return 7
}

func (i Instrument) FixedHalfWidthPercent() float64 {
	switch i.RiskLevel {
	case RiskLevelLow:
		return 2.00
	case RiskLevelHigh:
		return 5.00
	}

	return 3.00
}

type DummySymbol struct {
	Symbol string
}

func (d DummySymbol) GetSymbol() string {
	return d.Symbol
}
