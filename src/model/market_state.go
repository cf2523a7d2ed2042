package model

type MarketState string

const (
	MarketStateStrongUptrend   MarketState = "STRONG_UPTREND"
	MarketStateUptrend         MarketState = "UPTREND"
	MarketStateWeakUptrend     MarketState = "WEAK_UPTREND"
	MarketStateSideways        MarketState = "SIDEWAYS"
	MarketStateWeakDowntrend   MarketState = "WEAK_DOWNTREND"
	MarketStateDowntrend       MarketState = "DOWNTREND"
	MarketStateStrongDowntrend MarketState = "STRONG_DOWNTREND"
	MarketStateVolatile        MarketState = "VOLATILE"
	MarketStateBreakingOut     MarketState = "BREAKING_OUT"
	MarketStateBreakingDown    MarketState = "BREAKING_DOWN"
)

func (m MarketState) IsTrending() bool {
	switch m {
	case MarketStateStrongUptrend, MarketStateUptrend, MarketStateStrongDowntrend, MarketStateDowntrend:
		return true
	}

	return false
}

func (m MarketState) IsUptrend() bool {
	switch m {
	case MarketStateStrongUptrend, MarketStateUptrend, MarketStateWeakUptrend, MarketStateBreakingOut:
		return true
	}

	return false
}

func (m MarketState) IsDowntrend() bool {
	switch m {
	case MarketStateStrongDowntrend, MarketStateDowntrend, MarketStateWeakDowntrend, MarketStateBreakingDown:
		return true
	}

	return false
}

func (m MarketState) IsBreakout() bool {
	return m == MarketStateBreakingOut || m == MarketStateBreakingDown
}

// VolatilityFactor scales genetic grid parameter ranges per market regime.
func (m MarketState) VolatilityFactor() float64 {
	switch m {
	case MarketStateStrongUptrend, MarketStateStrongDowntrend:
		return 2.00
	case MarketStateVolatile:
		return 2.50
	case MarketStateUptrend, MarketStateDowntrend:
		return 1.50
	case MarketStateWeakUptrend, MarketStateWeakDowntrend:
		return 1.20
	case MarketStateBreakingOut, MarketStateBreakingDown:
		return 1.80
	}

	return 1.00
}
