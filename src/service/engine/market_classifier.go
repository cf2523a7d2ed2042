package engine

import (
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
)

// MarketStateClassifier maps a feature snapshot to one of ten regime
// labels. Pure function, first matching rule wins.
type MarketStateClassifier struct {
}

func (m *MarketStateClassifier) Classify(snapshot model.FeatureSnapshot) model.MarketState {
	if !snapshot.HasMinimumHistory() {
		return model.MarketStateSideways
	}

	if snapshot.LastClose > snapshot.BollingerUpper && snapshot.IsHighVolume() {
		return model.MarketStateBreakingOut
	}

	if snapshot.LastClose < snapshot.BollingerLower && snapshot.IsHighVolume() {
		return model.MarketStateBreakingDown
	}

	if snapshot.Volatility > 0.70 {
		return model.MarketStateVolatile
	}

	// Short histories make SMA50 and SMA200 collapse onto the same window,
	// the trend branches tolerate equality there.
	if snapshot.Sma20 > snapshot.Sma50 && snapshot.Sma50 >= snapshot.Sma200 && snapshot.Rsi14 > 60.00 {
		if snapshot.Volatility > 0.50 {
			return model.MarketStateStrongUptrend
		}

		return model.MarketStateUptrend
	}

	if snapshot.Sma20 < snapshot.Sma50 && snapshot.Sma50 <= snapshot.Sma200 && snapshot.Rsi14 < 40.00 {
		if snapshot.Volatility > 0.50 {
			return model.MarketStateStrongDowntrend
		}

		return model.MarketStateDowntrend
	}

	if snapshot.BollingerWidth < 0.03 {
		return model.MarketStateSideways
	}

	if snapshot.Sma20 > snapshot.Sma50 {
		return model.MarketStateWeakUptrend
	}

	if snapshot.Sma20 < snapshot.Sma50 {
		return model.MarketStateWeakDowntrend
	}

	return model.MarketStateSideways
}
