package engine

import (
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"math"
)

// TechnicalAnalyzer casts an indicator-only vote independent of learning
// state. Five heuristics each contribute at most one bullish or bearish
// vote, two net votes one way decide the action.
type TechnicalAnalyzer struct {
}

func (t *TechnicalAnalyzer) Vote(snapshot model.FeatureSnapshot, candles []model.Candle) model.Action {
	bullish := 0
	bearish := 0

	switch t.PatternVote(candles) {
	case 1:
		bullish++
	case -1:
		bearish++
	}

	if snapshot.MacdHistogram > 0.00 {
		bullish++
	} else if snapshot.MacdHistogram < 0.00 {
		bearish++
	}

	if snapshot.Rsi14 < 30.00 {
		bullish++
	} else if snapshot.Rsi14 > 70.00 {
		bearish++
	}

	if snapshot.Sma20 > 0.00 && snapshot.Sma50 > 0.00 {
		if snapshot.Sma20 > snapshot.Sma50 {
			bullish++
		} else if snapshot.Sma20 < snapshot.Sma50 {
			bearish++
		}
	}

	if snapshot.BollingerLower > 0.00 && snapshot.LastClose <= snapshot.BollingerLower*1.005 {
		bullish++
	} else if snapshot.BollingerUpper > 0.00 && snapshot.LastClose >= snapshot.BollingerUpper*0.995 {
		bearish++
	}

	if bullish-bearish >= 2 {
		return model.ActionBuy
	}

	if bearish-bullish >= 2 {
		return model.ActionSell
	}

	return model.ActionHold
}

// PatternVote reads the last two candles for a reversal shape, engulfing
// bodies first, then wick-dominated bars. At most one vote either way.
func (t *TechnicalAnalyzer) PatternVote(candles []model.Candle) int {
	if len(candles) < 2 {
		return 0
	}

	previous := candles[len(candles)-2]
	last := candles[len(candles)-1]

	if previous.IsNegative() && last.IsPositive() &&
		last.Open.Value() <= previous.Close.Value() &&
		last.Close.Value() >= previous.Open.Value() {
		return 1
	}

	if previous.IsPositive() && last.IsNegative() &&
		last.Open.Value() >= previous.Close.Value() &&
		last.Close.Value() <= previous.Open.Value() {
		return -1
	}

	body := math.Abs(last.Close.Value() - last.Open.Value())
	lowerWick := math.Min(last.Open.Value(), last.Close.Value()) - last.Low.Value()
	upperWick := last.High.Value() - math.Max(last.Open.Value(), last.Close.Value())

	// Hammer and shooting star, the dominant wick has to dwarf the body.
	if lowerWick > body*2.00 && upperWick < body {
		return 1
	}

	if upperWick > body*2.00 && lowerWick < body {
		return -1
	}

	return 0
}

// ShortTermForecast leans on the regime label first, then RSI and MACD.
func (t *TechnicalAnalyzer) ShortTermForecast(snapshot model.FeatureSnapshot, marketState model.MarketState) model.Forecast {
	if marketState.IsUptrend() {
		return model.ForecastUp
	}

	if marketState.IsDowntrend() {
		return model.ForecastDown
	}

	if snapshot.Rsi14 < 30.00 && snapshot.MacdHistogram > 0.00 {
		return model.ForecastUp
	}

	if snapshot.Rsi14 > 70.00 && snapshot.MacdHistogram < 0.00 {
		return model.ForecastDown
	}

	return model.ForecastSideways
}

// LongTermForecast compares the last close to the 200-period average.
func (t *TechnicalAnalyzer) LongTermForecast(snapshot model.FeatureSnapshot) model.Forecast {
	if snapshot.Sma200 == 0.00 {
		return model.ForecastSideways
	}

	ratio := snapshot.LastClose / snapshot.Sma200

	if ratio > 1.02 {
		return model.ForecastUp
	}

	if ratio < 0.98 {
		return model.ForecastDown
	}

	return model.ForecastSideways
}
