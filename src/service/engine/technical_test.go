package engine

import (
	"github.com/stretchr/testify/assert"
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"testing"
)

func twoCandles(previousOpen float64, previousClose float64, lastOpen float64, lastClose float64, lastHigh float64, lastLow float64) []model.Candle {
	return []model.Candle{
		{
			Symbol: "BTCUSDT",
			Open:   model.Price(previousOpen),
			High:   model.Price(previousOpen + 0.10),
			Low:    model.Price(previousClose - 0.10),
			Close:  model.Price(previousClose),
		},
		{
			Symbol: "BTCUSDT",
			Open:   model.Price(lastOpen),
			High:   model.Price(lastHigh),
			Low:    model.Price(lastLow),
			Close:  model.Price(lastClose),
		},
	}
}

func TestVoteMajorityFromIndicators(t *testing.T) {
	assertion := assert.New(t)

	analyzer := TechnicalAnalyzer{}

	// MACD up, RSI oversold and the SMA cross vote bullish, the flat
	// candles contribute no pattern.
	assertion.Equal(model.ActionBuy, analyzer.Vote(bullishSnapshot(), flatCandles(60)))
	assertion.Equal(model.ActionHold, analyzer.Vote(neutralSnapshot(), flatCandles(60)))
}

func TestPatternVoteEngulfing(t *testing.T) {
	assertion := assert.New(t)

	analyzer := TechnicalAnalyzer{}

	// Bearish bar fully swallowed by a bullish one.
	bullish := twoCandles(102.00, 100.00, 99.50, 102.50, 102.60, 99.40)
	assertion.Equal(1, analyzer.PatternVote(bullish))

	// And the mirror.
	bearish := twoCandles(100.00, 102.00, 102.50, 99.50, 102.60, 99.40)
	assertion.Equal(-1, analyzer.PatternVote(bearish))

	assertion.Equal(0, analyzer.PatternVote(flatCandles(60)))
	assertion.Equal(0, analyzer.PatternVote(flatCandles(1)))
}

func TestPatternVoteWicks(t *testing.T) {
	assertion := assert.New(t)

	analyzer := TechnicalAnalyzer{}

	// Hammer: long lower wick, small body near the top of the range.
	hammer := twoCandles(100.00, 100.20, 100.00, 100.50, 100.60, 98.00)
	assertion.Equal(1, analyzer.PatternVote(hammer))

	// Shooting star: long upper wick, small body near the bottom.
	star := twoCandles(100.00, 100.20, 100.30, 100.10, 102.50, 100.05)
	assertion.Equal(-1, analyzer.PatternVote(star))
}

func TestPatternVoteTipsTheFusion(t *testing.T) {
	assertion := assert.New(t)

	analyzer := TechnicalAnalyzer{}

	// Only MACD votes bullish, one vote short of an action.
	snapshot := model.FeatureSnapshot{
		Symbol:        "BTCUSDT",
		CandleCount:   60,
		LastClose:     100.00,
		Rsi14:         50.00,
		MacdHistogram: 0.50,
	}

	assertion.Equal(model.ActionHold, analyzer.Vote(snapshot, flatCandles(60)))

	// A bullish engulfing bar supplies the second vote.
	engulfing := twoCandles(102.00, 100.00, 99.50, 102.50, 102.60, 99.40)
	assertion.Equal(model.ActionBuy, analyzer.Vote(snapshot, engulfing))
}

func TestShortTermForecast(t *testing.T) {
	assertion := assert.New(t)

	analyzer := TechnicalAnalyzer{}

	assertion.Equal(model.ForecastUp, analyzer.ShortTermForecast(neutralSnapshot(), model.MarketStateStrongUptrend))
	assertion.Equal(model.ForecastDown, analyzer.ShortTermForecast(neutralSnapshot(), model.MarketStateWeakDowntrend))

	oversold := neutralSnapshot()
	oversold.Rsi14 = 25.00
	oversold.MacdHistogram = 0.30
	assertion.Equal(model.ForecastUp, analyzer.ShortTermForecast(oversold, model.MarketStateSideways))

	assertion.Equal(model.ForecastSideways, analyzer.ShortTermForecast(neutralSnapshot(), model.MarketStateSideways))
}

func TestLongTermForecast(t *testing.T) {
	assertion := assert.New(t)

	analyzer := TechnicalAnalyzer{}

	above := neutralSnapshot()
	above.LastClose = 103.00
	assertion.Equal(model.ForecastUp, analyzer.LongTermForecast(above))

	below := neutralSnapshot()
	below.LastClose = 97.00
	assertion.Equal(model.ForecastDown, analyzer.LongTermForecast(below))

	assertion.Equal(model.ForecastSideways, analyzer.LongTermForecast(neutralSnapshot()))

	noHistory := neutralSnapshot()
	noHistory.Sma200 = 0.00
	assertion.Equal(model.ForecastSideways, analyzer.LongTermForecast(noHistory))
}
