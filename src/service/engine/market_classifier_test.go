package engine

import (
	"github.com/stretchr/testify/assert"
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"testing"
)

func makeCandles(closes []float64, volume float64) []model.Candle {
	candles := make([]model.Candle, 0)
	for i, close := range closes {
		candles = append(candles, model.Candle{
			Symbol:    "BTCUSDT",
			Timestamp: model.TimestampMilli(int64(i+1) * 60000),
			Open:      model.Price(close),
			High:      model.Price(close * 1.001),
			Low:       model.Price(close * 0.999),
			Close:     model.Price(close),
			Volume:    model.Volume(volume),
		})
	}

	return candles
}

func TestClassifyShortHistoryIsSideways(t *testing.T) {
	assertion := assert.New(t)

	builder := FeatureSnapshotBuilder{}
	classifier := MarketStateClassifier{}

	for count := 0; count < 20; count++ {
		closes := make([]float64, 0)
		for i := 0; i < count; i++ {
			closes = append(closes, 100.00+float64(i))
		}

		snapshot := builder.Build("BTCUSDT", makeCandles(closes, 1000.00))
		assertion.Equal(model.MarketStateSideways, classifier.Classify(snapshot))
	}
}

func TestClassifyIncreasingSeriesIsUptrend(t *testing.T) {
	assertion := assert.New(t)

	builder := FeatureSnapshotBuilder{}
	classifier := MarketStateClassifier{}

	closes := make([]float64, 0)
	for i := 0; i < 25; i++ {
		closes = append(closes, 100.00+float64(i)*0.20)
	}

	snapshot := builder.Build("BTCUSDT", makeCandles(closes, 1000.00))
	state := classifier.Classify(snapshot)

	assertion.Contains([]model.MarketState{model.MarketStateStrongUptrend, model.MarketStateUptrend}, state)
	assertion.False(state.IsDowntrend())
	assertion.NotEqual(model.MarketStateSideways, state)
}

func TestClassifyTrendBranchesOnVolatility(t *testing.T) {
	assertion := assert.New(t)

	classifier := MarketStateClassifier{}

	snapshot := model.FeatureSnapshot{
		CandleCount:    25,
		LastClose:      110.00,
		Sma20:          108.00,
		Sma50:          105.00,
		Sma200:         100.00,
		Rsi14:          65.00,
		BollingerUpper: 120.00,
		BollingerLower: 100.00,
		BollingerWidth: 0.10,
		Volatility:     0.60,
	}
	assertion.Equal(model.MarketStateStrongUptrend, classifier.Classify(snapshot))

	snapshot.Volatility = 0.30
	assertion.Equal(model.MarketStateUptrend, classifier.Classify(snapshot))

	snapshot.Sma20 = 100.00
	snapshot.Sma50 = 105.00
	snapshot.Sma200 = 108.00
	snapshot.Rsi14 = 30.00
	snapshot.LastClose = 101.00
	assertion.Equal(model.MarketStateDowntrend, classifier.Classify(snapshot))
}

func TestClassifyBreakoutNeedsVolume(t *testing.T) {
	assertion := assert.New(t)

	classifier := MarketStateClassifier{}

	snapshot := model.FeatureSnapshot{
		CandleCount:    30,
		LastClose:      125.00,
		Sma20:          108.00,
		Sma50:          105.00,
		Sma200:         100.00,
		Rsi14:          75.00,
		BollingerUpper: 120.00,
		BollingerLower: 100.00,
		BollingerWidth: 0.18,
		Volatility:     0.40,
		AverageVolume:  1000.00,
		LastVolume:     2000.00,
	}
	assertion.Equal(model.MarketStateBreakingOut, classifier.Classify(snapshot))

	// Same price action without the volume expansion is a plain trend.
	snapshot.LastVolume = 1000.00
	assertion.Equal(model.MarketStateUptrend, classifier.Classify(snapshot))
}

func TestClassifyVolatileAndNarrowBands(t *testing.T) {
	assertion := assert.New(t)

	classifier := MarketStateClassifier{}

	snapshot := model.FeatureSnapshot{
		CandleCount:    40,
		LastClose:      100.00,
		Sma20:          101.00,
		Sma50:          100.00,
		Sma200:         102.00,
		Rsi14:          50.00,
		BollingerUpper: 115.00,
		BollingerLower: 85.00,
		BollingerWidth: 0.30,
		Volatility:     0.80,
	}
	assertion.Equal(model.MarketStateVolatile, classifier.Classify(snapshot))

	snapshot.Volatility = 0.10
	snapshot.BollingerWidth = 0.02
	assertion.Equal(model.MarketStateSideways, classifier.Classify(snapshot))
}
